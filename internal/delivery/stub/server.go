// Package stub is a development backend implementing the admin API wire
// contract: seeded operator accounts, JWT access tokens and expiring OTP
// challenges. The console client cannot tell it apart from the real API.
package stub

import (
	"context"
	"log/slog"
	"net"
	"strconv"

	"console/config"
	"console/internal/delivery"
	"console/internal/delivery/middleware"
	"console/internal/domain/lifecycle"
	"console/internal/domain/service"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type stubServer struct {
	cfg    *config.Config
	logger *slog.Logger
	server *echo.Echo
}

// ServerParams holds dependencies for the stub server
type ServerParams struct {
	fx.In

	Lc      fx.Lifecycle
	Cfg     *config.Config
	Logger  *slog.Logger
	Handler *AuthHandler
	Tokens  service.TokenService
}

// NewStore builds the in-memory account store and seeds the configured
// admin operator.
func NewStore(cfg *config.Config, hasher service.PasswordHasher) (*store, error) {
	if cfg.Stub == nil {
		return nil, errors.New("stub backend requires a stub config section")
	}

	s := newStore(hasher, cfg.Stub.OTPTTL)
	if cfg.Stub.AdminEmail != "" {
		if err := s.seed(cfg.Stub.AdminEmail, cfg.Stub.AdminPassword, cfg.Stub.AdminName); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// NewServer creates the stub HTTP server
func NewServer(params ServerParams) (delivery.Delivery, error) {
	e := newRouter(params.Cfg, params.Logger, params.Handler, params.Tokens)

	srv := &stubServer{
		cfg:    params.Cfg,
		logger: params.Logger,
		server: e,
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// newRouter assembles the echo instance. Split out so tests can mount the
// same routes on an httptest server.
func newRouter(cfg *config.Config, logger *slog.Logger, handler *AuthHandler, tokens service.TokenService) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Recover first so panics are caught before any logging runs.
	e.Use(echomiddleware.Recover())

	requestIDMiddleware := middleware.NewRequestIDMiddleware(logger)
	e.Use(requestIDMiddleware.Process)

	loggerMiddleware := middleware.NewLoggerMiddleware(logger, cfg)
	e.Use(loggerMiddleware.Handle)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	authGroup := e.Group("/auth")
	authGroup.POST("/login", handler.Login)
	authGroup.POST("/signup", handler.Signup)
	authGroup.POST("/forgot-password", handler.ForgotPassword)
	authGroup.POST("/reset-password", handler.ResetPassword)

	protected := e.Group("/auth", bearerAuth(tokens))
	protected.POST("/logout", handler.Logout)
	protected.POST("/change-password", handler.ChangePassword)
	protected.POST("/verify-password-change", handler.VerifyPasswordChange)

	return e
}

// Serve starts the stub HTTP server
func (s *stubServer) Serve(ctx context.Context) error {
	hostPort := net.JoinHostPort("0.0.0.0", strconv.Itoa(s.cfg.Stub.Port))
	s.logger.Info("Starting stub backend server", slog.String("hostPort", hostPort))
	if err := s.server.Start(hostPort); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// stop gracefully shuts down the stub server
func (s *stubServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down stub backend server")

	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}
