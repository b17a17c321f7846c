package main

import (
	"context"
	"log/slog"
	"os"

	"console/config"
	"console/internal/delivery"
	consoledelivery "console/internal/delivery/console"
	"console/internal/infra/backend"
	"console/internal/infra/cookiejar"
	logs "console/internal/infra/log"
	"console/internal/usecase"
	"console/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
	Shutdowner fx.Shutdowner
}

func main() {
	fx.New(
		injectInfra(),
		injectUsecase(),
		injectDelivery(),
		fx.Invoke(
			wireForcedLogout,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		cookiejar.New,
		backend.New,
		backend.AsGateway,
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewFlowFactory,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				consoledelivery.New,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// wireForcedLogout makes any 401 from the backend tear the session down, so
// every screen lands back on the login prompt.
func wireForcedLogout(client *backend.Client, auth usecase.AuthUsecase) {
	client.SetUnauthorizedHook(func() {
		auth.Logout(context.Background())
	})
}

func startServer(ctx context.Context, params startServerParams) {
	for _, d := range params.Deliveries {
		go func() {
			defer func() {
				_ = params.Shutdowner.Shutdown()
			}()
			if err := d.Serve(ctx); err != nil {
				slog.Error("Console stopped with error", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
