package stub

import (
	"net/http"
	"strings"

	"console/internal/domain/service"

	"github.com/labstack/echo/v4"
)

const claimsContextKey = "auth_claims"

// bearerAuth validates the Authorization header on protected routes and
// stores the claims in the echo context.
func bearerAuth(tokens service.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				return respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or malformed authorization header")
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				return respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired access token")
			}

			c.Set(claimsContextKey, claims)

			return next(c)
		}
	}
}

func claimsFrom(c echo.Context) (*service.Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*service.Claims)

	return claims, ok
}
