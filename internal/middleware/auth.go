package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/FotoFacturas/revamp-sub000/internal/identity"
)

const userLocal = "user"

// Authenticator resolves a bearer token into its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (identity.User, error)
}

// BearerAuth requires an Authorization: Bearer header.
func BearerAuth(authn Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		return authenticate(c, authn, strings.TrimSpace(authz[len("Bearer "):]))
	}
}

// LegacyTokenAuth reads the token the way the legacy API expects it: from the
// token query parameter, or from the token field of a JSON body.
func LegacyTokenAuth(authn Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			var body struct {
				Token string `json:"token"`
			}
			_ = c.BodyParser(&body)
			token = body.Token
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token requerido")
		}
		return authenticate(c, authn, token)
	}
}

func authenticate(c *fiber.Ctx, authn Authenticator, token string) error {
	user, err := authn.Authenticate(c.UserContext(), token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}
	c.Locals(userLocal, user)
	return c.Next()
}

// CurrentUser returns the user resolved by BearerAuth or LegacyTokenAuth.
func CurrentUser(c *fiber.Ctx) (identity.User, bool) {
	user, ok := c.Locals(userLocal).(identity.User)
	return user, ok
}
