package auth

import (
	"strings"

	"github.com/Abraxas-365/superagent/pkg/iam"
	"github.com/Abraxas-365/superagent/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

type TokenMiddleware struct {
	tokenService TokenService
}

func NewAuthMiddleware(tokenService TokenService) *TokenMiddleware {
	return &TokenMiddleware{tokenService: tokenService}
}

// Authenticate accepts "Authorization: Bearer <jwt>" or an access_token
// cookie and stores the caller in locals.
func (am *TokenMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearer(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Cookies("access_token")
		}
		if token == "" {
			return iam.ErrUnauthorized()
		}

		claims, err := am.tokenService.ValidateAccessToken(token)
		if err != nil {
			return err
		}

		c.Locals(kernel.LocalsAuthKey, &kernel.AuthContext{
			UserID: claims.UserID,
			Email:  claims.Email,
			Name:   claims.Name,
		})
		return c.Next()
	}
}

func bearer(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
