// Package iam holds identity concerns shared by the auth, user and apikey
// packages.
package iam

import (
	"net/http"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

var ErrRegistry = errx.NewRegistry("IAM")

var CodeUnauthorized = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Unauthorized")

func ErrUnauthorized() *errx.Error {
	return ErrRegistry.New(CodeUnauthorized)
}

// AuthFrom returns the caller set by one of the auth middlewares.
func AuthFrom(c *fiber.Ctx) (*kernel.AuthContext, error) {
	ac, ok := c.Locals(kernel.LocalsAuthKey).(*kernel.AuthContext)
	if !ok || !ac.IsValid() {
		return nil, ErrUnauthorized()
	}
	return ac, nil
}
