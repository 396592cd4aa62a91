package auth

import (
	"context"
	"time"

	"github.com/Abraxas-365/superagent/pkg/kernel"
)

// TokenService issues and validates access tokens.
type TokenService interface {
	GenerateAccessToken(userID kernel.UserID, email, name string) (string, time.Time, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
}

// AuditService records authentication events.
type AuditService interface {
	LogSignIn(ctx context.Context, userID kernel.UserID, email string, success bool, ip string)
	LogAccountCreated(ctx context.Context, userID kernel.UserID, email string, ip string)
}
