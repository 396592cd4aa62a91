// Package apikey manages the API tokens that authorize predict calls.
// Only the SHA-256 hash of a token is stored; the plaintext is shown once.
package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/kernel"
)

const (
	DefaultPrefix = "sa_"
	secretBytes   = 32
	// visiblePrefix is how many characters of the token are kept for display.
	visiblePrefix = 10
)

type APIKey struct {
	ID          string        `db:"id" json:"id"`
	UserID      kernel.UserID `db:"user_id" json:"userId"`
	Description string        `db:"description" json:"description"`
	KeyHash     string        `db:"key_hash" json:"-"`
	KeyPrefix   string        `db:"key_prefix" json:"keyPrefix"`
	IsActive    bool          `db:"is_active" json:"isActive"`
	LastUsedAt  *time.Time    `db:"last_used_at" json:"lastUsedAt,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
}

type CreateRequest struct {
	Description string `json:"description"`
}

// CreateResponse carries the plaintext token. It is returned only once.
type CreateResponse struct {
	APIKey
	Token string `json:"token"`
}

// Generate returns a new random token with the given prefix.
func Generate(prefix string) (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errx.Wrap(err, "failed to generate api token", errx.TypeInternal)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// Hash is the stored form of a token.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// DisplayPrefix is the part of a token safe to show in listings.
func DisplayPrefix(token string) string {
	if len(token) <= visiblePrefix {
		return token
	}
	return token[:visiblePrefix]
}

// ValidFormat checks the prefix and length before any lookup.
func ValidFormat(token, prefix string) bool {
	return strings.HasPrefix(token, prefix) && len(token) > len(prefix)+16
}

var ErrRegistry = errx.NewRegistry("APIKEY")

var (
	CodeNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "API token not found")
	CodeInvalid  = ErrRegistry.Register("INVALID", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid API token")
	CodeMissing  = ErrRegistry.Register("MISSING", errx.TypeAuthorization, http.StatusUnauthorized, "API token header is missing")
)

func ErrNotFound() *errx.Error { return ErrRegistry.New(CodeNotFound) }

func ErrInvalid() *errx.Error { return ErrRegistry.New(CodeInvalid) }

func ErrMissing() *errx.Error { return ErrRegistry.New(CodeMissing) }
