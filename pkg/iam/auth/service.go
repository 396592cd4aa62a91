package auth

import (
	"context"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/iam/user"
)

// Service signs users up and in.
type Service struct {
	users  user.Repository
	tokens TokenService
	audit  AuditService
}

func NewService(users user.Repository, tokens TokenService, audit AuditService) *Service {
	return &Service{users: users, tokens: tokens, audit: audit}
}

func (s *Service) SignUp(ctx context.Context, req SignUpRequest, ip string) (*user.User, error) {
	u, err := user.New(req.Email, req.Name, req.Password)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, *u); err != nil {
		return nil, err
	}
	s.audit.LogAccountCreated(ctx, u.ID, u.Email, ip)
	return u, nil
}

// SignIn checks the credentials and issues an access token. Unknown
// emails and wrong passwords fail the same way.
func (s *Service) SignIn(ctx context.Context, req SignInRequest, ip string) (*TokenResponse, error) {
	u, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errx.IsCode(err, user.ErrNotFound) {
			s.audit.LogSignIn(ctx, "", user.NormalizeEmail(req.Email), false, ip)
			return nil, ErrInvalidCredentials()
		}
		return nil, err
	}
	if !u.CheckPassword(req.Password) {
		s.audit.LogSignIn(ctx, u.ID, u.Email, false, ip)
		return nil, ErrInvalidCredentials()
	}

	token, expires, err := s.tokens.GenerateAccessToken(u.ID, u.Email, u.Name)
	if err != nil {
		return nil, err
	}
	s.audit.LogSignIn(ctx, u.ID, u.Email, true, ip)
	return &TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expires}, nil
}
