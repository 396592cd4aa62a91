package authinfra

import (
	"context"
	"time"

	"github.com/Abraxas-365/superagent/pkg/kernel"
	"github.com/Abraxas-365/superagent/pkg/logx"
)

// LogxAuditService implements auth.AuditService as structured log lines.
type LogxAuditService struct{}

func NewLogxAuditService() *LogxAuditService {
	return &LogxAuditService{}
}

func (s *LogxAuditService) LogSignIn(_ context.Context, userID kernel.UserID, email string, success bool, ip string) {
	entry := logx.WithFields(logx.Fields{
		"audit_event": "sign_in",
		"user_id":     userID,
		"email":       email,
		"success":     success,
		"ip":          ip,
		"timestamp":   time.Now(),
	})
	if success {
		entry.Info("Audit: sign in")
		return
	}
	entry.Warn("Audit: sign in rejected")
}

func (s *LogxAuditService) LogAccountCreated(_ context.Context, userID kernel.UserID, email string, ip string) {
	logx.WithFields(logx.Fields{
		"audit_event": "account_created",
		"user_id":     userID,
		"email":       email,
		"ip":          ip,
		"timestamp":   time.Now(),
	}).Info("Audit: account created")
}
