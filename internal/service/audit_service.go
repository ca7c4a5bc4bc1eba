package service

import (
	"context"
	"fmt"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"
)

type requestMetaKey struct{}

type requestMeta struct {
	ip        string
	userAgent string
}

// WithRequestMeta attaches the client IP and User-Agent used by audit entries.
func WithRequestMeta(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, requestMeta{ip: ip, userAgent: userAgent})
}

// AuditService handles audit logging
type AuditService struct {
	repo AuditStore
}

// NewAuditService creates a new audit service. A nil store disables auditing.
func NewAuditService(repo AuditStore) *AuditService {
	return &AuditService{repo: repo}
}

// Log creates a new audit log entry. Failures are logged and swallowed.
func (s *AuditService) Log(ctx context.Context, userID int64, action, category string, details map[string]interface{}) {
	if s == nil || s.repo == nil {
		return
	}

	meta, _ := ctx.Value(requestMetaKey{}).(requestMeta)
	log := &domain.AuditLog{
		UserID:    userID,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        meta.ip,
		UserAgent: meta.userAgent,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		logger.WithContext(ctx).Error("failed to create audit log", "error", err, "action", action, "user_id", userID)
	}
}

// LogAuth logs an authentication action
func (s *AuditService) LogAuth(ctx context.Context, userID int64, action, username string) {
	s.Log(ctx, userID, action, domain.AuditCategoryAuth, map[string]interface{}{
		"username": username,
	})
}

// LogAccountDelete logs removal of an account and its todos
func (s *AuditService) LogAccountDelete(ctx context.Context, userID int64, username string) {
	s.Log(ctx, userID, domain.AuditActionAccountDelete, domain.AuditCategoryAccount, map[string]interface{}{
		"username": username,
	})
}

// MaxRecentActivity caps how many audit entries Recent returns.
const MaxRecentActivity = 50

// Recent returns the user's latest audit entries, newest first.
func (s *AuditService) Recent(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	if s == nil || s.repo == nil {
		return []*domain.AuditLog{}, nil
	}
	if limit <= 0 || limit > MaxRecentActivity {
		limit = MaxRecentActivity
	}
	logs, err := s.repo.GetByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent audit logs: %w", err)
	}
	if logs == nil {
		logs = []*domain.AuditLog{}
	}
	return logs, nil
}
