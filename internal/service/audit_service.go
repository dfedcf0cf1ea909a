package service

import (
	"context"
	"log/slog"
	"time"

	"go-storefront-admin/internal/model"
	"go-storefront-admin/internal/repository"
)

const (
	AuditSuccess = "success"
	AuditFailed  = "failed"
)

type AuditService struct {
	repo *repository.AuditRepository
}

func NewAuditService(repo *repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Log appends one audit entry. Failures are logged and never surface to
// the caller.
func (s *AuditService) Log(ctx context.Context, action string, actor model.AuditActor, status string, resource string, before any, after any, errText string) {
	if s == nil {
		return
	}

	entry := model.AuditEntry{
		Action:     action,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Actor:      actor,
		Status:     status,
		Resource:   resource,
		Before:     before,
		After:      after,
		Error:      errText,
	}

	if err := s.repo.Log(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("audit log failed", "action", action, "resource", resource, "error", err)
	}
}

// Record logs the outcome of an operation that returned err.
func (s *AuditService) Record(ctx context.Context, action string, actor model.AuditActor, resource string, after any, err error) {
	if err != nil {
		s.Log(ctx, action, actor, AuditFailed, resource, nil, nil, err.Error())
		return
	}
	s.Log(ctx, action, actor, AuditSuccess, resource, nil, after, "")
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	return s.repo.Query(ctx, query)
}
