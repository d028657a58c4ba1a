package usecase

import (
	"context"

	"github.com/iho/dochub/internal/domain"
)

// Auditor records privileged operations. Implementations must never block
// or fail the caller; the acting actor is taken from the session in ctx.
type Auditor interface {
	Audit(ctx context.Context, operation string, opts ...AuditOption)
}

// AuditOption fills optional audit columns.
type AuditOption func(*domain.AuditLog)

// WithDocument sets the document id.
func WithDocument(id string) AuditOption {
	return func(l *domain.AuditLog) { l.DocumentID = id }
}

// WithGroup sets the group id.
func WithGroup(id string) AuditOption {
	return func(l *domain.AuditLog) { l.GroupID = id }
}

// WithOwner sets the owner id.
func WithOwner(id string) AuditOption {
	return func(l *domain.AuditLog) { l.OwnerID = id }
}

// WithRole sets the role id.
func WithRole(id string) AuditOption {
	return func(l *domain.AuditLog) { l.RoleID = id }
}

// WithLog sets the free-form detail.
func WithLog(msg string) AuditOption {
	return func(l *domain.AuditLog) { l.Log = msg }
}

// WithActor overrides the actor id, for operations performed before a session exists.
func WithActor(id string) AuditOption {
	return func(l *domain.AuditLog) { l.ActorID = id }
}

// NewAuditLog builds an audit entry for operation from ctx and opts.
func NewAuditLog(ctx context.Context, operation string, opts ...AuditOption) *domain.AuditLog {
	entry := &domain.AuditLog{Operation: operation}
	if session, ok := domain.SessionFromContext(ctx); ok {
		entry.ActorID = session.ActorID
	}
	for _, opt := range opts {
		opt(entry)
	}
	return entry
}

// NopAuditor discards audit entries.
type NopAuditor struct{}

func (NopAuditor) Audit(context.Context, string, ...AuditOption) {}

// AuditUseCase serves audit log queries.
type AuditUseCase struct {
	auditRepo AuditRepository
}

// NewAuditUseCase creates a new AuditUseCase.
func NewAuditUseCase(auditRepo AuditRepository) *AuditUseCase {
	return &AuditUseCase{auditRepo: auditRepo}
}

// ListAuditLogs returns audit entries matching filter, newest first.
func (uc *AuditUseCase) ListAuditLogs(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.auditRepo.List(ctx, filter)
}
