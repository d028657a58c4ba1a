package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iho/dochub/internal/domain"
)

// AuditRepository persists audit logs in document_audit.
type AuditRepository struct {
	db DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO document_audit (
			id, operation, actor_id, document_id, group_id, owner_id, role_id, log, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		log.ID,
		log.Operation,
		log.ActorID,
		log.DocumentID,
		log.GroupID,
		log.OwnerID,
		log.RoleID,
		log.Log,
		log.CreatedAt,
	)

	return err
}

// List retrieves audit logs with filtering, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, operation, actor_id, document_id, group_id, owner_id, role_id, log, created_at
		FROM document_audit
		WHERE 1=1`
	args := []any{}

	if filter.ActorID != "" {
		args = append(args, filter.ActorID)
		query += fmt.Sprintf(` AND actor_id = $%d`, len(args))
	}

	if filter.Operation != "" {
		args = append(args, filter.Operation)
		query += fmt.Sprintf(` AND operation = $%d`, len(args))
	}

	query += ` ORDER BY created_at DESC, id`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.AuditLog, error) {
		var log domain.AuditLog
		err := row.Scan(
			&log.ID,
			&log.Operation,
			&log.ActorID,
			&log.DocumentID,
			&log.GroupID,
			&log.OwnerID,
			&log.RoleID,
			&log.Log,
			&log.CreatedAt,
		)
		return &log, err
	})
}
