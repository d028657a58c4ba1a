package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/usecase"
)

const documentColumns = `id, owner_id, group_id, type, description, original_name, storage_name,
	location, is_ciphered, size, created_at, updated_at`

// DocumentRepository implements usecase.DocumentRepository.
type DocumentRepository struct {
	db DB
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(db DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a document.
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO document (id, owner_id, group_id, type, description, original_name, storage_name,
			location, is_ciphered, size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		doc.ID, doc.OwnerID, doc.GroupID, string(doc.Type), doc.Description, doc.OriginalName,
		doc.StorageName, doc.Location, doc.IsCiphered, doc.Size, doc.CreatedAt, doc.UpdatedAt,
	)
	return mapWriteError(err, "document")
}

// Update rewrites every mutable column. created_at is never touched.
func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE document SET owner_id = $2, group_id = $3, type = $4, description = $5,
			original_name = $6, storage_name = $7, location = $8, is_ciphered = $9, size = $10,
			updated_at = $11
		WHERE id = $1`,
		doc.ID, doc.OwnerID, doc.GroupID, string(doc.Type), doc.Description, doc.OriginalName,
		doc.StorageName, doc.Location, doc.IsCiphered, doc.Size, doc.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// GetByID retrieves a document by ID.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	rows, err := r.db.Query(ctx, `SELECT `+documentColumns+` FROM document WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}

	doc, err := pgx.CollectExactlyOneRow(rows, scanDocument)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, err
}

// GetByIDs returns the documents found among ids. Missing ids are skipped.
func (r *DocumentRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+documentColumns+` FROM document WHERE id = ANY($1) ORDER BY created_at, id`, ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanDocument)
}

// List returns one page of documents matching filter, and the total count.
func (r *DocumentRepository) List(ctx context.Context, filter usecase.DocumentFilter, page domain.Pageable) ([]*domain.Document, int64, error) {
	where, args := documentWhere(filter)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM document`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.Limit(), page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM document%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		documentColumns, where, documentOrder(page.Sort), len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	docs, err := pgx.CollectRows(rows, scanDocument)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// Delete removes a document and reports the number of deleted rows.
func (r *DocumentRepository) Delete(ctx context.Context, id string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM document WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteAll removes every document.
func (r *DocumentRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM document`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func documentWhere(filter usecase.DocumentFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		conds = append(conds, fmt.Sprintf("group_id = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// documentOrder builds the ORDER BY clause. Only whitelisted columns are
// used; id always breaks ties so paging is stable.
func documentOrder(sorts []domain.Sort) string {
	allowed := make(map[string]bool, len(domain.DocumentSortFields))
	for _, column := range domain.DocumentSortFields {
		allowed[column] = true
	}

	parts := make([]string, 0, len(sorts)+1)
	for _, s := range sorts {
		if !allowed[s.Field] || s.Field == "id" {
			continue
		}
		dir := "ASC"
		if s.Direction == domain.SortDesc {
			dir = "DESC"
		}
		parts = append(parts, s.Field+" "+dir)
	}
	if len(parts) == 0 {
		parts = append(parts, "created_at ASC")
	}
	return strings.Join(append(parts, "id ASC"), ", ")
}

func scanDocument(row pgx.CollectableRow) (*domain.Document, error) {
	var (
		doc     domain.Document
		docType string
	)
	err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.GroupID,
		&docType,
		&doc.Description,
		&doc.OriginalName,
		&doc.StorageName,
		&doc.Location,
		&doc.IsCiphered,
		&doc.Size,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	doc.Type = domain.DocumentType(docType)
	return &doc, err
}
