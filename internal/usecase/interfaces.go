package usecase

import (
	"context"
	"io"
	"time"

	"github.com/iho/dochub/internal/domain"
)

// RoleRepository defines data access for roles and their scope rules.
type RoleRepository interface {
	Create(ctx context.Context, tx Transaction, role *domain.Role) error
	// Update rewrites the role row only. Returns domain.ErrRoleNotFound when missing.
	Update(ctx context.Context, tx Transaction, role *domain.Role) error
	// ReplaceScopeRules deletes every rule of the role and inserts rules.
	// Returns the new number of scope rules.
	ReplaceScopeRules(ctx context.Context, tx Transaction, roleID string, rules []domain.ScopeRule) (int, error)
	Delete(ctx context.Context, tx Transaction, id string) (int64, error)
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	// GetByName matches case-insensitively. Returns domain.ErrRoleNotFound when missing.
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
}

// ActorRepository defines data access for actors.
type ActorRepository interface {
	Create(ctx context.Context, actor *domain.Actor) error
	GetByID(ctx context.Context, id string) (*domain.Actor, error)
	// GetByUsername matches case-insensitively. Returns domain.ErrActorNotFound when missing.
	GetByUsername(ctx context.Context, username string) (*domain.Actor, error)
	SetLocked(ctx context.Context, id string, locked bool, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Actor, error)
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	OwnerID string
	GroupID string
}

// DocumentRepository defines data access for documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	Update(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Document, error)
	List(ctx context.Context, filter DocumentFilter, page domain.Pageable) ([]*domain.Document, int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// RoleCache caches resolved roles for the access resolver. A miss hands out
// a fill token; Set stores the role only while no Invalidate of that role has
// happened since the token was issued, so a read that raced an update never
// puts the old role back.
type RoleCache interface {
	Get(ctx context.Context, roleID string) (role *domain.Role, fill uint64, ok bool)
	Set(ctx context.Context, role *domain.Role, fill uint64)
	Invalidate(ctx context.Context, roleID string)
}

// IdempotencyInFlight is the value held by an idempotency key while its first request runs.
const IdempotencyInFlight = "processing"

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops key so the request can be retried.
	Release(ctx context.Context, key string) error
}

// TokenCodec signs and decodes bearer tokens.
type TokenCodec interface {
	Sign(session domain.SessionContext) (string, error)
	// Inspect returns the claims and nil for a valid token, the claims and
	// domain.ErrExpiredToken for an expired one, nil and domain.ErrInvalidToken otherwise.
	Inspect(raw string) (*domain.TokenClaims, error)
}

// URLSigner binds a download token to a set of document ids.
type URLSigner interface {
	SignDownload(token string, documentIDs []string) (string, error)
	// VerifyDownload returns the bound ids, or an error when the signature does not match token.
	VerifyDownload(token, signature string) ([]string, error)
}

// Stream is a prepared file response.
type Stream struct {
	ContentType string
	Filename    string
	WriteTo     func(w io.Writer) error
}

// Streamer prepares file streams for documents.
type Streamer interface {
	Prepare(docs []*domain.Document, archiveName string, archiveAlways bool) (*Stream, error)
}

// Observer records domain metrics.
type Observer interface {
	AccessChecked(scope domain.Scope, granted bool)
	TokenClassified(state string)
	TokenIssued()
	RoleMutated(operation string)
}

// NopObserver discards every observation.
type NopObserver struct{}

func (NopObserver) AccessChecked(domain.Scope, bool) {}
func (NopObserver) TokenClassified(string)           {}
func (NopObserver) TokenIssued()                     {}
func (NopObserver) RoleMutated(string)               {}
