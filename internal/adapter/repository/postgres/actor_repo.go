package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/dochub/internal/domain"
)

const actorColumns = `id, username, hashed_password, role_id, is_locked, created_at, updated_at`

// ActorRepository implements usecase.ActorRepository.
type ActorRepository struct {
	db DB
}

// NewActorRepository creates a new ActorRepository.
func NewActorRepository(db DB) *ActorRepository {
	return &ActorRepository{db: db}
}

// Create inserts a new actor. Duplicate usernames and unknown roles are validation errors.
func (r *ActorRepository) Create(ctx context.Context, actor *domain.Actor) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO actor (id, username, hashed_password, role_id, is_locked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		actor.ID,
		actor.Username,
		actor.HashedPassword,
		actor.RoleID,
		actor.IsLocked,
		actor.CreatedAt,
		actor.UpdatedAt,
	)

	return mapWriteError(err, "actor")
}

// GetByID retrieves an actor by ID.
func (r *ActorRepository) GetByID(ctx context.Context, id string) (*domain.Actor, error) {
	return r.getOne(ctx, `SELECT `+actorColumns+` FROM actor WHERE id = $1`, id)
}

// GetByUsername retrieves an actor by username, case-insensitively.
func (r *ActorRepository) GetByUsername(ctx context.Context, username string) (*domain.Actor, error) {
	return r.getOne(ctx, `SELECT `+actorColumns+` FROM actor WHERE lower(username) = lower($1)`, username)
}

// SetLocked locks or unlocks an actor.
func (r *ActorRepository) SetLocked(ctx context.Context, id string, locked bool, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE actor SET is_locked = $2, updated_at = $3 WHERE id = $1`,
		id, locked, updatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrActorNotFound
	}
	return nil
}

// List returns actors ordered by username.
func (r *ActorRepository) List(ctx context.Context, limit, offset int) ([]*domain.Actor, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+actorColumns+` FROM actor ORDER BY username LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, scanActor)
}

func (r *ActorRepository) getOne(ctx context.Context, query, arg string) (*domain.Actor, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}

	actor, err := pgx.CollectExactlyOneRow(rows, scanActor)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrActorNotFound
	}
	return actor, err
}

func scanActor(row pgx.CollectableRow) (*domain.Actor, error) {
	var actor domain.Actor
	err := row.Scan(
		&actor.ID,
		&actor.Username,
		&actor.HashedPassword,
		&actor.RoleID,
		&actor.IsLocked,
		&actor.CreatedAt,
		&actor.UpdatedAt,
	)
	return &actor, err
}
