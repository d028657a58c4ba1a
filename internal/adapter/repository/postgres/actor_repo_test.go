package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/dochub/internal/domain"
)

func TestActorRepositoryGetByUsername(t *testing.T) {
	mock := newMockPool(t)
	repo := NewActorRepository(mock)

	cols := []string{"id", "username", "hashed_password", "role_id", "is_locked", "created_at", "updated_at"}
	mock.ExpectQuery("WHERE lower\\(username\\) = lower").
		WithArgs("Admin").
		WillReturnRows(pgxmock.NewRows(cols).AddRow("a1", "admin", "hash", "r1", false, testTime, testTime))
	mock.ExpectQuery("WHERE lower\\(username\\) = lower").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows(cols))

	actor, err := repo.GetByUsername(context.Background(), "Admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor.ID != "a1" || actor.RoleID != "r1" {
		t.Fatalf("unexpected actor: %+v", actor)
	}

	if _, err := repo.GetByUsername(context.Background(), "ghost"); !errors.Is(err, domain.ErrActorNotFound) {
		t.Fatalf("expected ErrActorNotFound, got %v", err)
	}
	assertExpectations(t, mock)
}

func TestActorRepositorySetLockedMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewActorRepository(mock)

	mock.ExpectExec("UPDATE actor SET is_locked").
		WithArgs("nope", true, testTime).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.SetLocked(context.Background(), "nope", true, testTime); !errors.Is(err, domain.ErrActorNotFound) {
		t.Fatalf("expected ErrActorNotFound, got %v", err)
	}
}

func TestActorRepositoryCreateUnknownRole(t *testing.T) {
	mock := newMockPool(t)
	repo := NewActorRepository(mock)

	mock.ExpectExec("INSERT INTO actor").
		WithArgs("a1", "bob", "", "missing", false, time.Time{}, time.Time{}).
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})

	err := repo.Create(context.Background(), &domain.Actor{ID: "a1", Username: "bob", RoleID: "missing"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
