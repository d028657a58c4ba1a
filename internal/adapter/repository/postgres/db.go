package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/usecase"
)

// PostgreSQL error codes translated into domain errors.
const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// snapshotTx is used for reads that must see a role and its rules consistently.
var snapshotTx = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

func pgxTx(tx usecase.Transaction) pgx.Tx {
	return tx.(*Tx).PgxTx()
}

// readSnapshot runs fn inside a read-only repeatable-read transaction.
func readSnapshot(ctx context.Context, db DB, fn func(q pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, snapshotTx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// mapWriteError turns constraint violations into validation errors.
func mapWriteError(err error, what string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return fmt.Errorf("%w: %s already exists", domain.ErrValidation, what)
		case pgErrForeignKeyViolation:
			return fmt.Errorf("%w: %s violates a reference constraint", domain.ErrValidation, what)
		}
	}
	return err
}
