package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type retryCounter struct {
	codes []string
}

func (c *retryCounter) TxRetried(code string) {
	c.codes = append(c.codes, code)
}

func newTestRetrier(maxRetries int, observer RetryObserver) *Retrier {
	return NewRetrier(zerolog.Nop(), RetrierConfig{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		MaxElapsedTime:  time.Second,
		Observer:        observer,
	})
}

func TestRetrierRetriesOnRetryableError(t *testing.T) {
	counter := &retryCounter{}
	r := newTestRetrier(2, counter)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return &pgconn.PgError{Code: pgErrSerializationFailure}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if len(counter.codes) != 1 || counter.codes[0] != pgErrSerializationFailure {
		t.Fatalf("unexpected observed retries %v", counter.codes)
	}
}

func TestRetrierGivesUpAfterMaxRetries(t *testing.T) {
	r := newTestRetrier(2, nil)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return &pgconn.PgError{Code: pgErrDeadlock}
	})

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrDeadlock {
		t.Fatalf("expected deadlock error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	counter := &retryCounter{}
	r := newTestRetrier(3, counter)
	attempts := 0
	permanentErr := errors.New("permanent")

	err := r.Retry(context.Background(), func() error {
		attempts++
		return permanentErr
	})

	if !errors.Is(err, permanentErr) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
	if len(counter.codes) != 0 {
		t.Fatalf("permanent errors must not be observed as retries: %v", counter.codes)
	}
}

func TestRetrierStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := newTestRetrier(5, nil)

	attempts := 0
	err := r.Retry(ctx, func() error {
		attempts++
		cancel()
		return &pgconn.PgError{Code: pgErrSerializationFailure}
	})

	if err == nil {
		t.Fatal("expected an error after cancellation")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestNewRetrierAppliesDefaults(t *testing.T) {
	r := NewRetrier(zerolog.Nop(), RetrierConfig{})
	if r.cfg.MaxRetries != DefaultRetrierConfig().MaxRetries {
		t.Fatalf("expected default max retries, got %d", r.cfg.MaxRetries)
	}
	if r.cfg.InitialInterval <= 0 || r.cfg.MaxInterval <= 0 || r.cfg.MaxElapsedTime <= 0 {
		t.Fatalf("expected default intervals, got %+v", r.cfg)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadlock", &pgconn.PgError{Code: pgErrDeadlock}, true},
		{"serialization", &pgconn.PgError{Code: pgErrSerializationFailure}, true},
		{"unique violation", &pgconn.PgError{Code: pgErrUniqueViolation}, false},
		{"generic", errors.New("other"), false},
	}

	for _, tt := range tests {
		if got := isRetryableError(tt.err); got != tt.want {
			t.Fatalf("%s: isRetryableError = %v, want %v", tt.name, got, tt.want)
		}
	}
}
