package auditlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/usecase"
)

// Recorder receives audit pipeline metrics.
type Recorder interface {
	AuditRecorded(status string)
	AuditQueued(depth int)
}

// Writer is an asynchronous usecase.Auditor. Entries are queued on a bounded
// buffer and persisted by a single worker; a full buffer drops the entry.
type Writer struct {
	repo         usecase.AuditRepository
	logger       zerolog.Logger
	recorder     Recorder
	queue        chan *domain.AuditLog
	writeTimeout time.Duration
	now          func() time.Time
}

// Config for Writer.
type Config struct {
	Repo         usecase.AuditRepository
	Logger       zerolog.Logger
	Recorder     Recorder
	BufferSize   int           // Number of entries held before dropping
	WriteTimeout time.Duration // Per-entry persistence timeout
}

// NewWriter creates a new Writer. Call Start to begin persisting.
func NewWriter(cfg Config) *Writer {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}

	return &Writer{
		repo:         cfg.Repo,
		logger:       cfg.Logger.With().Str("component", "audit_writer").Logger(),
		recorder:     cfg.Recorder,
		queue:        make(chan *domain.AuditLog, cfg.BufferSize),
		writeTimeout: cfg.WriteTimeout,
		now:          time.Now,
	}
}

// Audit implements usecase.Auditor. It never blocks.
func (w *Writer) Audit(ctx context.Context, operation string, opts ...usecase.AuditOption) {
	entry := usecase.NewAuditLog(ctx, operation, opts...)
	entry.ID = uuid.NewString()
	entry.CreatedAt = w.now().UTC()

	select {
	case w.queue <- entry:
		w.recorder.AuditQueued(len(w.queue))
	default:
		w.recorder.AuditRecorded("dropped")
		w.logger.Warn().
			Str("operation", entry.Operation).
			Str("actor_id", entry.ActorID).
			Msg("audit buffer full, entry dropped")
	}
}

// Start persists queued entries until ctx is cancelled, then drains what is
// left in the buffer.
func (w *Writer) Start(ctx context.Context) error {
	w.logger.Info().Int("buffer_size", cap(w.queue)).Msg("audit writer started")

	for {
		select {
		case <-ctx.Done():
			w.drain()
			w.logger.Info().Msg("audit writer shutting down")
			return ctx.Err()
		case entry := <-w.queue:
			w.persist(entry)
		}
	}
}

func (w *Writer) drain() {
	for {
		select {
		case entry := <-w.queue:
			w.persist(entry)
		default:
			return
		}
	}
}

// persist runs detached from the request context, which is usually done by now.
func (w *Writer) persist(entry *domain.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), w.writeTimeout)
	defer cancel()

	w.recorder.AuditQueued(len(w.queue))

	if err := w.repo.Create(ctx, entry); err != nil {
		w.recorder.AuditRecorded("failed")
		w.logger.Error().
			Err(err).
			Str("audit_id", entry.ID).
			Str("operation", entry.Operation).
			Msg("failed to persist audit log")
		return
	}

	w.recorder.AuditRecorded("persisted")
}

type nopRecorder struct{}

func (nopRecorder) AuditRecorded(string) {}
func (nopRecorder) AuditQueued(int)      {}
