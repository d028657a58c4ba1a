package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// BackupArchiveName is the file name of the full backup archive.
	BackupArchiveName = "backup.zip"

	// DownloadArchiveName is the file name used when several documents are downloaded at once.
	DownloadArchiveName = "documents.zip"
)
