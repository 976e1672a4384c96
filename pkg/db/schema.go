package db

// Schema defines the SQLite database schema for download attempts.
// It creates the attempts table with indexes for efficient querying.
const Schema = `
CREATE TABLE IF NOT EXISTS attempts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    attempt_id TEXT NOT NULL UNIQUE,
    uri TEXT NOT NULL,
    host TEXT NOT NULL,
    path TEXT NOT NULL,
    image_type TEXT NOT NULL,
    partition_id INTEGER NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('pending', 'downloading', 'done', 'failed', 'cancelled')),
    bytes INTEGER NOT NULL DEFAULT 0,
    digest TEXT,
    cause INTEGER NOT NULL DEFAULT 0,
    error_message TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_attempts_attempt_id ON attempts(attempt_id);
CREATE INDEX IF NOT EXISTS idx_attempts_status ON attempts(status);
CREATE INDEX IF NOT EXISTS idx_attempts_created_at ON attempts(created_at);
`

// Status constants
const (
	StatusPending     = "pending"
	StatusDownloading = "downloading"
	StatusDone        = "done"
	StatusFailed      = "failed"
	StatusCancelled   = "cancelled"
)

// terminalStatuses are the attempt states prune is allowed to remove.
var terminalStatuses = []string{StatusDone, StatusFailed, StatusCancelled}

// Attempt represents one download attempt record
type Attempt struct {
	ID           int64
	AttemptID    string
	URI          string
	Host         string
	Path         string
	ImageType    string
	Partition    int
	Status       string
	Bytes        int64
	Digest       string
	Cause        int
	ErrorMessage string
	CreatedAt    string
	UpdatedAt    string
}
