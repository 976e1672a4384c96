package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fota-tools/fotactl/pkg/errors"
	_ "modernc.org/sqlite"
)

// Repository provides database operations for download attempts
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new repository
func NewRepository(dbPath string) (*Repository, error) {
	slog.Info("database_init", "db_path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		slog.Error("database_open_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to open database")
	}

	// Create schema
	slog.Info("database_create_schema", "db_path", dbPath)
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		slog.Error("database_schema_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to create schema")
	}

	slog.Info("database_ready", "db_path", dbPath)
	return &Repository{db: db}, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create inserts a new attempt record
func (r *Repository) Create(a *Attempt) error {
	slog.Info("database_create_attempt", "attempt_id", a.AttemptID, "status", a.Status)

	query := `
		INSERT INTO attempts (attempt_id, uri, host, path, image_type, partition_id, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query,
		a.AttemptID, a.URI, a.Host, a.Path,
		a.ImageType, a.Partition, a.Status, a.ErrorMessage)
	if err != nil {
		slog.Error("database_insert_failed", "attempt_id", a.AttemptID, "error", err)
		return errors.Wrap(err, "failed to insert attempt")
	}

	id, err := result.LastInsertId()
	if err != nil {
		slog.Error("database_last_insert_id_failed", "attempt_id", a.AttemptID, "error", err)
		return errors.Wrap(err, "failed to get last insert id")
	}
	a.ID = id

	slog.Info("database_attempt_created", "attempt_id", a.AttemptID, "row_id", a.ID, "status", a.Status)
	return nil
}

// GetByAttemptID retrieves an attempt by its identifier
func (r *Repository) GetByAttemptID(attemptID string) (*Attempt, error) {
	slog.Info("database_query_attempt", "attempt_id", attemptID)

	query := `
		SELECT id, attempt_id, uri, host, path, image_type, partition_id, status,
		       bytes, digest, cause, error_message, created_at, updated_at
		FROM attempts WHERE attempt_id = ?
	`
	var a Attempt
	var contentDigest, errorMessage sql.NullString

	err := r.db.QueryRow(query, attemptID).Scan(
		&a.ID, &a.AttemptID, &a.URI, &a.Host, &a.Path, &a.ImageType, &a.Partition, &a.Status,
		&a.Bytes, &contentDigest, &a.Cause, &errorMessage,
		&a.CreatedAt, &a.UpdatedAt)

	if err == sql.ErrNoRows {
		slog.Info("database_attempt_not_found", "attempt_id", attemptID)
		return nil, fmt.Errorf("attempt %s: %w", attemptID, errors.ErrNotFound)
	}
	if err != nil {
		slog.Error("database_query_failed", "attempt_id", attemptID, "error", err)
		return nil, errors.Wrap(err, "failed to query attempt")
	}

	// Handle nullable fields
	a.Digest = contentDigest.String
	a.ErrorMessage = errorMessage.String

	slog.Info("database_attempt_found", "attempt_id", attemptID, "status", a.Status)
	return &a, nil
}

// UpdateStatus updates only the status field
func (r *Repository) UpdateStatus(attemptID, status, errorMessage string) error {
	slog.Info("database_update_status", "attempt_id", attemptID, "status", status)

	query := `UPDATE attempts SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP WHERE attempt_id = ?`
	_, err := r.db.Exec(query, status, errorMessage, attemptID)
	if err != nil {
		slog.Error("database_status_update_failed", "attempt_id", attemptID, "status", status, "error", err)
		return errors.Wrap(err, "failed to update status")
	}

	slog.Info("database_status_updated", "attempt_id", attemptID, "status", status)
	return nil
}

// Finish records the terminal state of an attempt
func (r *Repository) Finish(attemptID, status string, bytes int64, contentDigest string, cause int) error {
	slog.Info("database_finish_attempt", "attempt_id", attemptID, "status", status, "bytes", bytes)

	query := `
		UPDATE attempts
		SET status = ?, bytes = ?, digest = ?, cause = ?, updated_at = CURRENT_TIMESTAMP
		WHERE attempt_id = ?
	`
	result, err := r.db.Exec(query, status, bytes, contentDigest, cause, attemptID)
	if err != nil {
		slog.Error("database_finish_failed", "attempt_id", attemptID, "error", err)
		return errors.Wrap(err, "failed to finish attempt")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		slog.Error("database_rows_affected_failed", "attempt_id", attemptID, "error", err)
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		slog.Error("database_attempt_not_found_for_finish", "attempt_id", attemptID)
		return fmt.Errorf("attempt %s: %w", attemptID, errors.ErrNotFound)
	}

	slog.Info("database_attempt_finished", "attempt_id", attemptID, "status", status)
	return nil
}

// List retrieves all attempts, newest first
func (r *Repository) List() ([]*Attempt, error) {
	slog.Info("database_list_attempts")

	query := `
		SELECT id, attempt_id, uri, host, path, image_type, partition_id, status,
		       bytes, digest, cause, error_message, created_at, updated_at
		FROM attempts ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		slog.Error("database_list_query_failed", "error", err)
		return nil, errors.Wrap(err, "failed to list attempts")
	}
	defer rows.Close()

	var attempts []*Attempt
	for rows.Next() {
		var a Attempt
		var contentDigest, errorMessage sql.NullString

		err := rows.Scan(
			&a.ID, &a.AttemptID, &a.URI, &a.Host, &a.Path, &a.ImageType, &a.Partition, &a.Status,
			&a.Bytes, &contentDigest, &a.Cause, &errorMessage,
			&a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			slog.Error("database_scan_row_failed", "error", err)
			return nil, errors.Wrap(err, "failed to scan row")
		}

		a.Digest = contentDigest.String
		a.ErrorMessage = errorMessage.String

		attempts = append(attempts, &a)
	}

	if err := rows.Err(); err != nil {
		slog.Error("database_rows_error", "error", err)
		return nil, errors.Wrap(err, "rows error")
	}

	slog.Info("database_list_complete", "attempt_count", len(attempts))
	return attempts, nil
}

// PruneTerminal deletes every attempt in a terminal status and returns
// how many rows went away. In-flight attempts are kept.
func (r *Repository) PruneTerminal() (int64, error) {
	slog.Info("database_prune_attempts")

	marks := strings.Repeat("?, ", len(terminalStatuses))
	query := fmt.Sprintf(`DELETE FROM attempts WHERE status IN (%s)`, strings.TrimSuffix(marks, ", "))
	args := make([]any, len(terminalStatuses))
	for i, s := range terminalStatuses {
		args[i] = s
	}

	result, err := r.db.Exec(query, args...)
	if err != nil {
		slog.Error("database_prune_failed", "error", err)
		return 0, errors.Wrap(err, "failed to prune attempts")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		slog.Error("database_rows_affected_failed", "error", err)
		return 0, errors.Wrap(err, "failed to get rows affected")
	}

	slog.Info("database_prune_complete", "removed", rows)
	return rows, nil
}
