package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"earplugs/shared/go/models"
)

const submissionColumns = `
		id, concert_id, submitted_by, setlistfm_id, setlistfm_url, setlist_data, status,
		processed, processed_at, import_error, import_error_at, created_at`

// CreateSubmission stores a pending setlist submission
func (s *Store) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO setlist_submissions (concert_id, submitted_by, setlistfm_id, setlistfm_url, setlist_data, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, sub.ConcertID, sub.SubmittedBy, sub.SetlistFMID, sub.SetlistFMURL, []byte(sub.SetlistData),
		string(models.SubmissionPending),
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	sub.Status = models.SubmissionPending
	return nil
}

// GetSubmission retrieves a submission by ID
func (s *Store) GetSubmission(ctx context.Context, id int64) (*models.Submission, error) {
	var (
		sub         models.Submission
		submittedBy sql.NullInt64
		data        []byte
		status      string
		processedAt sql.NullTime
		errorAt     sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT`+submissionColumns+`
		FROM setlist_submissions
		WHERE id = $1
	`, id).Scan(
		&sub.ID, &sub.ConcertID, &submittedBy, &sub.SetlistFMID, &sub.SetlistFMURL, &data, &status,
		&sub.Processed, &processedAt, &sub.ImportError, &errorAt, &sub.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select submission: %w", err)
	}

	if submittedBy.Valid {
		sub.SubmittedBy = &submittedBy.Int64
	}
	if processedAt.Valid {
		sub.ProcessedAt = &processedAt.Time
	}
	if errorAt.Valid {
		sub.ImportErrorAt = &errorAt.Time
	}
	sub.SetlistData = data
	sub.Status = models.SubmissionStatus(status)

	return &sub, nil
}

// MarkApproved moves a pending submission to approved. Already reviewed
// submissions are left alone.
func (s *Store) MarkApproved(ctx context.Context, id int64) error {
	return s.execSubmission(ctx, `
		UPDATE setlist_submissions
		SET status = 'approved'
		WHERE id = $1 AND status IN ('pending', 'approved')
	`, id)
}

// MarkProcessed records a successful import and clears any earlier failure.
func (s *Store) MarkProcessed(ctx context.Context, id int64) error {
	return s.execSubmission(ctx, `
		UPDATE setlist_submissions
		SET processed = TRUE, processed_at = CURRENT_TIMESTAMP,
		    import_error = '', import_error_at = NULL
		WHERE id = $1
	`, id)
}

// RecordImportError stores why importing a submission failed.
func (s *Store) RecordImportError(ctx context.Context, id int64, message string) error {
	return s.execSubmission(ctx, `
		UPDATE setlist_submissions
		SET import_error = $2, import_error_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`, id, message)
}

func (s *Store) execSubmission(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}
