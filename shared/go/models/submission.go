package models

import (
	"encoding/json"
	"time"
)

// SubmissionStatus tracks review of a visitor-submitted setlist
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission is a setlist proposed for a concert, imported once approved.
type Submission struct {
	ID            int64            `json:"id"`
	ConcertID     int64            `json:"concert_id"`
	SubmittedBy   *int64           `json:"submitted_by,omitempty"`
	SetlistFMID   string           `json:"setlistfm_id,omitempty"`
	SetlistFMURL  string           `json:"setlistfm_url,omitempty"`
	SetlistData   json.RawMessage  `json:"setlist_data"` // Raw setlist.fm payload
	Status        SubmissionStatus `json:"status"`
	Processed     bool             `json:"processed"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
	ImportError   string           `json:"import_error,omitempty"`
	ImportErrorAt *time.Time       `json:"import_error_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}
