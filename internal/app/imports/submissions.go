package imports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"earplugs/internal/setlistfm"
	"earplugs/shared/go/logging"
	"earplugs/shared/go/models"
)

// SubmissionRequest is a visitor's proposed setlist for a concert.
type SubmissionRequest struct {
	ConcertID    json.RawMessage `json:"concertId"`
	SetlistFMID  string          `json:"setlistfmId"`
	SetlistFMURL string          `json:"setlistfmUrl"`
	SetlistData  json.RawMessage `json:"setlistData"`
}

// ParseConcertID accepts a concert id sent either as a JSON number or as a
// string holding one.
func ParseConcertID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("%w: concertId is required", ErrInvalidImport)
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("%w: concertId: %v", ErrInvalidImport, err)
		}
	}

	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: concertId %s is not a positive integer", ErrInvalidImport, raw)
	}
	return id, nil
}

func (s *service) Submit(ctx context.Context, userID int64, req SubmissionRequest) (*models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	concertID, err := ParseConcertID(req.ConcertID)
	if err != nil {
		return nil, err
	}
	if _, err := decodeSetlist(req.SetlistData); err != nil {
		return nil, err
	}

	sub := &models.Submission{
		ConcertID:    concertID,
		SetlistFMID:  strings.TrimSpace(req.SetlistFMID),
		SetlistFMURL: strings.TrimSpace(req.SetlistFMURL),
		SetlistData:  req.SetlistData,
	}
	if userID > 0 {
		sub.SubmittedBy = &userID
	}

	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ProcessSubmission approves a submission and imports its setlist. A
// submission that was already imported is left alone and yields a nil result.
func (s *service) ProcessSubmission(ctx context.Context, id int64) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}

	log := logging.WithContext(ctx).With().Int64("submission_id", id).Int64("concert_id", sub.ConcertID).Logger()

	if sub.Processed {
		log.Info().Msg("submission already processed")
		return nil, nil
	}
	if sub.Status == models.SubmissionRejected {
		return nil, fmt.Errorf("%w: submission %d was rejected", ErrInvalidImport, id)
	}
	if sub.Status != models.SubmissionApproved {
		if err := s.store.MarkApproved(ctx, id); err != nil {
			return nil, err
		}
	}

	res, err := s.importSubmission(ctx, sub)
	if err != nil {
		if recErr := s.store.RecordImportError(ctx, id, err.Error()); recErr != nil {
			log.Error().Err(recErr).Msg("failed to record import error")
		}
		log.Error().Err(err).Msg("submission import failed")
		return nil, err
	}

	if err := s.store.MarkProcessed(ctx, id); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) importSubmission(ctx context.Context, sub *models.Submission) (*Result, error) {
	sl, err := decodeSetlist(sub.SetlistData)
	if err != nil {
		return nil, err
	}
	if sl.ID == "" {
		sl.ID = sub.SetlistFMID
	}
	if sl.URL == "" {
		sl.URL = sub.SetlistFMURL
	}
	return s.ImportSetlist(ctx, sub.ConcertID, *sl)
}

func decodeSetlist(data json.RawMessage) (*setlistfm.Setlist, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: setlist data is required", ErrInvalidImport)
	}
	var sl setlistfm.Setlist
	if err := json.Unmarshal(data, &sl); err != nil {
		return nil, fmt.Errorf("%w: setlist data: %v", ErrInvalidImport, err)
	}
	if strings.TrimSpace(sl.Artist.Name) == "" {
		return nil, fmt.Errorf("%w: setlist has no artist", ErrInvalidImport)
	}
	return &sl, nil
}
