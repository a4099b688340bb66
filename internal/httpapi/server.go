package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"earplugs/internal/app/concerts"
	"earplugs/internal/app/imports"
	"earplugs/internal/app/users"
	"earplugs/internal/auth"
	"earplugs/internal/setlistfm"
	"earplugs/internal/store"
	"earplugs/shared/go/logging"
	"earplugs/shared/go/models"
)

// UserService captures the account operations needed by the HTTP handlers.
type UserService interface {
	Login(ctx context.Context, username, password string) (string, error)
	Authorize(ctx context.Context, token string) (users.Identity, error)
}

// ConcertService exposes read access and roster maintenance.
type ConcertService interface {
	Get(ctx context.Context, id int64) (*models.Concert, error)
	List(ctx context.Context, limit int) ([]*models.Concert, error)
	Setlists(ctx context.Context, concertID int64) ([]*models.Setlist, error)
	Cleanup(ctx context.Context, id int64, dryRun bool) (*concerts.CleanupResult, error)
}

// ImportService runs setlist imports and submissions.
type ImportService interface {
	ImportSetlist(ctx context.Context, concertID int64, sl setlistfm.Setlist) (*imports.Result, error)
	ImportFromSetlistFM(ctx context.Context, concertID int64, setlistID string, multiArtist bool) ([]*imports.Result, error)
	Submit(ctx context.Context, userID int64, req imports.SubmissionRequest) (*models.Submission, error)
	ProcessSubmission(ctx context.Context, id int64) (*imports.Result, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users    UserService
	concerts ConcertService
	imports  ImportService
}

// New configures a Server with the given services.
func New(users UserService, concerts ConcertService, imports ImportService) *Server {
	return &Server{
		users:    users,
		concerts: concerts,
		imports:  imports,
	}
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/v1/concerts", s.handleListConcerts)
	mux.HandleFunc("GET /api/v1/concerts/{id}", s.handleGetConcert)
	mux.HandleFunc("GET /api/v1/concerts/{id}/setlists", s.handleListSetlists)
	mux.Handle("POST /api/v1/concerts/{id}/setlists", s.requireRole(models.UserRoleAdmin, s.handleImportSetlist))
	mux.Handle("POST /api/v1/concerts/{id}/setlistfm/{setlistId}", s.requireRole(models.UserRoleAdmin, s.handleImportFromSetlistFM))
	mux.Handle("POST /api/v1/concerts/{id}/cleanup", s.requireRole(models.UserRoleAdmin, s.handleCleanup))

	mux.Handle("POST /api/v1/submissions", s.requireRole(models.UserRoleContributor, s.handleSubmit))
	mux.Handle("POST /api/v1/submissions/{id}/approve", s.requireRole(models.UserRoleAdmin, s.handleApproveSubmission))

	return mux
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	token, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var apiErr *setlistfm.APIError
	switch {
	case errors.Is(err, imports.ErrInvalidImport):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrConcertNotFound),
		errors.Is(err, store.ErrSubmissionNotFound),
		errors.Is(err, setlistfm.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrUnauthorized):
		return http.StatusForbidden
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, imports.ErrSetlistFMDisabled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
