package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"earplugs/internal/app/imports"
	"earplugs/internal/setlistfm"
)

const maxSetlistBody = 1 << 20

func (s *Server) handleImportSetlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid concert ID"})
		return
	}

	var sl setlistfm.Setlist
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSetlistBody)).Decode(&sl); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	res, err := s.imports.ImportSetlist(r.Context(), id, sl)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleImportFromSetlistFM(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid concert ID"})
		return
	}

	multi, _ := strconv.ParseBool(r.URL.Query().Get("multi"))
	results, err := s.imports.ImportFromSetlistFM(r.Context(), id, r.PathValue("setlistId"), multi)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Results []*imports.Result `json:"results"`
	}{Results: results})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req imports.SubmissionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSetlistBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	var userID int64
	if id, ok := identityFrom(r.Context()); ok {
		userID = id.UserID
	}

	sub, err := s.imports.Submit(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleApproveSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid submission ID"})
		return
	}

	res, err := s.imports.ProcessSubmission(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res == nil {
		writeJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
		}{Status: "already processed"})
		return
	}

	writeJSON(w, http.StatusOK, res)
}
