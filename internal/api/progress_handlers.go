package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/codecrack/catalog-server/internal/catalog"
	"github.com/codecrack/catalog-server/internal/progress"
)

const maxToggleBody = 1 << 20

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		respondError(w, http.StatusBadRequest, "missing_user", "user query parameter is required")
		return
	}

	view, err := s.tracker.Progress(r.Context(), user)
	if err != nil {
		slog.Error("ledger read failed", "user", user, "error", err)
		respondError(w, http.StatusServiceUnavailable, "ledger_unavailable",
			"progress state is temporarily unavailable")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type toggleRequest struct {
	User       string `json:"user"`
	QuestionID string `json:"questionId"`
	Difficulty string `json:"difficulty,omitempty"`
	Solved     bool   `json:"solved"`
}

func (s *Server) handleToggleProgress(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxToggleBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read request body")
		return
	}

	req, vErr := decodeToggleRequest(body)
	if vErr != "" {
		respondError(w, http.StatusBadRequest, "invalid_request", vErr)
		return
	}

	view, err := s.tracker.Toggle(r.Context(), req.User, req.QuestionID,
		catalog.Difficulty(req.Difficulty), req.Solved)
	switch {
	case errors.Is(err, progress.ErrUnknownQuestion):
		respondError(w, http.StatusNotFound, "unknown_question",
			"question is not in the current catalog")
		return
	case errors.Is(err, progress.ErrWriteConflict):
		respondError(w, http.StatusConflict, "write_conflict",
			"concurrent update, please retry")
		return
	case err != nil:
		slog.Error("ledger write failed", "user", req.User, "error", err)
		respondError(w, http.StatusServiceUnavailable, "ledger_unavailable",
			"progress state is temporarily unavailable")
		return
	}

	s.hub.publish(req.User, view)
	respondJSON(w, http.StatusOK, view)
}
