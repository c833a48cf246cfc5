package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codecrack/catalog-server/internal/catalog"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// Response envelope shared by all endpoints.

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error:   &apiError{Code: code, Message: message},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// Health handlers

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			respondError(w, http.StatusServiceUnavailable, "not_ready", name+" unavailable")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Catalog handlers

// listing is one association row joined with its question metadata.
type listing struct {
	catalog.Question
	Partition string `json:"partition"`
	Solved    bool   `json:"solved"`
}

// parseFilterQuery reads the shared filter parameters (q, difficulty,
// topics). An unknown difficulty value is a client error.
func parseFilterQuery(r *http.Request) (catalog.Query, bool) {
	q := catalog.Query{Text: r.URL.Query().Get("q")}

	if d := r.URL.Query().Get("difficulty"); d != "" && !strings.EqualFold(d, "all") {
		diff, ok := catalog.ParseDifficulty(d)
		if !ok {
			return q, false
		}
		q.Difficulty = diff
	}

	if t := r.URL.Query().Get("topics"); t != "" {
		for _, topic := range strings.Split(t, ",") {
			if topic = strings.TrimSpace(topic); topic != "" {
				q.Topics = append(q.Topics, topic)
			}
		}
	}
	return q, true
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	query, ok := parseFilterQuery(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_difficulty",
			"difficulty must be Easy, Medium, Hard or all")
		return
	}

	page := intParam(r, "page", 1)
	perPage := intParam(r, "per_page", defaultPerPage)
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}

	// Solved markers require the ledger; missing ledger state must surface
	// as unavailable, never as zeros.
	solved := map[string]bool{}
	if user := r.URL.Query().Get("user"); user != "" {
		view, err := s.tracker.Progress(r.Context(), user)
		if err != nil {
			slog.Error("ledger read failed", "user", user, "error", err)
			respondError(w, http.StatusServiceUnavailable, "ledger_unavailable",
				"progress state is temporarily unavailable")
			return
		}
		for _, id := range view.Solved {
			solved[id] = true
		}
	}

	cat := s.snap.Load()
	filtered := cat.Filter(query)
	stats := catalog.ComputeStats(filtered, cat, solved)
	pageItems, totalPages := catalog.Paginate(filtered, perPage, page)

	items := make([]listing, 0, len(pageItems))
	for _, a := range pageItems {
		q, _ := cat.Question(a.QuestionID)
		items = append(items, listing{Question: q, Partition: a.Partition, Solved: solved[a.QuestionID]})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"items":        items,
		"page":         page,
		"per_page":     perPage,
		"total_pages":  totalPages,
		"associations": len(filtered),
		"stats":        stats,
	})
}

func (s *Server) handleRandomQuestion(w http.ResponseWriter, r *http.Request) {
	query, ok := parseFilterQuery(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_difficulty",
			"difficulty must be Easy, Medium, Hard or all")
		return
	}

	cat := s.snap.Load()
	question, found := cat.PickRandomUnique(cat.Filter(query))
	if !found {
		respondError(w, http.StatusNotFound, "no_match", "no questions match the filters")
		return
	}
	respondJSON(w, http.StatusOK, question)
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics := s.snap.Load().Topics()
	respondJSON(w, http.StatusOK, map[string]any{
		"topics": topics,
		"total":  len(topics),
	})
}

func (s *Server) handleListPartitions(w http.ResponseWriter, r *http.Request) {
	cat := s.snap.Load()
	respondJSON(w, http.StatusOK, map[string]any{
		"partitions": cat.Partitions,
		"total":      len(cat.Partitions),
		"build":      s.snap.Report(),
	})
}

func intParam(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
