// Package http provides HTTP handlers for the companion server's
// catalog-exchange API.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/liamcryan/ieuler/internal/middleware"
	"github.com/liamcryan/ieuler/internal/models"
)

// ProblemService defines the interface for catalog-exchange operations
// required by the ProblemsHandler.
type ProblemService interface {
	// ProblemsForUser returns the records stored for the user.
	ProblemsForUser(ctx context.Context, login string) ([]models.SyncRecord, error)
	// SaveProblems field-merges pushed records and returns the stored set.
	SaveProblems(ctx context.Context, login string, records []models.SyncRecord) ([]models.SyncRecord, error)
}

// ProblemsHandler handles HTTP requests for catalog exchange.
type ProblemsHandler struct {
	// ProblemService performs the underlying operations.
	ProblemService ProblemService
}

// Get handles GET /api/problems: it returns the authenticated user's
// stored records as a JSON array.
func (h *ProblemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	login := middleware.GetUserIDFromContext(r.Context())

	records, err := h.ProblemService.ProblemsForUser(r.Context(), login)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.SyncRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(records)
}

// Post handles POST /api/problems: it decodes a JSON array of partial
// records, merges them into the user's stored set and echoes the stored
// set back.
func (h *ProblemsHandler) Post(w http.ResponseWriter, r *http.Request) {
	login := middleware.GetUserIDFromContext(r.Context())

	var records []models.SyncRecord
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	stored, err := h.ProblemService.SaveProblems(r.Context(), login, records)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if stored == nil {
		stored = []models.SyncRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stored)
}

// Ping handles GET /: a liveness probe for sync clients.
func (h *ProblemsHandler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
