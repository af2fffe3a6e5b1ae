package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
)

// ─── Cron Trigger (/cron/train) ─────────────────────────────────────────────

type trainRequest struct {
	BatchSize int `json:"batchSize"`
}

// handleTrain runs one training batch synchronously and returns its
// aggregate result. Validation rejects before any admission decision.
func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.BatchSize <= 0 {
		writeError(w, http.StatusBadRequest, "batchSize must be a positive integer")
		return
	}

	result, err := s.orch.RunBatch(r.Context(), req.BatchSize)
	if errors.Is(err, domain.ErrNoActivePersonas) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"batch":   result,
	})
}
