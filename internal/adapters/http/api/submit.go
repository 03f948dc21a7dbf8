// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// SubmitHandler handles score submission requests.
type SubmitHandler struct {
	deps Dependencies
}

// NewSubmitHandler creates a new submit handler.
func NewSubmitHandler(deps Dependencies) *SubmitHandler {
	return &SubmitHandler{deps: deps}
}

// HandleSubmit handles POST /api/leaderboard/submit requests.
func (h *SubmitHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request body: %w", err))
		return
	}

	receipt, err := h.deps.SubmitScore(r.Context(), req.PlayerID, req.Score, req.GameMode)
	if err != nil {
		writeFault(w, err)
		return
	}

	message := "Score submitted successfully."
	if receipt.Rank > 0 {
		message = fmt.Sprintf("Score submitted successfully. Current rank: %d", receipt.Rank)
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Success:       true,
		PlayerID:      receipt.PlayerID,
		NewTotalScore: receipt.TotalScore,
		SessionCount:  receipt.SessionCount,
		CurrentRank:   receipt.Rank,
		Message:       message,
	})
}
