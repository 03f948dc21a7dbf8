// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leaderforge/leaderforge/internal/domain/fault"
	"github.com/leaderforge/leaderforge/internal/domain/model"
	"github.com/leaderforge/leaderforge/internal/domain/ratelimit"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SubmitScore runs one submission through the pipeline.
	SubmitScore(ctx context.Context, playerID string, delta int64, mode string) (model.Receipt, error)

	// Read operations expose leaderboard data.
	GetTop(ctx context.Context, limit int) (model.Board, error)
	GetRank(ctx context.Context, playerID string) (model.Standing, error)

	// CheckHealth probes backing components.
	CheckHealth(ctx context.Context) model.Health
}

// Server wires HTTP routes for the business API.
type Server struct {
	submitHandler      *SubmitHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	admission          *ratelimit.Limiter
}

// NewServer creates a new API server with all handlers. maxTopLimit bounds
// the limit query parameter on the top listing. admission may be nil, in
// which case requests are not rate limited.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxTopLimit int, admission *ratelimit.Limiter) *Server {
	return &Server{
		submitHandler:      NewSubmitHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxTopLimit),
		rankHandler:        NewRankHandler(deps),
		healthHandler:      NewHealthHandler(deps),
		statsHandler:       NewStatsHandler(statsProvider),
		admission:          admission,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", s.chain(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsEndpointHandler())
	mux.HandleFunc("/stats", s.chain(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/leaderboard/submit", s.chain(s.submitHandler.HandleSubmit, "submit"))
	mux.HandleFunc("/api/leaderboard/top", s.chain(s.leaderboardHandler.HandleGetTop, "top"))
	mux.HandleFunc("/api/leaderboard/rank/", s.chain(s.rankHandler.HandleGetRank, "rank"))
}

// chain applies the standard middleware stack to a handler.
func (s *Server) chain(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	h := next
	if s.admission != nil {
		h = AdmissionMiddleware(h, s.admission)
	}
	h = SecurityHeadersMiddleware(h)
	return MetricsMiddleware(h, endpoint)
}

// submitRequest mirrors the request schema for POST /api/leaderboard/submit.
type submitRequest struct {
	PlayerID string `json:"player_id"`
	Score    int64  `json:"score"`
	GameMode string `json:"game_mode"`
}

// submitResponse acknowledges an accepted submission. CurrentRank is omitted
// when the post-commit rank lookup degraded.
type submitResponse struct {
	Success       bool   `json:"success"`
	PlayerID      string `json:"player_id"`
	NewTotalScore int64  `json:"new_total_score"`
	SessionCount  int64  `json:"session_count"`
	CurrentRank   int    `json:"current_rank,omitempty"`
	Message       string `json:"message"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFault translates a fault kind into an HTTP error response.
func writeFault(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fault.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, fault.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, fault.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", err)
	case errors.Is(err, fault.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
