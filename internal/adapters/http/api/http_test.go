package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leaderforge/leaderforge/internal/adapters/http/api"
	"github.com/leaderforge/leaderforge/internal/domain/fault"
	"github.com/leaderforge/leaderforge/internal/domain/model"
	"github.com/leaderforge/leaderforge/internal/domain/ratelimit"
	. "github.com/smartystreets/goconvey/convey"
)

// stubDeps implements api.Dependencies with overridable behavior per test.
type stubDeps struct {
	submitFn func(ctx context.Context, playerID string, delta int64, mode string) (model.Receipt, error)
	topFn    func(ctx context.Context, limit int) (model.Board, error)
	rankFn   func(ctx context.Context, playerID string) (model.Standing, error)
	health   model.Health
}

func (s *stubDeps) SubmitScore(ctx context.Context, playerID string, delta int64, mode string) (model.Receipt, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, playerID, delta, mode)
	}
	return model.Receipt{PlayerID: playerID, TotalScore: delta, SessionCount: 1, Rank: 1}, nil
}

func (s *stubDeps) GetTop(ctx context.Context, limit int) (model.Board, error) {
	if s.topFn != nil {
		return s.topFn(ctx, limit)
	}
	return model.Board{TotalPlayers: 0, GeneratedAt: time.Now().UTC()}, nil
}

func (s *stubDeps) GetRank(ctx context.Context, playerID string) (model.Standing, error) {
	if s.rankFn != nil {
		return s.rankFn(ctx, playerID)
	}
	return model.Standing{PlayerID: playerID, Rank: 1, TotalPlayers: 1, Percentile: 0}, nil
}

func (s *stubDeps) CheckHealth(ctx context.Context) model.Health {
	return s.health
}

type stubStats struct{}

func (stubStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestMux(deps *stubDeps, admission *ratelimit.Limiter) *http.ServeMux {
	mux := http.NewServeMux()
	server := api.NewServer(deps, stubStats{}, 100, admission)
	server.Register(context.Background(), mux)
	return mux
}

func postJSON(mux *http.ServeMux, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSubmitEndpoint(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &stubDeps{health: model.Health{Database: true, Cache: true}}
		mux := newTestMux(deps, nil)

		Convey("When a valid submission is posted", func() {
			deps.submitFn = func(_ context.Context, playerID string, delta int64, mode string) (model.Receipt, error) {
				So(mode, ShouldEqual, "solo")
				return model.Receipt{PlayerID: playerID, TotalScore: 3000, SessionCount: 2, Rank: 4}, nil
			}
			rec := postJSON(mux, "/api/leaderboard/submit", map[string]any{
				"player_id": "p1", "score": 2000, "game_mode": "solo",
			})

			Convey("Then it acknowledges with the new total and rank", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var resp map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["success"], ShouldEqual, true)
				So(resp["new_total_score"], ShouldEqual, 3000)
				So(resp["current_rank"], ShouldEqual, 4)
				So(resp["message"], ShouldContainSubstring, "Current rank: 4")
			})
		})

		Convey("When the rank lookup degraded", func() {
			deps.submitFn = func(_ context.Context, playerID string, delta int64, _ string) (model.Receipt, error) {
				return model.Receipt{PlayerID: playerID, TotalScore: delta, SessionCount: 1, Rank: 0}, nil
			}
			rec := postJSON(mux, "/api/leaderboard/submit", map[string]any{"player_id": "p1", "score": 10})

			Convey("Then the rank field is omitted from the body", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldNotContainSubstring, "current_rank")
			})
		})

		Convey("When the body is not JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/leaderboard/submit", strings.NewReader("{nope"))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it rejects with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the pipeline reports an unknown player", func() {
			deps.submitFn = func(context.Context, string, int64, string) (model.Receipt, error) {
				return model.Receipt{}, fault.Wrap(fault.ErrNotFound, fmt.Errorf("player ghost not found"))
			}
			rec := postJSON(mux, "/api/leaderboard/submit", map[string]any{"player_id": "ghost", "score": 10})

			Convey("Then it maps to 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the pipeline rejects the input", func() {
			deps.submitFn = func(context.Context, string, int64, string) (model.Receipt, error) {
				return model.Receipt{}, fault.Wrap(fault.ErrInvalidInput, fmt.Errorf("score out of bounds"))
			}
			rec := postJSON(mux, "/api/leaderboard/submit", map[string]any{"player_id": "p1", "score": -1})

			Convey("Then it maps to 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the store is unavailable", func() {
			deps.submitFn = func(context.Context, string, int64, string) (model.Receipt, error) {
				return model.Receipt{}, fault.Wrap(fault.ErrUnavailable, fmt.Errorf("database locked"))
			}
			rec := postJSON(mux, "/api/leaderboard/submit", map[string]any{"player_id": "p1", "score": 10})

			Convey("Then it maps to 503", func() {
				So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When the method is GET", func() {
			rec := get(mux, "/api/leaderboard/submit")

			Convey("Then the route does not exist", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestTopEndpoint(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &stubDeps{health: model.Health{Database: true, Cache: true}}
		mux := newTestMux(deps, nil)

		Convey("When the top listing is requested with a limit", func() {
			var gotLimit int
			deps.topFn = func(_ context.Context, limit int) (model.Board, error) {
				gotLimit = limit
				return model.Board{
					Entries: []model.BoardEntry{
						{Rank: 1, PlayerID: "p1", Username: "alice", TotalScore: 5000},
					},
					TotalPlayers: 1,
					GeneratedAt:  time.Now().UTC(),
				}, nil
			}
			rec := get(mux, "/api/leaderboard/top?limit=5")

			Convey("Then the limit is forwarded and the board returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(gotLimit, ShouldEqual, 5)
				var resp map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["total_players"], ShouldEqual, 1)
				So(resp["top_players"], ShouldHaveLength, 1)
			})
		})

		Convey("When no limit is given", func() {
			var gotLimit int
			deps.topFn = func(_ context.Context, limit int) (model.Board, error) {
				gotLimit = limit
				return model.Board{}, nil
			}
			rec := get(mux, "/api/leaderboard/top")

			Convey("Then the default applies", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(gotLimit, ShouldEqual, 10)
			})
		})

		Convey("When the limit is malformed or non-positive", func() {
			So(get(mux, "/api/leaderboard/top?limit=abc").Code, ShouldEqual, http.StatusBadRequest)
			So(get(mux, "/api/leaderboard/top?limit=0").Code, ShouldEqual, http.StatusBadRequest)
			So(get(mux, "/api/leaderboard/top?limit=-3").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the limit exceeds the maximum", func() {
			rec := get(mux, "/api/leaderboard/top?limit=101")

			Convey("Then it rejects with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "limit_exceeded")
			})
		})
	})
}

func TestRankEndpoint(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &stubDeps{health: model.Health{Database: true, Cache: true}}
		mux := newTestMux(deps, nil)

		Convey("When a player's standing is requested", func() {
			deps.rankFn = func(_ context.Context, playerID string) (model.Standing, error) {
				return model.Standing{
					PlayerID:     playerID,
					Username:     "alice",
					Rank:         1,
					TotalScore:   5000,
					Percentile:   66.67,
					TotalPlayers: 3,
				}, nil
			}
			rec := get(mux, "/api/leaderboard/rank/p1")

			Convey("Then the standing comes back with the percentile", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var resp map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["player_id"], ShouldEqual, "p1")
				So(resp["rank"], ShouldEqual, 1)
				So(resp["percentile"], ShouldEqual, 66.67)
			})
		})

		Convey("When the player is unknown", func() {
			deps.rankFn = func(context.Context, string) (model.Standing, error) {
				return model.Standing{}, fault.Wrap(fault.ErrNotFound, fmt.Errorf("no aggregate"))
			}
			rec := get(mux, "/api/leaderboard/rank/ghost")

			Convey("Then it maps to 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the path has no player id", func() {
			rec := get(mux, "/api/leaderboard/rank/")

			Convey("Then it rejects with 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestHealthAndStatsEndpoints(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &stubDeps{health: model.Health{Database: true, Cache: true}}
		mux := newTestMux(deps, nil)

		Convey("When all probes pass", func() {
			rec := get(mux, "/healthz")

			Convey("Then the status is healthy", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var resp map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["status"], ShouldEqual, "healthy")
				So(resp["database"], ShouldEqual, true)
			})
		})

		Convey("When the cache probe fails", func() {
			deps.health = model.Health{Database: true, Cache: false}
			rec := get(mux, "/healthz")

			Convey("Then the status degrades but stays 200", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var resp map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["status"], ShouldEqual, "degraded")
				So(resp["cache"], ShouldEqual, false)
			})
		})

		Convey("When stats are requested", func() {
			rec := get(mux, "/stats")

			Convey("Then the provider's map is served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "started")
			})
		})

		Convey("When metrics are scraped", func() {
			rec := get(mux, "/metrics")

			Convey("Then the registry is exposed", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestAdmissionMiddleware(t *testing.T) {
	Convey("Given a server admitting two requests per minute", t, func() {
		deps := &stubDeps{health: model.Health{Database: true, Cache: true}}
		limiter := ratelimit.New(ratelimit.WithLimit(2), ratelimit.WithWindow(time.Minute))
		defer func() { _ = limiter.Close() }()
		mux := newTestMux(deps, limiter)

		Convey("When a client stays within its budget", func() {
			rec := get(mux, "/api/leaderboard/top?limit=1")

			Convey("Then the limit headers advertise the budget", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("X-RateLimit-Limit"), ShouldEqual, "2")
				So(rec.Header().Get("X-RateLimit-Remaining"), ShouldEqual, "1")
			})
		})

		Convey("When a client exhausts its budget", func() {
			get(mux, "/api/leaderboard/top?limit=1")
			get(mux, "/api/leaderboard/top?limit=1")
			rec := get(mux, "/api/leaderboard/top?limit=1")

			Convey("Then the third request is rejected with 429", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
				So(rec.Header().Get("Retry-After"), ShouldEqual, "60")
				So(rec.Header().Get("X-RateLimit-Remaining"), ShouldEqual, "0")
			})
		})

		Convey("When a different client arrives", func() {
			get(mux, "/api/leaderboard/top?limit=1")
			get(mux, "/api/leaderboard/top?limit=1")

			req := httptest.NewRequest(http.MethodGet, "/api/leaderboard/top?limit=1", nil)
			req.RemoteAddr = "10.0.0.9:4455"
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then its budget is independent", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestSecurityHeaders(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &stubDeps{health: model.Health{Database: true, Cache: true}}
		mux := newTestMux(deps, nil)

		Convey("When any route is served", func() {
			rec := get(mux, "/healthz")

			Convey("Then the baseline security headers are present", func() {
				So(rec.Header().Get("X-Content-Type-Options"), ShouldEqual, "nosniff")
				So(rec.Header().Get("X-Frame-Options"), ShouldEqual, "DENY")
				So(rec.Header().Get("Strict-Transport-Security"), ShouldContainSubstring, "max-age=")
			})
		})
	})
}
