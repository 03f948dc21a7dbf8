// Package rank derives ranks and percentiles from the aggregate store.
//
// Two rank notions coexist on purpose. RankOf uses a dense rank: tied
// totals share a rank, computed as 1 + count(strictly greater totals).
// TopN assigns positional ranks: the 1-based index in the score-descending,
// creation-order-tie-broken listing. Under ties the two can disagree; both
// behaviors are part of the contract and tested separately.
package rank

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/leaderforge/leaderforge/internal/domain/fault"
	"github.com/leaderforge/leaderforge/internal/domain/model"
)

// Reader is the slice of the store contract the calculator needs.
type Reader interface {
	Aggregate(ctx context.Context, playerID string) (model.PlayerAggregate, error)
	TopN(ctx context.Context, n int) ([]model.PlayerAggregate, error)
	Count(ctx context.Context) (int, error)
	CountGreater(ctx context.Context, score int64) (int, error)
}

// Calculator computes rank views over a Reader.
type Calculator struct {
	store Reader
}

// NewCalculator builds a Calculator over the given store reader.
func NewCalculator(store Reader) *Calculator {
	return &Calculator{store: store}
}

// RankOf returns the player's dense rank, percentile and totals.
func (c *Calculator) RankOf(ctx context.Context, playerID string) (model.Standing, error) {
	agg, err := c.store.Aggregate(ctx, playerID)
	if err != nil {
		return model.Standing{}, fmt.Errorf("rank of %s: %w", playerID, err)
	}

	greater, err := c.store.CountGreater(ctx, agg.TotalScore)
	if err != nil {
		return model.Standing{}, fmt.Errorf("rank of %s: %w", playerID, err)
	}
	total, err := c.store.Count(ctx)
	if err != nil {
		return model.Standing{}, fmt.Errorf("rank of %s: %w", playerID, err)
	}
	if total == 0 {
		// The aggregate read above succeeded, so the table cannot be empty.
		return model.Standing{}, fault.Wrap(fault.ErrInternal, fmt.Errorf("aggregate exists but player count is zero"))
	}

	r := greater + 1
	return model.Standing{
		PlayerID:     agg.PlayerID,
		Username:     agg.Username,
		Rank:         r,
		TotalScore:   agg.TotalScore,
		SessionCount: agg.SessionCount,
		Percentile:   percentile(r, total),
		TotalPlayers: total,
	}, nil
}

// TopN returns the board of the first limit players with positional ranks.
func (c *Calculator) TopN(ctx context.Context, limit int) (model.Board, error) {
	aggs, err := c.store.TopN(ctx, limit)
	if err != nil {
		return model.Board{}, fmt.Errorf("top %d: %w", limit, err)
	}
	total, err := c.store.Count(ctx)
	if err != nil {
		return model.Board{}, fmt.Errorf("top %d: %w", limit, err)
	}

	entries := lo.Map(aggs, func(agg model.PlayerAggregate, i int) model.BoardEntry {
		return model.BoardEntry{
			Rank:         i + 1,
			PlayerID:     agg.PlayerID,
			Username:     agg.Username,
			TotalScore:   agg.TotalScore,
			SessionCount: agg.SessionCount,
		}
	})

	return model.Board{
		Entries:      entries,
		TotalPlayers: total,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

// percentile maps a dense rank to (total-rank)/total*100, clamped to
// [0, 100] and rounded to two decimals. Zero when there are no players.
func percentile(rank, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(total-rank) / float64(total) * 100
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return math.Round(p*100) / 100
}
