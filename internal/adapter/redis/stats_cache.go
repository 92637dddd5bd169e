package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jschilling12/justabill/internal/domain"
)

// StatsCache implements domain.StatsCache with per-bill JSON entries and a
// short TTL. Entries are dropped eagerly when a vote lands on the bill.
type StatsCache struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

func NewStatsCache(rdb goredis.Cmdable, ttl time.Duration) *StatsCache {
	return &StatsCache{rdb: rdb, ttl: ttl}
}

func billStatsKey(billID uuid.UUID) string {
	return "billstats:" + billID.String()
}

func (c *StatsCache) GetBillStats(ctx context.Context, billID uuid.UUID) (*domain.VoteStats, bool, error) {
	data, err := c.rdb.Get(ctx, billStatsKey(billID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read stats cache: %w", err)
	}

	var stats domain.VoteStats
	if err := json.Unmarshal(data, &stats); err != nil {
		// A corrupt entry behaves like a miss; the next write replaces it.
		return nil, false, fmt.Errorf("failed to decode cached stats: %w", err)
	}

	return &stats, true, nil
}

func (c *StatsCache) SetBillStats(ctx context.Context, billID uuid.UUID, stats domain.VoteStats) error {
	encoded, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	if err := c.rdb.Set(ctx, billStatsKey(billID), encoded, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write stats cache: %w", err)
	}
	return nil
}

func (c *StatsCache) InvalidateBill(ctx context.Context, billID uuid.UUID) error {
	if err := c.rdb.Del(ctx, billStatsKey(billID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stats cache: %w", err)
	}
	return nil
}
