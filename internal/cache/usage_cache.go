package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// UsageCache tallies successful submissions per user in a Redis ZSET
type UsageCache interface {
	Add(ctx context.Context, userID string, submissions int) error
	Top(ctx context.Context, limit int) ([]UsageEntry, error)
	Rank(ctx context.Context, userID string) (int64, error)
}

// UsageEntry is one row of the usage ranking
type UsageEntry struct {
	UserID      string `json:"userId"`
	Submissions int    `json:"submissions"`
	Rank        int    `json:"rank"`
}

type usageCache struct {
	client *redis.Client
}

// NewUsageCache creates a new usage cache
func NewUsageCache(client *redis.Client) UsageCache {
	return &usageCache{
		client: client,
	}
}

func (c *usageCache) key() string {
	return "usage:submissions"
}

func (c *usageCache) Add(ctx context.Context, userID string, submissions int) error {
	return c.client.ZIncrBy(ctx, c.key(), float64(submissions), userID).Err()
}

func (c *usageCache) Top(ctx context.Context, limit int) ([]UsageEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]UsageEntry, len(results))
	for i, z := range results {
		entries[i] = UsageEntry{
			UserID:      z.Member.(string),
			Submissions: int(z.Score),
			Rank:        i + 1,
		}
	}
	return entries, nil
}

func (c *usageCache) Rank(ctx context.Context, userID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(), userID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}
