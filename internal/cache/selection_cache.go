package cache

import (
	"context"
	"encoding/json"
	"time"

	"formpilot/internal/model"

	"github.com/redis/go-redis/v9"
)

// SelectionCache stores each user's current form and answering setup
type SelectionCache interface {
	Set(ctx context.Context, sel *model.Selection) error
	Get(ctx context.Context, userID string) (*model.Selection, error)
	Delete(ctx context.Context, userID string) error
}

type selectionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSelectionCache(client *redis.Client) SelectionCache {
	return &selectionCache{
		client: client,
		ttl:    7 * 24 * time.Hour,
	}
}

func (c *selectionCache) Set(ctx context.Context, sel *model.Selection) error {
	data, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "selection:"+sel.UserID, data, c.ttl).Err()
}

func (c *selectionCache) Get(ctx context.Context, userID string) (*model.Selection, error) {
	data, err := c.client.Get(ctx, "selection:"+userID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sel model.Selection
	if err := json.Unmarshal([]byte(data), &sel); err != nil {
		return nil, err
	}
	return &sel, nil
}

func (c *selectionCache) Delete(ctx context.Context, userID string) error {
	return c.client.Del(ctx, "selection:"+userID).Err()
}
