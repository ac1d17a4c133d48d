package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"formpilot/internal/model"

	"github.com/redis/go-redis/v9"
)

// FormCache keeps analyzed forms so repeated analyses skip the fetch
type FormCache interface {
	Set(ctx context.Context, form *model.Form) error
	Get(ctx context.Context, formID string) (*model.Form, error)
	Delete(ctx context.Context, formID string) error
}

type formCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFormCache creates a new form cache
func NewFormCache(client *redis.Client, ttl time.Duration) FormCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &formCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *formCache) key(formID string) string {
	return fmt.Sprintf("form:%s", formID)
}

func (c *formCache) Set(ctx context.Context, form *model.Form) error {
	data, err := json.Marshal(form)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(form.FormID), data, c.ttl).Err()
}

func (c *formCache) Get(ctx context.Context, formID string) (*model.Form, error) {
	data, err := c.client.Get(ctx, c.key(formID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var form model.Form
	if err := json.Unmarshal([]byte(data), &form); err != nil {
		return nil, err
	}
	return &form, nil
}

func (c *formCache) Delete(ctx context.Context, formID string) error {
	return c.client.Del(ctx, c.key(formID)).Err()
}
