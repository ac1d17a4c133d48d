package cache

import (
	"context"
	"encoding/json"
	"sync"

	"formpilot/internal/model"
)

// MemorySelectionCache keeps selections in process memory. Values are stored
// serialized so callers never share maps with the cache.
type MemorySelectionCache struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemorySelectionCache creates an empty in-process selection cache
func NewMemorySelectionCache() *MemorySelectionCache {
	return &MemorySelectionCache{data: make(map[string][]byte)}
}

func (c *MemorySelectionCache) Set(_ context.Context, sel *model.Selection) error {
	data, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[sel.UserID] = data
	return nil
}

func (c *MemorySelectionCache) Get(_ context.Context, userID string) (*model.Selection, error) {
	c.mu.RLock()
	data, ok := c.data[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var sel model.Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return nil, err
	}
	return &sel, nil
}

func (c *MemorySelectionCache) Delete(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, userID)
	return nil
}
