package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"formpilot/internal/model"

	"go.uber.org/zap"
)

// NameSource loads the seed lists for name pools
type NameSource interface {
	Lists(ctx context.Context) (model.NameLists, error)
}

// NameService owns one name pool per user session. A pool is seeded at login
// or on first use and refills only through Reseed.
type NameService struct {
	source NameSource
	logger *zap.Logger

	mu    sync.Mutex
	pools map[string]*NamePool
	rng   *rand.Rand
}

// NewNameService creates a new name service
func NewNameService(source NameSource, logger *zap.Logger) *NameService {
	return &NameService{
		source: source,
		logger: logger.Named("names"),
		pools:  make(map[string]*NamePool),
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	}
}

// SeedSession gives the user a freshly shuffled pool, replacing any existing one
func (s *NameService) SeedSession(ctx context.Context, userID string) (*NamePool, error) {
	lists, err := s.source.Lists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load names: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pool := NewNamePool(lists, s.rng)
	s.pools[userID] = pool
	s.logger.Info("name pool seeded", zap.String("user", userID),
		zap.Int("male", len(lists.Male)), zap.Int("female", len(lists.Female)))
	return pool, nil
}

// Pool returns the user's pool, seeding one if the session has none yet
func (s *NameService) Pool(ctx context.Context, userID string) (*NamePool, error) {
	s.mu.Lock()
	pool, ok := s.pools[userID]
	s.mu.Unlock()
	if ok {
		return pool, nil
	}
	return s.SeedSession(ctx, userID)
}

// Reseed refills the user's existing pool from the source
func (s *NameService) Reseed(ctx context.Context, userID string) (map[model.Gender]int, error) {
	pool, err := s.SeedSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	return map[model.Gender]int{
		model.GenderMale:   pool.Remaining(model.GenderMale),
		model.GenderFemale: pool.Remaining(model.GenderFemale),
	}, nil
}

// Drop forgets the user's pool
func (s *NameService) Drop(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pools, userID)
}

// StaticNames serves fixed lists, used by the offline CLI and tests
type StaticNames model.NameLists

func (n StaticNames) Lists(context.Context) (model.NameLists, error) {
	return model.NameLists(n), nil
}
