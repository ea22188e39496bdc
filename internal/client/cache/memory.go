package cache

import (
	"context"
	"slices"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/goalkeeper/internal/model"
)

// Memory is a process-local cache. Lists are copied in and out.
type Memory struct {
	mu sync.RWMutex
	m  map[uuid.UUID][]model.Goal
}

func NewMemory() *Memory { return &Memory{m: map[uuid.UUID][]model.Goal{}} }

func (c *Memory) Get(_ context.Context, userID uuid.UUID) ([]model.Goal, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gs, ok := c.m[userID]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(gs), true, nil
}

func (c *Memory) Set(_ context.Context, userID uuid.UUID, gs []model.Goal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[userID] = append([]model.Goal{}, gs...)
	return nil
}

func (c *Memory) Delete(_ context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, userID)
	return nil
}

func (c *Memory) Close() error { return nil }
