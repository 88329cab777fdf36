package sequence

import (
	"context"
	"sync"
)

// MemoryCounter is a mutex-guarded Counter for tests and embedded use.
type MemoryCounter struct {
	mu   sync.Mutex
	last map[string]int64
}

// NewMemoryCounter builds an empty counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{last: make(map[string]int64)}
}

// Next increments and returns the ordinal for the scope.
func (c *MemoryCounter) Next(_ context.Context, prefix, period string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := prefix + ":" + period
	c.last[key]++
	return c.last[key], nil
}
