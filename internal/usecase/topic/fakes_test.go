package topic

import (
	"context"
	"errors"
	"sync"
	"time"
)

type reply struct {
	raw string
	err error
}

// scriptedSession returns replies in order and repeats the last one
type scriptedSession struct {
	mu      sync.Mutex
	replies []reply
	calls   int
	texts   [][]string
}

func (s *scriptedSession) Run(_ context.Context, texts []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.texts = append(s.texts, texts)
	idx := min(s.calls, len(s.replies)-1)
	s.calls++
	return s.replies[idx].raw, s.replies[idx].err
}

func (s *scriptedSession) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var errBoom = errors.New("boom")

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}
