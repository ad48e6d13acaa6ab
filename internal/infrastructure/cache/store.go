package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/johnquangdev/speech-insights/pkg/config"
)

// Store is a byte-valued cache with per-key TTL
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New builds the store selected by CACHE_BACKEND. "none" returns a nil Store.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Cache.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(ctx, cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
