package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service stores raw documents (provider JSON payloads) under string keys.
type Service interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// GetOrLoad returns the cached value for key or calls load and stores its result.
// A failing load is never cached. Cache failures other than a miss degrade to a
// direct load and are passed to onCacheErr, which may be nil.
func GetOrLoad(
	ctx context.Context,
	c Service,
	key string,
	ttl time.Duration,
	load func(context.Context) ([]byte, error),
	onCacheErr func(error),
) ([]byte, bool, error) {
	b, err := c.Get(ctx, key)
	if err == nil {
		return b, true, nil
	}
	if !errors.Is(err, ErrCacheMiss) && onCacheErr != nil {
		onCacheErr(err)
	}

	b, err = load(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := c.Set(ctx, key, b, ttl); err != nil && onCacheErr != nil {
		onCacheErr(err)
	}
	return b, false, nil
}
