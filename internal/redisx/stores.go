package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/cart"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

func fmtKey(format string, args ...any) string { return fmt.Sprintf(format, args...) }

// TokenStore persists one bearer token per client across reloads.
type TokenStore struct {
	Redis redis.Cmdable
}

// Get returns "" when the client has no token.
func (s *TokenStore) Get(ctx context.Context, clientID string) (string, error) {
	tok, err := s.Redis.Get(ctx, fmtKey(KeyToken, clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return tok, err
}

func (s *TokenStore) Put(ctx context.Context, clientID, token string) error {
	return s.Redis.Set(ctx, fmtKey(KeyToken, clientID), token, TTLToken).Err()
}

func (s *TokenStore) Delete(ctx context.Context, clientID string) error {
	return s.Redis.Del(ctx, fmtKey(KeyToken, clientID)).Err()
}

// CartStore persists a client's cart lines. Totals are never stored.
type CartStore struct {
	Redis redis.Cmdable
}

func (s *CartStore) Load(ctx context.Context, clientID string) ([]cart.Line, error) {
	b, err := s.Redis.Get(ctx, fmtKey(KeyCart, clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []cart.Line
	if err := json.Unmarshal(b, &lines); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", clientID, err)
	}
	return lines, nil
}

// Save writes the snapshot's lines; an empty cart deletes the key.
func (s *CartStore) Save(ctx context.Context, clientID string, c cart.Cart) error {
	key := fmtKey(KeyCart, clientID)
	if len(c.Lines) == 0 {
		return s.Redis.Del(ctx, key).Err()
	}
	b, err := json.Marshal(c.Lines)
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, key, b, TTLCart).Err()
}

// CatalogCache keeps product listings for a short TTL. Concurrent misses for
// the same variant share one upstream fetch.
type CatalogCache struct {
	Redis redis.Cmdable
	TTL   time.Duration

	group singleflight.Group
}

func VariantAll() string { return "all" }
func VariantCategory(c string) string { return "category:" + c }
func VariantBrand(b string) string { return "brand:" + b }

// Load returns the cached listing for variant or calls fetch and caches the
// result. Cache read/write failures fall through to fetch.
func (c *CatalogCache) Load(ctx context.Context, variant string, fetch func(context.Context) ([]catalog.Product, error)) ([]catalog.Product, error) {
	key := fmtKey(KeyCatalog, variant)
	if b, err := c.Redis.Get(ctx, key).Bytes(); err == nil {
		var ps []catalog.Product
		if json.Unmarshal(b, &ps) == nil {
			return ps, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		ps, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(ps); err == nil {
			_ = c.Redis.Set(ctx, key, b, c.ttl()).Err()
		}
		return ps, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]catalog.Product), nil
}

// Invalidate drops every cached listing.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	iter := c.Redis.Scan(ctx, 0, KeyCatalogScan, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.Redis.Del(ctx, keys...).Err()
}

func (c *CatalogCache) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return TTLCatalog
}
