package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Exists(ctx context.Context, rdb redis.Cmdable, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// MarkSeen records id for service and reports whether it had been recorded
// before. Set-if-absent keeps two workers from both claiming the same event.
func MarkSeen(ctx context.Context, rdb redis.Cmdable, service, id string) (bool, error) {
	ok, err := rdb.SetNX(ctx, fmtKey(KeyDedup, service, id), "1", TTLDedup).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
