package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore はRedisを共有カウンタとして使用するCounterStore実装。
// 複数プロセスでウィンドウを共有できるため、マルチインスタンス構成で使用する。
type RedisCounterStore struct {
	client *redis.Client
	prefix string
}

// NewRedisCounterStore はRedisCounterStoreを生成する。
// redisURLは接続URLを指定する（例: "redis://localhost:6379/0"）。
func NewRedisCounterStore(redisURL string) (*RedisCounterStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &RedisCounterStore{
		client: redis.NewClient(opts),
		prefix: "ratelimit:",
	}, nil
}

// Incr はキーのカウンタをインクリメントする。
// INCRとEXPIRE NXをパイプラインで発行し、最初のインクリメント時のみ
// ウィンドウのTTLを設定する。リセット時刻は残TTLから算出する。
func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	fullKey := s.prefix + key

	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)
	ttl := pipe.TTL(ctx, fullKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}

	return int(incr.Val()), time.Now().Add(remaining), nil
}

// Close はRedis接続を閉じる。
func (s *RedisCounterStore) Close() error {
	return s.client.Close()
}

// compile-time interface check
var _ CounterStore = (*RedisCounterStore)(nil)
