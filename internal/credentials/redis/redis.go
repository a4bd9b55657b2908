// redis: Redis-бэкенд хранилища учётных данных.
//
// Снимок хранится как Redis Hash по одному ключу с полями
// access, refresh, pending_email. Запись идёт через TxPipeline (DEL + HSET),
// поэтому пара токенов заменяется целиком.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pribylovaa/draftmail/internal/credentials"
)

const defaultKey = "draftmail:session"

const (
	fieldAccess  = "access"
	fieldRefresh = "refresh"
	fieldPending = "pending_email"
)

type Backend struct {
	rdb *goredis.Client
	key string
}

// New создаёт бэкенд поверх готового клиента. Пустой key: "draftmail:session".
func New(rdb *goredis.Client, key string) *Backend {
	if key == "" {
		key = defaultKey
	}

	return &Backend{rdb: rdb, key: key}
}

// NewFromURL создаёт клиент Redis из URL (redis://:pass@host:6379/0)
// и проверяет соединение.
func NewFromURL(ctx context.Context, redisURL, key string) (*Backend, error) {
	const op = "credentials.redis.NewFromURL"

	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := goredis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return New(rdb, key), nil
}

func (b *Backend) Load(ctx context.Context) (credentials.Snapshot, error) {
	const op = "credentials.redis.Load"

	m, err := b.rdb.HGetAll(ctx, b.key).Result()
	if err != nil {
		return credentials.Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(m) == 0 {
		return credentials.Snapshot{}, credentials.ErrNotFound
	}

	return credentials.Snapshot{
		Access:       m[fieldAccess],
		Refresh:      m[fieldRefresh],
		PendingEmail: m[fieldPending],
	}, nil
}

func (b *Backend) Save(ctx context.Context, snap credentials.Snapshot) error {
	const op = "credentials.redis.Save"

	kv := make(map[string]string, 3)
	if snap.Access != "" {
		kv[fieldAccess] = snap.Access
	}
	if snap.Refresh != "" {
		kv[fieldRefresh] = snap.Refresh
	}
	if snap.PendingEmail != "" {
		kv[fieldPending] = snap.PendingEmail
	}

	pipe := b.rdb.TxPipeline()
	pipe.Del(ctx, b.key)
	if len(kv) > 0 {
		pipe.HSet(ctx, b.key, kv)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (b *Backend) Close() error { return b.rdb.Close() }
