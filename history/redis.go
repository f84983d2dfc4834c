package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/moyoez/shareit-go/tool"
	"github.com/moyoez/shareit-go/types"
)

const redisAppendRetries = 5

// RedisStore keeps the JSON array under a single key. Appends run as WATCH/MULTI transactions,
// so concurrent writers never lose an entry.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(cfg types.HistoryConfig) (*RedisStore, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis history backend needs redisAddr")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}
	tool.DefaultLogger.Infof("History stored in Redis at %s (key %s)", cfg.RedisAddr, cfg.Key)
	return NewRedisStoreWithClient(client, cfg.Key), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "p2p-history"
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) []types.HistoryEntry {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			warnCorrupt(s.key, err)
		}
		return []types.HistoryEntry{}
	}
	entries, err := decode(data)
	if err != nil || entries == nil {
		if err != nil {
			warnCorrupt(s.key, err)
		}
		return []types.HistoryEntry{}
	}
	return entries
}

func (s *RedisStore) Append(ctx context.Context, entry types.HistoryEntry) error {
	txf := func(tx *redis.Tx) error {
		var current []types.HistoryEntry
		data, err := tx.Get(ctx, s.key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if current, err = decode(data); err != nil {
				warnCorrupt(s.key, err)
				current = nil
			}
		}
		next, err := encode(prepend(current, entry))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < redisAppendRetries; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("failed to append history: %w", err)
	}
	return fmt.Errorf("failed to append history: too much contention on %s", s.key)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
