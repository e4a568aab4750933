package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/juryrank/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the state document under a single key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore wraps client. The connection is not checked here.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (r *RedisStore) Load(ctx context.Context) (model.State, error) {
	b, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.State{}, ErrEmpty
	}
	if err != nil {
		return model.State{}, fmt.Errorf("repository: redis get %s: %w", r.key, err)
	}
	return decodeState(b)
}

func (r *RedisStore) Save(ctx context.Context, state model.State) error {
	b, err := encodeState(state)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, b, 0).Err(); err != nil {
		return fmt.Errorf("repository: redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *RedisStore) Close() error { return r.client.Close() }
