package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"

	defaultKey = "juryrank:state"
)

// Open builds the store selected by WithDriver, instrumented with metrics.
// The memory driver is used when no driver is given.
func Open(ctx context.Context, opts ...Option) (Store, error) {
	s := settings{driver: DriverMemory, key: defaultKey}
	for _, opt := range opts {
		opt(&s)
	}

	var (
		st  Store
		err error
	)
	switch s.driver {
	case DriverMemory:
		st = NewMemoryStore()
	case DriverFile:
		st = NewFileStore(s.path)
	case DriverSQLite:
		st, err = NewSQLiteStore(ctx, s.path, s.key)
	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     s.redisAddr,
			Password: s.redisPassword,
			DB:       s.redisDB,
		})
		st = NewRedisStore(client, s.key)
	case DriverPostgres:
		st, err = NewPostgresStore(ctx, s.postgresDSN, s.key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, s.driver)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(st, s.driver), nil
}
