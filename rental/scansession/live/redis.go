// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package live

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisCache struct {
	log    *zap.Logger
	client *redis.Client
}

func openRedisCache(ctx context.Context, log *zap.Logger, address string) (*redisCache, error) {
	opts, err := redis.ParseURL(address)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, Error.New("ping failed: %v", err)
	}
	return &redisCache{log: log, client: client}, nil
}

func sessionKey(sessionID int64) string {
	return fmt.Sprintf("scansession:%d", sessionID)
}

// Touch marks the session live until expiresAt.
func (cache *redisCache) Touch(ctx context.Context, sessionID int64, expiresAt time.Time) (err error) {
	defer mon.Task()(&ctx)(&err)

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return cache.Forget(ctx, sessionID)
	}
	return Error.Wrap(cache.client.Set(ctx, sessionKey(sessionID), 1, ttl).Err())
}

// Forget drops the session from the cache.
func (cache *redisCache) Forget(ctx context.Context, sessionID int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	return Error.Wrap(cache.client.Del(ctx, sessionKey(sessionID)).Err())
}

// Close releases the redis connection.
func (cache *redisCache) Close() error {
	return Error.Wrap(cache.client.Close())
}
