/*
Copyright 2025 The Inkwell Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package cache provides an optional response cache for the scholarly API
// adapters. The public Crossref and Semantic Scholar quotas are tight
// enough that re-fetching identical queries is the dominant waste; a
// short-TTL cache in front of them stretches the budget considerably.
// Cache failures are soft: a broken cache behaves like a miss.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ResponseCache stores raw API response payloads by key.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Config for the redis cache.
type Config struct {
	Enabled    bool          `yaml:"enabled"`
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// redisCache implements ResponseCache over go-redis.
type redisCache struct {
	client     *redis.Client
	defaultTTL time.Duration
	log        *logrus.Logger
}

// NewRedisCache connects to redis. The connection is verified lazily; a
// dead redis degrades every call to a miss.
func NewRedisCache(cfg Config, log *logrus.Logger) ResponseCache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Hour
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &redisCache{client: client, defaultTTL: cfg.DefaultTTL, log: log}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		if c.log != nil {
			c.log.WithError(err).WithField("component", "cache").Debug("cache get failed, treating as miss")
		}
		return nil, false
	}
	return value, true
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil && c.log != nil {
		c.log.WithError(err).WithField("component", "cache").Debug("cache set failed")
	}
}

// noopCache disables caching.
type noopCache struct{}

// NewNoopCache returns a cache that never hits.
func NewNoopCache() ResponseCache {
	return noopCache{}
}

func (noopCache) Get(ctx context.Context, key string) ([]byte, bool) { return nil, false }

func (noopCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {}
