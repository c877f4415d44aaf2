// Package cache keeps the latest audit report per dataset so the inspect
// surface can serve it without rerunning the pipeline. Reports go to Redis
// when an address is configured and to process memory otherwise.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-sift/sift/internal/report"
)

var ErrNotFound = errors.New("report not found")

const keyPrefix = "sift:report:"

type ProvideFn func() (Cache, error)

type Cache interface {
	Put(ctx context.Context, r *report.Report) error
	Get(ctx context.Context, dataset string) (*report.Report, error)
	Close() error
}

type Config struct {
	Addr     string        `envconfig:"SIFT_REPORT_CACHE_ADDR"`
	Password string        `envconfig:"SIFT_REPORT_CACHE_PASSWORD"`
	DB       int           `envconfig:"SIFT_REPORT_CACHE_DB" default:"0"`
	TTL      time.Duration `envconfig:"SIFT_REPORT_CACHE_TTL" default:"24h"`
}

// New returns a Redis backed cache when the config carries an address and
// an in-memory cache otherwise.
func New(cfg Config) (Cache, error) {
	if cfg.Addr == "" {
		return NewMemory(), nil
	}
	return NewRedis(cfg), nil
}

func NewRedis(cfg Config) *redisCache {
	return &redisCache{
		ttl: cfg.TTL,
		cli: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

type redisCache struct {
	cli *redis.Client
	ttl time.Duration
}

func (c *redisCache) Put(ctx context.Context, r *report.Report) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("unable to marshal report: %w", err)
	}
	if err := c.cli.Set(ctx, keyPrefix+r.Dataset, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("unable to store report of dataset %s: %w", r.Dataset, err)
	}
	return nil
}

func (c *redisCache) Get(ctx context.Context, dataset string) (*report.Report, error) {
	b, err := c.cli.Get(ctx, keyPrefix+dataset).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("unable to fetch report of dataset %s: %w", dataset, err)
	}
	var r report.Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("unable to unmarshal report of dataset %s: %w", dataset, err)
	}
	return &r, nil
}

func (c *redisCache) Close() error {
	return c.cli.Close()
}

func NewMemory() *memoryCache {
	return &memoryCache{reports: make(map[string]*report.Report)}
}

type memoryCache struct {
	mx      sync.RWMutex
	reports map[string]*report.Report
}

func (c *memoryCache) Put(_ context.Context, r *report.Report) error {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.reports[r.Dataset] = r
	return nil
}

func (c *memoryCache) Get(_ context.Context, dataset string) (*report.Report, error) {
	c.mx.RLock()
	defer c.mx.RUnlock()
	r, ok := c.reports[dataset]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (c *memoryCache) Close() error { return nil }
