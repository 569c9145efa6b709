package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/adapters/blobstore"
)

const defaultCacheTTL = 10 * time.Minute

type SourceConfig struct {
	Logger   *slog.Logger
	Store    blobstore.Store
	Key      string
	CacheTTL time.Duration
}

func (c *SourceConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Store == nil {
		return errors.New("blob store is required")
	}
	if c.Key == "" {
		return errors.New("dataset key is required")
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = defaultCacheTTL
	}
	return nil
}

// Source serves the dataset stored under one key, parsing it
// at most once per cache period.
type Source struct {
	cfg   SourceConfig
	cache *ttlcache.Cache[string, internal.Table]
}

func NewSource(cfg SourceConfig) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cache := ttlcache.New(
		ttlcache.WithTTL[string, internal.Table](cfg.CacheTTL),
	)

	return &Source{
		cfg:   cfg,
		cache: cache,
	}, nil
}

func (s *Source) Name() string {
	return s.cfg.Key
}

// Dataset returns a copy of the cached table, loading it
// from the store when the cache is empty or expired.
func (s *Source) Dataset(ctx context.Context) (internal.Table, error) {
	if item := s.cache.Get(s.cfg.Key); item != nil {
		return item.Value().Clone(), nil
	}

	body, err := s.cfg.Store.Get(ctx, s.cfg.Key)
	if err != nil {
		return internal.Table{}, fmt.Errorf("failed to fetch dataset %s: %w", s.cfg.Key, err)
	}

	table, stats, err := Parse(s.cfg.Key, bytes.NewReader(body))
	if err != nil {
		return internal.Table{}, fmt.Errorf("failed to parse dataset %s: %w", s.cfg.Key, err)
	}

	s.cfg.Logger.Info("dataset loaded",
		"key", s.cfg.Key,
		"rows", stats.Rows,
		"dropped_rows", stats.DroppedRows,
	)

	s.cache.Set(s.cfg.Key, table, ttlcache.DefaultTTL)
	return table.Clone(), nil
}

// Invalidate drops the cached table so the next
// Dataset call reads the store again.
func (s *Source) Invalidate() {
	s.cache.Delete(s.cfg.Key)
}
