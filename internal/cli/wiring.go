package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/adapters/blobstore"
	"github.com/AmirejibiIlia/maiko/internal/adapters/blobstore/fsstore"
	"github.com/AmirejibiIlia/maiko/internal/adapters/blobstore/s3store"
	"github.com/AmirejibiIlia/maiko/internal/adapters/llm/anthropic"
	"github.com/AmirejibiIlia/maiko/internal/adapters/loader"
	"github.com/AmirejibiIlia/maiko/internal/chat"
	"github.com/AmirejibiIlia/maiko/internal/config"
	"github.com/AmirejibiIlia/maiko/internal/engine"
	"github.com/AmirejibiIlia/maiko/internal/narrator"
	"github.com/AmirejibiIlia/maiko/internal/planner"
	"github.com/AmirejibiIlia/maiko/internal/usagelog"
)

func newStore(ctx context.Context, cfg config.StorageConfig) (blobstore.Store, error) {
	switch cfg.Backend {
	case config.BackendS3:
		return s3store.New(ctx, s3store.Config{
			Bucket: cfg.Bucket,
			Region: cfg.Region,
		})
	case config.BackendFS:
		return fsstore.New(cfg.Dir), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// loadTable reads the dataset from a local CSV file when path
// is set and from the configured store otherwise.
func loadTable(ctx context.Context, logger *slog.Logger, flags *globalFlags, path string) (internal.Table, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return internal.Table{}, fmt.Errorf("failed to open dataset: %w", err)
		}
		defer f.Close()

		table, stats, err := loader.Parse(path, f)
		if err != nil {
			return internal.Table{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		logger.Debug("dataset loaded", "path", path, "rows", stats.Rows, "dropped_rows", stats.DroppedRows)
		return table, nil
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return internal.Table{}, err
	}

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return internal.Table{}, err
	}

	source, err := newSource(logger, store, cfg)
	if err != nil {
		return internal.Table{}, err
	}
	return source.Dataset(ctx)
}

func newSource(logger *slog.Logger, store blobstore.Store, cfg *config.Config) (*loader.Source, error) {
	return loader.NewSource(loader.SourceConfig{
		Logger:   logger,
		Store:    store,
		Key:      cfg.Storage.DatasetKey,
		CacheTTL: cfg.Dataset.CacheTTL,
	})
}

func newChatService(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*chat.Service, error) {
	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	source, err := newSource(logger, store, cfg)
	if err != nil {
		return nil, err
	}

	client, err := anthropic.New(anthropic.Config{
		Logger:    logger,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	p, err := planner.New(planner.Config{
		Logger:     logger,
		LLM:        client,
		MaxRetries: cfg.LLM.MaxRetries,
	})
	if err != nil {
		return nil, err
	}

	n, err := narrator.New(client, cfg.LLM.Language)
	if err != nil {
		return nil, err
	}

	return chat.New(chat.Config{
		Logger:     logger,
		Source:     source,
		Executor:   engine.New(logger),
		Planner:    p,
		Narrator:   n,
		UsageLog:   usagelog.New(store, cfg.Storage.LogKey),
		SampleSize: cfg.Dataset.SampleSize,
	})
}
