// Package bootstrap assembles the extraction stack from configuration for the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/catalog-importer/constants"
	"github.com/joseph-ayodele/catalog-importer/internal/common"
	"github.com/joseph-ayodele/catalog-importer/internal/document"
	"github.com/joseph-ayodele/catalog-importer/internal/fallback"
	"github.com/joseph-ayodele/catalog-importer/internal/header"
	"github.com/joseph-ayodele/catalog-importer/internal/jobstore"
	"github.com/joseph-ayodele/catalog-importer/internal/llm"
	"github.com/joseph-ayodele/catalog-importer/internal/llm/bedrock"
	"github.com/joseph-ayodele/catalog-importer/internal/llm/openai"
	"github.com/joseph-ayodele/catalog-importer/internal/llm/vertex"
	"github.com/joseph-ayodele/catalog-importer/internal/pipeline"
	"github.com/joseph-ayodele/catalog-importer/internal/repository"
	"github.com/joseph-ayodele/catalog-importer/internal/tabular"
)

// NewProvider builds the configured inference provider. An empty provider name yields a nil
// provider, which leaves unrecognised sources skipped.
func NewProvider(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.Provider, func(), error) {
	noop := func() {}
	switch cfg.Provider {
	case "":
		logger.Warn("no inference provider configured, AI fallback disabled")
		return nil, noop, nil
	case "openai":
		c := openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			MaxRetries:  cfg.MaxRetries,
		}, logger)
		logger.Info("inference provider ready", "provider", c.Name(), "model", cfg.Model)
		return c, noop, nil
	case "bedrock":
		c, err := bedrock.NewClient(ctx, bedrock.Config{
			Region:      cfg.AWSRegion,
			ModelID:     cfg.Model,
			Temperature: cfg.Temperature,
			MaxRetries:  cfg.MaxRetries,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("inference provider ready", "provider", c.Name(), "region", cfg.AWSRegion)
		return c, noop, nil
	case "vertex":
		c, err := vertex.NewClient(ctx, vertex.Config{
			ProjectID:   cfg.GCPProject,
			Region:      cfg.GCPRegion,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("inference provider ready", "provider", c.Name(), "project", cfg.GCPProject)
		return c, func() {
			if err := c.Close(); err != nil {
				logger.Warn("close vertex client", "error", err)
			}
		}, nil
	default:
		return nil, noop, fmt.Errorf("unknown inference provider %q", cfg.Provider)
	}
}

// NewRoutes wires one extraction route per source kind around a shared fallback extractor.
func NewRoutes(cfg *common.Config, provider llm.Provider, logger *slog.Logger) (map[constants.SourceKind]pipeline.Route, error) {
	vocab, err := header.LoadVocabulary(cfg.Extraction.VocabularyPath)
	if err != nil {
		return nil, err
	}

	fb := fallback.NewExtractor(provider, fallback.Config{
		SampleRows:      cfg.Extraction.SampleRows,
		MaxOutputTokens: cfg.LLM.ResponseBudget,
	}, logger)

	runner := document.ExecRunner{Logger: logger}
	renderer := document.NewPDFRenderer(document.PDFConfig{
		Pdftoppm: cfg.Extraction.PdftoppmPath,
		MaxPages: cfg.Extraction.MaxPages,
	}, runner, logger)
	loader := document.NewImageLoader(document.ImageConfig{
		HeicConverter: cfg.Extraction.HeicConverter,
	}, runner, logger)

	return map[constants.SourceKind]pipeline.Route{
		constants.SourceKindTabular:  pipeline.NewTabularStage(tabular.NewReader(logger), vocab, fb, logger),
		constants.SourceKindDocument: pipeline.NewDocumentStage(renderer, fb, logger),
		constants.SourceKindImage:    pipeline.NewImageStage(loader, fb, logger),
	}, nil
}

// NewJobStore opens the configured job store. The memory store's sweeper runs until ctx ends.
func NewJobStore(ctx context.Context, cfg common.JobsConfig, logger *slog.Logger) (jobstore.Store, func(), error) {
	switch cfg.Backend {
	case "redis":
		client, err := jobstore.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, func() {}, err
		}
		logger.Info("job store ready", "backend", "redis")
		return jobstore.NewRedisStore(client, cfg.TTL, logger), func() {
			if err := client.Close(); err != nil {
				logger.Warn("close redis client", "error", err)
			}
		}, nil
	default:
		store := jobstore.NewMemoryStore(cfg.TTL, logger)
		go store.RunSweeper(ctx, cfg.SweepInterval)
		logger.Info("job store ready", "backend", "memory", "ttl", cfg.TTL)
		return store, func() {}, nil
	}
}

// RepositoryConfig maps database settings onto the catalog store's.
func RepositoryConfig(cfg common.DatabaseConfig) repository.Config {
	return repository.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}
}
