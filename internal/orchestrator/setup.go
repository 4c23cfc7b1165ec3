package orchestrator

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/a3tai/pdf-form-schema/internal/builder"
	"github.com/a3tai/pdf-form-schema/internal/classify"
	"github.com/a3tai/pdf-form-schema/internal/config"
	"github.com/a3tai/pdf-form-schema/internal/document"
	"github.com/a3tai/pdf-form-schema/internal/inference"
	"github.com/a3tai/pdf-form-schema/internal/progress"
	"github.com/a3tai/pdf-form-schema/internal/segment"
)

// FromConfig wires an orchestrator from cfg. An OpenAI client is created
// whenever an API key is present so fine-tuned models stay usable even with
// the general AI tier switched off.
func FromConfig(cfg *config.Config, logger *slog.Logger, notifier progress.Notifier) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	segOpts := segment.Options{MinLines: cfg.Segment.MinLines}

	enhancedOpts := []builder.Option{builder.WithLogger(logger), builder.WithSegmentOptions(segOpts)}
	if cfg.Segment.CatalogPath != "" {
		catalog, err := loadCatalog(cfg.Segment.CatalogPath)
		if err != nil {
			return nil, err
		}
		enhancedOpts = append(enhancedOpts, builder.WithCatalog(catalog))
	}

	opts := []Option{
		WithLogger(logger),
		WithNotifier(notifier),
		WithExtractor(document.NewExtractor(document.WithLogger(logger))),
		WithBuilders(
			builder.New(classify.Enhanced(), enhancedOpts...),
			builder.New(classify.Basic(), builder.WithLogger(logger), builder.WithSegmentOptions(segOpts)),
		),
		WithPrompts(inference.NewPrompts(inference.PromptOptions{
			MaxPromptChars:  cfg.AI.MaxPromptChars,
			FewShotMaxChars: cfg.AI.FewShotMaxChars,
			ReferencePath:   cfg.AI.ReferencePath,
			Logger:          logger,
		})),
		WithDefaultModel(cfg.AI.Model),
		WithGeneralAI(cfg.AI.Enabled),
		WithConcurrency(cfg.Concurrency),
	}

	if cfg.AI.APIKey != "" {
		client, err := inference.NewOpenAIClient(inference.OpenAIConfig{
			APIKey:       cfg.AI.APIKey,
			BaseURL:      cfg.AI.BaseURL,
			DefaultModel: cfg.AI.Model,
			Attempts:     uint(cfg.AI.Retries),
			Timeout:      cfg.AI.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("creating inference client: %w", err)
		}
		opts = append(opts, WithClient(client))
	} else {
		logger.Info("no API key configured, AI tiers disabled")
	}

	return New(opts...), nil
}

func loadCatalog(path string) (*segment.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening heading catalog: %w", err)
	}
	defer f.Close()
	catalog, err := segment.LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("loading heading catalog %s: %w", path, err)
	}
	return catalog, nil
}
