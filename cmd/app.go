package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jd-tailor/internal/ai"
	"github.com/spigell/jd-tailor/internal/ai/gemini"
	"github.com/spigell/jd-tailor/internal/filtering"
	"github.com/spigell/jd-tailor/internal/keywords"
	"github.com/spigell/jd-tailor/internal/logger"
	"github.com/spigell/jd-tailor/internal/metrics"
	"github.com/spigell/jd-tailor/internal/secrets"
	"github.com/spigell/jd-tailor/internal/tailor"
)

const providerGemini = "gemini"

// pipeline holds the components shared by every oracle-backed command.
type pipeline struct {
	config    *Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	extractor *keywords.Extractor
	rewriter  *tailor.Rewriter
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func loadConfig(l *zap.Logger) *Config {
	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	l.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return config
}

func newPipeline(ctx context.Context, l *zap.Logger) *pipeline {
	config := loadConfig(l)

	m := metrics.New()

	oracle, err := newOracle(ctx, config.AI, l)
	if err != nil {
		l.Fatal(
			"building the oracle",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY, GEMINI_API_KEY_FILE or the 'ai.gemini.api-key-file' key in the configuration file"),
		)
	}
	oracle = m.InstrumentOracle(oracle, providerGemini)

	steps := filtering.Default(filtering.Config{
		MaxGroups:          keywords.MaxGroups,
		MaxTermsPerGroup:   keywords.MaxTermsPerGroup,
		VerbatimExclusions: config.Keywords.VerbatimExclusions,
	})
	for _, name := range config.Keywords.DisabledSteps {
		filtering.DisableByName(steps, strings.TrimSpace(name), "disabled by configuration")
	}
	for _, status := range filtering.Describe(steps) {
		l.Debug("taxonomy refinement step",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	extractor := keywords.NewExtractor(oracle, logger.WithPipeline(l, "keywords"),
		keywords.WithRefiner(filtering.New(steps, logger.WithPipeline(l, "refine"))),
		keywords.WithMaxInputChars(config.Tailor.MaxInputChars),
		keywords.WithMaxLogLength(config.AI.Gemini.MaxLogLength),
	)

	rewriter := tailor.NewRewriter(oracle, extractor, tailor.Config{
		MaxInputChars: config.Tailor.MaxInputChars,
		MaxLogLength:  config.AI.Gemini.MaxLogLength,
		FallbackScore: config.Tailor.FallbackScore,
		UnknownValue:  config.Tailor.UnknownValue,
	}, logger.WithPipeline(l, "rewrite"))

	return &pipeline{
		config:    config,
		logger:    l,
		metrics:   m,
		extractor: extractor,
		rewriter:  rewriter,
	}
}

func newOracle(ctx context.Context, cfg *AIConfig, l *zap.Logger) (ai.Oracle, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != providerGemini {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
		Value: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, err
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Options{
		APIKey:       apiKey,
		Model:        cfg.Gemini.Model,
		Timeout:      cfg.Gemini.Timeout,
		MaxLogLength: cfg.Gemini.MaxLogLength,
	}, logger.WithOracle(l, providerGemini, cfg.Gemini.Model))
	if err != nil {
		return nil, fmt.Errorf("building gemini generator: %w", err)
	}

	return generator, nil
}
