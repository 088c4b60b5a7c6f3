package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jonathan/sop-question-agent/internal/config"
	"github.com/jonathan/sop-question-agent/internal/entities"
	"github.com/jonathan/sop-question-agent/internal/generation"
	"github.com/jonathan/sop-question-agent/internal/llm"
	"github.com/jonathan/sop-question-agent/internal/metrics"
	"github.com/jonathan/sop-question-agent/internal/pipeline"
	"github.com/jonathan/sop-question-agent/internal/planning"
	"github.com/jonathan/sop-question-agent/internal/redaction"
	"github.com/jonathan/sop-question-agent/internal/validation"
)

// loadConfig reads the optional config file, applies the environment and
// validates the result.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newRedactionBackend returns the PII backend selected by cfg.
func newRedactionBackend(cfg *config.Config) (redaction.Backend, error) {
	switch cfg.RedactionBackend {
	case config.RedactionPattern:
		return redaction.PatternBackend{}, nil
	case config.RedactionPresidio, "":
		return redaction.NewPresidioBackend(cfg.PresidioAnalyzerURL,
			redaction.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}))
	default:
		return nil, fmt.Errorf("unknown redaction backend %q", cfg.RedactionBackend)
	}
}

// app holds the wired pipeline and the resources that must be released with it.
type app struct {
	pipeline *pipeline.Pipeline
	client   llm.Client
}

func (a *app) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

// newApp builds the full pipeline from cfg. When reg is not nil the pipeline
// collectors are registered with it.
func newApp(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *zap.Logger) (*app, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	p, err := buildPipeline(client, cfg, reg, logger)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &app{pipeline: p, client: client}, nil
}

// buildPipeline wires every stage on top of client.
func buildPipeline(client llm.Client, cfg *config.Config, reg prometheus.Registerer, logger *zap.Logger) (*pipeline.Pipeline, error) {
	plannerTier, err := llm.ParseTier(cfg.PlannerTier)
	if err != nil {
		return nil, err
	}
	generatorTier, err := llm.ParseTier(cfg.GeneratorTier)
	if err != nil {
		return nil, err
	}
	nerTier, err := llm.ParseTier(cfg.NERTier)
	if err != nil {
		return nil, err
	}

	backend, err := newRedactionBackend(cfg)
	if err != nil {
		return nil, err
	}
	gate := redaction.NewGate(backend, redaction.GateConfig{Language: cfg.RedactionLanguage}, logger)

	planner := planning.NewLLMPlanner(client, planning.Config{
		Tier:        plannerTier,
		Temperature: cfg.PlannerTemperature,
	}, logger)

	generator := generation.NewLLMGenerator(client, generation.WorkerConfig{
		Tier:             generatorTier,
		Temperature:      cfg.GeneratorTemperature,
		QuestionsPerTask: cfg.QuestionsPerTask,
	}, logger)
	dispatcher := generation.NewDispatcher(generator, cfg.Parallelism, nil, logger)

	var recognizer entities.Recognizer
	if cfg.NEREnabled {
		recognizer = entities.NewLLMRecognizer(client, nerTier, logger)
	}
	checker := validation.NewValidator(recognizer, nil, logger)

	var opts []pipeline.Option
	if reg != nil {
		observer := metrics.NewPipeline()
		observer.MustRegister(reg)
		opts = append(opts, pipeline.WithObserver(observer))
	}

	return pipeline.New(gate, planner, dispatcher, checker, pipeline.Config{
		MaxAttempts: cfg.MaxAttempts,
		MaxPerBeat:  cfg.MaxPerBeat,
	}, logger, opts...), nil
}
