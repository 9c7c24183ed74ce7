// Package app assembles the translation pipeline from configuration.
//
// Command-line runs and the HTTP service share the same wiring: one backend
// chosen by translation.backend, optionally fronted by the SQLite
// translation cache, driven by a translate.Engine and orchestrated by
// pipeline.Orchestrator. Metrics are optional; a nil *metrics.Metrics keeps
// the no-op observers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gnurante/internal/config"
	"gnurante/internal/deps"
	"gnurante/internal/langdetect"
	"gnurante/internal/logging"
	"gnurante/internal/metrics"
	"gnurante/internal/pipeline"
	"gnurante/internal/services"
	"gnurante/internal/services/llm"
	"gnurante/internal/services/mymemory"
	"gnurante/internal/services/openai"
	"gnurante/internal/transcache"
	"gnurante/internal/translate"
)

// Services bundles the collaborators a pipeline run needs.
type Services struct {
	Config       *config.Config
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Backend      translate.Backend
	Engine       *translate.Engine
	Detector     langdetect.Detector
	Orchestrator *pipeline.Orchestrator
	Cache        *transcache.Store
}

// Close releases the translation cache, if one was opened.
func (s *Services) Close() error {
	if s == nil || s.Cache == nil {
		return nil
	}
	return s.Cache.Close()
}

// NewBackend returns the translation backend selected by cfg. The result
// makes one request per call; retries are the engine's job.
func NewBackend(cfg *config.Config) (translate.Backend, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	timeout := cfg.TimeoutFor(cfg.Translation.Backend)
	switch cfg.Translation.Backend {
	case config.BackendLLM:
		return llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Referer:        cfg.LLM.Referer,
			Title:          cfg.LLM.Title,
			TimeoutSeconds: timeout,
		}), nil
	case config.BackendOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:         cfg.OpenAI.APIKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			Model:          cfg.OpenAI.Model,
			TimeoutSeconds: timeout,
		}), nil
	case config.BackendMyMemory:
		return mymemory.NewClient(mymemory.Config{
			BaseURL:        cfg.MyMemory.BaseURL,
			Email:          cfg.MyMemory.Email,
			TimeoutSeconds: timeout,
		}), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "app", "backend",
			fmt.Sprintf("unsupported translation backend %q", cfg.Translation.Backend), nil)
	}
}

// NewDetector pins the source language when translation.source_language is
// set and falls back to statistical detection otherwise.
func NewDetector(cfg *config.Config) langdetect.Detector {
	if cfg != nil {
		if source := strings.TrimSpace(cfg.Translation.SourceLanguage); source != "" {
			return langdetect.Fixed{Language: source}
		}
		return langdetect.NewWhatlang(cfg.Translation.MinConfidence)
	}
	return langdetect.NewWhatlang(0)
}

// NewEngine builds the translation engine with the configured workers,
// retry budget and chunk limit.
func NewEngine(cfg *config.Config, backend translate.Backend, logger *slog.Logger, observer translate.Observer) *translate.Engine {
	t := cfg.Translation
	opts := []translate.Option{
		translate.WithWorkers(t.Workers),
		translate.WithRetry(t.MaxAttempts,
			time.Duration(t.RetryBaseDelayMillis)*time.Millisecond,
			time.Duration(t.RetryMaxDelaySeconds)*time.Second),
		translate.WithMaxChars(t.MaxChars),
		translate.WithLogger(logger),
	}
	if observer != nil {
		opts = append(opts, translate.WithObserver(observer))
	}
	return translate.NewEngine(backend, opts...)
}

// Build wires backend, cache, engine, detector and orchestrator. Extra
// pipeline options are appended after the defaults derived from cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, extra ...pipeline.Option) (*Services, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	svc := &Services{Config: cfg, Logger: logger, Metrics: m}

	if cfg.Translation.CacheEnabled {
		store, err := transcache.Open(ctx, cfg.Translation.CachePath)
		if err != nil {
			// A broken cache must not block translation.
			logging.WarnWithContext(logger, "translation cache unavailable", "translation_cache_unavailable",
				logging.Error(err),
				logging.String("cache_path", cfg.Translation.CachePath),
				logging.String(logging.FieldErrorHint, "check cache_path permissions or delete the cache file"),
				logging.String(logging.FieldImpact, "every unit is sent to the backend"),
			)
		} else {
			svc.Cache = store
			backend = translate.NewCachingBackend(backend, store, logger)
		}
	}
	svc.Backend = backend

	var observer translate.Observer
	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if m != nil {
		observer = m
		opts = append(opts, pipeline.WithRecorder(m))
	}
	svc.Engine = NewEngine(cfg, backend, logger, observer)
	svc.Detector = NewDetector(cfg)

	orchestrator, err := pipeline.New(svc.Detector, svc.Engine, pipeline.PolicyFromConfig(cfg), append(opts, extra...)...)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	svc.Orchestrator = orchestrator
	return svc, nil
}

// LogDependencySnapshot records which external tools and credentials are
// present so failed runs can be diagnosed from the log alone.
func LogDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	tools := deps.Toolchain(cfg.FFmpegBinary(), cfg.YtDLPBinary())
	attrs := []any{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("translation_backend", cfg.Translation.Backend),
		logging.Bool("llm_key_present", strings.TrimSpace(cfg.LLM.APIKey) != ""),
		logging.Bool("openai_key_present", strings.TrimSpace(cfg.OpenAI.APIKey) != ""),
		logging.Bool("whisperx_cuda", cfg.ASR.CUDAEnabled),
		logging.String("whisperx_vad_method", strings.TrimSpace(cfg.ASR.VADMethod)),
		logging.Bool("translation_cache", cfg.Translation.CacheEnabled),
	}
	for _, tool := range tools {
		key := strings.ToLower(strings.ReplaceAll(tool.Name, "-", ""))
		attrs = append(attrs, logging.Bool(key+"_available", tool.Available))
	}
	logger.Info("dependency snapshot", attrs...)
}
