package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/supplygraph/matching-engine/internal/domain"
	"github.com/supplygraph/matching-engine/internal/domains/cooking"
	"github.com/supplygraph/matching-engine/internal/domains/manufacturing"
	"github.com/supplygraph/matching-engine/internal/match"
	"github.com/supplygraph/matching-engine/internal/score"
	"github.com/supplygraph/matching-engine/internal/store"
	anthropicpkg "github.com/supplygraph/matching-engine/pkg/anthropic"
)

// matchEnv holds the initialized registry, store, and matching service
// shared by the match/validate/serve/trees commands.
type matchEnv struct {
	Registry *domain.Registry
	Store    store.Store
	Service  *match.Service
}

// Close releases resources held by the environment.
func (e *matchEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates config for the given mode, opens the store, registers
// the built-in domains, and builds the matching service. Callers should
// defer env.Close().
func initEnv(ctx context.Context, mode string) (*matchEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	registry := domain.NewRegistry()
	if err := manufacturing.Register(registry); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "register manufacturing domain")
	}
	if err := cooking.Register(registry); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "register cooking domain")
	}

	scorer := score.NewEngine(score.Config{
		EditDistanceLimit: cfg.Match.EditDistanceLimit,
	})

	// The AI-assisted layer only runs when a key is configured.
	var interp match.Interpreter
	if cfg.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		interp = match.NewAnthropicInterpreter(client, cfg.Anthropic.Model, cfg.Anthropic.RPS)
		zap.L().Info("ai-assisted matching enabled", zap.String("model", cfg.Anthropic.Model))
	} else {
		zap.L().Debug("MATCH_ANTHROPIC_KEY not set, ai-assisted matching disabled")
	}

	svc := match.NewService(registry, scorer, interp, match.Options{
		Concurrency:       cfg.Match.Concurrency,
		LLMTimeout:        time.Duration(cfg.Match.LLMTimeoutSecs) * time.Second,
		LLMThreshold:      cfg.Match.LLMThreshold,
		EditDistanceLimit: cfg.Match.EditDistanceLimit,
	})

	return &matchEnv{Registry: registry, Store: st, Service: svc}, nil
}

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// configWeights converts configured scoring weights. Returns nil when no
// weight is set so the engine applies its defaults.
func configWeights() *score.Weights {
	w := score.Weights{
		Process:   cfg.Score.Process,
		Material:  cfg.Score.Material,
		Equipment: cfg.Score.Equipment,
		Scale:     cfg.Score.Scale,
		Other:     cfg.Score.Other,
	}
	if w.Total() == 0 {
		return nil
	}
	return &w
}
