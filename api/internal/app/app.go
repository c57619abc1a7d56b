// Package app wires the services shared by the API server, the bot and the
// CLI from a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"techsync/api/internal/assistant"
	"techsync/api/internal/config"
	"techsync/api/internal/dashboard"
	"techsync/api/internal/erp"
	"techsync/api/internal/llm"
	"techsync/api/internal/llm/gemini"
	"techsync/api/internal/llm/gpt"
	"techsync/api/internal/metrics"
	"techsync/api/internal/prompts"
	"techsync/api/internal/session"
	"techsync/api/internal/store"
)

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *sqlx.DB
	ERP       *erp.Service
	Dashboard *dashboard.Service
	Sessions  session.Store
	Engines   *llm.Engines
	Default   llm.Completer
	Assistant *assistant.Pipeline
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry

	closers []func() error
}

// Build opens the store (Postgres when a DSN is configured, memory
// otherwise), the session store (Redis when REDIS_URL is set) and the LLM
// engines. Call Close when done.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	repo, err := a.openStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.ERP = erp.NewService(repo, erp.WithLogger(logger))
	a.Dashboard = dashboard.NewService(a.ERP)

	if a.Sessions, err = a.openSessions(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Engines = NewEngines(cfg)
	if a.Default, err = a.Engines.GetEngine(cfg.LLMProvider); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("default engine: %w", err)
	}

	reg, err := assistant.ERPRegistry(a.ERP, a.Dashboard)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Assistant = assistant.New(a.Default, reg,
		assistant.WithLogger(logger),
		assistant.WithMetrics(a.Metrics),
		assistant.WithPrompts(prompts.NewLoader(cfg.PromptDir)),
		assistant.WithConcurrency(cfg.FetchConcurrency),
	)
	return a, nil
}

// NewEngines builds every engine that has an API key.
func NewEngines(cfg *config.Config) *llm.Engines {
	engs := &llm.Engines{}
	if cfg.OpenAIAPIKey != "" {
		e := gpt.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if cfg.OpenAIBaseURL != "" {
			e.WithBaseURL(cfg.OpenAIBaseURL)
		}
		engs.OpenAI = e
	}
	if cfg.GeminiAPIKey != "" {
		engs.Gemini = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	return engs
}

func (a *App) openStore(ctx context.Context) (erp.Repository, error) {
	dsn := a.Config.DatabaseURL
	if dsn == "" {
		a.Logger.Warn("no database configured, using in-memory store")
		return store.NewMemory(), nil
	}
	db, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)
	a.Logger.Info("db connected", zap.String("dsn", safeDSNSummary(dsn)))
	return store.NewPostgres(db), nil
}

func (a *App) openSessions(ctx context.Context) (session.Store, error) {
	if a.Config.RedisURL == "" {
		return session.NewMemory(), nil
	}
	rs, err := session.OpenRedis(ctx, a.Config.RedisURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, rs.Close)
	return rs, nil
}

// Migrate applies the schema when running on Postgres.
func (a *App) Migrate(ctx context.Context) error {
	if a.DB == nil {
		return errors.New("migrate: no database configured")
	}
	return store.NewPostgres(a.DB).Migrate(ctx)
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// safeDSNSummary hides the password.
func safeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "(unparsed dsn)"
	}
	return u.Redacted()
}
