package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/config"
	"youtube-ai-summary/internal/domain/ports/repository"
	ucport "youtube-ai-summary/internal/domain/ports/usecase"
	aiAdapters "youtube-ai-summary/internal/infra/adapters/ai"
	"youtube-ai-summary/internal/infra/api"
	"youtube-ai-summary/internal/infra/db"
	"youtube-ai-summary/internal/infra/db/memory"
	pg "youtube-ai-summary/internal/infra/db/postgres"
	"youtube-ai-summary/internal/infra/db/sqlite"
	"youtube-ai-summary/internal/infra/i18n"
	"youtube-ai-summary/internal/infra/notify"
	red "youtube-ai-summary/internal/infra/redis"
	"youtube-ai-summary/internal/infra/sched"
	"youtube-ai-summary/internal/infra/subtitle"
	"youtube-ai-summary/internal/infra/tokens"
	"youtube-ai-summary/internal/infra/worker"
	"youtube-ai-summary/internal/usecase"
)

// Container holds the wired application. Both binaries build it the same way
// and use the parts they need.
type Container struct {
	Config   *config.Config
	Messages *i18n.Translator
	Jobs     repository.JobRepository
	Hub      *notify.Hub
	Manager  ucport.JobManager
	Engine   usecase.SummaryUseCase
	Pipeline usecase.Orchestrator
	JobUC    usecase.JobUseCase
	// Limiter is nil when http.rate_limit.requests is 0.
	Limiter api.ClientLimiter
	Janitor *sched.JanitorWorker

	pools   []*worker.Pool
	closers []func() error
	log     *zerolog.Logger
}

// Build wires every component from cfg and starts the worker pools under ctx.
// On error everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (c *Container, err error) {
	c = &Container{Config: cfg, log: logger}
	defer func() {
		if err != nil {
			_ = c.Close()
			c = nil
		}
	}()

	if c.Messages, err = i18n.NewTranslator(i18n.LocalesFS, cfg.App.Locale); err != nil {
		return c, fmt.Errorf("i18n: %w", err)
	}

	var redisClient *red.Client
	if cfg.Redis.URL != "" {
		if redisClient, err = red.NewClient(ctx, &cfg.Redis); err != nil {
			return c, fmt.Errorf("redis: %w", err)
		}
		c.closers = append(c.closers, redisClient.Close)
	}

	store, err := c.openStore(ctx, redisClient)
	if err != nil {
		return c, fmt.Errorf("store %s: %w", cfg.Store.Backend, err)
	}
	c.Jobs = db.NewInstrumentedRepo(store, cfg.Store.Backend)

	c.Hub = notify.NewHub(c.Jobs, notify.Options{
		IdleTimeout:    cfg.Notify.IdleTimeout,
		Buffer:         cfg.Notify.Buffer,
		PendingMessage: c.Messages.T(i18n.MsgJobPending),
	}, logger)
	c.Manager = usecase.NewJobManager(c.Jobs, c.Hub, logger)

	ioPool := c.startPool(ctx, "io", cfg.Pools.IO)
	pipelinePool := c.startPool(ctx, "pipeline", cfg.Pools.Pipeline)
	aiPool := c.startPool(ctx, "ai", cfg.Pools.AI)

	ai, err := aiAdapters.NewRegistry().Resolve(ctx, cfg.AI, logger)
	if err != nil {
		return c, err
	}
	prompts, err := usecase.NewPromptManager(cfg.Summary)
	if err != nil {
		return c, fmt.Errorf("prompts: %w", err)
	}
	partial, final := usecase.RetryPolicies(cfg.Retry, cfg.AI.CallTimeout)
	client := usecase.NewSummaryClient(ai, prompts, usecase.SummaryClientOptions{
		Model:     cfg.AI.DefaultModel,
		Partial:   partial,
		Final:     final,
		Estimator: tokens.ForModel(cfg.AI.DefaultModel),
	}, logger)

	subs, err := subtitle.NewProvider(cfg.Subtitle, subtitle.Deps{
		Reporter: c.Manager,
		Messages: c.Messages,
		Logger:   logger,
	})
	if err != nil {
		return c, fmt.Errorf("subtitles: %w", err)
	}

	c.Engine = usecase.NewSummaryUseCase(client, c.Manager, aiPool, c.Messages, usecase.SummaryOptions{
		OptimalChunkChars: cfg.Summary.OptimalChunkChars,
		MaxChunks:         cfg.Summary.MaxChunks,
	}, logger)
	c.Pipeline = usecase.NewOrchestrator(subs, c.Engine, c.Manager, c.Messages, ioPool, pipelinePool, logger)
	c.JobUC = usecase.NewJobUseCase(c.Jobs, c.Pipeline, c.Manager, c.Messages, logger)

	if n := cfg.HTTP.RateLimit.Requests; n > 0 {
		if redisClient != nil {
			c.Limiter = red.NewWindowLimiter(red.NewRateLimiter(redisClient), "submit", n, cfg.HTTP.RateLimit.Window)
		} else {
			c.Limiter = api.NewLocalLimiter(n, cfg.HTTP.RateLimit.Window)
		}
	}

	if cfg.Subtitle.Provider == "ytdlp" {
		c.Janitor = sched.NewJanitorWorker(cfg.Subtitle.TempDir, cfg.Subtitle.JanitorInterval, cfg.Subtitle.TempMaxAge, logger)
	}
	return c, nil
}

func (c *Container) openStore(ctx context.Context, redisClient *red.Client) (repository.JobRepository, error) {
	cfg := c.Config
	switch cfg.Store.Backend {
	case "memory":
		return memory.NewJobRepo(), nil
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() error { pool.Close(); return nil })
		if err := pg.EnsureSchema(ctx, pool); err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		return pg.NewJobRepo(pool, pg.NewTxManager(pool)), nil
	case "sqlite":
		sqlDB, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, sqlDB.Close)
		return sqlite.NewJobRepo(sqlDB), nil
	case "redis":
		if redisClient == nil {
			return nil, errors.New("redis.url is not set")
		}
		return red.NewJobRepo(redisClient, cfg.Redis.TTL), nil
	default:
		return nil, fmt.Errorf("unknown backend")
	}
}

func (c *Container) startPool(ctx context.Context, name string, pc config.PoolConfig) *worker.Pool {
	p := worker.NewPool(name, pc.Workers, pc.Queue, c.log)
	p.Start(ctx)
	c.pools = append(c.pools, p)
	return p
}

// Close stops the pools, then releases store connections in reverse order.
func (c *Container) Close() error {
	for _, p := range c.pools {
		p.Stop()
	}
	c.pools = nil

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
