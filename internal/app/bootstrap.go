package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/campus-records/records/internal/auth"
	"github.com/campus-records/records/internal/fixtures"
	"github.com/campus-records/records/internal/observability"
	"github.com/campus-records/records/internal/platform/cache"
	"github.com/campus-records/records/internal/platform/db"
	"github.com/campus-records/records/internal/principals"
	"github.com/campus-records/records/internal/rbac"
	"github.com/campus-records/records/internal/records"
	"github.com/campus-records/records/internal/sessions"
	"github.com/campus-records/records/jobs"
)

// Runtime is the wired application.
type Runtime struct {
	Handler  http.Handler
	Sessions *sessions.Manager
	Metrics  *observability.Metrics

	closers []func()
}

// Close releases connections in reverse acquisition order.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// Bootstrap connects the configured backends and builds the HTTP handler.
func Bootstrap(ctx context.Context, cfg *Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{Metrics: observability.NewMetrics()}

	var (
		people   principals.Store
		store    records.Store
		auditLog auth.Repository
	)
	switch cfg.StoreDriver {
	case StoreDriverMemory:
		memPeople, memRecords, err := fixtures.Default().Load(fixtures.DefaultPassword)
		if err != nil {
			return nil, err
		}
		people, store = memPeople, memRecords
		logger.Warn("using in-memory fixture store")
	default:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		people = principals.NewRepository(pool)
		store = records.NewRepository(pool)
		auditLog = auth.NewRepository(pool)
	}

	var sessionStore sessions.Store = sessions.NewMemoryStore()
	var redisClient *redis.Client
	if cfg.SessionBackend == SessionBackendRedis {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			rt.Close()
			return nil, err
		}
		redisClient = client
		rt.closers = append(rt.closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		})
		sessionStore = sessions.NewRedisStore(client)
	}

	manager := sessions.NewManager(sessionStore, sessions.Config{
		TTL:        cfg.SessionTTL,
		CookieName: cfg.SessionCookie,
		Secure:     cfg.IsProduction(),
	}, logger)
	rt.Sessions = manager

	policy := cfg.ErrorPolicy()
	authService := auth.NewService(people, manager, auditLog)
	authHandler := auth.NewHandler(logger, authService, manager, auth.HandlerConfig{
		Policy:     policy,
		Metrics:    rt.Metrics,
		LoginLimit: cfg.LoginRateLimit,
	})

	rbacMiddleware := rbac.Middleware{
		Sessions:  manager,
		Evaluator: rbac.NewEvaluator(people, logger),
		Logger:    logger,
		Policy:    policy,
		Metrics:   rt.Metrics,
	}
	recordsHandler := records.NewHandler(logger, store, rbacMiddleware)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		rt.closers = append(rt.closers, func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		})
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	rt.Handler = NewRouter(RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthHandler:    authHandler,
		RecordsHandler: recordsHandler,
		JobHandler:     jobHandler,
		Metrics:        rt.Metrics,
		AccessLog:      !InTestMode(),
	})
	logger.Info("bootstrap complete",
		slog.String("store", cfg.StoreDriver),
		slog.String("sessions", cfg.SessionBackend),
		slog.Duration("ttl", cfg.SessionTTL),
	)
	return rt, nil
}
