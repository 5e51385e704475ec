package app

import (
	"context"
	"fmt"
	"time"

	"cv-hub/internal/config"
	"cv-hub/internal/database"
	"cv-hub/internal/database/migration"
	dbpostgres "cv-hub/internal/database/postgres"
	"cv-hub/internal/database/seeder"
	dbsqlite "cv-hub/internal/database/sqlite"
	"cv-hub/internal/infrastructure/cache"
	"cv-hub/internal/infrastructure/metrics"
	"cv-hub/internal/infrastructure/pdf"
	"cv-hub/internal/usecase"
	"cv-hub/internal/ws"

	"go.uber.org/zap"
)

type Container struct {
	Config  config.Config
	Logger  *zap.Logger
	DB      database.DB
	Cache   *cache.Redis
	Metrics *metrics.Metrics
	Hub     *ws.Hub
	PDF     *pdf.Chrome

	CV           *usecase.CVService
	SystemConfig *usecase.SystemConfigService
	Health       *usecase.HealthService
}

// NewContainer connects the database, applies migrations and wires the use cases.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := OpenDatabase(connectCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := (migration.Runner{Logger: logger}).Run(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	m := metrics.New()
	redisCache := cache.NewRedis(ctx, cfg.Redis, logger)
	hub := ws.NewHub(logger.Named("ws"), m)

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Cache:   redisCache,
		Metrics: m,
		Hub:     hub,
		PDF:     pdf.NewChrome(cfg.PDF, logger.Named("pdf")),
	}
	c.CV = usecase.NewCVUsecase(db, usecase.CVOptions{
		Cache:    redisCache,
		CacheTTL: cfg.Redis.TTL,
		Notifier: hub,
		Metrics:  m,
		Logger:   logger.Named("cv"),
	})
	c.SystemConfig = usecase.NewSystemConfigUsecase(db, logger.Named("system_config"))
	c.Health = usecase.NewHealthUsecase(db, redisCache, time.Now())

	logger.Info("container ready",
		zap.String("database", string(db.Dialect())),
		zap.Bool("cache", redisCache.Enabled()),
		zap.Bool("pdf", cfg.PDF.Enabled),
	)
	return c, nil
}

func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (database.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return dbpostgres.Connect(ctx, cfg)
	case config.DriverSQLite, "":
		return dbsqlite.Open(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// Seed runs the default seeders. The CV seeder imports through the container's use case so the
// cache and websocket subscribers observe it.
func (c *Container) Seed(ctx context.Context) error {
	r := seeder.Runner{Seeders: seeder.Defaults(c.Config.App.SeedFile, c.CV, c.Logger.Named("seed"))}
	return r.Run(ctx, c.DB)
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.Logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
