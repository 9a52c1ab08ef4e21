package di

import (
	"context"
	"net/http"
	"time"

	"casting-studio/backend/internal/api"
	"casting-studio/backend/internal/provider"
	"casting-studio/backend/internal/repository"
	"casting-studio/backend/internal/service"
	"casting-studio/backend/pkg/cache"
	"casting-studio/backend/pkg/config"
	"casting-studio/backend/pkg/health"
	"casting-studio/backend/pkg/jwt"
	"casting-studio/backend/pkg/logger"
	"casting-studio/backend/pkg/observability"
	"casting-studio/backend/pkg/redis"
	"casting-studio/backend/pkg/secrets"

	"go.opentelemetry.io/otel/sdk/metric"
	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB                *gorm.DB
	Logger            *logger.Logger
	Redis             *redis.Client
	Cache             *cache.Cache
	JWTService        *jwt.Service
	ImageGenerator    provider.ImageGenerator
	Repository        repository.CharacterRepository
	GenerationService *service.GenerationService
	ReaderService     *service.ReaderService
	Metrics           *observability.GenerationMetrics
	MeterProvider     *metric.MeterProvider
	MetricsHandler    http.Handler
	Health            *health.Checker
}

// New wires the full application graph from configuration
func New(db *gorm.DB, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{DB: db, Logger: log}

	c.JWTService = jwt.NewService(cfg.JWT.Secret)

	if cfg.Redis.Addr != "" {
		c.Redis = redis.NewClient(redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	if cfg.Cache.Enabled {
		c.Cache = cache.NewCache(cache.Options{
			DefaultExpiration: cfg.Cache.TTL,
			CleanupInterval:   cfg.Cache.PurgeWindow,
			MaxItems:          cfg.Cache.MaxSize,
		})
	}

	// The provider key may live in Vault rather than the environment
	apiKey := cfg.OpenAI.APIKey
	if apiKey == "" {
		apiKey = secrets.GetSecretWithDefault(context.Background(), "OPENAI_API_KEY", "")
	}

	c.MeterProvider, c.MetricsHandler = observability.SetupPrometheusMetrics()
	c.Metrics = observability.NewGenerationMetrics()

	c.ImageGenerator = provider.NewOpenAIGenerator(provider.Config{
		APIKey:  apiKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Size:    cfg.OpenAI.Size,
		Quality: cfg.OpenAI.Quality,
		Timeout: cfg.OpenAI.Timeout,
	}, log, c.Metrics)

	c.Repository = repository.NewGormCharacterRepository(db)

	c.GenerationService = service.NewGenerationService(
		c.Repository,
		c.ImageGenerator,
		log,
		c.Metrics,
		service.GenerationOptions{
			Model:            cfg.OpenAI.Model,
			Size:             cfg.OpenAI.Size,
			Quality:          cfg.OpenAI.Quality,
			BatchConcurrency: cfg.Features.BatchConcurrency,
			ShotInterval:     cfg.Features.BatchShotInterval,
			MaxShots:         cfg.Features.MaxShotsPerBatch,
		},
	)

	c.ReaderService = service.NewReaderService(c.Repository, c.Cache, log, cfg.Features.DemoMode)

	c.Health = health.NewChecker(log, 30*time.Second)
	c.Health.RegisterDatabaseCheck(func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	})
	if c.Redis != nil {
		c.Health.RegisterRedisCheck(c.Redis.Ping)
	}
	c.Health.RegisterProviderCheck(func() bool {
		return apiKey != ""
	})

	return c, nil
}

// NewHandler builds the HTTP handler from the container's services
func (c *Container) NewHandler() *api.GenerationHandler {
	return api.NewGenerationHandler(c.GenerationService, c.ReaderService, c.Logger)
}
