package routes

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/wallet_api/internal/config"
	"github.com/congo-pay/wallet_api/internal/middleware"
	"github.com/congo-pay/wallet_api/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	store, err := NewStore(d)
	if err != nil {
		return err
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	app.Use(middleware.Metrics())

	// Health and metrics stay outside the rate limit.
	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1", rateLimiter(d))
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"backend":    d.Cfg.StoreBackend,
			"request_id": middleware.GetRequestID(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	walletSvc := wallet.NewService(store, wallet.NewValidator(d.Cfg.RequirePositiveAmount), d.Logger)
	RegisterWalletRoutes(api, wallet.NewHandler(walletSvc))

	return nil
}

// NewStore picks the wallet store for the configured backend. The in-memory
// store is only allowed in development environments.
func NewStore(d Deps) (wallet.Store, error) {
	switch d.Cfg.StoreBackend {
	case config.BackendPostgres:
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when STORE_BACKEND=%s", d.Cfg.StoreBackend)
		}
		return wallet.NewPostgresStore(d.DB), nil
	case config.BackendRedis:
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when STORE_BACKEND=%s", d.Cfg.StoreBackend)
		}
		return wallet.NewRedisStore(d.Cache, wallet.RedisOptions{
			LockTTL:    d.Cfg.RedisLockTTL,
			RetryDelay: d.Cfg.RedisLockRetry,
		}), nil
	case config.BackendMemory, "":
		if !d.Cfg.IsDev() {
			return nil, fmt.Errorf("in-memory wallet store is not allowed when APP_ENV=%s", d.Cfg.AppEnv)
		}
		return wallet.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", d.Cfg.StoreBackend)
	}
}

// rateLimiter shares the limit through Redis when a cache is configured and
// falls back to a per-process token bucket otherwise.
func rateLimiter(d Deps) fiber.Handler {
	if d.Cfg.RateLimitRPS <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if d.Cache != nil {
		limit := int(math.Ceil(d.Cfg.RateLimitRPS))
		if limit < d.Cfg.RateLimitBurst {
			limit = d.Cfg.RateLimitBurst
		}
		return middleware.RedisRateLimit(d.Cache, limit, time.Second)
	}
	return middleware.RateLimit(d.Cfg.RateLimitRPS, d.Cfg.RateLimitBurst)
}
