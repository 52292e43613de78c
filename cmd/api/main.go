package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/printforge/marketplace-api/internal/catalog"
	"github.com/printforge/marketplace-api/internal/checkout"
	"github.com/printforge/marketplace-api/internal/common"
	"github.com/printforge/marketplace-api/internal/config"
	"github.com/printforge/marketplace-api/internal/earnings"
	"github.com/printforge/marketplace-api/internal/events"
	"github.com/printforge/marketplace-api/internal/health"
	"github.com/printforge/marketplace-api/internal/notify"
	"github.com/printforge/marketplace-api/internal/obs"
	"github.com/printforge/marketplace-api/internal/order"
	"github.com/printforge/marketplace-api/internal/queue"
	"github.com/printforge/marketplace-api/internal/ratelimit"
	"github.com/printforge/marketplace-api/internal/settlement"
	"github.com/printforge/marketplace-api/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "printforge")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	if cfg.MigrateOnStart {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "printforge-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	designStore := &catalog.Store{Pool: pool}
	orderStore := &order.PGStore{Pool: pool}
	notifyStore := &notify.PGStore{Pool: pool}
	eventStore := &events.PGStore{Pool: pool}

	enqueuer := &queue.Enqueuer{R: redisClient, Prefix: cfg.QueueRedisPrefix}
	fanout := &notify.Fanout{
		Sink:             notifyStore,
		Queue:            enqueuer,
		Logger:           logger,
		QueueMaxAttempts: cfg.QueueMaxAttempts,
	}
	bus := &events.Bus{
		Store: eventStore,
		Notifiers: []events.Notifier{
			notify.OrderEventNotifier{Orders: orderStore, Designs: designStore, Fanout: fanout},
		},
	}

	orderSvc := order.NewService(orderStore, bus, cfg.OrderNumberAttempts)
	orderSvc.Logger = logger
	checkoutSvc := &checkout.Service{
		Designs: designStore,
		Engine:  settlement.NewEngine(cfg.RoyaltyRateBps),
		Orders:  orderSvc,
		Events:  bus,
		Logger:  logger,
	}

	checkoutHandler := &checkout.Handler{Service: checkoutSvc}
	orderHandler := &order.Handler{Service: orderSvc}
	orderAdmin := &order.AdminHandler{Service: orderSvc}
	notifyHandler := &notify.Handler{Store: notifyStore}
	earningsHandler := &earnings.Handler{Store: &earnings.PGStore{Pool: pool}}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	checkoutLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "ratelimit:checkout:"},
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP,
			Window: cfg.CheckoutRateWindow,
			Max:    cfg.CheckoutRateMax,
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limiter unavailable")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(common.IdentityMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-User-ID", "X-User-Role"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker: readinessChecker{db: pool, redis: redisClient},
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		// Checkout is open to guests; identity only attaches the order.
		v.With(checkoutLimit.Middleware, idem.Middleware).Post("/checkout", checkoutHandler.Checkout)

		v.Group(func(authed chi.Router) {
			authed.Use(common.RequireUser)
			authed.Get("/orders", orderHandler.List)
			authed.Get("/orders/{orderId}", orderHandler.Get)
			authed.Post("/orders/{orderId}/cancel", orderHandler.Cancel)

			authed.Get("/notifications", notifyHandler.List)
			authed.Patch("/notifications/{notificationId}/read", notifyHandler.MarkRead)

			authed.Get("/designer/earnings", earningsHandler.DesignerSummary)
			authed.Get("/designer/orders", earningsHandler.DesignerOrders)
			authed.Get("/reseller/earnings", earningsHandler.ResellerSummary)
			authed.Get("/reseller/orders", earningsHandler.ResellerOrders)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(common.RequireUser, common.RequireAdmin)
			admin.Patch("/orders/{orderId}/status", orderAdmin.UpdateStatus)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-shutdownCtx.Done()
		health.SetReady(false)
		drainCtx, drainCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer drainCancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}
