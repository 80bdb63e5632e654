package main

import (
	"context"
	"net"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/meetslot/libs/db"
	"github.com/md-rashed-zaman/meetslot/libs/grpcx"
	"github.com/md-rashed-zaman/meetslot/libs/httpx"
	"github.com/md-rashed-zaman/meetslot/libs/kafkax"
	otelx "github.com/md-rashed-zaman/meetslot/libs/otel"
	"github.com/md-rashed-zaman/meetslot/libs/runtime"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/rollupcache"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/meetslot/services/booking-service/internal/verification"
)

func main() {
	cfg, err := loadConfig()
	logger := runtime.NewLogger(cfg.Service)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		panic(err)
	}

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)},
	}

	var cache rollupcache.Cache = rollupcache.NewMemory(cfg.RollupCacheTTL)
	var codes verification.Store = verification.NewMemoryStore(cfg.VerificationTTL)
	limiter := httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute).Middleware()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer func() { _ = rdb.Close() }()
		cache = rollupcache.NewRedis(rdb, cfg.RollupCacheTTL)
		codes = verification.NewRedisStore(rdb, cfg.VerificationTTL)
		limiter = httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "ratelimit:booking").Middleware(logger, true)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		logger.Warn("REDIS_ADDR not set; using in-process cache, codes and rate limits")
	}

	eventTypes := storage.NewEventTypeRepository(pool)
	bookings := storage.NewBookingRepository(pool)
	outboxRepo := outbox.NewRepository()

	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go publisher.Run(ctx)

	cal := calendar.NewService(bookings, cache, logger, calendar.Options{
		DefaultIntervalMinutes: cfg.DefaultInterval,
		MinNoticeDays:          cfg.MinNoticeDays,
	})
	warmer := calendar.NewWarmer(cal, eventTypes, logger)
	go func() {
		if err := warmer.Run(ctx, cfg.RollupWarmCron); err != nil {
			logger.Error("rollup warmer not started", "err", err, "schedule", cfg.RollupWarmCron)
		}
	}()

	h := handlers.New(handlers.Deps{
		EventTypes: eventTypes,
		Bookings:   bookings,
		Outbox:     outboxRepo,
		Emitter:    outbox.NewEmitter(pool, outboxRepo),
		Calendar:   cal,
		Codes:      codes,
		Logger:     logger,
	}, handlers.Config{
		JWTSecret:           cfg.JWTSecret,
		RequireVerification: cfg.RequireVerification,
	})

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.Handle("/api/", httpx.Chain(h.Routes(),
		httpx.WithCORS(httpx.CORSPolicy{AllowedOrigins: cfg.CORSOrigins}),
		limiter,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
	))
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv := grpcx.NewServer(logger)
	health := grpcx.RegisterHealth(grpcSrv, "meetslot.booking.v1.Booking")
	go grpcx.WatchReadiness(ctx, health, 10*time.Second, db.ReadyCheck(pool), logger)

	go func() {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			logger.Error("grpc listen failed", "err", err)
			return
		}
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	_ = runtime.ServeHTTP(ctx, srv, logger, 10*time.Second)
	grpcSrv.GracefulStop()
	logger.Info("booking-service stopped")
}
