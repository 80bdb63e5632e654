package main

import (
	"errors"
	"time"

	"github.com/md-rashed-zaman/meetslot/libs/config"
)

type serviceConfig struct {
	Service     string
	Port        string
	GRPCPort    string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers string
	JWTSecret    string

	MinNoticeDays       int
	DefaultInterval     int
	RollupCacheTTL      time.Duration
	RollupWarmCron      string
	VerificationTTL     time.Duration
	RequireVerification bool
	RateLimitPerMinute  int
	CORSOrigins         []string
}

func loadConfig() (serviceConfig, error) {
	cfg := serviceConfig{
		Service:        config.String("SERVICE_NAME", "booking-service"),
		RedisAddr:      config.String("REDIS_ADDR", ""),
		RedisPassword:  config.String("REDIS_PASSWORD", ""),
		KafkaBrokers:   config.String("KAFKA_BROKERS", ""),
		JWTSecret:      config.String("JWT_SECRET", "dev-secret"),
		RollupWarmCron: config.String("ROLLUP_WARM_CRON", "*/5 * * * *"),
		CORSOrigins:    config.List("CORS_ALLOWED_ORIGINS"),
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	var err error
	cfg.Port, err = config.Port("PORT", "8083")
	collect(err)
	cfg.GRPCPort, err = config.Port("GRPC_PORT", "9093")
	collect(err)
	cfg.DatabaseURL, err = config.RequiredString("DATABASE_URL")
	collect(err)
	cfg.RedisDB, err = config.Int("REDIS_DB", 0)
	collect(err)
	cfg.MinNoticeDays, err = config.Int("MIN_BOOKING_NOTICE_DAYS", 0)
	collect(err)
	cfg.DefaultInterval, err = config.Int("DEFAULT_SLOT_INTERVAL_MINUTES", 30)
	collect(err)
	cfg.RollupCacheTTL, err = config.Seconds("ROLLUP_CACHE_TTL_SECONDS", time.Minute)
	collect(err)
	cfg.VerificationTTL, err = config.Seconds("VERIFICATION_CODE_TTL_SECONDS", 10*time.Minute)
	collect(err)
	cfg.RequireVerification, err = config.Bool("REQUIRE_GUEST_VERIFICATION", false)
	collect(err)
	cfg.RateLimitPerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 120)
	collect(err)

	if cfg.MinNoticeDays < 0 {
		errs = append(errs, errors.New("MIN_BOOKING_NOTICE_DAYS must not be negative"))
	}
	return cfg, errors.Join(errs...)
}
