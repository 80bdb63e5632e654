package main

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/meetslot/libs/config"
	"github.com/md-rashed-zaman/meetslot/libs/db"
	"github.com/md-rashed-zaman/meetslot/libs/httpx"
	"github.com/md-rashed-zaman/meetslot/libs/kafkax"
	otelx "github.com/md-rashed-zaman/meetslot/libs/otel"
	"github.com/md-rashed-zaman/meetslot/libs/runtime"
	"github.com/md-rashed-zaman/meetslot/services/notification-service/internal/consumer"
	"github.com/md-rashed-zaman/meetslot/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/meetslot/services/notification-service/internal/inbox"
	"github.com/md-rashed-zaman/meetslot/services/notification-service/internal/notify"
	"github.com/md-rashed-zaman/meetslot/services/notification-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	sender := email.NewSMTPSender(
		config.String("SMTP_HOST", "mailpit"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", "no-reply@meetslot.local"),
	)
	notifier := notify.New(sender, storage.NewRepository(pool), logger, config.String("NOTIFICATION_FAIL_SUFFIX", ""))

	inboxRepo := inbox.NewRepository(pool)
	retentionDays, err := config.Int("INBOX_RETENTION_DAYS", 14)
	if err != nil {
		panic(err)
	}
	pruneSchedule := config.String("INBOX_PRUNE_CRON", "@daily")
	go func() {
		if err := inbox.RunRetention(ctx, inboxRepo, pruneSchedule, time.Duration(retentionDays)*24*time.Hour, logger); err != nil {
			logger.Error("inbox retention not started", "err", err, "schedule", pruneSchedule)
		}
	}()

	brokers := config.String("KAFKA_BROKERS", "")
	topics := config.List("KAFKA_CONSUME_TOPICS")
	if len(topics) == 0 {
		topics = []string{
			notify.TopicBookingConfirmed,
			notify.TopicBookingCancelled,
			notify.TopicVerificationRequested,
		}
	}
	eventConsumer, err := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
		Topics:  topics,
	}, notifier.Handle)
	if err != nil {
		panic(err)
	}
	go eventConsumer.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	_ = runtime.ServeHTTP(ctx, srv, logger, 10*time.Second)
}
