package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"huskelapp/internal/identendring"
	"huskelapp/internal/oppfolgingsoppgave"
	"huskelapp/internal/oppfolgingsoppgave/handler"
	"huskelapp/internal/platform/config"
	"huskelapp/internal/platform/database"
	"huskelapp/internal/platform/httpserver"
	"huskelapp/internal/platform/kafka"
	"huskelapp/internal/platform/leaderelection"
	"huskelapp/internal/platform/logger"
	"huskelapp/internal/platform/metrics"
	"huskelapp/internal/publisher"
	"huskelapp/internal/tilgang"
	httptransport "huskelapp/internal/transport/http"
	txcontext "huskelapp/pkg/platform/tx"
)

// main wires high-level dependencies and keeps the process lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		return
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Error("database migration failed", "error", err)
		return
	}

	if err := kafka.EnsureTopics(ctx, cfg.KafkaBrokers, cfg.OppgaveTopic); err != nil {
		log.Error("topic bootstrap failed", "error", err)
		return
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		log.Error("kafka producer setup failed", "error", err)
		return
	}
	defer producer.Close()
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, cfg.IdentTopic, log)
	if err != nil {
		log.Error("kafka consumer setup failed", "error", err)
		return
	}
	defer consumer.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	elector := leaderelection.New(redisClient, cfg.LeaderKey, cfg.LeaderTTL, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	appMetrics := metrics.New(registry)

	store := oppfolgingsoppgave.NewPostgresStore(db)
	service := oppfolgingsoppgave.NewService(store, txcontext.NewSQLTransactor(db), appMetrics, log)

	h := handler.New(service, tilgang.NewHTTPClient(cfg.TilgangURL), log)
	router := httptransport.NewRouter(h, registry, log)
	srv := httpserver.New(cfg.Addr, router)

	job := publisher.New(service, producer, elector, cfg.OppgaveTopic,
		cfg.PublisherInitialDelay, cfg.PublisherInterval, appMetrics, log)
	reconciler := identendring.NewReconciler(store, log)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting huskelapp", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := job.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		err := consumer.Run(groupCtx, reconciler.HandleRecord)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		elector.Resign(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("huskelapp stopped with error", "error", err)
		return
	}
	log.Info("huskelapp stopped")
}
