package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/stockcity/txf-bar-service/internal/api"
	"github.com/stockcity/txf-bar-service/internal/cache"
	"github.com/stockcity/txf-bar-service/internal/config"
	"github.com/stockcity/txf-bar-service/internal/database"
	"github.com/stockcity/txf-bar-service/internal/kafka"
	"github.com/stockcity/txf-bar-service/internal/market"
	"github.com/stockcity/txf-bar-service/internal/resample"
)

func main() {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	loc, err := time.LoadLocation(cfg.Market.Timezone)
	if err != nil {
		log.Fatal("invalid market timezone", zap.String("timezone", cfg.Market.Timezone), zap.Error(err))
	}

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database ready", zap.String("host", cfg.Database.Host))

	var respCache *cache.Cache
	if cfg.Redis.Addr != "" {
		respCache, err = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer respCache.Close()
		log.Info("response cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.StatusTopic)
	defer producer.Close()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.BarsTopic, cfg.Kafka.GroupID, db, producer, loc, log)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Error("kafka consumer stopped", zap.Error(err))
		}
	}()

	handler := api.NewHandler(api.Deps{
		Contracts: db,
		Bars:      db,
		// Factories, not instances: settlement facts are derived from the
		// current holiday table on every request, never held as global truth.
		NewResampler: func() api.Resampler {
			return resample.New(db, market.NewCalendar(db))
		},
		NewCalendar: func() api.SettlementCalendar {
			return market.NewCalendar(db)
		},
		Cache:    respCache,
		Location: loc,
		Log:      log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      api.SetupRoutes(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}

	if err := consumer.Close(); err != nil {
		log.Error("kafka consumer close failed", zap.Error(err))
	}
}
