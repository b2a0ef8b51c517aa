// cmd/historian/main.go is an asynchronous historian service that pops match action records
// from a Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/peekmatch/internal/cache"
	"github.com/jason-s-yu/peekmatch/internal/config"
	"github.com/jason-s-yu/peekmatch/internal/database"
	"github.com/jason-s-yu/peekmatch/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	cfg, err := config.LoadHistorian()
	if err != nil {
		logger.Fatalf("load historian config: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		logger.WithError(err).Fatal("redis unavailable")
	}
	defer rdb.Close()

	pool, err := database.Connect(ctx, cfg.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("database unavailable")
	}
	defer pool.Close()

	svc := historian.New(
		cache.NewConsumer(rdb, cfg.QueueName),
		&database.MatchRecorder{DB: pool},
		historian.Options{
			BatchSize:  cfg.BatchSize,
			FlushDelay: time.Duration(cfg.FlushMs) * time.Millisecond,
			Inactivity: time.Duration(cfg.InactivitySec) * time.Second,
		},
		logger.WithField("queue", cfg.QueueName),
	)
	if err := svc.Run(ctx); err != nil {
		logger.WithError(err).Error("historian exited")
	}
}
