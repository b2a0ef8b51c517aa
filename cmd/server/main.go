// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/peekmatch/internal/auth"
	"github.com/jason-s-yu/peekmatch/internal/broadcast"
	"github.com/jason-s-yu/peekmatch/internal/cache"
	"github.com/jason-s-yu/peekmatch/internal/config"
	"github.com/jason-s-yu/peekmatch/internal/database"
	"github.com/jason-s-yu/peekmatch/internal/deck"
	"github.com/jason-s-yu/peekmatch/internal/game"
	"github.com/jason-s-yu/peekmatch/internal/handlers"
	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/jason-s-yu/peekmatch/internal/predefined"
	"github.com/jason-s-yu/peekmatch/internal/roster"
	"github.com/jason-s-yu/peekmatch/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := logrus.New()
	cfg, err := config.LoadServer()
	if err != nil {
		logger.Fatalf("load server config: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}

func run(ctx context.Context, cfg config.ServerConfig, logger *logrus.Logger) error {
	signer, err := newSigner(cfg)
	if err != nil {
		return err
	}

	coord := &game.Coordinator{
		Store:     store.NewMemoryStore(),
		Assembler: roster.NewAssembler(nil, logger),
		Dealer: &game.Dealer{
			Decks:             deck.NewStandardBuilder(rand.NewSource(time.Now().UnixNano())),
			Predefined:        predefined.FileSource{Path: cfg.PredefinedPath},
			DeckConfig:        deck.Config{DeckType: cfg.DeckType, IncludeJokers: cfg.IncludeJokers},
			CoinCostPerPlayer: cfg.CoinCostPerPlayer,
			Logger:            logger,
		},
		Engine: game.LoggingEngine{Logger: logger},
		Logger: logger,
		Options: game.Options{
			PeekDeadline: cfg.PeekDeadline(),
			RevealExpiry: cfg.RevealExpiry(),
		},
	}

	var rdb *redis.Client
	if cfg.StoreBackend == "redis" {
		rdb, err = cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		coord.Store = store.NewRedisStore(rdb, "", cfg.StoreTTL)
		coord.Actions = cache.NewPublisher(rdb, cfg.QueueName)
		logger.Infof("Using Redis store at %s", cfg.Redis.Addr)
	} else {
		logger.Info("Using in-memory store, action log disabled")
	}

	if !cfg.Postgres.Disabled {
		pool, err := database.Connect(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()
		coord.Assembler.Source = &database.CompPlayerSource{DB: pool}
		coord.Recorder = &database.MatchRecorder{DB: pool}
		logger.Infof("Connected to database at %s:%d/%s", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Database)
	}

	hub := broadcast.NewHub(logger)
	coord.Gateway = hub

	defaults := models.DefaultRoomSettings()
	defaults.PracticeDifficulty = cfg.PracticeLevel

	srv := &handlers.Server{
		Rooms:           game.NewRoomStore(),
		Coordinator:     coord,
		Hub:             hub,
		Signer:          signer,
		Logger:          logger,
		DefaultSettings: defaults,
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down")
		err := httpServer.Shutdown(shutdownCtx)
		for _, room := range srv.Rooms.ListRooms() {
			if terr := coord.Teardown(shutdownCtx, srv.Rooms, room); terr != nil {
				logger.WithError(terr).WithField("room_id", room.ID).Warn("Failed to delete room state")
			}
		}
		return err
	})
	return g.Wait()
}

func newSigner(cfg config.ServerConfig) (*auth.Signer, error) {
	if cfg.KeyPath != "" {
		return auth.LoadSigner(cfg.KeyPath, cfg.TokenExpire)
	}
	return auth.NewSigner(cfg.TokenExpire)
}
