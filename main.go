package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/learntrack/internal/config"
	"github.com/example/learntrack/internal/database"
	"github.com/example/learntrack/internal/scheduler"
	"github.com/example/learntrack/internal/tracker"
)

func main() {
	// Local overrides come from .env when present
	_ = godotenv.Load()

	configPath := os.Getenv("LEARNTRACK_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	store, err := openStore(cfg.Database)
	if err != nil {
		logger.Fatal("open store", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer store.Close()

	trk, err := tracker.New(store, store, tracker.Options{
		EMA:    cfg.GetEMAConfig(),
		Policy: cfg.GetIntervalPolicy(),
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("build tracker", zap.Error(err))
	}

	var sweeper *scheduler.Sweeper
	if cfg.Sweep.Enabled {
		sweeper = scheduler.New(trk, store, scheduler.LogNotifier{Log: logger}, scheduler.Config{
			Every:     cfg.GetSweepEvery(),
			StartHour: cfg.Sweep.StartHour,
			EndHour:   cfg.Sweep.EndHour,
		}, logger)
		sweeper.Start()
	}

	logger.Info("learntrack started",
		zap.String("driver", cfg.Database.Driver),
		zap.Bool("sweep_enabled", cfg.Sweep.Enabled),
		zap.Duration("sweep_every", cfg.GetSweepEvery()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	if sweeper != nil {
		sweeper.Stop()
	}
}

// buildLogger makes a production zap logger at the configured level
func buildLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		zcfg.Level = lvl
	}
	return zcfg.Build()
}

// openStore opens the persistence backend named by the config
func openStore(cfg config.DatabaseConfig) (database.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return database.OpenSQL("sqlite3", cfg.DSN)
	case "postgres":
		return database.OpenSQL("postgres", cfg.DSN)
	case "bolt":
		return database.OpenBolt(cfg.DSN)
	case "memory":
		return database.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
}
