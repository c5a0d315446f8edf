package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	lifecycle "github.com/goliatone/go-lifecycle"
	"github.com/goliatone/go-lifecycle/internal/di"
	"github.com/goliatone/go-lifecycle/internal/storage"
	_ "github.com/mattn/go-sqlite3"
	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type appConfig struct {
	Driver         string `env:"LIFECYCLE_DB_DRIVER" envDefault:"sqlite"`
	DSN            string `env:"LIFECYCLE_DB_DSN" envDefault:"file:lifecycle.db?cache=shared"`
	CreateSchema   bool   `env:"LIFECYCLE_DB_CREATE_SCHEMA" envDefault:"false"`
	CronSpec       string `env:"LIFECYCLE_SWEEP_CRON" envDefault:"*/5 * * * *"`
	RunOnce        bool   `env:"LIFECYCLE_SWEEP_ONCE" envDefault:"false"`
	BatchSize      int    `env:"LIFECYCLE_SWEEP_BATCH_SIZE" envDefault:"200"`
	WriteGroupSize int    `env:"LIFECYCLE_SWEEP_WRITE_GROUP" envDefault:"25"`
	LogProvider    string `env:"LIFECYCLE_LOG_PROVIDER" envDefault:"console"`
	LogLevel       string `env:"LIFECYCLE_LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LIFECYCLE_LOG_FORMAT" envDefault:""`
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("lifecycle-sweeper: %v", err)
	}
}

func run() error {
	var appCfg appConfig
	if err := env.Parse(&appCfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	db, err := openDB(appCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if appCfg.CreateSchema {
		if err := storage.CreateTables(ctx, db); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	cfg := lifecycle.DefaultConfig()
	cfg.Sweep.BatchSize = appCfg.BatchSize
	cfg.Sweep.WriteGroupSize = appCfg.WriteGroupSize
	cfg.Sweep.CronSpec = appCfg.CronSpec
	cfg.Features.Logger = true
	cfg.Logging.Provider = appCfg.LogProvider
	cfg.Logging.Level = appCfg.LogLevel
	cfg.Logging.Format = appCfg.LogFormat

	module, err := lifecycle.New(cfg, di.WithBunDB(db))
	if err != nil {
		return fmt.Errorf("initialise lifecycle: %w", err)
	}
	sweeper := module.Sweeper()
	if sweeper == nil {
		return fmt.Errorf("sweeper unavailable: scheduling feature is disabled")
	}

	sweepOnce := func() {
		result, err := sweeper.RunDueTransitions(ctx, time.Now().UTC())
		if err != nil {
			log.Printf("sweep failed: %v", err)
			return
		}
		log.Printf("sweep done: published=%d archived=%d failed=%d groups=%d",
			len(result.Published), len(result.Archived), len(result.Failed), result.WriteGroups)
	}

	if appCfg.RunOnce {
		sweepOnce()
		return nil
	}

	runner := cron.New()
	if _, err := runner.AddFunc(appCfg.CronSpec, sweepOnce); err != nil {
		return fmt.Errorf("register cron spec %q: %w", appCfg.CronSpec, err)
	}
	runner.Start()
	log.Printf("sweeping on schedule %q", appCfg.CronSpec)

	<-ctx.Done()
	<-runner.Stop().Done()
	return nil
}

func openDB(cfg appConfig) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "sqlite", "sqlite3":
		sqlDB, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	case "postgres", "pg":
		sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
