package main

import (
	"context"
	"flag"
	"fmt"
	"gatekeeper/repositories"
	"log"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
)

type Config struct {
	StorageDriver  string `envconfig:"STORAGE_DRIVER" default:"badger"`
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	DatabaseDSN    string `envconfig:"DATABASE_DSN"`
	// INSPECT_COLOURS highlights the verified column
	Colours bool `envconfig:"INSPECT_COLOURS" default:"true"`
}

func main() {
	what := flag.String("what", "users", "Records to list: users or logs")
	limit := flag.Int("limit", 50, "Maximum number of rows")
	flag.Parse()

	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	repository, closeRepository, err := open(config)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer func() { _ = closeRepository() }()

	ctx := context.Background()
	switch *what {
	case "users":
		users, err := repository.ListRecentUsers(ctx, *limit)
		if err != nil {
			log.Fatal(err)
		}
		renderUsers(os.Stdout, users, config.Colours)
	case "logs":
		entries, err := repository.ListRecentLogs(ctx, *limit)
		if err != nil {
			log.Fatal(err)
		}
		renderLogs(os.Stdout, entries, config.Colours)
	default:
		log.Fatalf("Unknown -what %q, expected users or logs", *what)
	}
}

// open reads badger without taking its lock so a running bot is not disturbed.
func open(config Config) (repositories.Repository, func() error, error) {
	logger := logs.GetLoggerFromLevel(slog.LevelWarn)
	driver := repositories.Driver(config.StorageDriver)
	if driver != repositories.DriverBadger {
		return repositories.Open(context.Background(), driver, config.DatabaseDSN, logger)
	}

	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("badger %s: %w", config.BadgerFilepath, err)
	}
	return repositories.NewBadgerRepository(db, logger), db.Close, nil
}
