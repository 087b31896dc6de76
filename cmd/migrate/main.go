package main

import (
	"errors"
	"flag"
	"os"

	"storefront/internal/config"
	"storefront/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// usage: migrate [-path file://migrations] <up|down|version>
func main() {
	path := flag.String("path", "file://migrations", "migrations source URL")
	flag.Parse()

	cfg, err := config.LoadMigrate()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	args := flag.Args()
	if len(args) < 1 {
		log.Error("usage: migrate <up|down|version>")
		os.Exit(1)
	}

	m, err := migrate.New(*path, cfg.MigrateURL())
	if err != nil {
		log.Error("create migrate instance", zap.Error(err))
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	switch args[0] {
	case "up":
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no pending migrations")
			return
		}
		if err != nil {
			log.Error("migration up failed", zap.Error(err))
			os.Exit(1)
		}
		log.Info("migrations applied")

	case "down":
		err = m.Steps(-1)
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to rollback")
			return
		}
		if err != nil {
			log.Error("migration down failed", zap.Error(err))
			os.Exit(1)
		}
		log.Info("migration rolled back")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info("no migrations applied yet")
			return
		}
		if err != nil {
			log.Error("get version", zap.Error(err))
			os.Exit(1)
		}
		log.Info("current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))

	default:
		log.Error("unknown command", zap.String("command", args[0]))
		os.Exit(1)
	}
}
