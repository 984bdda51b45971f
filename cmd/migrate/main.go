package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/ganad831/fieldrules/internal/logger"
)

// migrator is the slice of *migrate.Migrate this tool drives; the
// command dispatch is tested against it.
type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Force(version int) error
}

func main() {
	var databaseURL string
	var migrationsPath string
	var command string

	flag.StringVar(&databaseURL, "database", "", "database URL (defaults to DATABASE_URL)")
	flag.StringVar(&migrationsPath, "path", "migrations", "directory holding the migration files")
	flag.StringVar(&command, "command", "up", "up, down, version or force <n>")
	flag.Parse()

	logger.Init()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required, pass -database or set DATABASE_URL")
		os.Exit(1)
	}

	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		slog.Error("failed to open migration source", "path", migrationsPath, "error", err)
		os.Exit(1)
	}
	defer m.Close()

	if err := runCommand(m, command, flag.Arg(0)); err != nil {
		slog.Error("migration failed", "command", command, "error", err)
		os.Exit(1)
	}
}

// runCommand dispatches one migration command. forceArg is the trailing
// version argument of the force command, empty otherwise.
func runCommand(m migrator, command, forceArg string) error {
	switch command {
	case "up":
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("schema already up to date")
			return nil
		}
		if err != nil {
			return err
		}
		slog.Info("migrations applied")
		return nil

	case "down":
		err := m.Down()
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		slog.Info("rollback complete")
		return nil

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		slog.Info("current schema version", "version", version, "dirty", dirty)
		return nil

	case "force":
		if forceArg == "" {
			return fmt.Errorf("force requires a version number")
		}
		version, err := strconv.Atoi(forceArg)
		if err != nil {
			return fmt.Errorf("invalid version number %q", forceArg)
		}
		if err := m.Force(version); err != nil {
			return err
		}
		slog.Info("schema version forced", "version", version)
		return nil
	}

	return fmt.Errorf("unknown command %q (use up, down, version or force)", command)
}
