package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"dashmart/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dir  = flag.String("dir", "migrations", "path to migration files")
		down = flag.Bool("down", false, "roll back one migration instead of migrating up")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The pgx/v5 migrate driver registers under the pgx5 scheme.
	dsn := strings.Replace(cfg.Database.ConnectionString(), "postgres://", "pgx5://", 1)

	m, err := migrate.New("file://"+*dir, dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize migrator: %w", err)
	}
	defer m.Close()

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, vErr := m.Version()
	if vErr != nil && !errors.Is(vErr, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", vErr)
	}
	fmt.Printf("schema version: %d (dirty: %v)\n", version, dirty)
	return nil
}
