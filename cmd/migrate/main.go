package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gearsync/backend/internal/infrastructure/config"
	"github.com/gearsync/backend/internal/infrastructure/logger"
	"github.com/gearsync/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

func main() {
	dirFlag := flag.String("path", "", "migrations directory (default: ./migrations)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if err := run(flag.Args(), *dirFlag, log); err != nil {
		log.Fatal("migrate failed", zap.Error(err))
	}
}

func run(args []string, dir string, log *zap.Logger) error {
	command, rest := args[0], args[1:]

	dir, err := resolveMigrationsDir(dir)
	if err != nil {
		return err
	}
	log.Info("migration tool started",
		zap.String("command", command),
		zap.String("migrations_path", dir))

	// create and list work on the files alone, no database needed.
	switch command {
	case "create":
		return createMigration(dir, rest, log)
	case "list":
		return listMigrations(dir, log)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	mg, err := migration.New(db, dir, log)
	if err != nil {
		return err
	}
	defer mg.Close()

	switch command {
	case "up":
		return mg.Up()
	case "down":
		return mg.Down()
	case "step":
		n, err := intArg(rest, "step count")
		if err != nil {
			return err
		}
		return mg.Steps(n)
	case "goto":
		n, err := intArg(rest, "target version")
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("target version must not be negative, got %d", n)
		}
		return mg.GoTo(uint(n))
	case "version":
		return showVersion(mg, log)
	case "force":
		n, err := intArg(rest, "version")
		if err != nil {
			return err
		}
		return mg.Force(n)
	case "drop":
		if !confirmed(rest) {
			return errors.New("drop cancelled; run 'migrate drop -confirm' to proceed")
		}
		return mg.Drop()
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func createMigration(dir string, args []string, log *zap.Logger) error {
	if len(args) == 0 {
		return errors.New("migration name required: migrate create <name> [description]")
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(dir, args[0], description)
	if err != nil {
		return err
	}

	log.Info("migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath))
	return nil
}

func listMigrations(dir string, log *zap.Logger) error {
	names, err := migration.ListMigrations(dir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		log.Info("no migrations found")
		return nil
	}

	log.Info("available migrations", zap.Int("count", len(names)))
	for _, name := range names {
		fmt.Println("  -", name)
	}
	return nil
}

func showVersion(mg *migration.Migrator, log *zap.Logger) error {
	version, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		log.Info("no migrations applied")
		return nil
	}
	log.Info("current schema version",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}

// resolveMigrationsDir finds the migrations directory: the flag value if
// given, else ./migrations, else migrations/ next to the repo root when the
// binary runs from bin/.
func resolveMigrationsDir(dir string) (string, error) {
	if dir == "" {
		dir = defaultMigrationsDir
		if _, err := os.Stat(dir); err != nil {
			if execPath, execErr := os.Executable(); execErr == nil {
				candidate := filepath.Join(filepath.Dir(execPath), "..", "..", defaultMigrationsDir)
				if _, err := os.Stat(candidate); err == nil {
					dir = candidate
				}
			}
		}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve migrations path: %w", err)
	}
	return abs, nil
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s required", what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, args[0])
	}
	return n, nil
}

func confirmed(args []string) bool {
	for _, arg := range args {
		if arg == "-confirm" || arg == "--confirm" {
			return true
		}
	}
	return false
}

func usage() {
	fmt.Println(`GearSync Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current schema version
  force <version>       Force set schema version (repairs a dirty state)
  drop -confirm         Drop all database objects (DANGEROUS)
  create <name> [desc]  Create a new up/down migration pair
  list                  List available migrations

Flags:
  -path string          Migrations directory (default: ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment:
  GEARSYNC_DATABASE_HOST, GEARSYNC_DATABASE_PORT, GEARSYNC_DATABASE_USER,
  GEARSYNC_DATABASE_PASSWORD, GEARSYNC_DATABASE_DBNAME, GEARSYNC_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate create add_sync_events_table "Create sync events log"
  migrate version`)
}
