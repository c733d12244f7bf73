package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/config"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/logger"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/migration"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/persistence"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	opts := logger.DevelopmentOptions()
	opts.Level = logLevel
	opts.TimeLayout = "2006-01-02 15:04:05"
	log, err := logger.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	// create and list only touch files
	switch command {
	case "create":
		runCreate(log, resolveDir(migrationsPath), args[1:])
		return
	case "list":
		runList(log, resolveDir(migrationsPath))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// seed goes through the repositories, not the migrator
	if command == "seed" {
		runSeed(log, cfg, args[1:])
		return
	}

	db, err := sql.Open(sqlDriverName(cfg.Database.Driver), cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	migratorOpts := []migration.Option{migration.WithLogger(log)}
	if migrationsPath != "" {
		abs, err := filepath.Abs(migrationsPath)
		if err != nil {
			log.Fatal("Failed to resolve migrations path", zap.Error(err))
		}
		migratorOpts = append(migratorOpts, migration.WithSourceDir(abs))
	}

	m, err := migration.New(db, cfg.Database.Driver, migratorOpts...)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("driver", cfg.Database.Driver),
		zap.String("source", sourceLabel(migrationsPath)),
	)

	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}

	case "down":
		if err := m.Down(); err != nil {
			log.Fatal("Migration down failed", zap.Error(err))
		}

	case "step":
		if len(args) < 2 {
			log.Fatal("Step count required. Usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		if err := m.Steps(n); err != nil {
			log.Fatal("Migration step failed", zap.Error(err))
		}

	case "goto":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate goto <version>")
		}
		version, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		if err := m.GoTo(uint(version)); err != nil {
			log.Fatal("Migration goto failed", zap.Error(err))
		}

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal("Failed to get version", zap.Error(err))
		}
		if version == 0 {
			log.Info("No migrations applied")
			return
		}
		log.Info("Current migration version",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty),
		)

	case "force":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		log.Warn("Forcing migration version", zap.Int("version", version))
		if err := m.Force(version); err != nil {
			log.Fatal("Force version failed", zap.Error(err))
		}

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func runCreate(log *zap.Logger, dir string, args []string) {
	if len(args) < 1 {
		log.Fatal("Migration name required. Usage: migrate create <name> [description]")
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(dir, args[0], description)
	if err != nil {
		log.Fatal("Failed to create migration", zap.Error(err))
	}
	log.Info("Migration created",
		zap.Uint("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
}

func runList(log *zap.Logger, dir string) {
	files, err := migration.ListMigrations(dir)
	if err != nil {
		log.Fatal("Failed to list migrations", zap.Error(err))
	}
	if len(files) == 0 {
		log.Info("No migrations found", zap.String("dir", dir))
		return
	}
	log.Info("Available migrations", zap.Int("count", len(files)), zap.String("dir", dir))
	for _, f := range files {
		fmt.Printf("  %06d  %s\n", f.Version, f.Name)
	}
}

func runSeed(log *zap.Logger, cfg *config.Config, args []string) {
	if len(args) < 2 {
		log.Fatal("Owner id and file required. Usage: migrate seed <owner-id> <assets.json>")
	}
	ownerID, err := uuid.Parse(args[0])
	if err != nil {
		log.Fatal("Invalid owner id", zap.String("value", args[0]), zap.Error(err))
	}
	raw, err := os.ReadFile(args[1])
	if err != nil {
		log.Fatal("Failed to read assets file", zap.Error(err))
	}
	var assets []zakat.Asset
	if err := json.Unmarshal(raw, &assets); err != nil {
		log.Fatal("Failed to decode assets file", zap.String("file", args[1]), zap.Error(err))
	}

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.GormLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	ids, err := persistence.NewGormAssetRepository(db.DB).Import(context.Background(), ownerID, assets)
	if err != nil {
		log.Fatal("Asset seed failed", zap.Error(err))
	}
	log.Info("Assets seeded",
		zap.String("owner_id", ownerID.String()),
		zap.Int("count", len(ids)),
	)
}

// resolveDir finds the migrations directory for file-based commands
func resolveDir(path string) string {
	if path == "" {
		path = defaultMigrationsPath
		if _, err := os.Stat(path); err != nil {
			if exe, err := os.Executable(); err == nil {
				candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath)
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func sqlDriverName(driver string) string {
	if driver == "sqlite" {
		return "sqlite3"
	}
	return "postgres"
}

func sourceLabel(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

func printUsage() {
	fmt.Println(`Zakat Engine Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Force set migration version (use with caution)
  create <name> [desc]  Create a new migration file pair
  list                  List available migrations
  seed <owner> <file>   Load a JSON array of assets for an owner

Flags:
  -path string          Migrations directory (default: the migrations embedded in the binary;
                        create and list use ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  ZAKAT_DATABASE_DRIVER, ZAKAT_DATABASE_HOST, ZAKAT_DATABASE_PORT, ZAKAT_DATABASE_USER,
  ZAKAT_DATABASE_PASSWORD, ZAKAT_DATABASE_DBNAME, ZAKAT_DATABASE_PATH

Examples:
  # Apply all pending migrations
  migrate up

  # Roll back the last migration
  migrate step -1

  # Create a new migration
  migrate create add_zakat_reminders "Store hawl reminders per owner"`)
}
