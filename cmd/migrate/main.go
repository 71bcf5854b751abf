package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/autopecas/backend/internal/infrastructure/config"
	"github.com/autopecas/backend/internal/infrastructure/logger"
	"github.com/autopecas/backend/internal/infrastructure/migration"
	"github.com/autopecas/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var errUsage = errors.New("invalid usage")

func main() {
	var (
		migrationsPath string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", "", "Migrations directory (default: migrations embedded in the binary)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	err = run(flag.Args(), migrationsPath, log)
	_ = log.Sync()
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		printUsage()
		os.Exit(2)
	case err != nil:
		log.Error("Migration command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		os.Exit(1)
	}
}

func run(args []string, migrationsPath string, log *zap.Logger) error {
	command := args[0]

	var source fs.FS = migrations.FS
	if migrationsPath != "" {
		source = os.DirFS(migrationsPath)
	}

	// Commands that only touch migration files
	switch command {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("%w: migrate create <name> [description]", errUsage)
		}
		dir := migrationsPath
		if dir == "" {
			dir = "migrations"
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(dir, args[1], description)
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil

	case "list":
		list, err := migration.ListMigrations(source)
		if err != nil {
			return err
		}
		for _, m := range list {
			fmt.Println("  -", m)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}

	m, err := migration.New(db, source, log)
	if err != nil {
		return err
	}
	defer m.Close()

	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		n, err := intArg(args, "migrate step <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "force":
		v, err := intArg(args, "migrate force <version>")
		if err != nil {
			return err
		}
		return m.Force(v)
	case "version", "status":
		st, err := m.Status()
		if err != nil {
			return err
		}
		log.Info("Schema status",
			zap.Uint("version", st.Current),
			zap.Uint("latest", st.Latest),
			zap.Int("pending", st.Pending),
			zap.Bool("dirty", st.Dirty),
		)
		if st.Dirty {
			log.Warn("Schema is dirty; fix the failed migration then run force <version>")
		}
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, command)
}

func intArg(args []string, usage string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%w: %s", errUsage, usage)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, args[1])
	}
	return n, nil
}

func printUsage() {
	fmt.Println(`Autopeças database migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  status                Show applied, latest and pending versions (alias: version)
  force <version>       Force set migration version (repairs a dirty state)
  create <name> [desc]  Create the next migration file pair
  list                  List available migrations

Flags:
  -path string          Migrations directory (default: embedded migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  AUTOPECAS_DATABASE_HOST, AUTOPECAS_DATABASE_PORT, AUTOPECAS_DATABASE_USER,
  AUTOPECAS_DATABASE_PASSWORD, AUTOPECAS_DATABASE_DBNAME, AUTOPECAS_DATABASE_SSLMODE`)
}
