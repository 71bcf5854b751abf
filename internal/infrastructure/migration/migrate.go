package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// MigrationsTable keeps the storefront schema history apart from any other
// tool that shares the database.
const MigrationsTable = "autopecas_schema_migrations"

const lockTimeout = 30 * time.Second

// Migrator applies the embedded SQL migrations with golang-migrate
type Migrator struct {
	migrate  *migrate.Migrate
	logger   *zap.Logger
	versions []uint
}

// Status summarizes the schema state against the available migrations
type Status struct {
	Current uint
	Latest  uint
	Dirty   bool
	Pending int
}

// New creates a Migrator reading migrations from fsys, which is either the
// embedded migrations.FS or os.DirFS of a checkout.
func New(db *sql.DB, fsys fs.FS, logger *zap.Logger) (*Migrator, error) {
	versions, err := availableVersions(fsys)
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &zapMigrateLogger{logger: logger.Named("migrate")}
	m.LockTimeout = lockTimeout

	return &Migrator{
		migrate:  m,
		logger:   logger,
		versions: versions,
	}, nil
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	return m.run("up", m.migrate.Up)
}

// Down rolls back all migrations
func (m *Migrator) Down() error {
	return m.run("down", m.migrate.Down)
}

// Steps applies n migrations (positive = up, negative = down)
func (m *Migrator) Steps(n int) error {
	return m.run("step "+strconv.Itoa(n), func() error { return m.migrate.Steps(n) })
}

func (m *Migrator) run(op string, fn func() error) error {
	before, _, err := m.Version()
	if err != nil {
		return err
	}

	err = fn()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("Schema already up to date", zap.String("op", op), zap.Uint("version", before))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", op, err)
	}

	after, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migrations applied",
		zap.String("op", op),
		zap.Uint("from", before),
		zap.Uint("to", after),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Version returns the current migration version, 0 when nothing is applied
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Status reports the applied version against the newest available one
func (m *Migrator) Status() (Status, error) {
	current, dirty, err := m.Version()
	if err != nil {
		return Status{}, err
	}
	return statusFor(current, dirty, m.versions), nil
}

func statusFor(current uint, dirty bool, versions []uint) Status {
	st := Status{Current: current, Dirty: dirty}
	for _, v := range versions {
		if v > current {
			st.Pending++
		}
		if v > st.Latest {
			st.Latest = v
		}
	}
	return st
}

// Force sets the migration version without running migrations.
// Only for repairing a dirty database.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))

	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and the database driver
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}

// availableVersions parses the numeric prefix of every up migration
func availableVersions(fsys fs.FS) ([]uint, error) {
	names, err := ListMigrations(fsys)
	if err != nil {
		return nil, err
	}
	versions := make([]uint, 0, len(names))
	for _, name := range names {
		prefix, _, _ := strings.Cut(name, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("migration %q has no numeric version", name)
		}
		versions = append(versions, uint(v))
	}
	return versions, nil
}

// zapMigrateLogger routes golang-migrate progress output through zap
type zapMigrateLogger struct {
	logger *zap.Logger
}

func (l *zapMigrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *zapMigrateLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}
