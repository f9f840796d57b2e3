package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/rplryan/x402-routenet/pkg/routing"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MemoryDSN keeps the route history in process memory only, matching the
// default no-persistence deployment.
const MemoryDSN = ":memory:"

// HistoryLimit caps how many recent routes a single query may return.
const HistoryLimit = 100

// RouteStore implements routing.Recorder on SQLite.
type RouteStore struct {
	db   *sql.DB
	path string
}

// Config holds route store configuration.
type Config struct {
	// Path is the SQLite DSN. Empty selects the in-memory database.
	Path string

	// MaxOpenConns bounds the connection pool.
	MaxOpenConns int

	// ConnMaxLifetime recycles pooled connections.
	ConnMaxLifetime time.Duration
}

// NewRouteStore creates a new route store instance.
func NewRouteStore(cfg Config) *RouteStore {
	path := cfg.Path
	if path == "" {
		path = MemoryDSN
	}
	return &RouteStore{path: path}
}

// Init opens the database connection and verifies it.
func (s *RouteStore) Init(ctx context.Context) error {
	dsn := s.path
	if dsn != MemoryDSN {
		dsn = fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dsn)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// The in-memory database lives in a single connection; a pool
	// would see independent empty databases.
	if s.path == MemoryDSN {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *RouteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations from the embedded SQL files.
func (s *RouteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// HealthCheck verifies the database connection is alive.
func (s *RouteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

// RecordRoute persists one routing decision.
func (s *RouteStore) RecordRoute(ctx context.Context, rec *routing.RouteRecord) error {
	query := `
		INSERT INTO routes (id, timestamp, capability, strategy, routed_to, total_usd)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Timestamp, rec.Capability, string(rec.Strategy), rec.RoutedTo, rec.TotalUSD)
	if err != nil {
		return fmt.Errorf("failed to record route: %w", err)
	}
	return nil
}

// RecentRoutes returns the last limit routing decisions, newest first.
// The limit is clamped to HistoryLimit.
func (s *RouteStore) RecentRoutes(ctx context.Context, limit int) ([]routing.RouteRecord, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}

	query := `
		SELECT id, timestamp, capability, strategy, routed_to, total_usd
		FROM routes
		ORDER BY timestamp DESC, id
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	var records []routing.RouteRecord
	for rows.Next() {
		var rec routing.RouteRecord
		var strategy string
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Capability, &strategy, &rec.RoutedTo, &rec.TotalUSD); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		rec.Strategy = routing.Strategy(strategy)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routes: %w", err)
	}

	return records, nil
}

// CountRoutes returns the total number of recorded decisions.
func (s *RouteStore) CountRoutes(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM routes").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count routes: %w", err)
	}
	return count, nil
}
