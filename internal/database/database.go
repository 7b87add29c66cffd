// Package database opens the Postgres connection used by the postgres data
// backend and the schema migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"contrib.go.opencensus.io/integrations/ocsql"
	"github.com/lib/pq"

	"github.com/dalilfazara/dalil/config"
)

const driverName = "postgres"

// PoolSettings returns connection pool sizes for the environment
func PoolSettings(environment string) (maxOpen, maxIdle int, maxLifetime time.Duration) {
	// smaller pools keep test databases from running out of connections
	if environment == "test" || environment == "development" {
		return 10, 5, 2 * time.Minute
	}
	return 25, 25, 20 * time.Minute
}

func dsn(cfg *config.DatabaseConfig, dbName string) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:     "/" + dbName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// DSN returns the connection string of the application database
func DSN(cfg *config.DatabaseConfig) string {
	return dsn(cfg, cfg.DBName)
}

// ServerDSN returns a connection string to the maintenance database, used to
// create the application database
func ServerDSN(cfg *config.DatabaseConfig) string {
	return dsn(cfg, "postgres")
}

// Options controls Open
type Options struct {
	Environment string
	// Traced wraps the driver with OpenCensus spans and records pool stats
	Traced bool
}

// Conn is an open database with its stats recorder
type Conn struct {
	DB        *sql.DB
	stopStats func()
}

// Close stops stats recording and closes the pool
func (c *Conn) Close() error {
	if c.stopStats != nil {
		c.stopStats()
	}
	return c.DB.Close()
}

// Open connects to the application database and verifies it answers
func Open(ctx context.Context, cfg *config.DatabaseConfig, opts Options) (*Conn, error) {
	driver := driverName
	if opts.Traced {
		var err error
		driver, err = ocsql.Register(driverName, ocsql.WithAllTraceOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to register opencensus sql driver: %w", err)
		}
	}

	db, err := sql.Open(driver, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	maxOpen, maxIdle, maxLifetime := PoolSettings(opts.Environment)
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)
	db.SetConnMaxIdleTime(maxLifetime / 2)

	conn := &Conn{DB: db}
	if opts.Traced {
		conn.stopStats = ocsql.RecordStats(db, 5*time.Second)
	}
	return conn, nil
}

// EnsureDatabaseExists creates name on the server db points at when missing
func EnsureDatabaseExists(ctx context.Context, db *sql.DB, name string) error {
	var exists bool
	err := db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return nil
}

// EnsureApplicationDatabase connects to the maintenance database and creates
// the application database when missing
func EnsureApplicationDatabase(ctx context.Context, cfg *config.DatabaseConfig) error {
	db, err := sql.Open(driverName, ServerDSN(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL server: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping PostgreSQL server: %w", err)
	}
	return EnsureDatabaseExists(ctx, db, cfg.DBName)
}
