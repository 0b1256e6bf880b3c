// Package mysql implements the storage interface against a MySQL-protocol
// server. Row locks taken with SELECT ... FOR UPDATE serialize operations on
// the same idea; different ideas proceed in parallel.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"

	"github.com/idealoop/ideas/internal/storage"
)

var _ storage.Storage = (*MySQLStore)(nil)

const retryMaxElapsed = 30 * time.Second

// Config holds server connection settings
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	TLS      bool
}

// MySQLStore implements storage.Storage over database/sql with the MySQL driver.
type MySQLStore struct {
	db     *sql.DB
	cfg    Config
	closed atomic.Bool
}

// New connects to the server, creates the database if missing and applies the schema.
func New(ctx context.Context, cfg Config) (*MySQLStore, error) {
	if err := validateDatabaseName(cfg.Database); err != nil {
		return nil, fmt.Errorf("invalid database name %q: %w", cfg.Database, err)
	}

	initDB, err := sql.Open("mysql", buildDSN(cfg, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to open init connection: %w", err)
	}
	defer func() { _ = initDB.Close() }()

	err = withRetry(ctx, func() error {
		_, err := initDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cfg.Database)) //nolint:gosec // validated above
		return err
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "connection refused") {
			return nil, fmt.Errorf("failed to connect to MySQL server at %s:%d: %w", cfg.Host, cfg.Port, err)
		}
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	db, err := sql.Open("mysql", buildDSN(cfg, cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return &MySQLStore{db: db, cfg: cfg}, nil
}

// buildDSN renders cfg for the driver. parseTime makes DATETIME columns scan
// into time.Time.
func buildDSN(cfg Config, database string) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = database
	mc.ParseTime = true
	mc.Loc = time.UTC
	if cfg.TLS {
		mc.TLSConfig = "true"
	}
	return mc.FormatDSN()
}

var databaseNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

func validateDatabaseName(name string) error {
	if !databaseNamePattern.MatchString(name) {
		return errors.New("must be 1-64 letters, digits or underscores and not start with a digit")
	}
	return nil
}

// isRetryableError returns true for transient connection errors.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		// 1205 lock wait timeout, 1213 deadlock
		return me.Number == 1205 || me.Number == 1213
	}
	errStr := strings.ToLower(err.Error())
	for _, s := range []string{
		"driver: bad connection",
		"invalid connection",
		"broken pipe",
		"connection reset",
		"connection refused",
		"lost connection",
		"gone away",
		"i/o timeout",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

func newRetryBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = retryMaxElapsed
	return bo
}

// withRetry retries op while it fails with a transient error.
// Only whole statements or whole transactions are retried, never a decided
// transition halfway through.
func withRetry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(newRetryBackoff(), ctx))
}

// Close closes the connection pool.
func (s *MySQLStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the server is reachable.
func (s *MySQLStore) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	return s.db.PingContext(ctx)
}

func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
