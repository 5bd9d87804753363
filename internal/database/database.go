// Package database owns the consent store connection pool
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/consently/consent-management-api/internal/config"
)

const connectTimeout = 10 * time.Second

// DB is the consent store. It embeds *sqlx.DB so DAOs can call Rebind, GetContext and friends.
type DB struct {
	*sqlx.DB
	logger *logrus.Logger
}

// New wraps an open connection. PostgreSQL folds unquoted identifiers to lower case,
// so on that driver the upper-case db tags are matched case-insensitively.
func New(conn *sqlx.DB, logger *logrus.Logger) *DB {
	if conn.DriverName() == "postgres" {
		conn.Mapper = reflectx.NewMapperTagFunc("db", strings.ToLower, strings.ToLower)
	}
	return &DB{DB: conn, logger: logger}
}

// Initialize opens the pool described by cfg and pings it
func Initialize(cfg *config.DatabaseConfig, logger *logrus.Logger) (*DB, error) {
	driver := cfg.DriverName()
	log := logger.WithFields(logrus.Fields{
		"type":     driver,
		"hostname": cfg.Hostname,
		"port":     cfg.Port,
		"database": cfg.Database,
	})
	log.Info("Connecting to consent store...")

	conn, err := sqlx.Open(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	db := New(conn, logger)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.HealthCheck(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	log.Info("Connected to consent store")
	return db, nil
}

// HealthCheck pings the store; used at startup and by GET /health
func (db *DB) HealthCheck(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return errors.New("consent store is not initialized")
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("consent store ping failed: %w", err)
	}
	return nil
}

// Close releases the pool
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	db.logger.Info("Closing consent store connection pool")
	return db.DB.Close()
}

// LogStats writes the pool counters at debug level
func (db *DB) LogStats() {
	stats := db.DB.Stats()
	db.logger.WithFields(logrus.Fields{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration":    stats.WaitDuration,
	}).Debug("Consent store pool stats")
}
