package database

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"loan-approval-service/internal/config"
	"loan-approval-service/migrations"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Open connects to the configured database, retrying while it comes up,
// and applies pending migrations.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := normalizeDSN(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 1
	}

	var db *sql.DB
	for i := 0; i < retries; i++ {
		db, err = sql.Open(cfg.Driver, dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				break
			}
			_ = db.Close()
		}
		logger.Warn().Err(err).Msgf("Retry %d: failed to connect to %s database", i+1, cfg.Driver)
		if i < retries-1 {
			time.Sleep(cfg.RetryInterval)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database after %d attempts: %w", cfg.Driver, retries, err)
	}

	if cfg.Driver == "sqlite3" {
		// journal_mode is not supported for in-memory databases.
		_, _ = db.Exec(`PRAGMA journal_mode=WAL`)
		if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
			_ = db.Close()
			return nil, err
		}
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := migrations.AutoMigrate(db, cfg.Driver); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info().Msgf("Connected to %s database", cfg.Driver)
	return db, nil
}

// normalizeDSN makes MySQL scan DATETIME/TIMESTAMP columns into time.Time.
func normalizeDSN(driver, dsn string) (string, error) {
	if driver != "mysql" {
		return dsn, nil
	}
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	mc.ParseTime = true
	return mc.FormatDSN(), nil
}
