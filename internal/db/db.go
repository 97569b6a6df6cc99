package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
)

// InitDB opens the audit database. dbURL is a go-sql-driver DSN; parseTime
// is forced so created_at scans into time.Time.
func InitDB(dbURL string, logger zerolog.Logger) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse DB_URL: %w", err)
	}
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Str("db", cfg.DBName).Msg("Connected to audit database")
	return db, nil
}

// Open connects with InitDB and brings the schema up to date.
func Open(dbURL string, logger zerolog.Logger) (*sql.DB, error) {
	db, err := InitDB(dbURL, logger)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func RunMigrations(db *sql.DB, logger zerolog.Logger) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS mutation_audit (
			id INT AUTO_INCREMENT PRIMARY KEY,
			resource VARCHAR(50) NOT NULL,
			action VARCHAR(50) NOT NULL,
			resource_key VARCHAR(191) NOT NULL,
			outcome VARCHAR(20) NOT NULL,
			message TEXT,
			credential VARCHAR(32),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_resource (resource, resource_key),
			INDEX idx_created_at (created_at)
		);`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("migration: %w", err)
		}
	}
	logger.Info().Msg("Migrations complete")
	return nil
}
