package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Initialize creates the necessary tables if they don't exist
func (db *DB) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS fortnox_integrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			scope TEXT,
			expires_at TIMESTAMP,
			is_active INTEGER NOT NULL DEFAULT 1,
			has_synced INTEGER NOT NULL DEFAULT 0,
			last_synced_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_active_integration
			ON fortnox_integrations(user_id) WHERE is_active = 1`,
		`CREATE TABLE IF NOT EXISTS companies (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			organisation_number TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS fiscal_years (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			fortnox_id INTEGER NOT NULL,
			from_date TEXT NOT NULL,
			to_date TEXT NOT NULL,
			accounting_method TEXT,
			account_chart_type TEXT,
			is_active INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(company_id, fortnox_id)
		)`,
		`CREATE TABLE IF NOT EXISTS fortnox_vouchers (
			voucher_id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			voucher_series TEXT NOT NULL,
			voucher_number INTEGER NOT NULL,
			year INTEGER NOT NULL,
			transaction_date TEXT,
			description TEXT,
			comments TEXT,
			approval_state INTEGER,
			cost_center TEXT,
			project TEXT,
			reference_number TEXT,
			reference_type TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS fortnox_voucher_rows (
			row_id TEXT PRIMARY KEY,
			voucher_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			account INTEGER NOT NULL,
			debit TEXT NOT NULL DEFAULT '0',
			credit TEXT NOT NULL DEFAULT '0',
			description TEXT,
			transaction_information TEXT,
			quantity TEXT,
			cost_center TEXT,
			project TEXT,
			removed INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_voucher_rows_voucher
			ON fortnox_voucher_rows(voucher_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vouchers_company
			ON fortnox_vouchers(company_id, transaction_date)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}
