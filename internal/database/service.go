/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.RegistryStore.
var _ store.RegistryStore = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after ping failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.InitSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Warn("Failed to close database after schema failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

// NewServiceFromDB wraps an already opened connection, used by tests and tools
// that manage their own *sql.DB.
func NewServiceFromDB(db *sql.DB) (*Service, error) {
	service := &Service{db: db}
	if err := service.InitSchema(); err != nil {
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

// Ping verifies the connection is alive
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Service) InitSchema() error {
	schema := `
	-- Registry aggregate state (single row)
	CREATE TABLE IF NOT EXISTS registry_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		admin TEXT NOT NULL DEFAULT '',
		asset_count INTEGER NOT NULL DEFAULT 0,
		distribution_count INTEGER NOT NULL DEFAULT 0,
		total_value_locked TEXT NOT NULL DEFAULT '0',
		version INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT
	);
	INSERT OR IGNORE INTO registry_meta (id) VALUES (1);

	-- Compliance sets
	CREATE TABLE IF NOT EXISTS countries (
		code TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS blacklist (
		address TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS investors (
		address TEXT PRIMARY KEY,
		is_accredited BOOLEAN NOT NULL DEFAULT 0,
		is_kyc_verified BOOLEAN NOT NULL DEFAULT 0,
		country_code TEXT NOT NULL,
		kyc_expiry TEXT NOT NULL,
		registered_at TEXT NOT NULL,
		is_blacklisted BOOLEAN NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_investors_country ON investors(country_code);

	-- Asset ledger
	CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		symbol TEXT NOT NULL,
		asset_type TEXT NOT NULL,
		total_supply TEXT NOT NULL,
		circulating_supply TEXT NOT NULL,
		valuation_usd TEXT NOT NULL,
		custodian TEXT NOT NULL,
		token_address TEXT NOT NULL,
		min_investment TEXT NOT NULL,
		accredited_only BOOLEAN NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		is_transferable BOOLEAN NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	-- Holdings ledger (hot data)
	CREATE TABLE IF NOT EXISTS holdings (
		asset_id INTEGER NOT NULL REFERENCES assets(id),
		investor TEXT NOT NULL REFERENCES investors(address),
		amount TEXT NOT NULL,
		purchase_value TEXT NOT NULL,
		purchased_at TEXT NOT NULL,
		PRIMARY KEY (asset_id, investor)
	);

	CREATE INDEX IF NOT EXISTS idx_holdings_investor ON holdings(investor);

	-- Distribution engine
	CREATE TABLE IF NOT EXISTS distributions (
		id INTEGER PRIMARY KEY,
		asset_id INTEGER NOT NULL REFERENCES assets(id),
		total_amount TEXT NOT NULL,
		payout_token TEXT NOT NULL,
		snapshot_at TEXT NOT NULL,
		snapshot_supply TEXT NOT NULL,
		is_closed BOOLEAN NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_distributions_asset ON distributions(asset_id);

	CREATE TABLE IF NOT EXISTS claims (
		distribution_id INTEGER NOT NULL REFERENCES distributions(id),
		investor TEXT NOT NULL,
		amount TEXT NOT NULL,
		claimed_at TEXT NOT NULL,
		PRIMARY KEY (distribution_id, investor)
	);

	-- Audit journal (cold data)
	CREATE TABLE IF NOT EXISTS registry_events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		event_type TEXT NOT NULL,
		asset_id INTEGER NOT NULL DEFAULT 0,
		distribution_id INTEGER NOT NULL DEFAULT 0,
		actor TEXT NOT NULL DEFAULT '',
		counterparty TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL DEFAULT '0',
		value TEXT NOT NULL DEFAULT '0',
		attributes TEXT NOT NULL DEFAULT '{}',
		occurred_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_registry_events_type ON registry_events(event_type);
	CREATE INDEX IF NOT EXISTS idx_registry_events_asset ON registry_events(asset_id);
	CREATE INDEX IF NOT EXISTS idx_registry_events_actor ON registry_events(actor);
	CREATE INDEX IF NOT EXISTS idx_registry_events_counterparty ON registry_events(counterparty);
	`

	_, err := s.db.Exec(schema)
	return err
}
