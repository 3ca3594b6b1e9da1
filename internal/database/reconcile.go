package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rwa-registry-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReconcileAsset verifies that the persisted circulating supply of an asset
// matches the sum of its holdings and stays within the total supply.
func (s *Service) ReconcileAsset(ctx context.Context, assetId uint64) error {
	zap.L().Info("Reconciling asset supply", zap.Uint64("asset_id", assetId))

	var circulatingStr, totalStr string
	err := s.db.QueryRowContext(ctx, queryGetAssetSupply, assetId).Scan(&circulatingStr, &totalStr)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("asset %d: %w", assetId, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get asset supply: %w", err)
	}

	circulating, err := parseDecimal("circulating_supply", circulatingStr)
	if err != nil {
		return err
	}
	total, err := parseDecimal("total_supply", totalStr)
	if err != nil {
		return err
	}

	// Amounts are stored as TEXT, summing in SQL would go through REAL
	rows, err := s.db.QueryContext(ctx, queryGetAssetHoldingAmounts, assetId)
	if err != nil {
		return fmt.Errorf("failed to get holding amounts: %w", err)
	}
	defer closeRows(rows)

	calculated := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return fmt.Errorf("failed to scan holding amount: %w", err)
		}
		amount, err := parseDecimal("amount", amountStr)
		if err != nil {
			return err
		}
		calculated = calculated.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating holding rows: %w", err)
	}

	if !circulating.Equal(calculated) {
		zap.L().Error("Asset supply reconciliation failed",
			zap.Uint64("asset_id", assetId),
			zap.String("circulating_supply", circulating.String()),
			zap.String("calculated_supply", calculated.String()),
			zap.String("difference", circulating.Sub(calculated).String()))
		return fmt.Errorf("supply mismatch: circulating=%s, calculated=%s", circulating.String(), calculated.String())
	}

	if circulating.GreaterThan(total) {
		zap.L().Error("Asset oversubscribed",
			zap.Uint64("asset_id", assetId),
			zap.String("circulating_supply", circulating.String()),
			zap.String("total_supply", total.String()))
		return fmt.Errorf("supply overflow: circulating=%s, total=%s", circulating.String(), total.String())
	}

	zap.L().Info("Asset supply reconciliation successful",
		zap.Uint64("asset_id", assetId),
		zap.String("circulating_supply", circulating.String()))
	return nil
}
