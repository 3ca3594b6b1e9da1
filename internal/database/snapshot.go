package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Load reads the complete persisted registry state
func (s *Service) Load(ctx context.Context) (*store.Snapshot, error) {
	zap.L().Info("Loading registry state from database")

	snapshot := &store.Snapshot{}

	var tvl string
	err := s.db.QueryRowContext(ctx, queryGetMeta).Scan(
		&snapshot.Meta.Admin, &snapshot.Meta.AssetCount, &snapshot.Meta.DistributionCount, &tvl, &snapshot.Meta.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry meta: %w", err)
	}
	if snapshot.Meta.TotalValueLocked, err = parseDecimal("total_value_locked", tvl); err != nil {
		return nil, err
	}

	if snapshot.Countries, err = s.loadStrings(ctx, queryGetCountries); err != nil {
		return nil, fmt.Errorf("failed to load countries: %w", err)
	}
	if snapshot.Blacklist, err = s.loadStrings(ctx, queryGetBlacklist); err != nil {
		return nil, fmt.Errorf("failed to load blacklist: %w", err)
	}
	if snapshot.Investors, err = s.loadInvestors(ctx); err != nil {
		return nil, err
	}
	if snapshot.Assets, err = s.loadAssets(ctx); err != nil {
		return nil, err
	}
	if snapshot.Holdings, err = s.loadHoldings(ctx); err != nil {
		return nil, err
	}
	if snapshot.Distributions, err = s.loadDistributions(ctx); err != nil {
		return nil, err
	}
	if snapshot.Claims, err = s.loadClaims(ctx); err != nil {
		return nil, err
	}

	zap.L().Info("Registry state loaded",
		zap.Uint64("asset_count", snapshot.Meta.AssetCount),
		zap.Int("investors", len(snapshot.Investors)),
		zap.Int("holdings", len(snapshot.Holdings)),
		zap.Int("distributions", len(snapshot.Distributions)),
		zap.Int("claims", len(snapshot.Claims)))
	return snapshot, nil
}

func (s *Service) loadStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (s *Service) loadInvestors(ctx context.Context) ([]models.Investor, error) {
	rows, err := s.db.QueryContext(ctx, queryGetInvestors)
	if err != nil {
		return nil, fmt.Errorf("failed to get investors: %w", err)
	}
	defer closeRows(rows)

	var investors []models.Investor
	for rows.Next() {
		var inv models.Investor
		var kycExpiry, registeredAt string
		err := rows.Scan(&inv.Address, &inv.IsAccredited, &inv.IsKycVerified, &inv.CountryCode,
			&kycExpiry, &registeredAt, &inv.IsBlacklisted)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investor: %w", err)
		}
		if inv.KycExpiry, err = parseTimestamp(kycExpiry); err != nil {
			return nil, err
		}
		if inv.RegisteredAt, err = parseTimestamp(registeredAt); err != nil {
			return nil, err
		}
		investors = append(investors, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investor rows: %w", err)
	}
	return investors, nil
}

func (s *Service) loadAssets(ctx context.Context) ([]models.Asset, error) {
	rows, err := s.db.QueryContext(ctx, queryGetAssets)
	if err != nil {
		return nil, fmt.Errorf("failed to get assets: %w", err)
	}
	defer closeRows(rows)

	var assets []models.Asset
	for rows.Next() {
		var a models.Asset
		var assetType, total, circulating, valuation, minInvestment, createdAt string
		err := rows.Scan(&a.Id, &a.Name, &a.Symbol, &assetType, &total, &circulating, &valuation,
			&a.Custodian, &a.TokenAddress, &minInvestment, &a.AccreditedOnly, &a.IsActive, &a.IsTransferable, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		a.Type = models.AssetType(assetType)
		if a.TotalSupply, err = parseDecimal("total_supply", total); err != nil {
			return nil, err
		}
		if a.CirculatingSupply, err = parseDecimal("circulating_supply", circulating); err != nil {
			return nil, err
		}
		if a.ValuationUsd, err = parseDecimal("valuation_usd", valuation); err != nil {
			return nil, err
		}
		if a.MinInvestment, err = parseDecimal("min_investment", minInvestment); err != nil {
			return nil, err
		}
		if a.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset rows: %w", err)
	}
	return assets, nil
}

func (s *Service) loadHoldings(ctx context.Context) ([]models.Holding, error) {
	rows, err := s.db.QueryContext(ctx, queryGetHoldings)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}
	defer closeRows(rows)

	var holdings []models.Holding
	for rows.Next() {
		var h models.Holding
		var amount, purchaseValue, purchasedAt string
		if err := rows.Scan(&h.AssetId, &h.Investor, &amount, &purchaseValue, &purchasedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		if h.Amount, err = parseDecimal("amount", amount); err != nil {
			return nil, err
		}
		if h.PurchaseValue, err = parseDecimal("purchase_value", purchaseValue); err != nil {
			return nil, err
		}
		if h.PurchasedAt, err = parseTimestamp(purchasedAt); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding rows: %w", err)
	}
	return holdings, nil
}

func (s *Service) loadDistributions(ctx context.Context) ([]models.Distribution, error) {
	rows, err := s.db.QueryContext(ctx, queryGetDistributions)
	if err != nil {
		return nil, fmt.Errorf("failed to get distributions: %w", err)
	}
	defer closeRows(rows)

	var distributions []models.Distribution
	for rows.Next() {
		var d models.Distribution
		var total, snapshotAt, snapshotSupply string
		if err := rows.Scan(&d.Id, &d.AssetId, &total, &d.PayoutToken, &snapshotAt, &snapshotSupply, &d.IsClosed); err != nil {
			return nil, fmt.Errorf("failed to scan distribution: %w", err)
		}
		if d.TotalAmount, err = parseDecimal("total_amount", total); err != nil {
			return nil, err
		}
		if d.SnapshotSupply, err = parseDecimal("snapshot_supply", snapshotSupply); err != nil {
			return nil, err
		}
		if d.SnapshotAt, err = parseTimestamp(snapshotAt); err != nil {
			return nil, err
		}
		distributions = append(distributions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating distribution rows: %w", err)
	}
	return distributions, nil
}

func (s *Service) loadClaims(ctx context.Context) ([]models.Claim, error) {
	rows, err := s.db.QueryContext(ctx, queryGetClaims)
	if err != nil {
		return nil, fmt.Errorf("failed to get claims: %w", err)
	}
	defer closeRows(rows)

	var claims []models.Claim
	for rows.Next() {
		var c models.Claim
		var amount, claimedAt string
		if err := rows.Scan(&c.DistributionId, &c.Investor, &amount, &claimedAt); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		if c.Amount, err = parseDecimal("amount", amount); err != nil {
			return nil, err
		}
		if c.ClaimedAt, err = parseTimestamp(claimedAt); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating claim rows: %w", err)
	}
	return claims, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s '%s': %w", field, value, err)
	}
	return d, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp accepts RFC3339 as written by formatTime and SQLite's own
// CURRENT_TIMESTAMP layouts.
func parseTimestamp(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999-07:00",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse timestamp %q", value)
}
