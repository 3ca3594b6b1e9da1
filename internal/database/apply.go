package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/store"

	"go.uber.org/zap"
)

// Apply atomically writes every record change of one registry operation and
// appends its event to the audit journal.
func (s *Service) Apply(ctx context.Context, m store.Mutation) error {
	zap.L().Debug("Applying registry mutation",
		zap.String("event_type", string(m.Event.Type)),
		zap.String("event_id", m.Event.Id))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now().UTC())

	if m.Meta != nil {
		result, err := tx.ExecContext(ctx, queryUpdateMeta,
			m.Meta.Admin, m.Meta.AssetCount, m.Meta.DistributionCount,
			m.Meta.TotalValueLocked.String(), now, m.Meta.Version)
		if err != nil {
			return fmt.Errorf("failed to update registry meta: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("registry meta update failed - %w", store.ErrConcurrentModification)
		}
	}

	for _, code := range sortedKeys(m.Countries) {
		query := queryDeleteCountry
		args := []any{code}
		if m.Countries[code] {
			query = queryInsertCountry
			args = append(args, now)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update country %s: %w", code, err)
		}
	}

	for _, address := range sortedKeys(m.Blacklist) {
		query := queryDeleteBlacklist
		args := []any{address}
		if m.Blacklist[address] {
			query = queryInsertBlacklist
			args = append(args, now)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update blacklist entry %s: %w", address, err)
		}
	}

	for _, inv := range m.Investors {
		_, err := tx.ExecContext(ctx, queryUpsertInvestor,
			inv.Address, inv.IsAccredited, inv.IsKycVerified, inv.CountryCode,
			formatTime(inv.KycExpiry), formatTime(inv.RegisteredAt), inv.IsBlacklisted)
		if err != nil {
			return fmt.Errorf("failed to upsert investor %s: %w", inv.Address, err)
		}
	}

	for _, a := range m.Assets {
		_, err := tx.ExecContext(ctx, queryUpsertAsset,
			a.Id, a.Name, a.Symbol, string(a.Type), a.TotalSupply.String(), a.CirculatingSupply.String(),
			a.ValuationUsd.String(), a.Custodian, a.TokenAddress, a.MinInvestment.String(),
			a.AccreditedOnly, a.IsActive, a.IsTransferable, formatTime(a.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to upsert asset %d: %w", a.Id, err)
		}
	}

	for _, h := range m.Holdings {
		_, err := tx.ExecContext(ctx, queryUpsertHolding,
			h.AssetId, h.Investor, h.Amount.String(), h.PurchaseValue.String(), formatTime(h.PurchasedAt))
		if err != nil {
			return fmt.Errorf("failed to upsert holding %d/%s: %w", h.AssetId, h.Investor, err)
		}
	}

	for _, d := range m.Distributions {
		_, err := tx.ExecContext(ctx, queryInsertDistribution,
			d.Id, d.AssetId, d.TotalAmount.String(), d.PayoutToken,
			formatTime(d.SnapshotAt), d.SnapshotSupply.String(), d.IsClosed)
		if err != nil {
			return fmt.Errorf("failed to insert distribution %d: %w", d.Id, err)
		}
	}

	for _, c := range m.Claims {
		_, err := tx.ExecContext(ctx, queryInsertClaim,
			c.DistributionId, c.Investor, c.Amount.String(), formatTime(c.ClaimedAt))
		if err != nil {
			return fmt.Errorf("failed to insert claim %d/%s: %w", c.DistributionId, c.Investor, err)
		}
	}

	if err := insertEvent(ctx, tx, m.Event); err != nil {
		return fmt.Errorf("failed to journal event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Debug("Registry mutation applied",
		zap.String("event_type", string(m.Event.Type)),
		zap.String("event_id", m.Event.Id),
		zap.Int("assets", len(m.Assets)),
		zap.Int("holdings", len(m.Holdings)),
		zap.Int("claims", len(m.Claims)))
	return nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, event models.Event) error {
	attributes := event.Attributes
	if attributes == nil {
		attributes = map[string]string{}
	}
	encoded, err := json.Marshal(attributes)
	if err != nil {
		return fmt.Errorf("failed to encode attributes: %w", err)
	}

	_, err = tx.ExecContext(ctx, queryInsertEvent,
		event.Id, string(event.Type), event.AssetId, event.DistributionId,
		event.Actor, event.Counterparty, event.Amount.String(), event.Value.String(),
		string(encoded), formatTime(event.OccurredAt))
	return err
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
