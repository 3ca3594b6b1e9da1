package registry

import (
	"context"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateDistribution records a payout for an asset, freezing the current
// circulating supply as the denominator for every later claim.
func (r *Registry) CreateDistribution(ctx context.Context, assetId uint64, totalAmount decimal.Decimal, payoutToken string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[assetId]
	if !ok {
		return 0, ErrAssetNotFound
	}

	meta := r.meta
	meta.DistributionCount++

	distribution := models.Distribution{
		Id:             meta.DistributionCount,
		AssetId:        assetId,
		TotalAmount:    totalAmount,
		PayoutToken:    payoutToken,
		SnapshotAt:     r.now(),
		SnapshotSupply: asset.CirculatingSupply,
		IsClosed:       false,
	}

	event := r.newEvent(ctx, models.EventDistributionCreated)
	event.AssetId = assetId
	event.DistributionId = distribution.Id
	event.Amount = distribution.SnapshotSupply
	event.Value = totalAmount
	event.Attributes = map[string]string{"payout_token": payoutToken}

	err := r.commit(ctx, store.Mutation{
		Meta:          &meta,
		Distributions: []models.Distribution{distribution},
		Event:         event,
	}, func() {
		r.meta = meta
		r.distributions[distribution.Id] = distribution
	})
	if err != nil {
		return 0, err
	}

	zap.L().Info("Distribution created",
		zap.Uint64("distribution_id", distribution.Id),
		zap.Uint64("asset_id", assetId),
		zap.String("total_amount", totalAmount.String()),
		zap.String("snapshot_supply", distribution.SnapshotSupply.String()))
	return distribution.Id, nil
}

// ClaimDistribution computes and records the investor's entitlement:
// floor(totalAmount * currentHolding / snapshotSupply). Each investor can claim once.
func (r *Registry) ClaimDistribution(ctx context.Context, distributionId uint64, address string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	distribution, ok := r.distributions[distributionId]
	if !ok {
		return decimal.Zero, ErrDistributionNotFound
	}
	key := store.ClaimKey{DistributionId: distributionId, Investor: address}
	if _, claimed := r.claims[key]; claimed {
		return decimal.Zero, ErrAlreadyClaimed
	}
	holding, ok := r.holdings[store.HoldingKey{AssetId: distribution.AssetId, Investor: address}]
	if !ok || holding.Amount.IsZero() {
		return decimal.Zero, ErrNoHoldings
	}

	amount := entitlement(distribution, holding.Amount)
	claim := models.Claim{
		DistributionId: distributionId,
		Investor:       address,
		Amount:         amount,
		ClaimedAt:      r.now(),
	}

	event := r.newEvent(ctx, models.EventDistributionClaimed)
	event.AssetId = distribution.AssetId
	event.DistributionId = distributionId
	event.Counterparty = address
	event.Amount = holding.Amount
	event.Value = amount
	event.Attributes = map[string]string{"payout_token": distribution.PayoutToken}

	err := r.commit(ctx, store.Mutation{Claims: []models.Claim{claim}, Event: event}, func() {
		r.claims[key] = claim
	})
	if err != nil {
		return decimal.Zero, err
	}

	zap.L().Info("Distribution claimed",
		zap.Uint64("distribution_id", distributionId),
		zap.String("investor", address),
		zap.String("holding", holding.Amount.String()),
		zap.String("amount", amount.String()))
	return amount, nil
}

func entitlement(distribution models.Distribution, holdingAmount decimal.Decimal) decimal.Decimal {
	return floorDiv(distribution.TotalAmount.Mul(holdingAmount), distribution.SnapshotSupply)
}
