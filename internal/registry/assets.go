package registry

import (
	"context"
	"strconv"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateAssetParams contains the parameters for creating an asset
type CreateAssetParams struct {
	Name           string
	Symbol         string
	Type           models.AssetType
	TotalSupply    decimal.Decimal
	ValuationUsd   decimal.Decimal
	Custodian      string
	TokenAddress   string
	MinInvestment  decimal.Decimal
	AccreditedOnly bool
}

// CreateAsset registers a new asset and adds its valuation to the TVL
func (r *Registry) CreateAsset(ctx context.Context, params CreateAssetParams) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !params.TotalSupply.IsPositive() || !params.ValuationUsd.IsPositive() {
		return 0, ErrInvalidSupplyOrValue
	}

	meta := r.meta
	meta.AssetCount++
	meta.TotalValueLocked = meta.TotalValueLocked.Add(params.ValuationUsd)

	asset := models.Asset{
		Id:                meta.AssetCount,
		Name:              params.Name,
		Symbol:            params.Symbol,
		Type:              params.Type,
		TotalSupply:       params.TotalSupply,
		CirculatingSupply: decimal.Zero,
		ValuationUsd:      params.ValuationUsd,
		Custodian:         params.Custodian,
		TokenAddress:      params.TokenAddress,
		MinInvestment:     params.MinInvestment,
		AccreditedOnly:    params.AccreditedOnly,
		IsActive:          true,
		IsTransferable:    true,
		CreatedAt:         r.now(),
	}

	event := r.newEvent(ctx, models.EventAssetCreated)
	event.AssetId = asset.Id
	event.Counterparty = asset.Custodian
	event.Amount = asset.TotalSupply
	event.Value = asset.ValuationUsd
	event.Attributes = map[string]string{
		"name":          asset.Name,
		"symbol":        asset.Symbol,
		"asset_type":    string(asset.Type),
		"token_address": asset.TokenAddress,
	}

	err := r.commit(ctx, store.Mutation{Meta: &meta, Assets: []models.Asset{asset}, Event: event}, func() {
		r.meta = meta
		r.assets[asset.Id] = asset
	})
	if err != nil {
		return 0, err
	}

	zap.L().Info("Asset created",
		zap.Uint64("asset_id", asset.Id),
		zap.String("symbol", asset.Symbol),
		zap.String("total_supply", asset.TotalSupply.String()),
		zap.String("valuation_usd", asset.ValuationUsd.String()))
	return asset.Id, nil
}

// UpdateValuation replaces an asset's valuation and adjusts the TVL by the difference.
// It returns false without error when the asset does not exist.
func (r *Registry) UpdateValuation(ctx context.Context, assetId uint64, newValuationUsd decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[assetId]
	if !ok {
		return false, nil
	}

	previous := asset.ValuationUsd
	meta := r.meta
	meta.TotalValueLocked = meta.TotalValueLocked.Sub(previous).Add(newValuationUsd)
	asset.ValuationUsd = newValuationUsd

	event := r.newEvent(ctx, models.EventValuationUpdated)
	event.AssetId = assetId
	event.Value = newValuationUsd
	event.Attributes = map[string]string{"previous_valuation_usd": previous.String()}

	err := r.commit(ctx, store.Mutation{Meta: &meta, Assets: []models.Asset{asset}, Event: event}, func() {
		r.meta = meta
		r.assets[assetId] = asset
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetAssetTransferable toggles whether holdings of an asset may be transferred
func (r *Registry) SetAssetTransferable(ctx context.Context, assetId uint64, transferable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[assetId]
	if !ok {
		return ErrAssetNotFound
	}
	asset.IsTransferable = transferable

	event := r.newEvent(ctx, models.EventTransferabilityChanged)
	event.AssetId = assetId
	event.Attributes = map[string]string{"transferable": strconv.FormatBool(transferable)}

	return r.commit(ctx, store.Mutation{Assets: []models.Asset{asset}, Event: event}, func() {
		r.assets[assetId] = asset
	})
}
