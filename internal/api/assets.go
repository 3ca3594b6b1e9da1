package api

import (
	"context"
	"strings"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/registry"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateAsset validates and registers a new tokenized asset
func (s *RegistryService) CreateAsset(ctx context.Context, req CreateAssetRequest) (uint64, error) {
	zap.L().Info("Creating asset",
		zap.String("name", req.Name),
		zap.String("symbol", req.Symbol),
		zap.String("asset_type", req.AssetType),
		zap.String("total_supply", req.TotalSupply.String()),
		zap.String("valuation_usd", req.ValuationUsd.String()))

	assetType, err := models.ParseAssetType(req.AssetType)
	if err != nil {
		return 0, s.record("create_asset", invalidInput("%s", err.Error()))
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Symbol) == "" {
		return 0, s.record("create_asset", invalidInput("name and symbol are required"))
	}
	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"total_supply", req.TotalSupply},
		{"valuation_usd", req.ValuationUsd},
		{"min_investment", req.MinInvestment},
	}
	for _, a := range amounts {
		if err := requireNonNegativeUnits(a.field, a.value); err != nil {
			return 0, s.record("create_asset", err)
		}
	}

	id, err := s.registry.CreateAsset(ctx, registry.CreateAssetParams{
		Name:           req.Name,
		Symbol:         req.Symbol,
		Type:           assetType,
		TotalSupply:    req.TotalSupply,
		ValuationUsd:   req.ValuationUsd,
		Custodian:      req.Custodian,
		TokenAddress:   req.TokenAddress,
		MinInvestment:  req.MinInvestment,
		AccreditedOnly: req.AccreditedOnly,
	})
	return id, s.record("create_asset", err)
}

// UpdateValuation replaces the USD valuation of an asset
func (s *RegistryService) UpdateValuation(ctx context.Context, assetId uint64, valuation decimal.Decimal) error {
	if err := requireUnits("valuation_usd", valuation); err != nil {
		return s.record("update_valuation", err)
	}
	_, err := s.registry.UpdateValuation(ctx, assetId, valuation)
	return s.record("update_valuation", err)
}

func (s *RegistryService) SetTransferable(ctx context.Context, assetId uint64, transferable bool) error {
	return s.record("set_transferable", s.registry.SetAssetTransferable(ctx, assetId, transferable))
}

func (s *RegistryService) GetAsset(assetId uint64) (models.Asset, error) {
	asset, ok := s.registry.GetAsset(assetId)
	if !ok {
		return models.Asset{}, registry.ErrAssetNotFound
	}
	return asset, nil
}

func (s *RegistryService) ListAssets() []models.Asset {
	return s.registry.ListAssets()
}

// TokenPrice returns the per-unit USD price of an asset
func (s *RegistryService) TokenPrice(assetId uint64) (TokenPriceResponse, error) {
	asset, err := s.GetAsset(assetId)
	if err != nil {
		return TokenPriceResponse{}, err
	}
	return TokenPriceResponse{
		AssetId:      asset.Id,
		Symbol:       asset.Symbol,
		ValuationUsd: asset.ValuationUsd,
		TotalSupply:  asset.TotalSupply,
		Price:        s.registry.GetTokenPrice(assetId),
	}, nil
}

// Eligibility reports whether an address may hold an asset
func (s *RegistryService) Eligibility(assetId uint64, address string) EligibilityResponse {
	return EligibilityResponse{
		AssetId:  assetId,
		Address:  address,
		Eligible: s.registry.CheckEligibility(assetId, address),
	}
}
