package api

import (
	"context"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/registry"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Invest issues asset units to an investor against an off-chain payment
func (s *RegistryService) Invest(ctx context.Context, assetId uint64, req InvestRequest) (models.Holding, error) {
	zap.L().Info("Processing investment",
		zap.Uint64("asset_id", assetId),
		zap.String("investor", req.Investor),
		zap.String("amount", req.Amount.String()),
		zap.String("payment_token", req.PaymentToken),
		zap.String("payment_amount", req.PaymentAmount.String()))

	if err := requireAddress("investor", req.Investor); err != nil {
		return models.Holding{}, s.record("invest", err)
	}
	if err := requireUnits("amount", req.Amount); err != nil {
		return models.Holding{}, s.record("invest", err)
	}
	if err := requireNonNegativeUnits("payment_amount", req.PaymentAmount); err != nil {
		return models.Holding{}, s.record("invest", err)
	}

	_, err := s.registry.Invest(ctx, registry.InvestParams{
		AssetId:       assetId,
		Investor:      req.Investor,
		Amount:        req.Amount,
		PaymentToken:  req.PaymentToken,
		PaymentAmount: req.PaymentAmount,
	})
	if s.record("invest", err) != nil {
		return models.Holding{}, err
	}

	holding, _ := s.registry.GetHolding(assetId, req.Investor)
	return holding, nil
}

// Transfer moves units of an asset between two registered investors
func (s *RegistryService) Transfer(ctx context.Context, assetId uint64, req TransferRequest) (TransferResponse, error) {
	zap.L().Info("Processing transfer",
		zap.Uint64("asset_id", assetId),
		zap.String("from", req.From),
		zap.String("to", req.To),
		zap.String("amount", req.Amount.String()))

	if err := requireAddress("from", req.From); err != nil {
		return TransferResponse{}, s.record("transfer", err)
	}
	if err := requireAddress("to", req.To); err != nil {
		return TransferResponse{}, s.record("transfer", err)
	}
	if err := requireUnits("amount", req.Amount); err != nil {
		return TransferResponse{}, s.record("transfer", err)
	}

	if _, err := s.registry.Transfer(ctx, assetId, req.From, req.To, req.Amount); err != nil {
		return TransferResponse{}, s.record("transfer", err)
	}
	s.record("transfer", nil)

	return TransferResponse{
		AssetId:     assetId,
		From:        req.From,
		To:          req.To,
		Amount:      req.Amount,
		FromBalance: s.holdingAmount(assetId, req.From),
		ToBalance:   s.holdingAmount(assetId, req.To),
	}, nil
}

// GetHolding returns the position of an address, zero when it holds nothing
func (s *RegistryService) GetHolding(assetId uint64, address string) (models.Holding, error) {
	if _, ok := s.registry.GetAsset(assetId); !ok {
		return models.Holding{}, registry.ErrAssetNotFound
	}
	holding, ok := s.registry.GetHolding(assetId, address)
	if !ok {
		return models.Holding{AssetId: assetId, Investor: address, Amount: decimal.Zero, PurchaseValue: decimal.Zero}, nil
	}
	return holding, nil
}

func (s *RegistryService) ListHoldings(assetId uint64) ([]models.Holding, error) {
	if _, ok := s.registry.GetAsset(assetId); !ok {
		return nil, registry.ErrAssetNotFound
	}
	return s.registry.ListHoldings(assetId), nil
}

func (s *RegistryService) Portfolio(address string) models.Portfolio {
	return s.registry.GetPortfolio(address)
}

func (s *RegistryService) holdingAmount(assetId uint64, address string) decimal.Decimal {
	holding, ok := s.registry.GetHolding(assetId, address)
	if !ok {
		return decimal.Zero
	}
	return holding.Amount
}
