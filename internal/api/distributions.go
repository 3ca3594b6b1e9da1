package api

import (
	"context"
	"strings"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/registry"

	"go.uber.org/zap"
)

// CreateDistribution snapshots the circulating supply of an asset and opens a payout
func (s *RegistryService) CreateDistribution(ctx context.Context, req CreateDistributionRequest) (models.Distribution, error) {
	zap.L().Info("Creating distribution",
		zap.Uint64("asset_id", req.AssetId),
		zap.String("total_amount", req.TotalAmount.String()),
		zap.String("payout_token", req.PayoutToken))

	if err := requireUnits("total_amount", req.TotalAmount); err != nil {
		return models.Distribution{}, s.record("create_distribution", err)
	}
	if strings.TrimSpace(req.PayoutToken) == "" {
		return models.Distribution{}, s.record("create_distribution", invalidInput("payout_token is required"))
	}

	id, err := s.registry.CreateDistribution(ctx, req.AssetId, req.TotalAmount, req.PayoutToken)
	if s.record("create_distribution", err) != nil {
		return models.Distribution{}, err
	}

	distribution, _ := s.registry.GetDistribution(id)
	return distribution, nil
}

// ClaimDistribution pays an investor their pro-rata share of a distribution
func (s *RegistryService) ClaimDistribution(ctx context.Context, distributionId uint64, investor string) (models.ClaimResult, error) {
	if err := requireAddress("investor", investor); err != nil {
		return models.ClaimResult{}, s.record("claim_distribution", err)
	}

	amount, err := s.registry.ClaimDistribution(ctx, distributionId, investor)
	if s.record("claim_distribution", err) != nil {
		return models.ClaimResult{}, err
	}

	distribution, _ := s.registry.GetDistribution(distributionId)
	return models.ClaimResult{
		DistributionId: distributionId,
		Investor:       investor,
		Amount:         amount,
		PayoutToken:    distribution.PayoutToken,
	}, nil
}

func (s *RegistryService) GetDistribution(distributionId uint64) (models.Distribution, error) {
	distribution, ok := s.registry.GetDistribution(distributionId)
	if !ok {
		return models.Distribution{}, registry.ErrDistributionNotFound
	}
	return distribution, nil
}

// ClaimStatus reports whether an investor already claimed a distribution
func (s *RegistryService) ClaimStatus(distributionId uint64, investor string) (ClaimStatusResponse, error) {
	if _, ok := s.registry.GetDistribution(distributionId); !ok {
		return ClaimStatusResponse{}, registry.ErrDistributionNotFound
	}
	resp := ClaimStatusResponse{DistributionId: distributionId, Investor: investor}
	if claim, ok := s.registry.GetClaim(distributionId, investor); ok {
		resp.Claimed = true
		resp.Claim = &claim
	}
	return resp, nil
}

func (s *RegistryService) AvailableDistributions(investor string) []models.AvailableDistribution {
	return s.registry.AvailableDistributions(investor)
}

// ListDistributions returns the distributions of an asset ordered by id
func (s *RegistryService) ListDistributions(assetId uint64) ([]models.Distribution, error) {
	if _, ok := s.registry.GetAsset(assetId); !ok {
		return nil, registry.ErrAssetNotFound
	}
	return s.registry.ListDistributions(assetId), nil
}

func (s *RegistryService) ListClaims(distributionId uint64) ([]models.Claim, error) {
	if _, ok := s.registry.GetDistribution(distributionId); !ok {
		return nil, registry.ErrDistributionNotFound
	}
	return s.registry.ListClaims(distributionId), nil
}
