package registry

import (
	"sort"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/store"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

func (r *Registry) GetAsset(assetId uint64) (models.Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	asset, ok := r.assets[assetId]
	return asset, ok
}

func (r *Registry) GetInvestor(address string) (models.Investor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	investor, ok := r.investors[address]
	return investor, ok
}

func (r *Registry) GetHolding(assetId uint64, address string) (models.Holding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	holding, ok := r.holdings[store.HoldingKey{AssetId: assetId, Investor: address}]
	return holding, ok
}

func (r *Registry) GetDistribution(distributionId uint64) (models.Distribution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	distribution, ok := r.distributions[distributionId]
	return distribution, ok
}

func (r *Registry) IsDistributionClaimed(distributionId uint64, address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, claimed := r.claims[store.ClaimKey{DistributionId: distributionId, Investor: address}]
	return claimed
}

// GetClaim returns the recorded claim for the pair, if any
func (r *Registry) GetClaim(distributionId uint64, address string) (models.Claim, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	claim, ok := r.claims[store.ClaimKey{DistributionId: distributionId, Investor: address}]
	return claim, ok
}

// GetTokenPrice returns valuation / total supply (truncated), or zero when the
// asset is missing or has no supply.
func (r *Registry) GetTokenPrice(assetId uint64) decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	asset, ok := r.assets[assetId]
	if !ok {
		return decimal.Zero
	}
	return tokenPrice(asset)
}

func tokenPrice(asset models.Asset) decimal.Decimal {
	if asset.TotalSupply.IsZero() {
		return decimal.Zero
	}
	return floorDiv(asset.ValuationUsd, asset.TotalSupply)
}

// ListAssets returns every asset ordered by id
func (r *Registry) ListAssets() []models.Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedAssets()
}

// ListHoldings returns every holding of an asset, ordered by investor address
func (r *Registry) ListHoldings(assetId uint64) []models.Holding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	holdings := lo.Filter(lo.Values(r.holdings), func(h models.Holding, _ int) bool {
		return h.AssetId == assetId
	})
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Investor < holdings[j].Investor })
	return holdings
}

// ListDistributions returns the distributions of an asset ordered by id.
// An assetId of zero lists all distributions.
func (r *Registry) ListDistributions(assetId uint64) []models.Distribution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedDistributions(assetId)
}

// ListClaims returns every claim recorded against a distribution
func (r *Registry) ListClaims(distributionId uint64) []models.Claim {
	r.mu.RLock()
	defer r.mu.RUnlock()

	claims := lo.Filter(lo.Values(r.claims), func(c models.Claim, _ int) bool {
		return c.DistributionId == distributionId
	})
	sort.Slice(claims, func(i, j int) bool { return claims[i].Investor < claims[j].Investor })
	return claims
}

// GetPortfolio values every non-empty holding of an investor at the current token price
func (r *Registry) GetPortfolio(address string) models.Portfolio {
	r.mu.RLock()
	defer r.mu.RUnlock()

	portfolio := models.Portfolio{
		Investor:           address,
		Holdings:           []models.PortfolioHolding{},
		TotalValueUsd:      decimal.Zero,
		UnclaimedDividends: decimal.Zero,
	}

	for _, asset := range r.sortedAssets() {
		holding, ok := r.holdings[store.HoldingKey{AssetId: asset.Id, Investor: address}]
		if !ok || !holding.Amount.IsPositive() {
			continue
		}
		price := tokenPrice(asset)
		current := price.Mul(holding.Amount)
		portfolio.Holdings = append(portfolio.Holdings, models.PortfolioHolding{
			AssetId:       asset.Id,
			AssetName:     asset.Name,
			AssetSymbol:   asset.Symbol,
			AssetType:     asset.Type,
			Amount:        holding.Amount,
			PurchaseValue: holding.PurchaseValue,
			TokenPrice:    price,
			CurrentValue:  current,
			PurchasedAt:   holding.PurchasedAt,
		})
		portfolio.TotalValueUsd = portfolio.TotalValueUsd.Add(current)
	}
	portfolio.AssetCount = len(portfolio.Holdings)

	portfolio.UnclaimedDividends = lo.Reduce(r.availableDistributions(address), func(sum decimal.Decimal, d models.AvailableDistribution, _ int) decimal.Decimal {
		return sum.Add(d.Entitlement)
	}, decimal.Zero)

	return portfolio
}

// AvailableDistributions lists unclaimed distributions of assets the investor
// currently holds, with the amount a claim would pay right now.
func (r *Registry) AvailableDistributions(address string) []models.AvailableDistribution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableDistributions(address)
}

func (r *Registry) availableDistributions(address string) []models.AvailableDistribution {
	available := []models.AvailableDistribution{}
	for _, d := range r.sortedDistributions(0) {
		if _, claimed := r.claims[store.ClaimKey{DistributionId: d.Id, Investor: address}]; claimed {
			continue
		}
		holding, ok := r.holdings[store.HoldingKey{AssetId: d.AssetId, Investor: address}]
		if !ok || !holding.Amount.IsPositive() {
			continue
		}
		available = append(available, models.AvailableDistribution{
			Distribution: d,
			Entitlement:  entitlement(d, holding.Amount),
		})
	}
	return available
}

func (r *Registry) sortedAssets() []models.Asset {
	assets := lo.Values(r.assets)
	sort.Slice(assets, func(i, j int) bool { return assets[i].Id < assets[j].Id })
	return assets
}

func (r *Registry) sortedDistributions(assetId uint64) []models.Distribution {
	distributions := lo.Filter(lo.Values(r.distributions), func(d models.Distribution, _ int) bool {
		return assetId == 0 || d.AssetId == assetId
	})
	sort.Slice(distributions, func(i, j int) bool { return distributions[i].Id < distributions[j].Id })
	return distributions
}

// Snapshot copies the full in-memory state, used by reconciliation and reports
func (r *Registry) Snapshot() *store.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	countries := lo.Keys(r.countries)
	sort.Strings(countries)
	blacklist := lo.Keys(r.blacklist)
	sort.Strings(blacklist)

	return &store.Snapshot{
		Meta:          r.meta,
		Countries:     countries,
		Blacklist:     blacklist,
		Investors:     lo.Values(r.investors),
		Assets:        r.sortedAssets(),
		Holdings:      lo.Values(r.holdings),
		Distributions: r.sortedDistributions(0),
		Claims:        lo.Values(r.claims),
	}
}
