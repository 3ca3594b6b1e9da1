package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AssetType classifies the real-world asset backing a token
type AssetType string

const (
	AssetTypeRealEstate AssetType = "RealEstate"
	AssetTypeCommodity  AssetType = "Commodity"
	AssetTypeBond       AssetType = "Bond"
	AssetTypeEquity     AssetType = "Equity"
	AssetTypeSecurity   AssetType = "Security"
	AssetTypeOther      AssetType = "Other"
)

var assetTypes = []AssetType{
	AssetTypeRealEstate,
	AssetTypeCommodity,
	AssetTypeBond,
	AssetTypeEquity,
	AssetTypeSecurity,
	AssetTypeOther,
}

// ParseAssetType matches the given name case-insensitively against the known asset types
func ParseAssetType(name string) (AssetType, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(name), "_", "")
	for _, t := range assetTypes {
		if strings.EqualFold(normalized, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown asset type: %q", name)
}

// Asset represents a tokenized real-world asset
type Asset struct {
	Id                uint64          `db:"id" json:"id"`
	Name              string          `db:"name" json:"name"`
	Symbol            string          `db:"symbol" json:"symbol"`
	Type              AssetType       `db:"asset_type" json:"asset_type"`
	TotalSupply       decimal.Decimal `db:"total_supply" json:"total_supply"`
	CirculatingSupply decimal.Decimal `db:"circulating_supply" json:"circulating_supply"`
	ValuationUsd      decimal.Decimal `db:"valuation_usd" json:"valuation_usd"`
	Custodian         string          `db:"custodian" json:"custodian"`
	TokenAddress      string          `db:"token_address" json:"token_address"`
	MinInvestment     decimal.Decimal `db:"min_investment" json:"min_investment"`
	AccreditedOnly    bool            `db:"accredited_only" json:"accredited_only"`
	IsActive          bool            `db:"is_active" json:"is_active"`
	IsTransferable    bool            `db:"is_transferable" json:"is_transferable"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// Investor represents a registered participant
type Investor struct {
	Address       string    `db:"address" json:"address"`
	IsAccredited  bool      `db:"is_accredited" json:"is_accredited"`
	IsKycVerified bool      `db:"is_kyc_verified" json:"is_kyc_verified"`
	CountryCode   string    `db:"country_code" json:"country_code"`
	KycExpiry     time.Time `db:"kyc_expiry" json:"kyc_expiry"`
	RegisteredAt  time.Time `db:"registered_at" json:"registered_at"`
	IsBlacklisted bool      `db:"is_blacklisted" json:"is_blacklisted"`
}

// Holding represents one investor's position in one asset
type Holding struct {
	AssetId       uint64          `db:"asset_id" json:"asset_id"`
	Investor      string          `db:"investor" json:"investor"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PurchaseValue decimal.Decimal `db:"purchase_value" json:"purchase_value"`
	PurchasedAt   time.Time       `db:"purchased_at" json:"purchased_at"`
}

// Distribution represents a dividend payout for an asset.
// SnapshotSupply is frozen at creation and is the denominator of every claim.
type Distribution struct {
	Id             uint64          `db:"id" json:"id"`
	AssetId        uint64          `db:"asset_id" json:"asset_id"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	PayoutToken    string          `db:"payout_token" json:"payout_token"`
	SnapshotAt     time.Time       `db:"snapshot_at" json:"snapshot_at"`
	SnapshotSupply decimal.Decimal `db:"snapshot_supply" json:"snapshot_supply"`
	IsClosed       bool            `db:"is_closed" json:"is_closed"`
}

// Claim records a successful distribution claim
type Claim struct {
	DistributionId uint64          `db:"distribution_id" json:"distribution_id"`
	Investor       string          `db:"investor" json:"investor"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	ClaimedAt      time.Time       `db:"claimed_at" json:"claimed_at"`
}

// RegistryMeta holds the registry-wide aggregate state
type RegistryMeta struct {
	Admin             string          `db:"admin" json:"admin"`
	AssetCount        uint64          `db:"asset_count" json:"asset_count"`
	DistributionCount uint64          `db:"distribution_count" json:"distribution_count"`
	TotalValueLocked  decimal.Decimal `db:"total_value_locked" json:"total_value_locked"`
	Version           int64           `db:"version" json:"-"`
}
