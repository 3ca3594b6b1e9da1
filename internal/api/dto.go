package api

import (
	"time"

	"rwa-registry-go/internal/models"

	"github.com/shopspring/decimal"
)

type AdminRequest struct {
	Admin string `json:"admin" binding:"required"`
}

type CountryRequest struct {
	Allowed *bool `json:"allowed" binding:"required"`
}

type BlacklistRequest struct {
	Blocked *bool `json:"blocked" binding:"required"`
}

type RegisterInvestorRequest struct {
	Address     string     `json:"address" binding:"required"`
	Accredited  bool       `json:"accredited"`
	CountryCode string     `json:"country_code" binding:"required"`
	KycExpiry   *time.Time `json:"kyc_expiry,omitempty"`
}

type AccreditationRequest struct {
	Accredited *bool `json:"accredited" binding:"required"`
}

type CreateAssetRequest struct {
	Name           string          `json:"name" binding:"required"`
	Symbol         string          `json:"symbol" binding:"required"`
	AssetType      string          `json:"asset_type" binding:"required"`
	TotalSupply    decimal.Decimal `json:"total_supply"`
	ValuationUsd   decimal.Decimal `json:"valuation_usd"`
	Custodian      string          `json:"custodian"`
	TokenAddress   string          `json:"token_address"`
	MinInvestment  decimal.Decimal `json:"min_investment"`
	AccreditedOnly bool            `json:"accredited_only"`
}

type ValuationRequest struct {
	ValuationUsd decimal.Decimal `json:"valuation_usd"`
}

type TransferableRequest struct {
	Transferable *bool `json:"transferable" binding:"required"`
}

type InvestRequest struct {
	Investor      string          `json:"investor" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentToken  string          `json:"payment_token"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
}

type TransferRequest struct {
	From   string          `json:"from" binding:"required"`
	To     string          `json:"to" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

type CreateDistributionRequest struct {
	AssetId     uint64          `json:"asset_id" binding:"required"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PayoutToken string          `json:"payout_token" binding:"required"`
}

type ClaimRequest struct {
	Investor string `json:"investor" binding:"required"`
}

type CreatedResponse struct {
	Id uint64 `json:"id"`
}

type TokenPriceResponse struct {
	AssetId      uint64          `json:"asset_id"`
	Symbol       string          `json:"symbol"`
	ValuationUsd decimal.Decimal `json:"valuation_usd"`
	TotalSupply  decimal.Decimal `json:"total_supply"`
	Price        decimal.Decimal `json:"price"`
}

type EligibilityResponse struct {
	AssetId  uint64 `json:"asset_id"`
	Address  string `json:"address"`
	Eligible bool   `json:"eligible"`
}

type TransferResponse struct {
	AssetId     uint64          `json:"asset_id"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
	FromBalance decimal.Decimal `json:"from_balance"`
	ToBalance   decimal.Decimal `json:"to_balance"`
}

type ClaimStatusResponse struct {
	DistributionId uint64        `json:"distribution_id"`
	Investor       string        `json:"investor"`
	Claimed        bool          `json:"claimed"`
	Claim          *models.Claim `json:"claim,omitempty"`
}

type EventsResponse struct {
	Events []models.Event `json:"events"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}
