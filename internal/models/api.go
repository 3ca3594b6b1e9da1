/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegistryOverview summarises the registry aggregate state
type RegistryOverview struct {
	Admin             string          `json:"admin"`
	AssetCount        uint64          `json:"asset_count"`
	DistributionCount uint64          `json:"distribution_count"`
	TotalValueLocked  decimal.Decimal `json:"total_value_locked"`
}

// PortfolioHolding is a holding enriched with asset details and its current value
type PortfolioHolding struct {
	AssetId       uint64          `json:"asset_id"`
	AssetName     string          `json:"asset_name"`
	AssetSymbol   string          `json:"asset_symbol"`
	AssetType     AssetType       `json:"asset_type"`
	Amount        decimal.Decimal `json:"amount"`
	PurchaseValue decimal.Decimal `json:"purchase_value"`
	TokenPrice    decimal.Decimal `json:"token_price"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	PurchasedAt   time.Time       `json:"purchased_at"`
}

// Portfolio represents an investor's holdings across all assets
type Portfolio struct {
	Investor           string             `json:"investor"`
	Holdings           []PortfolioHolding `json:"holdings"`
	TotalValueUsd      decimal.Decimal    `json:"total_value_usd"`
	UnclaimedDividends decimal.Decimal    `json:"unclaimed_dividends"`
	AssetCount         int                `json:"asset_count"`
}

// AvailableDistribution is a distribution the investor can still claim
type AvailableDistribution struct {
	Distribution Distribution    `json:"distribution"`
	Entitlement  decimal.Decimal `json:"entitlement"`
}

// ClaimResult represents the result of claiming a distribution
type ClaimResult struct {
	DistributionId uint64          `json:"distribution_id"`
	Investor       string          `json:"investor"`
	Amount         decimal.Decimal `json:"amount"`
	PayoutToken    string          `json:"payout_token"`
}
