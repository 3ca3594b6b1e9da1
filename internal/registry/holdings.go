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

package registry

import (
	"context"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvestParams contains the parameters for an investment
type InvestParams struct {
	AssetId       uint64
	Investor      string
	Amount        decimal.Decimal
	PaymentToken  string
	PaymentAmount decimal.Decimal
}

// Invest issues amount units of an asset to a registered, eligible investor.
// Checks run in a fixed order and the first failure is returned.
func (r *Registry) Invest(ctx context.Context, params InvestParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[params.AssetId]
	if !ok {
		return false, ErrAssetNotFound
	}
	investor, ok := r.investors[params.Investor]
	if !ok {
		return false, ErrInvestorNotRegistered
	}
	if r.isBlacklisted(investor) {
		return false, ErrInvestorBlacklisted
	}
	if asset.AccreditedOnly && !investor.IsAccredited {
		return false, ErrAccreditedOnly
	}
	if params.Amount.LessThan(asset.MinInvestment) {
		return false, ErrBelowMinimum
	}
	newCirculating := asset.CirculatingSupply.Add(params.Amount)
	if newCirculating.GreaterThan(asset.TotalSupply) {
		return false, ErrExceedsSupply
	}

	key := store.HoldingKey{AssetId: params.AssetId, Investor: params.Investor}
	holding, exists := r.holdings[key]
	if exists {
		holding.Amount = holding.Amount.Add(params.Amount)
		holding.PurchaseValue = holding.PurchaseValue.Add(params.PaymentAmount)
	} else {
		holding = models.Holding{
			AssetId:       params.AssetId,
			Investor:      params.Investor,
			Amount:        params.Amount,
			PurchaseValue: params.PaymentAmount,
			PurchasedAt:   r.now(),
		}
	}
	asset.CirculatingSupply = newCirculating

	event := r.newEvent(ctx, models.EventInvestment)
	event.AssetId = params.AssetId
	event.Counterparty = params.Investor
	event.Amount = params.Amount
	event.Value = params.PaymentAmount
	event.Attributes = map[string]string{
		"payment_token": params.PaymentToken,
		"custodian":     asset.Custodian,
		"symbol":        asset.Symbol,
	}

	err := r.commit(ctx, store.Mutation{
		Assets:   []models.Asset{asset},
		Holdings: []models.Holding{holding},
		Event:    event,
	}, func() {
		r.assets[asset.Id] = asset
		r.holdings[key] = holding
	})
	if err != nil {
		return false, err
	}

	zap.L().Info("Investment processed",
		zap.Uint64("asset_id", params.AssetId),
		zap.String("investor", params.Investor),
		zap.String("amount", params.Amount.String()),
		zap.String("payment_amount", params.PaymentAmount.String()),
		zap.String("circulating_supply", newCirculating.String()))
	return true, nil
}

// Transfer moves amount units of an asset between two registered investors.
// Only the receiver's accreditation is checked. Circulating supply is unchanged.
func (r *Registry) Transfer(ctx context.Context, assetId uint64, from, to string, amount decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	asset, ok := r.assets[assetId]
	if !ok {
		return false, ErrAssetNotFound
	}
	if !asset.IsTransferable {
		return false, ErrTransfersDisabled
	}
	if _, ok := r.investors[from]; !ok {
		return false, ErrSenderNotRegistered
	}
	receiver, ok := r.investors[to]
	if !ok {
		return false, ErrReceiverNotRegistered
	}
	if asset.AccreditedOnly && !receiver.IsAccredited {
		return false, ErrReceiverMustBeAccredited
	}

	fromKey := store.HoldingKey{AssetId: assetId, Investor: from}
	toKey := store.HoldingKey{AssetId: assetId, Investor: to}

	sender, ok := r.holdings[fromKey]
	if !ok || sender.Amount.LessThan(amount) {
		return false, ErrInsufficientBalance
	}
	sender.Amount = sender.Amount.Sub(amount)

	var incoming models.Holding
	switch existing, exists := r.holdings[toKey]; {
	case toKey == fromKey:
		incoming = sender
	case exists:
		incoming = existing
	default:
		incoming = models.Holding{
			AssetId:       assetId,
			Investor:      to,
			Amount:        decimal.Zero,
			PurchaseValue: decimal.Zero,
			PurchasedAt:   r.now(),
		}
	}
	incoming.Amount = incoming.Amount.Add(amount)

	changed := []models.Holding{sender, incoming}
	if toKey == fromKey {
		changed = []models.Holding{incoming}
	}

	event := r.newEvent(ctx, models.EventTransfer)
	event.AssetId = assetId
	event.Actor = from
	event.Counterparty = to
	event.Amount = amount
	event.Attributes = map[string]string{"symbol": asset.Symbol}
	if caller := models.ActorFromContext(ctx); caller != "" && caller != from {
		event.Attributes["initiated_by"] = caller
	}

	err := r.commit(ctx, store.Mutation{Holdings: changed, Event: event}, func() {
		for _, h := range changed {
			r.holdings[store.HoldingKey{AssetId: h.AssetId, Investor: h.Investor}] = h
		}
	})
	if err != nil {
		return false, err
	}

	zap.L().Info("Transfer processed",
		zap.Uint64("asset_id", assetId),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("amount", amount.String()))
	return true, nil
}
