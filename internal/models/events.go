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

// EventType names a registry state change
type EventType string

const (
	EventInitialized            EventType = "RWAInitialized"
	EventAdminUpdated           EventType = "AdminUpdated"
	EventCountryWhitelisted     EventType = "CountryWhitelisted"
	EventAddressBlacklisted     EventType = "AddressBlacklisted"
	EventAssetCreated           EventType = "AssetCreated"
	EventValuationUpdated       EventType = "ValuationUpdated"
	EventTransferabilityChanged EventType = "TransferabilityChanged"
	EventInvestorRegistered     EventType = "InvestorRegistered"
	EventAccreditationUpdated   EventType = "AccreditationUpdated"
	EventInvestment             EventType = "Investment"
	EventTransfer               EventType = "Transfer"
	EventDistributionCreated    EventType = "DistributionCreated"
	EventDistributionClaimed    EventType = "DistributionClaimed"
)

// Event is an immutable record of one successful registry operation.
// Amount carries token units, Value carries payment-token or USD minor units.
type Event struct {
	Id             string            `db:"id" json:"id"`
	Type           EventType         `db:"event_type" json:"type"`
	AssetId        uint64            `db:"asset_id" json:"asset_id,omitempty"`
	DistributionId uint64            `db:"distribution_id" json:"distribution_id,omitempty"`
	Actor          string            `db:"actor" json:"actor,omitempty"`
	Counterparty   string            `db:"counterparty" json:"counterparty,omitempty"`
	Amount         decimal.Decimal   `db:"amount" json:"amount"`
	Value          decimal.Decimal   `db:"value" json:"value"`
	Attributes     map[string]string `db:"attributes" json:"attributes,omitempty"`
	OccurredAt     time.Time         `db:"occurred_at" json:"occurred_at"`
}

// EventFilter narrows an audit journal query
type EventFilter struct {
	Type    EventType
	AssetId uint64
	Actor   string
	Limit   int
	Offset  int
}
