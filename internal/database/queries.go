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

package database

const (
	// Registry meta queries
	queryGetMeta = `
		SELECT admin, asset_count, distribution_count, total_value_locked, version
		FROM registry_meta
		WHERE id = 1`

	queryUpdateMeta = `
		UPDATE registry_meta
		SET admin = ?, asset_count = ?, distribution_count = ?, total_value_locked = ?,
		    version = version + 1, updated_at = ?
		WHERE id = 1 AND version = ?`

	// Compliance queries
	queryGetCountries = `
		SELECT code FROM countries ORDER BY code`

	queryInsertCountry = `
		INSERT OR IGNORE INTO countries (code, created_at) VALUES (?, ?)`

	queryDeleteCountry = `
		DELETE FROM countries WHERE code = ?`

	queryGetBlacklist = `
		SELECT address FROM blacklist ORDER BY address`

	queryInsertBlacklist = `
		INSERT OR IGNORE INTO blacklist (address, created_at) VALUES (?, ?)`

	queryDeleteBlacklist = `
		DELETE FROM blacklist WHERE address = ?`

	// Investor queries
	queryGetInvestors = `
		SELECT address, is_accredited, is_kyc_verified, country_code, kyc_expiry, registered_at, is_blacklisted
		FROM investors
		ORDER BY registered_at, address`

	queryUpsertInvestor = `
		INSERT INTO investors (address, is_accredited, is_kyc_verified, country_code, kyc_expiry, registered_at, is_blacklisted)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			is_accredited = excluded.is_accredited,
			is_kyc_verified = excluded.is_kyc_verified,
			country_code = excluded.country_code,
			kyc_expiry = excluded.kyc_expiry,
			registered_at = excluded.registered_at,
			is_blacklisted = excluded.is_blacklisted`

	// Asset queries
	queryGetAssets = `
		SELECT id, name, symbol, asset_type, total_supply, circulating_supply, valuation_usd,
		       custodian, token_address, min_investment, accredited_only, is_active, is_transferable, created_at
		FROM assets
		ORDER BY id`

	queryGetAssetSupply = `
		SELECT circulating_supply, total_supply
		FROM assets
		WHERE id = ?`

	queryUpsertAsset = `
		INSERT INTO assets (
			id, name, symbol, asset_type, total_supply, circulating_supply, valuation_usd,
			custodian, token_address, min_investment, accredited_only, is_active, is_transferable, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			circulating_supply = excluded.circulating_supply,
			valuation_usd = excluded.valuation_usd,
			is_active = excluded.is_active,
			is_transferable = excluded.is_transferable`

	// Holding queries
	queryGetHoldings = `
		SELECT asset_id, investor, amount, purchase_value, purchased_at
		FROM holdings
		ORDER BY asset_id, investor`

	queryGetAssetHoldingAmounts = `
		SELECT amount
		FROM holdings
		WHERE asset_id = ?`

	queryUpsertHolding = `
		INSERT INTO holdings (asset_id, investor, amount, purchase_value, purchased_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(asset_id, investor) DO UPDATE SET
			amount = excluded.amount,
			purchase_value = excluded.purchase_value`

	// Distribution queries
	queryGetDistributions = `
		SELECT id, asset_id, total_amount, payout_token, snapshot_at, snapshot_supply, is_closed
		FROM distributions
		ORDER BY id`

	queryInsertDistribution = `
		INSERT INTO distributions (id, asset_id, total_amount, payout_token, snapshot_at, snapshot_supply, is_closed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetClaims = `
		SELECT distribution_id, investor, amount, claimed_at
		FROM claims
		ORDER BY distribution_id, investor`

	queryInsertClaim = `
		INSERT INTO claims (distribution_id, investor, amount, claimed_at)
		VALUES (?, ?, ?, ?)`

	// Event journal queries
	queryInsertEvent = `
		INSERT INTO registry_events (
			id, event_type, asset_id, distribution_id, actor, counterparty, amount, value, attributes, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryListEvents = `
		SELECT id, event_type, asset_id, distribution_id, actor, counterparty, amount, value, attributes, occurred_at
		FROM registry_events
		WHERE (? = '' OR event_type = ?)
		  AND (? = 0 OR asset_id = ?)
		  AND (? = '' OR actor = ? OR counterparty = ?)
		ORDER BY seq DESC
		LIMIT ? OFFSET ?`
)
