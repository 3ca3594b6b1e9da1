package registry

import (
	"context"
	"strconv"
	"time"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/store"

	"go.uber.org/zap"
)

// WhitelistCountry adds or removes a country code from the whitelist
func (r *Registry) WhitelistCountry(ctx context.Context, code string, allow bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event := r.newEvent(ctx, models.EventCountryWhitelisted)
	event.Attributes = map[string]string{"country_code": code, "allowed": strconv.FormatBool(allow)}

	return r.commit(ctx, store.Mutation{Countries: map[string]bool{code: allow}, Event: event}, func() {
		if allow {
			r.countries[code] = true
		} else {
			delete(r.countries, code)
		}
	})
}

// BlacklistAddress adds or removes an address from the global blacklist
func (r *Registry) BlacklistAddress(ctx context.Context, address string, block bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event := r.newEvent(ctx, models.EventAddressBlacklisted)
	event.Counterparty = address
	event.Attributes = map[string]string{"blocked": strconv.FormatBool(block)}

	return r.commit(ctx, store.Mutation{Blacklist: map[string]bool{address: block}, Event: event}, func() {
		if block {
			r.blacklist[address] = true
		} else {
			delete(r.blacklist, address)
		}
	})
}

func (r *Registry) IsCountryWhitelisted(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countries[code]
}

func (r *Registry) IsBlacklisted(address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.blacklist[address]
}

// RegisterInvestor creates or overwrites the investor record for address.
// Registration marks the investor KYC-verified; kycExpiry is stored as given.
func (r *Registry) RegisterInvestor(ctx context.Context, address string, accredited bool, countryCode string, kycExpiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.countries[countryCode] {
		return ErrCountryNotWhitelisted
	}

	investor := models.Investor{
		Address:       address,
		IsAccredited:  accredited,
		IsKycVerified: true,
		CountryCode:   countryCode,
		KycExpiry:     kycExpiry,
		RegisteredAt:  r.now(),
		IsBlacklisted: false,
	}

	if _, exists := r.investors[address]; exists {
		zap.L().Info("Overwriting existing investor registration", zap.String("investor", address))
	}

	event := r.newEvent(ctx, models.EventInvestorRegistered)
	event.Counterparty = address
	event.Attributes = map[string]string{
		"country_code": countryCode,
		"accredited":   strconv.FormatBool(accredited),
	}

	return r.commit(ctx, store.Mutation{Investors: []models.Investor{investor}, Event: event}, func() {
		r.investors[address] = investor
	})
}

// UpdateAccreditation changes the accreditation flag of a registered investor
func (r *Registry) UpdateAccreditation(ctx context.Context, address string, accredited bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	investor, ok := r.investors[address]
	if !ok {
		return ErrInvestorNotFound
	}
	investor.IsAccredited = accredited

	event := r.newEvent(ctx, models.EventAccreditationUpdated)
	event.Counterparty = address
	event.Attributes = map[string]string{"accredited": strconv.FormatBool(accredited)}

	return r.commit(ctx, store.Mutation{Investors: []models.Investor{investor}, Event: event}, func() {
		r.investors[address] = investor
	})
}

// CheckEligibility reports whether address may currently hold assetId.
// Any unmet condition, including a missing asset or investor, yields false.
func (r *Registry) CheckEligibility(assetId uint64, address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.assets[assetId]
	if !ok {
		return false
	}
	investor, ok := r.investors[address]
	if !ok {
		return false
	}
	// Only the investor's own flag counts here; Invest also consults the
	// global blacklist.
	if investor.IsBlacklisted {
		return false
	}
	if asset.AccreditedOnly && !investor.IsAccredited {
		return false
	}
	return r.countries[investor.CountryCode]
}

func (r *Registry) isBlacklisted(investor models.Investor) bool {
	return investor.IsBlacklisted || r.blacklist[investor.Address]
}
