package registry

import "errors"

// Validation errors returned by registry operations. The messages are part of
// the public contract: API clients match on them.
var (
	ErrAlreadyInitialized       = errors.New("Contract already initialized")
	ErrCountryNotWhitelisted    = errors.New("Country not whitelisted")
	ErrInvestorNotFound         = errors.New("Investor not found")
	ErrInvalidSupplyOrValue     = errors.New("Invalid supply or value")
	ErrAssetNotFound            = errors.New("Asset not found")
	ErrInvestorNotRegistered    = errors.New("Investor not registered")
	ErrInvestorBlacklisted      = errors.New("Investor is blacklisted")
	ErrAccreditedOnly           = errors.New("Accredited investors only")
	ErrBelowMinimum             = errors.New("Below minimum investment")
	ErrExceedsSupply            = errors.New("Exceeds total supply")
	ErrTransfersDisabled        = errors.New("Asset transfers disabled")
	ErrSenderNotRegistered      = errors.New("Sender not registered")
	ErrReceiverNotRegistered    = errors.New("Receiver not registered")
	ErrReceiverMustBeAccredited = errors.New("Receiver must be accredited")
	ErrInsufficientBalance      = errors.New("Insufficient balance")
	ErrDistributionNotFound     = errors.New("Distribution not found")
	ErrAlreadyClaimed           = errors.New("Already claimed")
	ErrNoHoldings               = errors.New("No holdings to claim")
)

// IsValidationError reports whether err is one of the registry's business-rule errors
// rather than an infrastructure failure.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var validationErrors = []error{
	ErrAlreadyInitialized,
	ErrCountryNotWhitelisted,
	ErrInvestorNotFound,
	ErrInvalidSupplyOrValue,
	ErrAssetNotFound,
	ErrInvestorNotRegistered,
	ErrInvestorBlacklisted,
	ErrAccreditedOnly,
	ErrBelowMinimum,
	ErrExceedsSupply,
	ErrTransfersDisabled,
	ErrSenderNotRegistered,
	ErrReceiverNotRegistered,
	ErrReceiverMustBeAccredited,
	ErrInsufficientBalance,
	ErrDistributionNotFound,
	ErrAlreadyClaimed,
	ErrNoHoldings,
}
