package api

import (
	"context"
	"regexp"
	"strings"
	"time"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/registry"

	"go.uber.org/zap"
)

// defaultKycValidity applies when a registration does not carry an expiry
const defaultKycValidity = 365 * 24 * time.Hour

var countryCodePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)

func (s *RegistryService) Initialize(ctx context.Context, admin string) error {
	if err := requireAddress("admin", admin); err != nil {
		return s.record("initialize", err)
	}
	return s.record("initialize", s.registry.Initialize(ctx, admin))
}

func (s *RegistryService) SetAdmin(ctx context.Context, admin string) error {
	if err := requireAddress("admin", admin); err != nil {
		return s.record("set_admin", err)
	}
	return s.record("set_admin", s.registry.SetAdmin(ctx, admin))
}

func (s *RegistryService) WhitelistCountry(ctx context.Context, code string, allowed bool) error {
	if !countryCodePattern.MatchString(code) {
		return s.record("whitelist_country", invalidInput("country code must be two letters, got %q", code))
	}
	return s.record("whitelist_country", s.registry.WhitelistCountry(ctx, strings.ToUpper(code), allowed))
}

func (s *RegistryService) BlacklistAddress(ctx context.Context, address string, blocked bool) error {
	if err := requireAddress("address", address); err != nil {
		return s.record("blacklist_address", err)
	}
	return s.record("blacklist_address", s.registry.BlacklistAddress(ctx, address, blocked))
}

// RegisterInvestor registers or re-registers an investor
func (s *RegistryService) RegisterInvestor(ctx context.Context, req RegisterInvestorRequest) (models.Investor, error) {
	zap.L().Info("Registering investor",
		zap.String("investor", req.Address),
		zap.String("country_code", req.CountryCode),
		zap.Bool("accredited", req.Accredited))

	if err := requireAddress("address", req.Address); err != nil {
		return models.Investor{}, s.record("register_investor", err)
	}
	if !countryCodePattern.MatchString(req.CountryCode) {
		return models.Investor{}, s.record("register_investor",
			invalidInput("country code must be two letters, got %q", req.CountryCode))
	}

	kycExpiry := time.Now().UTC().Add(defaultKycValidity)
	if req.KycExpiry != nil {
		kycExpiry = req.KycExpiry.UTC()
	}

	err := s.registry.RegisterInvestor(ctx, req.Address, req.Accredited, strings.ToUpper(req.CountryCode), kycExpiry)
	if s.record("register_investor", err) != nil {
		return models.Investor{}, err
	}
	investor, _ := s.registry.GetInvestor(req.Address)
	return investor, nil
}

func (s *RegistryService) UpdateAccreditation(ctx context.Context, address string, accredited bool) error {
	return s.record("update_accreditation", s.registry.UpdateAccreditation(ctx, address, accredited))
}

func (s *RegistryService) GetInvestor(address string) (models.Investor, error) {
	investor, ok := s.registry.GetInvestor(address)
	if !ok {
		return models.Investor{}, registry.ErrInvestorNotFound
	}
	return investor, nil
}

// ListEvents pages through the persisted audit journal, newest first
func (s *RegistryService) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	if s.journal == nil {
		return nil, ErrJournalUnavailable
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, invalidInput("limit and offset cannot be negative")
	}
	return s.journal.ListEvents(ctx, filter)
}
