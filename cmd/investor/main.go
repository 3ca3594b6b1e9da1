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
package main

import (
	"context"
	"flag"
	"fmt"
	"regexp"
	"strings"
	"time"

	"rwa-registry-go/internal/common"
	"rwa-registry-go/internal/config"
	"rwa-registry-go/internal/models"

	"go.uber.org/zap"
)

var countryRegex = regexp.MustCompile(`^[A-Z]{2}$`)

func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if strings.ContainsAny(address, " \t\n") {
		return fmt.Errorf("address cannot contain whitespace: %q", address)
	}
	return nil
}

func validateCountry(code string) error {
	if !countryRegex.MatchString(code) {
		return fmt.Errorf("invalid country code %q, expected two letters", code)
	}
	return nil
}

// parseKycExpiry accepts a date (2006-01-02) or a duration from now (8760h)
func parseKycExpiry(value string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(value); err == nil {
		if d <= 0 {
			return time.Time{}, fmt.Errorf("kyc validity must be positive, got %s", value)
		}
		return now.Add(d), nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid kyc expiry %q: use a date (2006-01-02) or a duration (8760h)", value)
	}
	return t.UTC(), nil
}

func printInvestor(investor models.Investor) {
	fmt.Printf("\n✓ Investor registered\n")
	fmt.Printf("  Address:     %s\n", investor.Address)
	fmt.Printf("  Country:     %s\n", investor.CountryCode)
	fmt.Printf("  Accredited:  %t\n", investor.IsAccredited)
	fmt.Printf("  KYC expiry:  %s\n", investor.KycExpiry.Format("2006-01-02"))
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	addressFlag := flag.String("address", "", "Investor address (required)")
	countryFlag := flag.String("country", "", "Two-letter country code (required)")
	accreditedFlag := flag.Bool("accredited", false, "Mark the investor as accredited")
	kycFlag := flag.String("kyc-expiry", "8760h", "KYC expiry as a date (2006-01-02) or a duration from now")
	actorFlag := flag.String("actor", "cli", "Identity recorded on the registration event")
	flag.Parse()

	address := strings.TrimSpace(*addressFlag)
	country := strings.ToUpper(strings.TrimSpace(*countryFlag))

	if err := validateAddress(address); err != nil {
		zap.L().Fatal("Invalid address", zap.Error(err))
	}
	if err := validateCountry(country); err != nil {
		zap.L().Fatal("Invalid country", zap.Error(err))
	}
	kycExpiry, err := parseKycExpiry(*kycFlag, time.Now().UTC())
	if err != nil {
		zap.L().Fatal("Invalid KYC expiry", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if _, exists := services.Registry.GetInvestor(address); exists {
		fmt.Printf("Investor %s already registered, overwriting\n", address)
	}

	ctx = models.WithActor(ctx, *actorFlag)
	if err := services.Registry.RegisterInvestor(ctx, address, *accreditedFlag, country, kycExpiry); err != nil {
		zap.L().Fatal("Failed to register investor",
			zap.String("investor", address),
			zap.String("country_code", country),
			zap.Error(err))
	}

	investor, _ := services.Registry.GetInvestor(address)
	printInvestor(investor)

	zap.L().Info("Investor registration completed",
		zap.String("investor", address),
		zap.String("country_code", country),
		zap.Bool("accredited", *accreditedFlag))
}
