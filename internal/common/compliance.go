package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rwa-registry-go/internal/registry"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// ComplianceConfig is the bootstrap document for the compliance gate
type ComplianceConfig struct {
	Admin     string   `yaml:"admin"`
	Countries []string `yaml:"countries"`
	Blacklist []string `yaml:"blacklist"`
}

func LoadComplianceConfig(complianceFile string) (*ComplianceConfig, error) {
	var compliancePath string
	if filepath.IsAbs(complianceFile) {
		compliancePath = complianceFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		compliancePath = filepath.Join(wd, complianceFile)
	}

	data, err := os.ReadFile(compliancePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", complianceFile, err)
	}

	var config ComplianceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", complianceFile, err)
	}

	config.Admin = strings.TrimSpace(config.Admin)
	for i, code := range config.Countries {
		code = strings.ToUpper(strings.TrimSpace(code))
		if len(code) != 2 {
			return nil, fmt.Errorf("country at index %d is not a two-letter code: %q", i, config.Countries[i])
		}
		config.Countries[i] = code
	}
	for i, address := range config.Blacklist {
		if strings.TrimSpace(address) == "" {
			return nil, fmt.Errorf("blacklist entry at index %d is empty", i)
		}
	}

	return &config, nil
}

// ApplyCompliance initializes the registry with the configured admin and
// brings the country whitelist and blacklist up to the document. Entries
// already in place are skipped, so applying the same file twice records no
// new events. The admin of an initialized registry is never changed here.
func ApplyCompliance(ctx context.Context, reg *registry.Registry, config *ComplianceConfig) error {
	current := reg.GetAdmin()
	switch {
	case current == "" && config.Admin != "":
		if err := reg.Initialize(ctx, config.Admin); err != nil {
			return fmt.Errorf("failed to initialize registry: %w", err)
		}
		zap.L().Info("Registry initialized", zap.String("admin", config.Admin))
	case current != "" && config.Admin != "" && current != config.Admin:
		zap.L().Warn("Compliance file admin differs from registry admin, keeping registry admin",
			zap.String("registry_admin", current),
			zap.String("file_admin", config.Admin))
	}

	for _, code := range config.Countries {
		if reg.IsCountryWhitelisted(code) {
			continue
		}
		if err := reg.WhitelistCountry(ctx, code, true); err != nil {
			return fmt.Errorf("failed to whitelist %s: %w", code, err)
		}
		zap.L().Info("Country whitelisted", zap.String("country_code", code))
	}

	for _, address := range config.Blacklist {
		if reg.IsBlacklisted(address) {
			continue
		}
		if err := reg.BlacklistAddress(ctx, address, true); err != nil {
			return fmt.Errorf("failed to blacklist %s: %w", address, err)
		}
		zap.L().Info("Address blacklisted", zap.String("address", address))
	}

	return nil
}
