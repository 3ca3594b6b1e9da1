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

	"rwa-registry-go/internal/common"
	"rwa-registry-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	fileFlag := flag.String("file", "", "Path to the compliance YAML (default: COMPLIANCE_FILE)")
	adminFlag := flag.String("admin", "", "Admin identity, overrides the admin of the compliance file")
	flag.Parse()

	zap.L().Info("Starting registry setup")

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	complianceFile := *fileFlag
	if complianceFile == "" {
		complianceFile = cfg.ComplianceFile
	}

	zap.L().Info("Loading compliance configuration", zap.String("file", complianceFile))
	compliance, err := common.LoadComplianceConfig(complianceFile)
	if err != nil {
		zap.L().Fatal("Failed to load compliance config", zap.Error(err))
	}
	if *adminFlag != "" {
		compliance.Admin = *adminFlag
	}
	zap.L().Info("Compliance configuration loaded",
		zap.String("admin", compliance.Admin),
		zap.Int("countries", len(compliance.Countries)),
		zap.Int("blacklist", len(compliance.Blacklist)))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if services.DbService == nil {
		zap.L().Warn("Persistence disabled, setup will be lost on exit")
	}

	if err := common.ApplyCompliance(ctx, services.Registry, compliance); err != nil {
		zap.L().Fatal("Failed to apply compliance config", zap.Error(err))
	}

	overview := services.Registry.Overview()
	common.PrintHeader("REGISTRY SETUP", common.DefaultWidth)
	fmt.Printf("Admin:              %s\n", overview.Admin)
	fmt.Printf("Countries:          %v\n", compliance.Countries)
	fmt.Printf("Blacklisted:        %d\n", len(compliance.Blacklist))
	fmt.Printf("Assets:             %d\n", overview.AssetCount)
	fmt.Printf("Distributions:      %d\n", overview.DistributionCount)
	common.PrintFooter("Setup complete", common.DefaultWidth)

	zap.L().Info("Registry setup completed", zap.String("admin", overview.Admin))
}
