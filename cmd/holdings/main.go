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
	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/registry"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type holdingStats struct {
	totalAssets      int
	assetsWithHolder int
	totalHoldings    int
}

func printHolding(holding models.Holding, asset models.Asset, price decimal.Decimal, isLast bool) {
	fmt.Printf("%s %-24s: %15s units (%8s, value: %s USD, since: %s)\n",
		common.BoxPrefix(isLast),
		holding.Investor,
		common.FormatUnits(holding.Amount),
		common.Percent(holding.Amount, asset.CirculatingSupply),
		common.FormatUnits(price.Mul(holding.Amount)),
		holding.PurchasedAt.Format("2006-01-02 15:04:05"))
}

func printAssetHeader(asset models.Asset, price decimal.Decimal, holderCount int) {
	fmt.Printf("\n┌─ Asset #%d: %s (%s, %s)\n", asset.Id, asset.Name, asset.Symbol, asset.Type)
	fmt.Printf("│  Supply: %s / %s (%s issued)\n",
		common.FormatUnits(asset.CirculatingSupply),
		common.FormatUnits(asset.TotalSupply),
		common.Percent(asset.CirculatingSupply, asset.TotalSupply))
	fmt.Printf("│  Valuation: %s USD, price: %s USD\n", common.FormatUnits(asset.ValuationUsd), price.String())
	fmt.Printf("│  Holders: %d\n", holderCount)
	common.PrintSeparator("─", 78)
}

func processAsset(reg *registry.Registry, asset models.Asset, investor string) int {
	holdings := reg.ListHoldings(asset.Id)
	if investor != "" {
		filtered := holdings[:0]
		for _, h := range holdings {
			if h.Investor == investor {
				filtered = append(filtered, h)
			}
		}
		holdings = filtered
	}
	if len(holdings) == 0 {
		return 0
	}

	price := reg.GetTokenPrice(asset.Id)
	printAssetHeader(asset, price, len(holdings))
	for i, holding := range holdings {
		printHolding(holding, asset, price, i == len(holdings)-1)
	}
	return len(holdings)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	assetFlag := flag.Uint64("asset", 0, "Filter by asset id (optional)")
	investorFlag := flag.String("investor", "", "Filter by investor address (optional)")
	flag.Parse()

	zap.L().Info("Starting holdings report")

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	// Read-only: restore a detached registry without sinks
	zap.L().Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	snapshot, err := dbService.Load(ctx)
	if err != nil {
		zap.L().Fatal("Failed to load registry state", zap.Error(err))
	}
	reg := registry.New()
	reg.Restore(snapshot)

	common.PrintHeader("ASSET HOLDINGS REPORT", common.DefaultWidth)

	stats := holdingStats{}
	for _, asset := range reg.ListAssets() {
		if *assetFlag != 0 && asset.Id != *assetFlag {
			continue
		}
		stats.totalAssets++
		count := processAsset(reg, asset, *investorFlag)
		if count > 0 {
			stats.assetsWithHolder++
			stats.totalHoldings += count
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d assets with holders (%d holdings across %d assets queried), TVL %s USD",
		stats.assetsWithHolder, stats.totalHoldings, stats.totalAssets, common.FormatUnits(reg.GetTVL()))
	common.PrintFooter(summary, common.DefaultWidth)

	zap.L().Info("Holdings report completed",
		zap.Int("assets_queried", stats.totalAssets),
		zap.Int("assets_with_holders", stats.assetsWithHolder),
		zap.Int("total_holdings", stats.totalHoldings))
}
