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
	"sort"
	"strings"

	"rwa-registry-go/internal/common"
	"rwa-registry-go/internal/config"
	"rwa-registry-go/internal/models"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

func formatEventId(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}

func formatAttributes(attributes map[string]string) string {
	if len(attributes) == 0 {
		return ""
	}
	keys := lo.Keys(attributes)
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+attributes[k])
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

func printEvent(event models.Event, isLast bool) {
	fmt.Printf("%s %s %-22s %s asset=%d dist=%d actor=%s counterparty=%s amount=%s value=%s%s\n",
		common.BoxPrefix(isLast),
		event.OccurredAt.Format("2006-01-02 15:04:05"),
		event.Type,
		formatEventId(event.Id),
		event.AssetId,
		event.DistributionId,
		orDash(event.Actor),
		orDash(event.Counterparty),
		event.Amount.String(),
		event.Value.String(),
		formatAttributes(event.Attributes))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	typeFlag := flag.String("type", "", "Filter by event type, e.g. Investment (optional)")
	assetFlag := flag.Uint64("asset", 0, "Filter by asset id (optional)")
	actorFlag := flag.String("actor", "", "Filter by actor or counterparty (optional)")
	limitFlag := flag.Int("limit", 50, "Maximum number of events")
	offsetFlag := flag.Int("offset", 0, "Number of newest events to skip")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	events, err := dbService.ListEvents(ctx, models.EventFilter{
		Type:    models.EventType(*typeFlag),
		AssetId: *assetFlag,
		Actor:   *actorFlag,
		Limit:   *limitFlag,
		Offset:  *offsetFlag,
	})
	if err != nil {
		zap.L().Fatal("Failed to list events", zap.Error(err))
	}

	common.PrintHeader("REGISTRY AUDIT JOURNAL (newest first)", common.WideWidth)
	for i, event := range events {
		printEvent(event, i == len(events)-1)
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d events", len(events)), common.WideWidth)
}
