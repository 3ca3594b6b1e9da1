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

package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rwa-registry-go/internal/metrics"
	"rwa-registry-go/internal/store"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	CheckSupply          = "supply"
	CheckOversubscribed  = "oversubscribed"
	CheckTVL             = "tvl"
	CheckCounters        = "counters"
	CheckClaims          = "claims"
	CheckPersistedSupply = "persisted_supply"
	CheckMirrorHolding   = "mirror_holding"
	CheckMirrorPool      = "mirror_pool"

	defaultSchedule       = "@every 5m"
	persistedCheckTimeout = 30 * time.Second
)

// StateSource exposes a consistent copy of the registry state
type StateSource interface {
	Snapshot() *store.Snapshot
}

// AssetReconciler verifies persisted supply of one asset
type AssetReconciler interface {
	ReconcileAsset(ctx context.Context, assetId uint64) error
}

// Violation describes one broken ledger invariant
type Violation struct {
	Check   string
	AssetId uint64
	Id      uint64
	Detail  string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Check, v.Detail)
}

// LedgerMirror reads balances back from the external ledger copy
type LedgerMirror interface {
	HoldingBalance(ctx context.Context, assetId uint64, investor string) (decimal.Decimal, error)
	PoolBalance(ctx context.Context, distributionId uint64, payoutToken string) (decimal.Decimal, error)
}

// Backlog reports events not yet delivered to the mirror
type Backlog interface {
	Pending() int
}

type Config struct {
	Source   StateSource
	Store    AssetReconciler // optional
	Mirror   LedgerMirror    // optional
	Backlog  Backlog         // optional, mirror checks are skipped while events are queued
	Schedule string
}

// Reconciler periodically verifies the registry's ledger invariants
type Reconciler struct {
	source   StateSource
	store    AssetReconciler
	mirror   LedgerMirror
	backlog  Backlog
	schedule string

	cron         *cron.Cron
	mu           sync.Mutex
	lastRun      time.Time
	last         []Violation
	lastWarnings []Violation
}

func New(cfg Config) *Reconciler {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = defaultSchedule
	}
	return &Reconciler{
		source:   cfg.Source,
		store:    cfg.Store,
		mirror:   cfg.Mirror,
		backlog:  cfg.Backlog,
		schedule: schedule,
	}
}

// Start schedules reconciliation runs. The first run happens on the first tick.
func (r *Reconciler) Start(ctx context.Context) error {
	r.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := r.cron.AddFunc(r.schedule, func() { r.Run(ctx) }); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()

	zap.L().Info("Reconciler started", zap.String("schedule", r.schedule))
	return nil
}

// Stop waits for a running reconciliation to finish
func (r *Reconciler) Stop() {
	if r.cron == nil {
		return
	}
	zap.L().Info("Stopping reconciler")
	<-r.cron.Stop().Done()
	zap.L().Info("Reconciler stopped")
}

// LastResult returns the violations found by the most recent run
func (r *Reconciler) LastResult() (time.Time, []Violation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun, append([]Violation(nil), r.last...)
}

// LastWarnings returns the warnings found by the most recent run
func (r *Reconciler) LastWarnings() []Violation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Violation(nil), r.lastWarnings...)
}

// Run performs one reconciliation pass and returns the violations found.
// Warnings are logged and recorded but not returned.
func (r *Reconciler) Run(ctx context.Context) []Violation {
	start := time.Now()
	snapshot := r.source.Snapshot()

	warnings := Warnings(snapshot)
	warningCounts := make(map[string]int)
	for _, w := range warnings {
		warningCounts[w.Check]++
		zap.L().Warn("Distribution overclaimed",
			zap.String("check", w.Check),
			zap.Uint64("asset_id", w.AssetId),
			zap.Uint64("id", w.Id),
			zap.String("detail", w.Detail))
	}
	metrics.RecordReconcileWarnings(warningCounts)

	violations := Check(snapshot)
	if r.store != nil {
		violations = append(violations, r.checkPersisted(ctx, snapshot)...)
	}
	if r.mirror != nil {
		if r.backlog != nil && r.backlog.Pending() > 0 {
			zap.L().Info("Skipping mirror reconciliation, events still queued",
				zap.Int("pending", r.backlog.Pending()))
		} else {
			violations = append(violations, r.checkMirror(ctx, snapshot)...)
		}
	}

	counts := make(map[string]int)
	for _, v := range violations {
		counts[v.Check]++
		zap.L().Error("Ledger invariant violated",
			zap.String("check", v.Check),
			zap.Uint64("asset_id", v.AssetId),
			zap.Uint64("id", v.Id),
			zap.String("detail", v.Detail))
	}
	duration := time.Since(start)
	metrics.RecordReconcile(counts, duration)

	r.mu.Lock()
	r.lastRun = start
	r.last = violations
	r.lastWarnings = warnings
	r.mu.Unlock()

	if len(violations) == 0 {
		zap.L().Info("Reconciliation successful",
			zap.Int("assets", len(snapshot.Assets)),
			zap.Int("distributions", len(snapshot.Distributions)),
			zap.Duration("duration", duration))
	}
	return violations
}

func (r *Reconciler) checkPersisted(ctx context.Context, snapshot *store.Snapshot) []Violation {
	ctx, cancel := context.WithTimeout(ctx, persistedCheckTimeout)
	defer cancel()

	var violations []Violation
	for _, asset := range snapshot.Assets {
		if err := r.store.ReconcileAsset(ctx, asset.Id); err != nil {
			violations = append(violations, Violation{
				Check:   CheckPersistedSupply,
				AssetId: asset.Id,
				Detail:  err.Error(),
			})
		}
	}
	return violations
}

// checkMirror compares every holding and every distribution pool with the
// balances of the mirrored ledger. A read failure is reported as a violation.
func (r *Reconciler) checkMirror(ctx context.Context, snapshot *store.Snapshot) []Violation {
	ctx, cancel := context.WithTimeout(ctx, persistedCheckTimeout)
	defer cancel()

	var violations []Violation
	for _, h := range snapshot.Holdings {
		mirrored, err := r.mirror.HoldingBalance(ctx, h.AssetId, h.Investor)
		if err != nil {
			violations = append(violations, Violation{
				Check:   CheckMirrorHolding,
				AssetId: h.AssetId,
				Detail:  fmt.Sprintf("asset %d investor %s: %v", h.AssetId, h.Investor, err),
			})
			continue
		}
		if !mirrored.Equal(h.Amount) {
			violations = append(violations, Violation{
				Check:   CheckMirrorHolding,
				AssetId: h.AssetId,
				Detail:  fmt.Sprintf("asset %d investor %s registry=%s mirror=%s", h.AssetId, h.Investor, h.Amount, mirrored),
			})
		}
	}

	claimed := make(map[uint64]decimal.Decimal)
	for _, c := range snapshot.Claims {
		claimed[c.DistributionId] = claimed[c.DistributionId].Add(c.Amount)
	}
	for _, d := range snapshot.Distributions {
		mirrored, err := r.mirror.PoolBalance(ctx, d.Id, d.PayoutToken)
		if err != nil {
			violations = append(violations, Violation{
				Check:   CheckMirrorPool,
				AssetId: d.AssetId,
				Id:      d.Id,
				Detail:  fmt.Sprintf("distribution %d: %v", d.Id, err),
			})
			continue
		}
		if expected := d.TotalAmount.Sub(claimed[d.Id]); !mirrored.Equal(expected) {
			violations = append(violations, Violation{
				Check:   CheckMirrorPool,
				AssetId: d.AssetId,
				Id:      d.Id,
				Detail:  fmt.Sprintf("distribution %d unclaimed=%s mirror=%s", d.Id, expected, mirrored),
			})
		}
	}
	return violations
}

// Check verifies the in-memory invariants of a snapshot:
// holdings sum to circulating supply, circulating never exceeds total supply,
// TVL equals the sum of valuations and counters match the records.
func Check(snapshot *store.Snapshot) []Violation {
	var violations []Violation

	held := make(map[uint64]decimal.Decimal)
	for _, h := range snapshot.Holdings {
		held[h.AssetId] = held[h.AssetId].Add(h.Amount)
	}

	tvl := decimal.Zero
	for _, asset := range snapshot.Assets {
		tvl = tvl.Add(asset.ValuationUsd)

		if sum := held[asset.Id]; !sum.Equal(asset.CirculatingSupply) {
			violations = append(violations, Violation{
				Check:   CheckSupply,
				AssetId: asset.Id,
				Detail:  fmt.Sprintf("asset %d holdings=%s circulating=%s", asset.Id, sum, asset.CirculatingSupply),
			})
		}
		if asset.CirculatingSupply.GreaterThan(asset.TotalSupply) {
			violations = append(violations, Violation{
				Check:   CheckOversubscribed,
				AssetId: asset.Id,
				Detail:  fmt.Sprintf("asset %d circulating=%s total=%s", asset.Id, asset.CirculatingSupply, asset.TotalSupply),
			})
		}
	}

	if !tvl.Equal(snapshot.Meta.TotalValueLocked) {
		violations = append(violations, Violation{
			Check:  CheckTVL,
			Detail: fmt.Sprintf("tvl=%s valuations=%s", snapshot.Meta.TotalValueLocked, tvl),
		})
	}

	if snapshot.Meta.AssetCount != uint64(len(snapshot.Assets)) ||
		snapshot.Meta.DistributionCount != uint64(len(snapshot.Distributions)) {
		violations = append(violations, Violation{
			Check: CheckCounters,
			Detail: fmt.Sprintf("asset_count=%d assets=%d distribution_count=%d distributions=%d",
				snapshot.Meta.AssetCount, len(snapshot.Assets),
				snapshot.Meta.DistributionCount, len(snapshot.Distributions)),
		})
	}

	return violations
}

// Warnings reports distributions whose claims add up to more than their
// total. Claims are sized against the supply at creation time, so tokens
// issued afterwards make this legal; it is surfaced, not treated as a broken
// invariant.
func Warnings(snapshot *store.Snapshot) []Violation {
	claimed := make(map[uint64]decimal.Decimal)
	for _, c := range snapshot.Claims {
		claimed[c.DistributionId] = claimed[c.DistributionId].Add(c.Amount)
	}

	var warnings []Violation
	for _, d := range snapshot.Distributions {
		if sum := claimed[d.Id]; sum.GreaterThan(d.TotalAmount) {
			warnings = append(warnings, Violation{
				Check:   CheckClaims,
				AssetId: d.AssetId,
				Id:      d.Id,
				Detail:  fmt.Sprintf("distribution %d claimed=%s total=%s", d.Id, sum, d.TotalAmount),
			})
		}
	}
	return warnings
}
