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

package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Publisher receives the event of every committed operation.
type Publisher interface {
	Publish(event models.Event)
}

// Option configures a Registry
type Option func(*Registry)

// WithClock overrides the time source used for every timestamp
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithStore enables write-through persistence of every mutation
func WithStore(s store.RegistryStore) Option {
	return func(r *Registry) { r.store = s }
}

// WithPublisher forwards committed events to p
func WithPublisher(p Publisher) Option {
	return func(r *Registry) { r.publisher = p }
}

// Registry owns every asset, investor, holding and distribution record.
// A single lock guards all of it since TVL and supply checks span entities.
type Registry struct {
	mu sync.RWMutex

	meta          models.RegistryMeta
	countries     map[string]bool
	blacklist     map[string]bool
	investors     map[string]models.Investor
	assets        map[uint64]models.Asset
	holdings      map[store.HoldingKey]models.Holding
	distributions map[uint64]models.Distribution
	claims        map[store.ClaimKey]models.Claim

	now       func() time.Time
	store     store.RegistryStore
	publisher Publisher
}

func New(opts ...Option) *Registry {
	r := &Registry{
		meta:          models.RegistryMeta{TotalValueLocked: decimal.Zero},
		countries:     make(map[string]bool),
		blacklist:     make(map[string]bool),
		investors:     make(map[string]models.Investor),
		assets:        make(map[uint64]models.Asset),
		holdings:      make(map[store.HoldingKey]models.Holding),
		distributions: make(map[uint64]models.Distribution),
		claims:        make(map[store.ClaimKey]models.Claim),
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Restore replaces the in-memory state with a persisted snapshot
func (r *Registry) Restore(snapshot *store.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.meta = snapshot.Meta
	r.countries = make(map[string]bool, len(snapshot.Countries))
	for _, code := range snapshot.Countries {
		r.countries[code] = true
	}
	r.blacklist = make(map[string]bool, len(snapshot.Blacklist))
	for _, addr := range snapshot.Blacklist {
		r.blacklist[addr] = true
	}
	r.investors = make(map[string]models.Investor, len(snapshot.Investors))
	for _, inv := range snapshot.Investors {
		r.investors[inv.Address] = inv
	}
	r.assets = make(map[uint64]models.Asset, len(snapshot.Assets))
	for _, a := range snapshot.Assets {
		r.assets[a.Id] = a
	}
	r.holdings = make(map[store.HoldingKey]models.Holding, len(snapshot.Holdings))
	for _, h := range snapshot.Holdings {
		r.holdings[store.HoldingKey{AssetId: h.AssetId, Investor: h.Investor}] = h
	}
	r.distributions = make(map[uint64]models.Distribution, len(snapshot.Distributions))
	for _, d := range snapshot.Distributions {
		r.distributions[d.Id] = d
	}
	r.claims = make(map[store.ClaimKey]models.Claim, len(snapshot.Claims))
	for _, c := range snapshot.Claims {
		r.claims[store.ClaimKey{DistributionId: c.DistributionId, Investor: c.Investor}] = c
	}

	zap.L().Info("Registry state restored",
		zap.Uint64("asset_count", r.meta.AssetCount),
		zap.Uint64("distribution_count", r.meta.DistributionCount),
		zap.Int("investors", len(r.investors)),
		zap.Int("holdings", len(r.holdings)),
		zap.String("tvl", r.meta.TotalValueLocked.String()))
}

// Initialize sets the admin identity exactly once
func (r *Registry) Initialize(ctx context.Context, admin string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.meta.Admin != "" {
		return ErrAlreadyInitialized
	}

	meta := r.meta
	meta.Admin = admin

	event := r.newEvent(ctx, models.EventInitialized)
	event.Counterparty = admin

	return r.commit(ctx, store.Mutation{Meta: &meta, Event: event}, func() {
		r.meta.Admin = admin
	})
}

// SetAdmin overwrites the admin identity. Authorization is the caller's concern.
func (r *Registry) SetAdmin(ctx context.Context, newAdmin string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta := r.meta
	previous := meta.Admin
	meta.Admin = newAdmin

	event := r.newEvent(ctx, models.EventAdminUpdated)
	event.Counterparty = newAdmin
	event.Attributes = map[string]string{"previous_admin": previous}

	return r.commit(ctx, store.Mutation{Meta: &meta, Event: event}, func() {
		r.meta.Admin = newAdmin
	})
}

func (r *Registry) GetAdmin() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.meta.Admin
}

func (r *Registry) GetAssetCount() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.meta.AssetCount
}

// GetTVL returns the incrementally maintained total value locked
func (r *Registry) GetTVL() decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.meta.TotalValueLocked
}

func (r *Registry) Overview() models.RegistryOverview {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return models.RegistryOverview{
		Admin:             r.meta.Admin,
		AssetCount:        r.meta.AssetCount,
		DistributionCount: r.meta.DistributionCount,
		TotalValueLocked:  r.meta.TotalValueLocked,
	}
}

// commit persists m, then applies the in-memory change and publishes the event.
// Callers must hold the write lock. Nothing is applied if persistence fails.
func (r *Registry) commit(ctx context.Context, m store.Mutation, apply func()) error {
	if r.store != nil {
		if err := r.store.Apply(ctx, m); err != nil {
			zap.L().Error("Failed to persist registry mutation",
				zap.String("event_type", string(m.Event.Type)),
				zap.String("event_id", m.Event.Id),
				zap.Error(err))
			return fmt.Errorf("failed to persist %s: %w", m.Event.Type, err)
		}
	}

	apply()
	if m.Meta != nil {
		r.meta.Version++
	}

	zap.L().Debug("Registry mutation committed",
		zap.String("event_type", string(m.Event.Type)),
		zap.String("event_id", m.Event.Id))

	if r.publisher != nil {
		r.publisher.Publish(m.Event)
	}
	return nil
}

func (r *Registry) newEvent(ctx context.Context, eventType models.EventType) models.Event {
	return models.Event{
		Id:         uuid.New().String(),
		Type:       eventType,
		Actor:      models.ActorFromContext(ctx),
		Amount:     decimal.Zero,
		Value:      decimal.Zero,
		OccurredAt: r.now(),
	}
}

// floorDiv divides two non-negative integer quantities, truncating the result.
// A zero divisor yields zero.
func floorDiv(numerator, denominator decimal.Decimal) decimal.Decimal {
	if denominator.IsZero() {
		return decimal.Zero
	}
	q, _ := numerator.QuoRem(denominator, 0)
	return q
}
