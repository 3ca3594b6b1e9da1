package store

import (
	"context"
	"errors"

	"rwa-registry-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrNotFound               = errors.New("record not found")
)

// HoldingKey identifies one investor's position in one asset.
type HoldingKey struct {
	AssetId  uint64
	Investor string
}

// ClaimKey identifies one investor's claim on one distribution.
type ClaimKey struct {
	DistributionId uint64
	Investor       string
}

// Snapshot is the full registry state as persisted by a backend.
type Snapshot struct {
	Meta          models.RegistryMeta
	Countries     []string
	Blacklist     []string
	Investors     []models.Investor
	Assets        []models.Asset
	Holdings      []models.Holding
	Distributions []models.Distribution
	Claims        []models.Claim
}

// Mutation carries every record change produced by one registry operation.
// Backends must apply it atomically: either all changes and the event are
// recorded, or none are.
type Mutation struct {
	Meta          *models.RegistryMeta
	Countries     map[string]bool // code -> allowed
	Blacklist     map[string]bool // address -> blocked
	Investors     []models.Investor
	Assets        []models.Asset
	Holdings      []models.Holding
	Distributions []models.Distribution
	Claims        []models.Claim
	Event         models.Event
}

// RegistryStore defines the contract that every persistence backend must satisfy.
type RegistryStore interface {
	// --- State ---
	Load(ctx context.Context) (*Snapshot, error)
	Apply(ctx context.Context, m Mutation) error

	// --- Audit ---
	ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
	ReconcileAsset(ctx context.Context, assetId uint64) error

	// --- Lifecycle ---
	Close()
}
