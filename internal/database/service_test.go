package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupRegistryTestDB(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	service, err := NewServiceFromDB(db)
	if err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testEvent(id string, eventType models.EventType) models.Event {
	return models.Event{
		Id:         id,
		Type:       eventType,
		Amount:     decimal.Zero,
		Value:      decimal.Zero,
		OccurredAt: testTime,
	}
}

func seedAsset(t *testing.T, service *Service) {
	ctx := context.Background()

	meta := models.RegistryMeta{Admin: "admin", AssetCount: 1, TotalValueLocked: decimal.NewFromInt(5000000)}
	asset := models.Asset{
		Id:                1,
		Name:              "Tower",
		Symbol:            "TWR",
		Type:              models.AssetTypeRealEstate,
		TotalSupply:       decimal.NewFromInt(1000000),
		CirculatingSupply: decimal.Zero,
		ValuationUsd:      decimal.NewFromInt(5000000),
		Custodian:         "custodian",
		TokenAddress:      "0xtoken",
		MinInvestment:     decimal.NewFromInt(100),
		IsActive:          true,
		IsTransferable:    true,
		CreatedAt:         testTime,
	}
	err := service.Apply(ctx, store.Mutation{
		Meta:   &meta,
		Assets: []models.Asset{asset},
		Event:  testEvent("evt-asset", models.EventAssetCreated),
	})
	if err != nil {
		t.Fatalf("Failed to seed asset: %v", err)
	}

	investor := models.Investor{
		Address:       "alice",
		IsKycVerified: true,
		CountryCode:   "US",
		KycExpiry:     testTime.AddDate(1, 0, 0),
		RegisteredAt:  testTime,
	}
	err = service.Apply(ctx, store.Mutation{
		Countries: map[string]bool{"US": true},
		Investors: []models.Investor{investor},
		Event:     testEvent("evt-investor", models.EventInvestorRegistered),
	})
	if err != nil {
		t.Fatalf("Failed to seed investor: %v", err)
	}
}

func TestLoad_EmptyDatabase(t *testing.T) {
	service, cleanup := setupRegistryTestDB(t)
	defer cleanup()

	snapshot, err := service.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if snapshot.Meta.Admin != "" {
		t.Errorf("Expected empty admin, got %s", snapshot.Meta.Admin)
	}
	if !snapshot.Meta.TotalValueLocked.IsZero() {
		t.Errorf("Expected TVL 0, got %s", snapshot.Meta.TotalValueLocked)
	}
	if snapshot.Meta.Version != 0 {
		t.Errorf("Expected version 0, got %d", snapshot.Meta.Version)
	}
	if len(snapshot.Assets) != 0 {
		t.Errorf("Expected no assets, got %d", len(snapshot.Assets))
	}
}

func TestApply_RoundTrip(t *testing.T) {
	service, cleanup := setupRegistryTestDB(t)
	defer cleanup()
	seedAsset(t, service)

	ctx := context.Background()
	meta := models.RegistryMeta{Admin: "admin", AssetCount: 1, TotalValueLocked: decimal.NewFromInt(5000000), Version: 1}
	asset := models.Asset{
		Id:                1,
		Name:              "ignored on update",
		Symbol:            "TWR",
		Type:              models.AssetTypeRealEstate,
		TotalSupply:       decimal.NewFromInt(1000000),
		CirculatingSupply: decimal.NewFromInt(1000),
		ValuationUsd:      decimal.NewFromInt(5000000),
		MinInvestment:     decimal.NewFromInt(100),
		IsActive:          true,
		IsTransferable:    true,
		CreatedAt:         testTime,
	}
	holding := models.Holding{
		AssetId:       1,
		Investor:      "alice",
		Amount:        decimal.NewFromInt(1000),
		PurchaseValue: decimal.NewFromInt(5000),
		PurchasedAt:   testTime,
	}
	event := testEvent("evt-invest", models.EventInvestment)
	event.AssetId = 1
	event.Actor = "alice"
	event.Amount = decimal.NewFromInt(1000)
	event.Attributes = map[string]string{"payment_token": "USDC"}

	err := service.Apply(ctx, store.Mutation{
		Meta:     &meta,
		Assets:   []models.Asset{asset},
		Holdings: []models.Holding{holding},
		Event:    event,
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	snapshot, err := service.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if snapshot.Meta.Version != 2 {
		t.Errorf("Expected version 2, got %d", snapshot.Meta.Version)
	}
	if len(snapshot.Countries) != 1 || snapshot.Countries[0] != "US" {
		t.Errorf("Expected countries [US], got %v", snapshot.Countries)
	}
	if len(snapshot.Assets) != 1 {
		t.Fatalf("Expected 1 asset, got %d", len(snapshot.Assets))
	}
	if snapshot.Assets[0].Name != "Tower" {
		t.Errorf("Expected immutable name Tower, got %s", snapshot.Assets[0].Name)
	}
	if !snapshot.Assets[0].CirculatingSupply.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected circulating supply 1000, got %s", snapshot.Assets[0].CirculatingSupply)
	}
	if len(snapshot.Holdings) != 1 || !snapshot.Holdings[0].Amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected one holding of 1000, got %v", snapshot.Holdings)
	}
	if !snapshot.Holdings[0].PurchasedAt.Equal(testTime) {
		t.Errorf("Expected purchased_at %v, got %v", testTime, snapshot.Holdings[0].PurchasedAt)
	}
	if len(snapshot.Investors) != 1 || !snapshot.Investors[0].IsKycVerified {
		t.Errorf("Expected one KYC verified investor, got %v", snapshot.Investors)
	}
}

func TestApply_VersionConflict(t *testing.T) {
	service, cleanup := setupRegistryTestDB(t)
	defer cleanup()
	seedAsset(t, service)

	stale := models.RegistryMeta{Admin: "mallory", TotalValueLocked: decimal.Zero, Version: 0}
	err := service.Apply(context.Background(), store.Mutation{
		Meta:  &stale,
		Event: testEvent("evt-admin", models.EventAdminUpdated),
	})
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("Expected ErrConcurrentModification, got %v", err)
	}

	snapshot, err := service.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snapshot.Meta.Admin != "admin" {
		t.Errorf("Expected admin unchanged, got %s", snapshot.Meta.Admin)
	}

	events, err := service.ListEvents(context.Background(), models.EventFilter{Type: models.EventAdminUpdated})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected rolled back event to be absent, got %d", len(events))
	}
}

func TestApply_DuplicateClaimRejected(t *testing.T) {
	service, cleanup := setupRegistryTestDB(t)
	defer cleanup()
	seedAsset(t, service)

	ctx := context.Background()
	dist := models.Distribution{
		Id:             1,
		AssetId:        1,
		TotalAmount:    decimal.NewFromInt(10000),
		PayoutToken:    "USDC",
		SnapshotAt:     testTime,
		SnapshotSupply: decimal.NewFromInt(1000),
	}
	meta := models.RegistryMeta{Admin: "admin", AssetCount: 1, DistributionCount: 1, TotalValueLocked: decimal.NewFromInt(5000000), Version: 1}
	if err := service.Apply(ctx, store.Mutation{
		Meta:          &meta,
		Distributions: []models.Distribution{dist},
		Event:         testEvent("evt-dist", models.EventDistributionCreated),
	}); err != nil {
		t.Fatalf("Failed to create distribution: %v", err)
	}

	claim := models.Claim{DistributionId: 1, Investor: "alice", Amount: decimal.NewFromInt(10000), ClaimedAt: testTime}
	if err := service.Apply(ctx, store.Mutation{
		Claims: []models.Claim{claim},
		Event:  testEvent("evt-claim-1", models.EventDistributionClaimed),
	}); err != nil {
		t.Fatalf("First claim failed: %v", err)
	}

	err := service.Apply(ctx, store.Mutation{
		Claims: []models.Claim{claim},
		Event:  testEvent("evt-claim-2", models.EventDistributionClaimed),
	})
	if err == nil {
		t.Fatal("Expected duplicate claim to fail")
	}

	snapshot, err := service.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snapshot.Claims) != 1 {
		t.Errorf("Expected 1 claim, got %d", len(snapshot.Claims))
	}
}

func TestApply_BlacklistToggle(t *testing.T) {
	service, cleanup := setupRegistryTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.Apply(ctx, store.Mutation{
		Blacklist: map[string]bool{"bob": true, "carol": true},
		Event:     testEvent("evt-bl-1", models.EventAddressBlacklisted),
	}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if err := service.Apply(ctx, store.Mutation{
		Blacklist: map[string]bool{"carol": false},
		Event:     testEvent("evt-bl-2", models.EventAddressBlacklisted),
	}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	snapshot, err := service.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snapshot.Blacklist) != 1 || snapshot.Blacklist[0] != "bob" {
		t.Errorf("Expected blacklist [bob], got %v", snapshot.Blacklist)
	}
}

func TestListEvents_Filters(t *testing.T) {
	service, cleanup := setupRegistryTestDB(t)
	defer cleanup()
	seedAsset(t, service)

	ctx := context.Background()
	transfer := testEvent("evt-transfer", models.EventTransfer)
	transfer.AssetId = 1
	transfer.Actor = "alice"
	transfer.Counterparty = "bob"
	transfer.Amount = decimal.NewFromInt(50)
	if err := service.Apply(ctx, store.Mutation{Event: transfer}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	all, err := service.ListEvents(ctx, models.EventFilter{})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(all))
	}
	if all[0].Id != "evt-transfer" {
		t.Errorf("Expected newest event first, got %s", all[0].Id)
	}

	byAsset, err := service.ListEvents(ctx, models.EventFilter{AssetId: 1})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(byAsset) != 1 {
		t.Errorf("Expected 1 event for asset 1, got %d", len(byAsset))
	}

	byCounterparty, err := service.ListEvents(ctx, models.EventFilter{Actor: "bob"})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(byCounterparty) != 1 || !byCounterparty[0].Amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected the transfer of 50 for bob, got %v", byCounterparty)
	}

	paged, err := service.ListEvents(ctx, models.EventFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(paged) != 1 || paged[0].Id != "evt-investor" {
		t.Errorf("Expected second newest event, got %v", paged)
	}
}

func TestListEvents_Attributes(t *testing.T) {
	service, cleanup := setupRegistryTestDB(t)
	defer cleanup()

	event := testEvent("evt-attr", models.EventCountryWhitelisted)
	event.Attributes = map[string]string{"country_code": "DE", "allowed": "true"}
	if err := service.Apply(context.Background(), store.Mutation{
		Countries: map[string]bool{"DE": true},
		Event:     event,
	}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	events, err := service.ListEvents(context.Background(), models.EventFilter{})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Attributes["country_code"] != "DE" {
		t.Errorf("Expected country_code DE, got %v", events[0].Attributes)
	}
	if !events[0].OccurredAt.Equal(testTime) {
		t.Errorf("Expected occurred_at %v, got %v", testTime, events[0].OccurredAt)
	}
}

func TestReconcileAsset(t *testing.T) {
	service, cleanup := setupRegistryTestDB(t)
	defer cleanup()
	seedAsset(t, service)

	ctx := context.Background()
	if err := service.ReconcileAsset(ctx, 1); err != nil {
		t.Fatalf("Expected empty asset to reconcile, got %v", err)
	}

	// Holding written without bumping circulating supply
	holding := models.Holding{
		AssetId:       1,
		Investor:      "alice",
		Amount:        decimal.NewFromInt(10),
		PurchaseValue: decimal.NewFromInt(10),
		PurchasedAt:   testTime,
	}
	if err := service.Apply(ctx, store.Mutation{
		Holdings: []models.Holding{holding},
		Event:    testEvent("evt-drift", models.EventInvestment),
	}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if err := service.ReconcileAsset(ctx, 1); err == nil {
		t.Error("Expected supply mismatch")
	}

	if err := service.ReconcileAsset(ctx, 42); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown asset, got %v", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2025-03-01T12:00:00Z", false},
		{"2025-03-01T12:00:00.123456789Z", false},
		{"2025-03-01 12:00:00", false},
		{"2025-03-01 12:00:00+00:00", false},
		{"yesterday", true},
	}

	for _, tt := range tests {
		_, err := parseTimestamp(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTimestamp(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
