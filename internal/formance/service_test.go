package formance

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"rwa-registry-go/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
)

// ---------- Unit tests for pure helpers (no Formance stack needed) ----------

func TestTokenAsset(t *testing.T) {
	if got := tokenAsset(7); got != "RWA7/0" {
		t.Errorf("tokenAsset(7) = %q, want %q", got, "RWA7/0")
	}
}

// formanceAssetPattern is the asset format the ledger accepts
var formanceAssetPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,16}(_[A-Z]{1,16})?(/\d{1,6})?$`)

const stellarUSDC = "CCW67TSZV3SSS2HXMBQ5JFGCKJNXKZM7UQUWUZPUTHXSTZLEO7SJMI75"

func TestAssetCodes_Payment(t *testing.T) {
	codes, err := newAssetCodes(nil)
	if err != nil {
		t.Fatalf("newAssetCodes failed: %v", err)
	}

	tests := []struct {
		symbol string
		want   string
	}{
		{"USDC", "USDC/6"},
		{"usdc", "USDC/6"},
		{"USD", "USD/2"},
		{"EURC", "EURC/0"}, // unknown precision
		{"x-y", "XY/0"},
		{"", "UNKNOWN/0"},
	}
	for _, tt := range tests {
		if got := codes.payment(tt.symbol); got != tt.want {
			t.Errorf("payment(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}
}

func TestAssetCodes_ContractAddress(t *testing.T) {
	codes, err := newAssetCodes(nil)
	if err != nil {
		t.Fatalf("newAssetCodes failed: %v", err)
	}

	got := codes.payment(stellarUSDC)
	if !formanceAssetPattern.MatchString(got) {
		t.Errorf("payment(%q) = %q is not a valid Formance asset", stellarUSDC, got)
	}
	if !strings.HasPrefix(got, "TKN") || !strings.HasSuffix(got, "/0") {
		t.Errorf("expected a hashed TKN code, got %q", got)
	}
	if again := codes.payment(stellarUSDC); again != got {
		t.Errorf("expected a stable code, got %q then %q", got, again)
	}
	if other := codes.payment("0x" + stellarUSDC); other == got {
		t.Errorf("distinct tokens must not share a code: %q", other)
	}
	for _, token := range []string{"1INCH", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "--"} {
		if code := codes.payment(token); !formanceAssetPattern.MatchString(code) {
			t.Errorf("payment(%q) = %q is not a valid Formance asset", token, code)
		}
	}
}

func TestAssetCodes_ConfiguredSymbol(t *testing.T) {
	codes, err := newAssetCodes(map[string]string{stellarUSDC: "usdc"})
	if err != nil {
		t.Fatalf("newAssetCodes failed: %v", err)
	}
	if got := codes.payment(stellarUSDC); got != "USDC/6" {
		t.Errorf("payment(stellar USDC) = %q, want USDC/6", got)
	}

	if _, err := newAssetCodes(map[string]string{stellarUSDC: "usd coin"}); err == nil {
		t.Error("expected an error for a symbol the ledger would reject")
	}
}

func TestAccountSegment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0xABC123", "0xABC123"},
		{"alice@example.com", "alice_example_com"},
		{"a:b", "a_b"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := accountSegment(tt.input); got != tt.want {
			t.Errorf("accountSegment(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestVolumeBalance(t *testing.T) {
	vols := map[string]shared.V2Volume{
		"RWA1/0": {Input: big.NewInt(100), Output: big.NewInt(30)},
		"RWA2/0": {Input: big.NewInt(5), Output: big.NewInt(0), Balance: big.NewInt(5)},
	}

	if got := volumeBalance(vols, "RWA1/0"); got == nil || got.Int64() != 70 {
		t.Errorf("expected 70, got %v", got)
	}
	if got := volumeBalance(vols, "RWA2/0"); got == nil || got.Int64() != 5 {
		t.Errorf("expected 5, got %v", got)
	}
	if got := volumeBalance(vols, "RWA3/0"); got != nil {
		t.Errorf("expected nil for missing asset, got %v", got)
	}
}

func TestIsConflictError(t *testing.T) {
	// nil error should not be a conflict
	if isConflictError(nil) {
		t.Error("nil should not be a conflict error")
	}
	if isConflictError(errors.New("boom")) {
		t.Error("plain error should not be a conflict error")
	}
}

func TestIsPermanentError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain", errors.New("connection reset"), false},
		{"validation", &sdkerrors.V2ErrorResponse{ErrorCode: shared.V2ErrorsEnumValidation}, true},
		{"insufficient funds", &sdkerrors.V2ErrorResponse{ErrorCode: shared.V2ErrorsEnumInsufficientFund}, true},
		{"internal", &sdkerrors.V2ErrorResponse{ErrorCode: shared.V2ErrorsEnumInternal}, false},
		{"timeout", &sdkerrors.V2ErrorResponse{ErrorCode: shared.V2ErrorsEnumTimeout}, false},
		{"bad request", sdkerrors.NewSDKError("bad", http.StatusBadRequest, "", nil), true},
		{"throttled", sdkerrors.NewSDKError("slow down", http.StatusTooManyRequests, "", nil), false},
		{"unavailable", sdkerrors.NewSDKError("down", http.StatusServiceUnavailable, "", nil), false},
	}
	for _, tt := range tests {
		wrapped := fmt.Errorf("error mirroring investment: %w", tt.err)
		if got := isPermanentError(wrapped); got != tt.want {
			t.Errorf("%s: isPermanentError = %v, want %v", tt.name, got, tt.want)
		}

		var permanent *backoff.PermanentError
		if got := errors.As(markPermanent(wrapped), &permanent); got != tt.want {
			t.Errorf("%s: markPermanent wrapped = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func testEvent(eventType models.EventType) models.Event {
	return models.Event{
		Id:         "evt-1",
		Type:       eventType,
		Amount:     decimal.Zero,
		Value:      decimal.Zero,
		OccurredAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

var testCodes = assetCodes{symbols: map[string]string{stellarUSDC: "USDC"}}

func TestBuildPosting_Investment(t *testing.T) {
	event := testEvent(models.EventInvestment)
	event.AssetId = 3
	event.Counterparty = "alice"
	event.Amount = decimal.NewFromInt(1000)
	event.Value = decimal.NewFromInt(5000)
	event.Attributes = map[string]string{"payment_token": "USDC", "custodian": "vault"}

	p, ok := buildPosting(event, testCodes)
	if !ok {
		t.Fatal("expected a posting for investment")
	}
	if p.script != numscriptInvestment {
		t.Error("expected the two-leg investment script")
	}
	if p.vars["token"] != "RWA3/0" || p.vars["units"] != "1000" {
		t.Errorf("unexpected token leg: %v", p.vars)
	}
	if p.vars["payment_asset"] != "USDC/6" || p.vars["payment"] != "5000" {
		t.Errorf("unexpected payment leg: %v", p.vars)
	}
	if p.vars["investor"] != "investors:alice" || p.vars["custodian"] != "custodians:vault" {
		t.Errorf("unexpected accounts: %v", p.vars)
	}
	if p.vars["treasury"] != "assets:3:treasury" {
		t.Errorf("unexpected treasury: %s", p.vars["treasury"])
	}
}

func TestBuildPosting_InvestmentWithoutPayment(t *testing.T) {
	event := testEvent(models.EventInvestment)
	event.AssetId = 3
	event.Counterparty = "alice"
	event.Amount = decimal.NewFromInt(10)

	p, ok := buildPosting(event, testCodes)
	if !ok {
		t.Fatal("expected a posting")
	}
	if p.script != numscriptIssue {
		t.Error("expected the issue-only script when no payment was made")
	}
	if _, exists := p.vars["payment"]; exists {
		t.Error("issue-only script must not carry payment vars")
	}
}

func TestBuildPosting_Transfer(t *testing.T) {
	event := testEvent(models.EventTransfer)
	event.AssetId = 1
	event.Actor = "alice"
	event.Counterparty = "bob"
	event.Amount = decimal.NewFromInt(250)

	p, ok := buildPosting(event, testCodes)
	if !ok {
		t.Fatal("expected a posting for transfer")
	}
	if p.vars["from"] != "investors:alice" || p.vars["to"] != "investors:bob" {
		t.Errorf("unexpected accounts: %v", p.vars)
	}

	event.Counterparty = "alice"
	if _, ok := buildPosting(event, testCodes); ok {
		t.Error("self-transfer should not be mirrored")
	}
}

func TestBuildPosting_Distribution(t *testing.T) {
	created := testEvent(models.EventDistributionCreated)
	created.AssetId = 1
	created.DistributionId = 4
	created.Value = decimal.NewFromInt(10000)
	created.Attributes = map[string]string{"payout_token": "USDC"}

	p, ok := buildPosting(created, testCodes)
	if !ok {
		t.Fatal("expected a funding posting")
	}
	if p.vars["pool"] != "distributions:4:pool" || p.vars["total"] != "10000" {
		t.Errorf("unexpected funding vars: %v", p.vars)
	}

	claimed := testEvent(models.EventDistributionClaimed)
	claimed.DistributionId = 4
	claimed.Counterparty = "alice"
	claimed.Value = decimal.NewFromInt(2500)
	claimed.Attributes = map[string]string{"payout_token": "USDC"}

	p, ok = buildPosting(claimed, testCodes)
	if !ok {
		t.Fatal("expected a claim posting")
	}
	if p.vars["amount"] != "2500" || p.vars["investor"] != "investors:alice" {
		t.Errorf("unexpected claim vars: %v", p.vars)
	}
	if !strings.Contains(p.script, "source = $pool allowing unbounded overdraft") {
		t.Error("claims diluted by post-snapshot holders must be able to overdraw the pool")
	}

	claimed.Value = decimal.Zero
	if _, ok := buildPosting(claimed, testCodes); ok {
		t.Error("zero claim should not be mirrored")
	}
}

func TestBuildPosting_ContractAddressToken(t *testing.T) {
	event := testEvent(models.EventInvestment)
	event.AssetId = 2
	event.Counterparty = "GALICE"
	event.Amount = decimal.NewFromInt(10)
	event.Value = decimal.NewFromInt(1000)
	event.Attributes = map[string]string{"payment_token": stellarUSDC, "custodian": "vault"}

	p, ok := buildPosting(event, testCodes)
	if !ok {
		t.Fatal("expected a posting")
	}
	if p.vars["payment_asset"] != "USDC/6" {
		t.Errorf("expected the configured symbol, got %s", p.vars["payment_asset"])
	}
	if p.vars["payment_token"] != stellarUSDC {
		t.Errorf("expected the raw token in metadata, got %s", p.vars["payment_token"])
	}

	p, _ = buildPosting(event, assetCodes{})
	if !formanceAssetPattern.MatchString(p.vars["payment_asset"]) {
		t.Errorf("unmapped token produced invalid asset %q", p.vars["payment_asset"])
	}
}

func TestBuildPosting_IgnoredEvents(t *testing.T) {
	for _, eventType := range []models.EventType{
		models.EventInitialized,
		models.EventAssetCreated,
		models.EventValuationUpdated,
		models.EventCountryWhitelisted,
	} {
		if _, ok := buildPosting(testEvent(eventType), testCodes); ok {
			t.Errorf("expected %s to have no ledger effect", eventType)
		}
	}
}
