package formance

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"rwa-registry-go/internal/models"

	"github.com/cenkalti/backoff/v4"
	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// paymentPrecision maps payment token symbols to their decimal precision.
// Registry amounts are already in minor units, the precision only shapes the
// Formance asset notation.
var paymentPrecision = map[string]int{
	"USD":  2,
	"USDC": 6,
	"USDT": 6,
	"DAI":  18,
	"ETH":  18,
}

var invalidAccountChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
var invalidAssetChars = regexp.MustCompile(`[^A-Z0-9]`)

// assetCode is the code part of a Formance asset, before the precision suffix.
var assetCode = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,16}$`)

// Mirror replays registry events into a Formance Stack ledger as
// double-entry transactions.
type Mirror struct {
	client *v3.Formance
	ledger string
	codes  assetCodes
}

// NewMirror connects to the stack, creates the ledger if it doesn't already
// exist, and returns ready to use.
func NewMirror(ctx context.Context, cfg models.FormanceConfig) (*Mirror, error) {
	if cfg.StackURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("formance config requires StackURL, ClientID, and ClientSecret")
	}
	if cfg.LedgerName == "" {
		cfg.LedgerName = "rwa-registry"
	}
	codes, err := newAssetCodes(cfg.TokenSymbols)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Connecting to Formance Stack",
		zap.String("stack_url", cfg.StackURL),
		zap.String("ledger", cfg.LedgerName))

	client := v3.New(
		v3.WithServerURL(cfg.StackURL),
		v3.WithSecurity(shared.Security{
			ClientID:     v3.Pointer(cfg.ClientID),
			ClientSecret: v3.Pointer(cfg.ClientSecret),
		}),
	)

	m := &Mirror{client: client, ledger: cfg.LedgerName, codes: codes}

	if err := m.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger exists: %w", err)
	}

	zap.L().Info("Formance mirror initialized", zap.String("ledger", cfg.LedgerName))
	return m, nil
}

// Name identifies the mirror as an event sink
func (m *Mirror) Name() string { return "formance" }

func (m *Mirror) ensureLedger(ctx context.Context) error {
	_, err := m.client.Ledger.V2.CreateLedger(ctx, operations.V2CreateLedgerRequest{
		Ledger: m.ledger,
		V2CreateLedgerRequest: shared.V2CreateLedgerRequest{
			Metadata: map[string]string{
				"application": "rwa-registry",
			},
		},
	})
	if err != nil {
		var apiErr *sdkerrors.V2ErrorResponse
		if errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumLedgerAlreadyExists {
			zap.L().Info("Ledger already exists", zap.String("ledger", m.ledger))
			return nil
		}
		return err
	}
	zap.L().Info("Ledger created", zap.String("ledger", m.ledger))
	return nil
}

// ---------- helpers ----------

// tokenAsset returns the Formance notation of an asset's token, e.g. "RWA7/0".
// Tokens are indivisible units.
func tokenAsset(assetId uint64) string {
	return fmt.Sprintf("RWA%d/0", assetId)
}

// assetCodes turns payment token identities into Formance asset codes.
// Configured symbols win; tokens that already read as a code are used as is;
// anything else, such as a contract address, gets a stable hashed code.
type assetCodes struct {
	symbols map[string]string
}

func newAssetCodes(symbols map[string]string) (assetCodes, error) {
	codes := assetCodes{symbols: make(map[string]string, len(symbols))}
	for token, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if !assetCode.MatchString(symbol) {
			return assetCodes{}, fmt.Errorf("invalid Formance asset symbol %q for token %s", symbol, token)
		}
		codes.symbols[strings.TrimSpace(token)] = symbol
	}
	return codes, nil
}

// code returns the asset code of a payment token, without precision.
func (a assetCodes) code(token string) string {
	if symbol, ok := a.symbols[token]; ok {
		return symbol
	}
	if token == "" {
		return "UNKNOWN"
	}
	normalized := invalidAssetChars.ReplaceAllString(strings.ToUpper(token), "")
	if assetCode.MatchString(normalized) {
		return normalized
	}
	digest := strings.ReplaceAll(uuid.NewSHA1(uuid.NameSpaceURL, []byte(token)).String(), "-", "")
	return "TKN" + strings.ToUpper(digest[:12])
}

// payment returns the Formance notation of a payment token, e.g. "USDC/6".
func (a assetCodes) payment(token string) string {
	code := a.code(token)
	if p, ok := paymentPrecision[code]; ok {
		return fmt.Sprintf("%s/%d", code, p)
	}
	return code + "/0"
}

// accountSegment makes an arbitrary identifier safe for use in a ledger address.
func accountSegment(id string) string {
	segment := invalidAccountChars.ReplaceAllString(id, "_")
	if segment == "" {
		return "unknown"
	}
	return segment
}

func treasuryAccount(assetId uint64) string {
	return fmt.Sprintf("assets:%d:treasury", assetId)
}

func investorAccount(address string) string {
	return "investors:" + accountSegment(address)
}

func custodianAccount(address string) string {
	return "custodians:" + accountSegment(address)
}

func poolAccount(distributionId uint64) string {
	return fmt.Sprintf("distributions:%d:pool", distributionId)
}

// isConflictError checks whether a Formance SDK error is a CONFLICT (duplicate reference).
func isConflictError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumConflict
}

// isNotFoundError checks whether a Formance SDK error is NOT_FOUND.
func isNotFoundError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumNotFound
}

// isPermanentError reports whether retrying a failed call cannot help: the
// stack answered with a definitive error other than a transient one.
func isPermanentError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode {
		case shared.V2ErrorsEnumInternal, shared.V2ErrorsEnumTimeout, shared.V2ErrorsEnumRevertOccurring:
			return false
		}
		return true
	}
	var sdkErr *sdkerrors.SDKError
	if errors.As(err, &sdkErr) {
		return sdkErr.StatusCode >= 400 && sdkErr.StatusCode < 500 && sdkErr.StatusCode != 429
	}
	return false
}

// markPermanent wraps err so the dispatcher stops retrying definitive failures.
func markPermanent(err error) error {
	if isPermanentError(err) {
		return backoff.Permanent(err)
	}
	return err
}

func strPtr(s string) *string { return &s }
