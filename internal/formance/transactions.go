package formance

import (
	"context"
	"fmt"

	"rwa-registry-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Numscript templates. All metadata is set inside the script via
// set_tx_meta() so the Formance transaction is fully self-describing.
// ---------------------------------------------------------------------------

const numscriptIssue = `vars {
  asset $token
  number $units
  account $treasury
  account $investor
  string $event_id
  string $asset_id
}

send [$token $units] (
  source = $treasury allowing unbounded overdraft
  destination = $investor
)

set_tx_meta("event_type", "investment")
set_tx_meta("event_id", $event_id)
set_tx_meta("asset_id", $asset_id)
`

const numscriptInvestment = `vars {
  asset $token
  number $units
  asset $payment_asset
  number $payment
  account $treasury
  account $investor
  account $custodian
  string $event_id
  string $asset_id
  string $payment_token
}

send [$token $units] (
  source = $treasury allowing unbounded overdraft
  destination = $investor
)

send [$payment_asset $payment] (
  source = $investor allowing unbounded overdraft
  destination = $custodian
)

set_tx_meta("event_type", "investment")
set_tx_meta("event_id", $event_id)
set_tx_meta("asset_id", $asset_id)
set_tx_meta("payment_token", $payment_token)
`

const numscriptTransfer = `vars {
  asset $token
  number $units
  account $from
  account $to
  string $event_id
  string $asset_id
}

send [$token $units] (
  source = $from
  destination = $to
)

set_tx_meta("event_type", "transfer")
set_tx_meta("event_id", $event_id)
set_tx_meta("asset_id", $asset_id)
`

const numscriptDistributionFunding = `vars {
  asset $payout_asset
  number $total
  account $pool
  string $event_id
  string $asset_id
  string $distribution_id
}

send [$payout_asset $total] (
  source = @world
  destination = $pool
)

set_tx_meta("event_type", "distribution_created")
set_tx_meta("event_id", $event_id)
set_tx_meta("asset_id", $asset_id)
set_tx_meta("distribution_id", $distribution_id)
`

const numscriptDistributionClaim = `vars {
  asset $payout_asset
  number $amount
  account $pool
  account $investor
  string $event_id
  string $distribution_id
}

send [$payout_asset $amount] (
  source = $pool allowing unbounded overdraft
  destination = $investor
)

set_tx_meta("event_type", "distribution_claimed")
set_tx_meta("event_id", $event_id)
set_tx_meta("distribution_id", $distribution_id)
`

// posting is one Numscript execution derived from a registry event
type posting struct {
	script string
	vars   map[string]string
}

// Handle mirrors one registry event. Events without a ledger effect are
// ignored. The event id is the transaction reference, so redelivery of an
// already mirrored event is a no-op.
func (m *Mirror) Handle(ctx context.Context, event models.Event) error {
	if event.Type == models.EventInvestorRegistered {
		return m.tagInvestor(ctx, event)
	}

	p, ok := buildPosting(event, m.codes)
	if !ok {
		return nil
	}

	postTx := shared.V2PostTransaction{
		Reference: strPtr(event.Id),
		Script: &shared.V2PostTransactionScript{
			Plain: p.script,
			Vars:  p.vars,
		},
	}
	if !event.OccurredAt.IsZero() {
		occurredAt := event.OccurredAt
		postTx.Timestamp = &occurredAt
	}

	_, err := m.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            m.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			zap.L().Debug("Event already mirrored",
				zap.String("event_id", event.Id),
				zap.String("event_type", string(event.Type)))
			return nil
		}
		return markPermanent(fmt.Errorf("error mirroring %s: %w", event.Type, err))
	}

	zap.L().Info("Event mirrored in Formance",
		zap.String("event_id", event.Id),
		zap.String("event_type", string(event.Type)),
		zap.Uint64("asset_id", event.AssetId),
		zap.String("amount", event.Amount.String()),
		zap.String("value", event.Value.String()))
	return nil
}

// buildPosting maps an event to its Numscript. Zero-amount movements have no
// ledger effect and yield ok=false. Claims may overdraw the pool: holders who
// bought after the snapshot dilute it without growing the funded total.
func buildPosting(event models.Event, codes assetCodes) (posting, bool) {
	assetId := fmt.Sprintf("%d", event.AssetId)

	switch event.Type {
	case models.EventInvestment:
		if !event.Amount.IsPositive() {
			return posting{}, false
		}
		vars := map[string]string{
			"token":    tokenAsset(event.AssetId),
			"units":    event.Amount.BigInt().String(),
			"treasury": treasuryAccount(event.AssetId),
			"investor": investorAccount(event.Counterparty),
			"event_id": event.Id,
			"asset_id": assetId,
		}
		if !event.Value.IsPositive() {
			return posting{script: numscriptIssue, vars: vars}, true
		}
		paymentToken := event.Attributes["payment_token"]
		vars["payment_asset"] = codes.payment(paymentToken)
		vars["payment"] = event.Value.BigInt().String()
		vars["custodian"] = custodianAccount(event.Attributes["custodian"])
		vars["payment_token"] = paymentToken
		return posting{script: numscriptInvestment, vars: vars}, true

	case models.EventTransfer:
		if !event.Amount.IsPositive() || event.Actor == event.Counterparty {
			return posting{}, false
		}
		return posting{script: numscriptTransfer, vars: map[string]string{
			"token":    tokenAsset(event.AssetId),
			"units":    event.Amount.BigInt().String(),
			"from":     investorAccount(event.Actor),
			"to":       investorAccount(event.Counterparty),
			"event_id": event.Id,
			"asset_id": assetId,
		}}, true

	case models.EventDistributionCreated:
		if !event.Value.IsPositive() {
			return posting{}, false
		}
		return posting{script: numscriptDistributionFunding, vars: map[string]string{
			"payout_asset":    codes.payment(event.Attributes["payout_token"]),
			"total":           event.Value.BigInt().String(),
			"pool":            poolAccount(event.DistributionId),
			"event_id":        event.Id,
			"asset_id":        assetId,
			"distribution_id": fmt.Sprintf("%d", event.DistributionId),
		}}, true

	case models.EventDistributionClaimed:
		if !event.Value.IsPositive() {
			return posting{}, false
		}
		return posting{script: numscriptDistributionClaim, vars: map[string]string{
			"payout_asset":    codes.payment(event.Attributes["payout_token"]),
			"amount":          event.Value.BigInt().String(),
			"pool":            poolAccount(event.DistributionId),
			"investor":        investorAccount(event.Counterparty),
			"event_id":        event.Id,
			"distribution_id": fmt.Sprintf("%d", event.DistributionId),
		}}, true
	}

	return posting{}, false
}

// tagInvestor stores the compliance attributes of a newly registered investor
// as account metadata.
func (m *Mirror) tagInvestor(ctx context.Context, event models.Event) error {
	addr := investorAccount(event.Counterparty)
	metadata := map[string]string{
		"entity_type": "investor",
		"address":     event.Counterparty,
	}
	for k, v := range event.Attributes {
		metadata[k] = v
	}

	_, err := m.client.Ledger.V2.AddMetadataToAccount(ctx, operations.V2AddMetadataToAccountRequest{
		Ledger:      m.ledger,
		Address:     addr,
		RequestBody: metadata,
	})
	if err != nil {
		return markPermanent(fmt.Errorf("failed to tag investor account: %w", err))
	}

	zap.L().Debug("Investor account tagged in Formance", zap.String("address", addr))
	return nil
}
