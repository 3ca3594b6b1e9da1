package formance

import (
	"context"
	"fmt"
	"math/big"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HoldingBalance returns the mirrored token balance of an investor in an asset.
// An account the ledger has never seen holds zero.
func (m *Mirror) HoldingBalance(ctx context.Context, assetId uint64, investor string) (decimal.Decimal, error) {
	zap.L().Debug("Getting mirrored holding from Formance",
		zap.Uint64("asset_id", assetId), zap.String("investor", investor))

	vols, err := m.getAccountVolumes(ctx, investorAccount(investor))
	if err != nil {
		return decimal.Zero, err
	}
	if bal := volumeBalance(vols, tokenAsset(assetId)); bal != nil {
		return decimal.NewFromBigInt(bal, 0), nil
	}
	return decimal.Zero, nil
}

// PoolBalance returns the unclaimed payout left in a distribution pool.
func (m *Mirror) PoolBalance(ctx context.Context, distributionId uint64, payoutToken string) (decimal.Decimal, error) {
	vols, err := m.getAccountVolumes(ctx, poolAccount(distributionId))
	if err != nil {
		return decimal.Zero, err
	}
	if bal := volumeBalance(vols, m.codes.payment(payoutToken)); bal != nil {
		return decimal.NewFromBigInt(bal, 0), nil
	}
	return decimal.Zero, nil
}

// ---------- helpers ----------

// getAccountVolumes fetches volumes for a single account via GetAccount.
func (m *Mirror) getAccountVolumes(ctx context.Context, address string) (map[string]shared.V2Volume, error) {
	resp, err := m.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  m.ledger,
		Address: address,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		zap.L().Warn("Failed to get account volumes", zap.String("address", address), zap.Error(err))
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}
	return resp.V2AccountResponse.Data.Volumes, nil
}

// volumeBalance extracts the balance for a specific asset from volumes.
func volumeBalance(vols map[string]shared.V2Volume, fAsset string) *big.Int {
	vol, ok := vols[fAsset]
	if !ok {
		return nil
	}
	if vol.Balance != nil {
		return vol.Balance
	}
	if vol.Input == nil {
		return nil
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return result
}
