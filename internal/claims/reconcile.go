package claims

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"musd-rewards-watcher/internal/txwatch"
)

// DefaultRewardDecimals is the base-unit precision of the reward
// stablecoin.
const DefaultRewardDecimals = 6

// ClaimedReader supplies the authoritative on-chain claimed amount, or nil
// when it is unavailable.
type ClaimedReader interface {
	Claimed(ctx context.Context, user, token common.Address) *big.Int
}

// Result is the display outcome of reconciling a claim transaction.
// Pending means the authoritative read was aborted before completing; no
// amount is shown and no error is raised.
type Result struct {
	Pending       bool
	DisplayAmount string
	FiatDisplay   string
}

// ComputeOptions tune a single reconciliation.
type ComputeOptions struct {
	// Decimals of the claimed token; DefaultRewardDecimals when zero.
	Decimals int32
	// FiatRate multiplies the display amount; 1.0 when zero (the reward
	// token is a stablecoin).
	FiatRate decimal.Decimal
	// APIClaimed is the rewards API's last-known claimed amount, used when
	// the on-chain read is unavailable.
	APIClaimed *big.Int
}

// Reconciler computes the unclaimed remainder of a pending claim
// transaction.
type Reconciler struct {
	reader ClaimedReader
	logger zerolog.Logger
}

// NewReconciler constructs a reconciler over the given claimed-amount
// source.
func NewReconciler(reader ClaimedReader, logger zerolog.Logger) *Reconciler {
	return &Reconciler{reader: reader, logger: logger.With().Str("component", "claim_reconciler").Logger()}
}

// ComputeUnclaimed decodes the transaction's claim calldata, subtracts the
// authoritative claimed amount from the cumulative total, and formats the
// remainder. Non-claim transactions and undecodable calldata produce an
// inert empty result. The remainder is clamped at zero: it never goes
// negative even when the claimed amount has already overtaken the decoded
// total.
func (r *Reconciler) ComputeUnclaimed(ctx context.Context, rec txwatch.Record, opts ComputeOptions) Result {
	if rec.Type != txwatch.TypeRewardClaim {
		return Result{}
	}

	call, ok := DecodeCalldata(rec.TxParams.Data)
	if !ok {
		r.logger.Debug().Str("tx_id", rec.ID).Msg("undecodable claim calldata")
		return Result{}
	}

	var claimed *big.Int
	if r.reader != nil {
		claimed = r.reader.Claimed(ctx, call.User, call.Token)
	}
	if ctx.Err() != nil {
		return Result{Pending: true}
	}
	if claimed == nil {
		claimed = opts.APIClaimed
	}
	if claimed == nil {
		claimed = big.NewInt(0)
	}

	unclaimed := new(big.Int).Sub(call.CumulativeTotal, claimed)
	if unclaimed.Sign() < 0 {
		unclaimed = big.NewInt(0)
	}

	decimals := opts.Decimals
	if decimals == 0 {
		decimals = DefaultRewardDecimals
	}
	rate := opts.FiatRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}

	amount := decimal.NewFromBigInt(unclaimed, -decimals)
	return Result{
		DisplayAmount: amount.String(),
		FiatDisplay:   amount.Mul(rate).StringFixed(2),
	}
}
