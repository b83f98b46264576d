package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"musd-rewards-watcher/internal/claims"
	"musd-rewards-watcher/internal/geo"
)

// RewardStatus is the reconciled one-shot view of a user's reward.
type RewardStatus struct {
	Found         bool
	TokenSymbol   string
	OnChainRead   bool
	DisplayAmount string
	FiatDisplay   string
}

// FetchRewardStatus resolves the user's unclaimed reward for a token by
// reconciling the rewards API against the distributor contract.
func (a *App) FetchRewardStatus(ctx context.Context, user, token string, chainIDs []string) (*RewardStatus, error) {
	if len(chainIDs) == 0 {
		chainIDs = []string{a.Config.Rewards.ClaimChainID}
	}

	rec, err := a.newRewardsClient().FetchReward(ctx, user, chainIDs, token)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &RewardStatus{}, nil
	}

	total, ok := new(big.Int).SetString(rec.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("malformed reward amount %q", rec.Amount)
	}

	claimed := a.newOnChainReader().Claimed(ctx, common.HexToAddress(user), common.HexToAddress(rec.Token.Address))
	onChain := claimed != nil
	if claimed == nil {
		// Fall back to the API's last-known claimed amount.
		if rec.Claimed != "" {
			claimed, _ = new(big.Int).SetString(rec.Claimed, 10)
		}
		if claimed == nil {
			claimed = big.NewInt(0)
		}
	}

	unclaimed := new(big.Int).Sub(total, claimed)
	if unclaimed.Sign() < 0 {
		unclaimed = big.NewInt(0)
	}

	decimals := rec.Token.Decimals
	if decimals == 0 {
		decimals = claims.DefaultRewardDecimals
	}
	rate := rec.Token.Price
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}

	amount := decimal.NewFromBigInt(unclaimed, -decimals)
	return &RewardStatus{
		Found:         true,
		TokenSymbol:   rec.Token.Symbol,
		OnChainRead:   onChain,
		DisplayAmount: amount.String(),
		FiatDisplay:   amount.Mul(rate).StringFixed(2),
	}, nil
}

// GeoStatus resolves the current eligibility decision using the remote
// blocked-region list. refresh bypasses the geolocation cache.
func (a *App) GeoStatus(ctx context.Context, refresh bool) geo.Decision {
	f := a.newFlagResolver().Resolve(ctx)
	gate := a.newGate()
	if refresh {
		return gate.Refresh(ctx, f.BlockedRegions)
	}
	return gate.ResolveEligibility(ctx, f.BlockedRegions)
}
