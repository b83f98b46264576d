package conversion

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"musd-rewards-watcher/internal/allowlist"
	"musd-rewards-watcher/internal/flags"
	"musd-rewards-watcher/internal/geo"
	"musd-rewards-watcher/internal/txwatch"
)

// ErrStartFailed is the generic user-visible conversion-start failure.
var ErrStartFailed = errors.New("failed to start conversion")

// PaymentToken is the preferred source-token override attached to a
// conversion.
type PaymentToken struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	ChainID string `json:"chainId"`
}

// SubmitRequest carries everything the external transaction builder needs.
type SubmitRequest struct {
	ChainID         string        `json:"chainId"`
	NetworkClientID string        `json:"networkClientId"`
	From            string        `json:"from"`
	To              string        `json:"to"`
	Data            string        `json:"data"`
	Value           string        `json:"value"`
	Type            txwatch.Type  `json:"type"`
	PaymentToken    *PaymentToken `json:"paymentToken,omitempty"`
}

// Collaborator interfaces. The orchestrator owns none of these: the
// transaction pipeline, navigation surface and preference store all live
// outside the core.
type (
	FlagSource interface {
		Resolve(ctx context.Context) flags.Flags
	}
	EligibilitySource interface {
		ResolveEligibility(ctx context.Context, blockedRegions []string) geo.Decision
	}
	Lister interface {
		List(ctx context.Context) ([]txwatch.Record, error)
	}
	Submitter interface {
		Submit(ctx context.Context, req SubmitRequest) (string, error)
		UpdatePaymentToken(ctx context.Context, txID string, token PaymentToken) error
	}
	Navigator interface {
		ToEducation()
		ToConfirmation(txID string)
	}
	PrefStore interface {
		EducationSeen(ctx context.Context, account string) (bool, error)
	}
	NetworkResolver interface {
		ClientID(chainID string) (string, error)
	}
)

// Options fix the conversion target.
type Options struct {
	// ChainID is the chain conversions execute on.
	ChainID string
	// ConversionAddress receives the transfer-shaped transaction.
	ConversionAddress string
}

// StartOptions parameterise one conversion attempt.
type StartOptions struct {
	Account       string
	Amount        *big.Int
	SourceToken   *PaymentToken
	SkipEducation bool
}

// Orchestrator gates and starts conversions.
type Orchestrator struct {
	opts      Options
	flags     FlagSource
	gate      EligibilitySource
	lister    Lister
	submitter Submitter
	nav       Navigator
	prefs     PrefStore
	networks  NetworkResolver
	logger    zerolog.Logger
}

// NewOrchestrator wires the conversion flow.
func NewOrchestrator(opts Options, flagSource FlagSource, gate EligibilitySource, lister Lister, submitter Submitter, nav Navigator, prefs PrefStore, networks NetworkResolver, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		opts:      opts,
		flags:     flagSource,
		gate:      gate,
		lister:    lister,
		submitter: submitter,
		nav:       nav,
		prefs:     prefs,
		networks:  networks,
		logger:    logger.With().Str("component", "conversion_orchestrator").Logger(),
	}
}

// Start begins a conversion. Gating conditions (feature flag off, geo
// blocked, no account, disallowed source token) no-op silently; an
// unacknowledged education screen navigates there instead; a matching
// already-pending conversion navigates to its confirmation surface; only a
// genuine submission failure returns an error, and it is the generic
// ErrStartFailed.
func (o *Orchestrator) Start(ctx context.Context, opts StartOptions) error {
	f := o.flags.Resolve(ctx)
	if !f.ConversionEnabled {
		return nil
	}

	decision := o.gate.ResolveEligibility(ctx, f.BlockedRegions)
	if decision.IsBlocked {
		o.logger.Debug().Str("country", decision.UserCountry).Msg("conversion geo-blocked")
		return nil
	}

	if opts.Account == "" {
		return nil
	}

	if opts.SourceToken != nil {
		if !allowlist.IsAllowed(opts.SourceToken.Symbol, opts.SourceToken.ChainID, f.Allowlist, f.Blocklist) {
			o.logger.Debug().Str("symbol", opts.SourceToken.Symbol).Msg("source token not allowed")
			return nil
		}
	}

	if f.EducationRequired && !opts.SkipEducation {
		seen, err := o.prefs.EducationSeen(ctx, opts.Account)
		if err != nil || !seen {
			o.nav.ToEducation()
			return nil
		}
	}

	if txID, found := o.findPending(ctx, opts.Account); found {
		o.nav.ToConfirmation(txID)
		return nil
	}

	clientID, err := o.networks.ClientID(o.opts.ChainID)
	if err != nil {
		o.logger.Error().Err(err).Msg("resolve network client failed")
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	data, err := TransferCalldata(common.HexToAddress(o.opts.ConversionAddress), opts.Amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	req := SubmitRequest{
		ChainID:         o.opts.ChainID,
		NetworkClientID: clientID,
		From:            opts.Account,
		To:              o.opts.ConversionAddress,
		Data:            data,
		Value:           "0x0",
		Type:            txwatch.TypeConversion,
		PaymentToken:    opts.SourceToken,
	}

	txID, err := o.submitter.Submit(ctx, req)
	if err != nil {
		o.logger.Error().Err(err).Msg("conversion submission failed")
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	if opts.SourceToken != nil {
		if err := o.submitter.UpdatePaymentToken(ctx, txID, *opts.SourceToken); err != nil {
			o.logger.Warn().Err(err).Str("tx_id", txID).Msg("payment token update failed")
		}
	}

	o.nav.ToConfirmation(txID)
	return nil
}

// findPending scans currently-unapproved transactions for a conversion
// already started by this account.
func (o *Orchestrator) findPending(ctx context.Context, account string) (string, bool) {
	list, err := o.lister.List(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("pending scan failed")
		return "", false
	}
	for _, rec := range list {
		if rec.Type != txwatch.TypeConversion || rec.Status != txwatch.StatusUnapproved {
			continue
		}
		if strings.EqualFold(rec.TxParams.From, account) {
			return rec.ID, true
		}
	}
	return "", false
}
