package conversion

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/rs/zerolog"

	"musd-rewards-watcher/internal/allowlist"
	"musd-rewards-watcher/internal/flags"
	"musd-rewards-watcher/internal/geo"
	"musd-rewards-watcher/internal/txwatch"
)

type fakeFlags struct{ f flags.Flags }

func (s *fakeFlags) Resolve(ctx context.Context) flags.Flags { return s.f }

type fakeGate struct{ d geo.Decision }

func (g *fakeGate) ResolveEligibility(ctx context.Context, blocked []string) geo.Decision {
	return g.d
}

type fakeLister struct {
	list []txwatch.Record
	err  error
}

func (l *fakeLister) List(ctx context.Context) ([]txwatch.Record, error) { return l.list, l.err }

type fakeSubmitter struct {
	submitted    []SubmitRequest
	tokenUpdates []string
	id           string
	err          error
}

func (s *fakeSubmitter) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	s.submitted = append(s.submitted, req)
	return s.id, s.err
}

func (s *fakeSubmitter) UpdatePaymentToken(ctx context.Context, txID string, token PaymentToken) error {
	s.tokenUpdates = append(s.tokenUpdates, txID)
	return nil
}

type fakeNav struct {
	education     int
	confirmations []string
}

func (n *fakeNav) ToEducation()               { n.education++ }
func (n *fakeNav) ToConfirmation(txID string) { n.confirmations = append(n.confirmations, txID) }

type fakePrefs struct {
	seen bool
	err  error
}

func (p *fakePrefs) EducationSeen(ctx context.Context, account string) (bool, error) {
	return p.seen, p.err
}

type fakeNetworks struct{ err error }

func (n *fakeNetworks) ClientID(chainID string) (string, error) {
	if n.err != nil {
		return "", n.err
	}
	return "client-" + chainID, nil
}

type fixture struct {
	orch      *Orchestrator
	flags     *fakeFlags
	gate      *fakeGate
	lister    *fakeLister
	submitter *fakeSubmitter
	nav       *fakeNav
	prefs     *fakePrefs
	networks  *fakeNetworks
}

func newFixture() *fixture {
	fx := &fixture{
		flags:     &fakeFlags{f: flags.Flags{ConversionEnabled: true}},
		gate:      &fakeGate{d: geo.Decision{UserCountry: "FR"}},
		lister:    &fakeLister{},
		submitter: &fakeSubmitter{id: "tx-new"},
		nav:       &fakeNav{},
		prefs:     &fakePrefs{seen: true},
		networks:  &fakeNetworks{},
	}
	fx.orch = NewOrchestrator(
		Options{ChainID: "0x1", ConversionAddress: "0x00000000000000000000000000000000000000cc"},
		fx.flags, fx.gate, fx.lister, fx.submitter, fx.nav, fx.prefs, fx.networks,
		zerolog.Nop(),
	)
	return fx
}

func startOpts() StartOptions {
	return StartOptions{Account: "0x1111111111111111111111111111111111111111", Amount: big.NewInt(1000000)}
}

func TestStartNoOpGates(t *testing.T) {
	t.Run("feature flag disabled", func(t *testing.T) {
		fx := newFixture()
		fx.flags.f.ConversionEnabled = false
		if err := fx.orch.Start(context.Background(), startOpts()); err != nil {
			t.Fatal(err)
		}
		if len(fx.submitter.submitted) != 0 || len(fx.nav.confirmations) != 0 {
			t.Fatal("disabled flag must no-op")
		}
	})

	t.Run("geo blocked", func(t *testing.T) {
		fx := newFixture()
		fx.gate.d = geo.Decision{IsBlocked: true}
		if err := fx.orch.Start(context.Background(), startOpts()); err != nil {
			t.Fatal(err)
		}
		if len(fx.submitter.submitted) != 0 {
			t.Fatal("geo block must no-op")
		}
	})

	t.Run("no selected account", func(t *testing.T) {
		fx := newFixture()
		opts := startOpts()
		opts.Account = ""
		if err := fx.orch.Start(context.Background(), opts); err != nil {
			t.Fatal(err)
		}
		if len(fx.submitter.submitted) != 0 {
			t.Fatal("missing account must no-op")
		}
	})

	t.Run("disallowed source token", func(t *testing.T) {
		fx := newFixture()
		fx.flags.f.Allowlist = allowlist.Lists{"*": {"USDC"}}
		opts := startOpts()
		opts.SourceToken = &PaymentToken{Symbol: "WETH", ChainID: "0x1"}
		if err := fx.orch.Start(context.Background(), opts); err != nil {
			t.Fatal(err)
		}
		if len(fx.submitter.submitted) != 0 {
			t.Fatal("disallowed token must no-op")
		}
	})
}

func TestStartEducationRedirect(t *testing.T) {
	fx := newFixture()
	fx.flags.f.EducationRequired = true
	fx.prefs.seen = false

	if err := fx.orch.Start(context.Background(), startOpts()); err != nil {
		t.Fatal(err)
	}
	if fx.nav.education != 1 {
		t.Fatal("unacknowledged education should navigate to the education screen")
	}
	if len(fx.submitter.submitted) != 0 {
		t.Fatal("no transaction before education acknowledged")
	}

	// Caller-requested skip proceeds straight to submission.
	opts := startOpts()
	opts.SkipEducation = true
	if err := fx.orch.Start(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	if len(fx.submitter.submitted) != 1 {
		t.Fatal("skip-education should proceed")
	}
}

func TestStartDeduplicatesPending(t *testing.T) {
	fx := newFixture()
	fx.lister.list = []txwatch.Record{{
		ID:       "tx-pending",
		Status:   txwatch.StatusUnapproved,
		Type:     txwatch.TypeConversion,
		TxParams: txwatch.Params{From: "0x1111111111111111111111111111111111111111"},
	}}

	if err := fx.orch.Start(context.Background(), startOpts()); err != nil {
		t.Fatal(err)
	}
	if len(fx.submitter.submitted) != 0 {
		t.Fatal("matching pending conversion must not create a new one")
	}
	if len(fx.nav.confirmations) != 1 || fx.nav.confirmations[0] != "tx-pending" {
		t.Fatalf("should navigate to the pending confirmation: %v", fx.nav.confirmations)
	}
}

func TestStartSubmitsAndNavigates(t *testing.T) {
	fx := newFixture()
	opts := startOpts()
	opts.SourceToken = &PaymentToken{Symbol: "USDC", ChainID: "0x1"}

	if err := fx.orch.Start(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	if len(fx.submitter.submitted) != 1 {
		t.Fatal("expected one submission")
	}

	req := fx.submitter.submitted[0]
	if req.NetworkClientID != "client-0x1" {
		t.Fatalf("network client wrong: %+v", req)
	}
	if req.Value != "0x0" || req.Type != txwatch.TypeConversion {
		t.Fatalf("request shape wrong: %+v", req)
	}
	if req.Data == "" || req.Data == "0x" {
		t.Fatalf("transfer calldata missing: %+v", req)
	}
	if len(fx.submitter.tokenUpdates) != 1 || fx.submitter.tokenUpdates[0] != "tx-new" {
		t.Fatalf("payment token update missing: %v", fx.submitter.tokenUpdates)
	}
	if len(fx.nav.confirmations) != 1 || fx.nav.confirmations[0] != "tx-new" {
		t.Fatalf("should navigate to the new confirmation: %v", fx.nav.confirmations)
	}
}

func TestStartSubmissionFailure(t *testing.T) {
	fx := newFixture()
	fx.submitter.err = errors.New("boom")

	err := fx.orch.Start(context.Background(), startOpts())
	if !errors.Is(err, ErrStartFailed) {
		t.Fatalf("submission failure should surface the generic error, got %v", err)
	}
	if len(fx.nav.confirmations) != 0 {
		t.Fatal("no navigation on failure")
	}
}
