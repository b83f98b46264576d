package txwatch

import (
	"testing"

	"github.com/rs/zerolog"
)

const distributor = "0x3Ef3D8bA38EBe18DB133cEc108f4D14CE00Dd9Ae"

func claimTx(id string, status Status) Record {
	return Record{
		ID:     id,
		Status: status,
		Type:   TypeRewardClaim,
		TxParams: Params{
			To:   distributor,
			Data: "0x",
		},
	}
}

func TestConfirmationWatcherFiresOnTransition(t *testing.T) {
	fired := 0
	w := NewConfirmationWatcher(distributor, func(Record) { fired++ }, zerolog.Nop())

	w.Observe([]Record{claimTx("a", StatusSubmitted)})
	if fired != 0 {
		t.Fatalf("尚未确认不应触发, fired=%d", fired)
	}

	w.Observe([]Record{claimTx("a", StatusConfirmed)})
	if fired != 1 {
		t.Fatalf("in-flight→confirmed 应触发一次, fired=%d", fired)
	}

	w.Observe([]Record{claimTx("a", StatusConfirmed)})
	if fired != 1 {
		t.Fatalf("同一交易不应重复触发, fired=%d", fired)
	}
}

func TestConfirmationWatcherIgnoresSteadyState(t *testing.T) {
	fired := 0
	w := NewConfirmationWatcher(distributor, func(Record) { fired++ }, zerolog.Nop())

	// First observation already confirmed: no prior pending evidence.
	w.Observe([]Record{claimTx("a", StatusConfirmed)})
	if fired != 0 {
		t.Fatalf("首次观察即 confirmed 不应触发, fired=%d", fired)
	}
}

func TestConfirmationWatcherScopesToDistributor(t *testing.T) {
	fired := 0
	w := NewConfirmationWatcher(distributor, func(Record) { fired++ }, zerolog.Nop())

	other := claimTx("b", StatusSubmitted)
	other.TxParams.To = "0x0000000000000000000000000000000000000001"
	w.Observe([]Record{other})

	other.Status = StatusConfirmed
	w.Observe([]Record{other})
	if fired != 0 {
		t.Fatal("目标地址不同的交易不应触发")
	}

	// Address comparison is case-insensitive.
	lower := claimTx("c", StatusSubmitted)
	lower.TxParams.To = "0x3ef3d8ba38ebe18db133cec108f4d14ce00dd9ae"
	w.Observe([]Record{lower})
	lower.Status = StatusConfirmed
	w.Observe([]Record{lower})
	if fired != 1 {
		t.Fatalf("地址大小写不同仍应匹配, fired=%d", fired)
	}
}

func TestConfirmationWatcherIgnoresOtherTypes(t *testing.T) {
	fired := 0
	w := NewConfirmationWatcher(distributor, func(Record) { fired++ }, zerolog.Nop())

	conv := claimTx("d", StatusSubmitted)
	conv.Type = TypeConversion
	w.Observe([]Record{conv})
	conv.Status = StatusConfirmed
	w.Observe([]Record{conv})
	if fired != 0 {
		t.Fatal("非 claim 类型交易不应触发")
	}
}
