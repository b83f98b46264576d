package txwatch

import (
	"testing"

	"github.com/rs/zerolog"
)

func convTx(id string, status Status) Record {
	return Record{ID: id, Status: status, Type: TypeConversion}
}

func TestToastSuccessFiresOnce(t *testing.T) {
	m := NewToastMachine(nil, zerolog.Nop())

	snap := m.Observe([]Record{convTx("a", StatusSubmitted)})
	if snap.State != ToastInProgress || !snap.Changed {
		t.Fatalf("新的 pending 转换应显示 in-progress: %+v", snap)
	}

	snap = m.Observe([]Record{convTx("a", StatusConfirmed)})
	if snap.State != ToastSuccess || !snap.Changed {
		t.Fatalf("submitted→confirmed 应产生 success: %+v", snap)
	}

	// Re-observing the same list must not emit a second transition.
	snap = m.Observe([]Record{convTx("a", StatusConfirmed)})
	if snap.Changed {
		t.Fatal("同一状态的重复观察不应再次触发")
	}
	if snap.State != ToastSuccess {
		t.Fatalf("未被 dismiss 的 toast 应保持显示: %+v", snap)
	}
}

func TestToastFailureOfOtherTxDoesNotAffectPending(t *testing.T) {
	m := NewToastMachine(nil, zerolog.Nop())

	m.Observe([]Record{convTx("a", StatusSubmitted), convTx("b", StatusSubmitted)})
	snap := m.Observe([]Record{convTx("a", StatusSubmitted), convTx("b", StatusDropped)})
	if snap.State != ToastFailed {
		t.Fatalf("b 失败应显示 failed: %+v", snap)
	}

	m.Dismiss()
	snap = m.Observe([]Record{convTx("a", StatusConfirmed)})
	if snap.State != ToastSuccess || !snap.Changed {
		t.Fatalf("a 的最终 success 不应被 b 的失败吞掉: %+v", snap)
	}
}

func TestToastCompletionBeatsNewPending(t *testing.T) {
	m := NewToastMachine(nil, zerolog.Nop())

	m.Observe([]Record{convTx("a", StatusSubmitted)})

	// A confirms in the same update as B becoming pending.
	snap := m.Observe([]Record{convTx("a", StatusConfirmed), convTx("b", StatusSubmitted)})
	if snap.State != ToastSuccess {
		t.Fatalf("完成应优先于新的 pending: %+v", snap)
	}

	// While the success toast is displayed B stays deferred.
	snap = m.Observe([]Record{convTx("a", StatusConfirmed), convTx("b", StatusSubmitted)})
	if snap.State != ToastSuccess {
		t.Fatalf("success toast 清除前 B 不应浮出: %+v", snap)
	}

	// Once dismissed, B's deferred pending transition is delivered.
	m.Dismiss()
	snap = m.Observe([]Record{convTx("a", StatusConfirmed), convTx("b", StatusSubmitted)})
	if snap.State != ToastInProgress || !snap.Changed {
		t.Fatalf("dismiss 后应轮到 B 的 in-progress: %+v", snap)
	}
}

func TestToastDismissStaysNullWithoutNewTransition(t *testing.T) {
	m := NewToastMachine(nil, zerolog.Nop())

	m.Observe([]Record{convTx("a", StatusSubmitted)})
	m.Observe([]Record{convTx("a", StatusConfirmed)})
	m.Dismiss()

	snap := m.Observe([]Record{convTx("a", StatusConfirmed)})
	if snap.State != ToastNone || snap.Changed {
		t.Fatalf("dismiss 后无新 transition 应保持 null: %+v", snap)
	}
}

func TestToastDismissedInProgressNotRevealedAgain(t *testing.T) {
	m := NewToastMachine(nil, zerolog.Nop())

	// C shown as in-progress, then A (already pending) completes.
	m.Observe([]Record{convTx("a", StatusSubmitted), convTx("c", StatusSubmitted)})
	m.Observe([]Record{convTx("a", StatusConfirmed), convTx("c", StatusSubmitted)})
	m.Dismiss()

	// C is still pending but its transition was already delivered.
	snap := m.Observe([]Record{convTx("a", StatusConfirmed), convTx("c", StatusSubmitted)})
	if snap.State != ToastNone {
		t.Fatalf("已展示过的 pending 不应在 dismiss 后复活: %+v", snap)
	}
}

func TestToastSymbolCaching(t *testing.T) {
	symbols := map[string]string{"a": "USDC"}
	lookup := func(id string) (string, bool) {
		s, ok := symbols[id]
		return s, ok
	}
	m := NewToastMachine(lookup, zerolog.Nop())

	snap := m.Observe([]Record{convTx("a", StatusSubmitted)})
	if snap.Symbol != "USDC" {
		t.Fatalf("应取到 a 的符号: %+v", snap)
	}

	// Lookup disappears once the tx leaves the pending pool; the cached
	// symbol survives the completion.
	delete(symbols, "a")
	snap = m.Observe([]Record{convTx("a", StatusConfirmed)})
	if snap.Symbol != "USDC" {
		t.Fatalf("完成后应沿用缓存符号: %+v", snap)
	}

	// A different active conversion clears the stale symbol even before
	// its own lookup populates.
	m.Dismiss()
	snap = m.Observe([]Record{convTx("b", StatusSubmitted)})
	if snap.Symbol != "" {
		t.Fatalf("新的活跃交易不应继承旧符号: %+v", snap)
	}

	symbols["b"] = "DAI"
	snap = m.Observe([]Record{convTx("b", StatusSubmitted)})
	if snap.Symbol != "DAI" {
		t.Fatalf("lookup 填充后应更新符号: %+v", snap)
	}
}

func TestToastInProgressClearsWhenPoolEmpties(t *testing.T) {
	m := NewToastMachine(nil, zerolog.Nop())

	m.Observe([]Record{convTx("a", StatusApproved)})
	snap := m.Observe(nil)
	if snap.State != ToastNone {
		t.Fatalf("无终态消失的交易应回到 null: %+v", snap)
	}
}
