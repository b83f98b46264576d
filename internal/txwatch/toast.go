package txwatch

import (
	"sync"

	"github.com/rs/zerolog"
)

// ToastState is the single conversion toast derived from the transaction
// list.
type ToastState string

const (
	ToastNone       ToastState = ""
	ToastInProgress ToastState = "in-progress"
	ToastSuccess    ToastState = "success"
	ToastFailed     ToastState = "failed"
)

// SymbolLookup resolves the source-token symbol for a conversion
// transaction. The lookup may stop resolving once the transaction leaves
// the pending pool, which is why the machine caches the last known symbol.
type SymbolLookup func(txID string) (string, bool)

// Snapshot is the externally visible toast state after one observation.
// Changed is true only on the pass that detected a new transition, so a
// re-observation of an unchanged list never produces a second emission for
// the same transaction.
type Snapshot struct {
	State   ToastState
	Symbol  string
	Changed bool
}

// ToastMachine derives the conversion toast from successive transaction
// list snapshots.
//
// Rules, in the order they are applied on every Observe pass:
//   - completions first: a conversion observed confirmed (or failed/dropped)
//     that was previously seen in-flight fires exactly one Success (Failed)
//     transition; per-id bookkeeping prevents refiring.
//   - a completion detected in the same pass as a newly pending conversion
//     wins; the pending transition is deferred, not discarded, and is
//     delivered once the completion toast has been dismissed or cleared.
//   - Dismiss clears the displayed toast; the dismissed flag is reset by the
//     next detected transition. A dismissed completion toast does not
//     retroactively reveal InProgress for a conversion whose pending
//     transition was already delivered.
type ToastMachine struct {
	mu     sync.Mutex
	lookup SymbolLookup
	logger zerolog.Logger

	state     ToastState
	dismissed bool

	seenInFlight map[string]struct{} // completion-detection evidence
	shownPending map[string]struct{} // pending transitions already delivered
	notified     map[string]struct{} // completions already delivered

	activeID string
	symbol   string
}

// NewToastMachine constructs the machine. lookup may be nil when no symbol
// display is needed.
func NewToastMachine(lookup SymbolLookup, logger zerolog.Logger) *ToastMachine {
	return &ToastMachine{
		lookup:       lookup,
		logger:       logger.With().Str("component", "conversion_toast").Logger(),
		seenInFlight: make(map[string]struct{}),
		shownPending: make(map[string]struct{}),
		notified:     make(map[string]struct{}),
	}
}

// Observe ingests the current transaction list, ordered ascending by time,
// and returns the toast to display. Calls must be delivered in snapshot
// order.
func (m *ToastMachine) Observe(list []Record) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var inFlight []Record
	completion := ToastNone
	for _, rec := range list {
		if rec.Type != TypeConversion {
			continue
		}
		switch {
		case rec.Status.InFlight():
			inFlight = append(inFlight, rec)
		case rec.Status == StatusConfirmed:
			if m.completes(rec.ID) {
				completion = ToastSuccess
			}
		case rec.Status.FailedLike():
			if m.completes(rec.ID) {
				completion = ToastFailed
			}
		}
	}

	changed := false
	if completion != ToastNone {
		m.state = completion
		m.dismissed = false
		changed = true
		m.logger.Debug().Str("state", string(completion)).Msg("conversion completed")
	}

	// A pending transition is delivered only while no completion toast is
	// being shown; otherwise it stays deferred until the toast clears.
	if completion == ToastNone && m.state != ToastSuccess && m.state != ToastFailed {
		newPending := false
		for _, rec := range inFlight {
			if _, shown := m.shownPending[rec.ID]; !shown {
				newPending = true
			}
		}
		if newPending {
			for _, rec := range inFlight {
				m.shownPending[rec.ID] = struct{}{}
			}
			m.state = ToastInProgress
			m.dismissed = false
			changed = true
		} else if m.state == ToastInProgress && len(inFlight) == 0 {
			// The tracked conversion left the pending pool without a
			// terminal status (e.g. rejected before approval).
			m.state = ToastNone
		}
	}

	for _, rec := range inFlight {
		m.seenInFlight[rec.ID] = struct{}{}
	}

	m.updateSymbol(inFlight)

	state := m.state
	if m.dismissed {
		state = ToastNone
	}
	return Snapshot{State: state, Symbol: m.symbol, Changed: changed}
}

// completes records a terminal sighting and reports whether it is a fresh
// transition (previously in-flight, not yet notified).
func (m *ToastMachine) completes(id string) bool {
	if _, done := m.notified[id]; done {
		return false
	}
	if _, wasPending := m.seenInFlight[id]; !wasPending {
		return false
	}
	m.notified[id] = struct{}{}
	delete(m.seenInFlight, id)
	delete(m.shownPending, id)
	return true
}

// updateSymbol caches the source-token symbol of the most recent in-flight
// conversion. The cache survives the in-flight→completed edge but is
// cleared the moment a different transaction becomes the active one, so a
// stale symbol never leaks onto an unrelated conversion.
func (m *ToastMachine) updateSymbol(inFlight []Record) {
	if len(inFlight) == 0 {
		return
	}
	active := inFlight[len(inFlight)-1].ID
	if active != m.activeID {
		m.activeID = active
		m.symbol = ""
	}
	if m.lookup == nil {
		return
	}
	if sym, ok := m.lookup(active); ok {
		m.symbol = sym
	}
}

// Dismiss clears the currently displayed toast. The machine stays silent
// until the next detected transition.
func (m *ToastMachine) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dismissed = true
	m.state = ToastNone
}
