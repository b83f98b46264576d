package txwatch

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ConfirmationWatcher detects reward-claim transactions transitioning from
// in-flight to confirmed between two successive observations of the
// transaction list. It fires at most once per transaction id, and never on
// the first observation: a transaction already confirmed when first seen
// carries no "was pending" evidence, so only transitions are signalled.
//
// Observe must be called with successive snapshots in delivery order; the
// internal mutex serialises concurrent callers but cannot repair reordered
// snapshots.
type ConfirmationWatcher struct {
	mu          sync.Mutex
	distributor string
	inFlight    map[string]struct{}
	onConfirmed func(Record)
	logger      zerolog.Logger
}

// NewConfirmationWatcher scopes the watcher to transactions targeting the
// given distributor contract address.
func NewConfirmationWatcher(distributor string, onConfirmed func(Record), logger zerolog.Logger) *ConfirmationWatcher {
	return &ConfirmationWatcher{
		distributor: distributor,
		inFlight:    make(map[string]struct{}),
		onConfirmed: onConfirmed,
		logger:      logger.With().Str("component", "confirmation_watcher").Logger(),
	}
}

// Observe ingests the current transaction list, fires the callback for
// every claim transaction confirmed since the previous observation, and
// replaces the tracked in-flight set with the current one.
func (w *ConfirmationWatcher) Observe(list []Record) {
	w.mu.Lock()
	defer w.mu.Unlock()

	current := make(map[string]struct{})
	for _, rec := range list {
		if !w.relevant(rec) {
			continue
		}
		switch {
		case rec.Status.InFlight():
			current[rec.ID] = struct{}{}
		case rec.Status == StatusConfirmed:
			if _, wasPending := w.inFlight[rec.ID]; wasPending {
				w.logger.Debug().Str("tx_id", rec.ID).Msg("claim transaction confirmed")
				if w.onConfirmed != nil {
					w.onConfirmed(rec)
				}
			}
		}
	}

	w.inFlight = current
}

func (w *ConfirmationWatcher) relevant(rec Record) bool {
	if rec.Type != TypeRewardClaim {
		return false
	}
	return strings.EqualFold(rec.TxParams.To, w.distributor)
}
