package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PollFunc is invoked on every poll interval.
type PollFunc func(ctx context.Context) error

// Options tune poller behaviour.
type Options struct {
	Interval     time.Duration
	StartupDelay time.Duration
}

// Poller drives periodic observation of the transaction list. Ticks are
// delivered strictly in sequence: the next tick is not scheduled until the
// previous PollFunc returns, which is what the watchers' previously-seen
// sets rely on.
type Poller struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Poller instance.
func New(opts Options, logger zerolog.Logger) *Poller {
	if opts.Interval <= 0 {
		panic("poll interval must be positive")
	}
	return &Poller{opts: opts, logger: logger.With().Str("component", "poller").Logger()}
}

// Run blocks, invoking the poll function every interval until ctx is
// cancelled. The first poll runs immediately after the startup delay. A
// failing poll is logged and the loop continues.
func (p *Poller) Run(ctx context.Context, poll PollFunc) error {
	if p.opts.StartupDelay > 0 {
		timer := time.NewTimer(p.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		if err := poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error().Err(err).Msg("poll failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
