package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"musd-rewards-watcher/internal/alerting"
	"musd-rewards-watcher/internal/claims"
	"musd-rewards-watcher/internal/conversion"
	"musd-rewards-watcher/internal/scheduler"
	"musd-rewards-watcher/internal/txwatch"
)

// RewardCache is the slice of the rewards client the service needs: the
// ability to drop stale responses once a claim lands on chain.
type RewardCache interface {
	ClearCache()
}

// Service 驱动交易列表的周期观察与对账。
//
// Each tick is processed fully before the next one starts, so the
// watchers' previously-seen sets advance strictly in snapshot order.
type Service struct {
	poller     *scheduler.Poller
	lister     conversion.Lister
	toast      *txwatch.ToastMachine
	confirms   *txwatch.ConfirmationWatcher
	reconciler *claims.Reconciler
	cache      RewardCache
	notifier   alerting.Notifier
	logger     zerolog.Logger

	confirmed []txwatch.Record
}

// New constructs the watcher service. The confirmation watcher is owned
// here so its callback can feed cache invalidation and notification.
func New(poller *scheduler.Poller, lister conversion.Lister, toast *txwatch.ToastMachine, reconciler *claims.Reconciler, cache RewardCache, distributor string, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	s := &Service{
		poller:     poller,
		lister:     lister,
		toast:      toast,
		reconciler: reconciler,
		cache:      cache,
		notifier:   notifier,
		logger:     logger.With().Str("component", "service").Logger(),
	}
	s.confirms = txwatch.NewConfirmationWatcher(distributor, func(rec txwatch.Record) {
		s.confirmed = append(s.confirmed, rec)
	}, logger)
	return s
}

// Run begins the polling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.poller == nil {
		return fmt.Errorf("poller not configured")
	}
	return s.poller.Run(ctx, s.ProcessTick)
}

// ProcessTick observes one transaction-list snapshot.
func (s *Service) ProcessTick(ctx context.Context) error {
	list, err := s.lister.List(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("list transactions: %w", err)
	}

	s.processToast(ctx, list)
	s.processConfirmations(ctx, list)
	return nil
}

func (s *Service) processToast(ctx context.Context, list []txwatch.Record) {
	snap := s.toast.Observe(list)
	if !snap.Changed {
		return
	}

	s.logger.Info().
		Str("toast", string(snap.State)).
		Str("symbol", snap.Symbol).
		Msg("conversion toast transition")

	var kind alerting.EventKind
	switch snap.State {
	case txwatch.ToastSuccess:
		kind = alerting.EventConversionComplete
	case txwatch.ToastFailed:
		kind = alerting.EventConversionFailed
	default:
		return
	}
	s.notify(ctx, alerting.Event{Kind: kind, TokenSymbol: snap.Symbol, At: time.Now()})
}

func (s *Service) processConfirmations(ctx context.Context, list []txwatch.Record) {
	s.confirmed = s.confirmed[:0]
	s.confirms.Observe(list)
	if len(s.confirmed) == 0 {
		return
	}

	// 领取落账后 API 数据短暂滞后，先失效缓存再读取链上真值。
	if s.cache != nil {
		s.cache.ClearCache()
	}

	for _, rec := range s.confirmed {
		res := s.reconciler.ComputeUnclaimed(ctx, rec, claims.ComputeOptions{})
		s.logger.Info().
			Str("tx_id", rec.ID).
			Str("unclaimed", res.DisplayAmount).
			Msg("reward claim confirmed")
		s.notify(ctx, alerting.Event{
			Kind:          alerting.EventClaimConfirmed,
			TxID:          rec.ID,
			Account:       rec.TxParams.From,
			DisplayAmount: res.DisplayAmount,
			At:            time.Now(),
		})
	}
}

func (s *Service) notify(ctx context.Context, event alerting.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("kind", string(event.Kind)).Msg("failed to dispatch notification")
	}
}
