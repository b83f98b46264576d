package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"musd-rewards-watcher/internal/alerting"
	"musd-rewards-watcher/internal/claims"
	"musd-rewards-watcher/internal/config"
	"musd-rewards-watcher/internal/conversion"
	"musd-rewards-watcher/internal/flags"
	"musd-rewards-watcher/internal/geo"
	"musd-rewards-watcher/internal/rewards"
	"musd-rewards-watcher/internal/scheduler"
	"musd-rewards-watcher/internal/service"
	"musd-rewards-watcher/internal/storage"
	"musd-rewards-watcher/internal/txsource"
	"musd-rewards-watcher/internal/txwatch"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newRewardsClient() *rewards.Client {
	return rewards.NewClient(rewards.Options{
		BaseURL:            a.Config.Rewards.APIBaseURL,
		RewardTokenAddress: a.Config.Rewards.RewardTokenAddress,
		TestTokenAddress:   a.Config.Rewards.TestTokenAddress,
		ClaimChainID:       a.Config.Rewards.ClaimChainID,
		CacheTTL:           a.Config.Rewards.CacheTTL,
		Timeout:            a.Config.Rewards.RequestTimeout,
	}, a.Logger)
}

func (a *App) newOnChainReader() *rewards.OnChainReader {
	return rewards.NewOnChainReader(rewards.OnChainOptions{
		RPCURL:             a.Config.Rewards.RPCURL,
		DistributorAddress: a.Config.Rewards.DistributorAddress,
		Timeout:            a.Config.Rewards.RequestTimeout,
	}, a.Logger)
}

func (a *App) newGate() *geo.Gate {
	return geo.NewGate(geo.Options{
		Endpoint: a.Config.Geo.Endpoint,
		CacheTTL: a.Config.Geo.CacheTTL,
		Timeout:  a.Config.Geo.RequestTimeout,
	}, a.Logger)
}

func (a *App) newFlagResolver() *flags.Resolver {
	return flags.NewResolver(flags.Options{
		Endpoint: a.Config.Flags.Endpoint,
		Timeout:  a.Config.Flags.RequestTimeout,
	}, a.Logger)
}

func (a *App) newTxSource() *txsource.Client {
	return txsource.New(txsource.Options{
		BaseURL: a.Config.Wallet.ControllerURL,
		Timeout: a.Config.Wallet.RequestTimeout,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Notify.Enabled {
		return nil
	}
	if a.Config.Notify.Telegram.Enabled {
		cfg := a.Config.Notify.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openPrefStore(ctx context.Context) (*storage.PrefStore, error) {
	if a.Config.Database.DSN == "" {
		return nil, nil
	}
	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, err
	}
	return storage.NewPrefStore(pool), nil
}

// Run executes the long-running watcher service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	poller := scheduler.New(scheduler.Options{
		Interval:     a.Config.Poll.Interval,
		StartupDelay: a.Config.Poll.StartupDelay,
	}, a.Logger)

	rewardsClient := a.newRewardsClient()
	reconciler := claims.NewReconciler(a.newOnChainReader(), a.Logger)
	source := newSnapshotLister(a.newTxSource())

	svc := service.New(
		poller,
		source,
		txwatch.NewToastMachine(source.Lookup, a.Logger),
		reconciler,
		rewardsClient,
		a.Config.Rewards.DistributorAddress,
		a.newNotifier(),
		a.Logger,
	)

	a.Logger.Info().Msg("starting rewards watcher")
	err := svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watcher terminated with error")
		return err
	}

	a.Logger.Info().Msg("rewards watcher stopped")
	return nil
}

// StartConversion drives the conversion flow from the CLI.
func (a *App) StartConversion(ctx context.Context, opts conversion.StartOptions) error {
	prefs, err := a.openPrefStore(ctx)
	if err != nil {
		return err
	}
	var prefSource conversion.PrefStore = unseenPrefs{}
	if prefs != nil {
		defer prefs.Close()
		prefSource = prefs
	}

	orch := conversion.NewOrchestrator(
		conversion.Options{
			ChainID:           a.Config.Conversion.ChainID,
			ConversionAddress: a.Config.Conversion.ConversionAddress,
		},
		a.newFlagResolver(),
		a.newGate(),
		a.newTxSource(),
		a.newTxSource(),
		logNavigator{logger: a.Logger},
		prefSource,
		configNetworks{clients: a.Config.Wallet.NetworkClients},
		a.Logger,
	)
	return orch.Start(ctx, opts)
}
