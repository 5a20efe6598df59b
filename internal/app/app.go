package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"fxhedge/internal/alerting"
	"fxhedge/internal/config"
	"fxhedge/internal/fetcher"
	"fxhedge/internal/forward"
	"fxhedge/internal/scheduler"
	"fxhedge/internal/service"
	"fxhedge/internal/storage"
	"fxhedge/internal/version"
)

// Alert channel names accepted in alerting.channels.
const (
	ChannelLog      = "log"
	ChannelTelegram = "telegram"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Out receives console reports; defaults to stdout.
	Out io.Writer

	now func() time.Time
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger.With().Str("component", "app").Logger(),
		Out:    os.Stdout,
		now:    time.Now,
	}
}

// newSpotFetcher builds the configured market source, wrapped in the Redis cache
// when cache.redis_addr is set. The returned closer is never nil.
func (a *App) newSpotFetcher() (fetcher.SpotFetcher, func(), error) {
	m := a.Config.Market

	var spots fetcher.SpotFetcher
	switch m.Source {
	case config.SourceChart:
		ua := m.UserAgent
		if ua == "" {
			ua = version.UserAgent()
		}
		spots = fetcher.NewChart(fetcher.ChartOptions{
			BaseURL:   m.Chart.BaseURL,
			Timeout:   m.RequestTimeout,
			UserAgent: ua,
		}, a.Logger)
	case config.SourceChainlink:
		feeds, err := chainlinkFeeds(m.Chainlink.Feeds)
		if err != nil {
			return nil, nil, err
		}
		spots = fetcher.NewChainlink(fetcher.ChainlinkOptions{
			RPCURL:  m.Chainlink.RPCURL,
			Feeds:   feeds,
			Timeout: m.RequestTimeout,
		}, a.Logger)
	default:
		sim, err := a.newSimulated()
		if err != nil {
			return nil, nil, err
		}
		spots = sim
	}

	if a.Config.Cache.RedisAddr == "" {
		return spots, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: a.Config.Cache.RedisAddr})
	cached := fetcher.NewCached(spots, client, fetcher.CachedOptions{
		TTL:    a.Config.Cache.TTL,
		Prefix: a.Config.Cache.Prefix,
	}, a.Logger)
	a.Logger.Info().Str("addr", a.Config.Cache.RedisAddr).Dur("ttl", a.Config.Cache.TTL).Msg("spot quotes cached in redis")
	return cached, func() { _ = client.Close() }, nil
}

func (a *App) newSimulated() (*fetcher.Simulated, error) {
	sim := a.Config.Market.Simulated
	return fetcher.NewSimulated(fetcher.SimulatedOptions{
		Spots:     sim.Spots,
		JitterPct: sim.JitterPct,
		Seed:      sim.Seed,
		Now:       a.now,
	}, a.Logger)
}

func chainlinkFeeds(cfgs []config.FeedConfig) (map[forward.CurrencyPair]fetcher.Feed, error) {
	feeds := make(map[forward.CurrencyPair]fetcher.Feed, len(cfgs))
	for _, f := range cfgs {
		pair, err := forward.ParsePair(f.Pair)
		if err != nil {
			return nil, fmt.Errorf("market.chainlink.feeds: %w", err)
		}
		feeds[pair] = fetcher.Feed{Address: f.Address, Invert: f.Invert}
	}
	return feeds, nil
}

func (a *App) newNotifier() alerting.Notifier {
	var out alerting.Fanout
	for _, ch := range a.Config.Alerting.Channels {
		switch strings.ToLower(strings.TrimSpace(ch)) {
		case ChannelLog:
			out = append(out, alerting.NewLogNotifier(a.Logger))
		case ChannelTelegram:
			tg := a.Config.Alerting.Telegram
			if !tg.Enabled {
				a.Logger.Warn().Msg("telegram channel listed but alerting.telegram.enabled is false")
				continue
			}
			out = append(out, alerting.NewTelegramNotifier(tg.BotToken, tg.ChatID, tg.APIBase, 10*time.Second, a.Logger))
		default:
			a.Logger.Warn().Str("channel", ch).Msg("ignoring unknown alert channel")
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	if a.Config.Database.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
	}
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// newService builds a curve service without a scheduler, for one-shot commands.
func (a *App) newService(spots fetcher.SpotFetcher) (*service.Service, error) {
	return service.New(a.Config, nil, spots, nil, nil, nil, a.Logger)
}

// Run executes the long-running snapshot service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	} else if n, err := store.CountSnapshots(ctx); err == nil {
		a.Logger.Info().Int64("snapshots", n).Msg("snapshot history loaded")
	}
	if closeStore != nil {
		defer closeStore()
	}

	spots, closeSpots, err := a.newSpotFetcher()
	if err != nil {
		return err
	}
	defer closeSpots()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToSlot:  a.Config.Scheduler.AlignToSlot,
		StartupDelay: a.Config.Scheduler.StartupDelay,
		Immediate:    a.Config.Scheduler.RunImmediately,
	}, a.Logger)

	var snapshotStore storage.SnapshotStore
	var alertStore storage.AlertStore
	if store != nil {
		snapshotStore = store
		alertStore = store
	}

	svc, err := service.New(a.Config, sched, spots, snapshotStore, alertStore, a.newNotifier(), a.Logger)
	if err != nil {
		return err
	}

	a.Logger.Info().Str("source", a.Config.Market.Source).Dur("interval", a.Config.Scheduler.Interval).Msg("starting curve snapshot service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("curve snapshot service stopped")
	return nil
}

// AnalyzeOptions parameterise one hedging analysis. Zero values fall back to the
// analysis section of the config; a nil HedgeRatio does too.
type AnalyzeOptions struct {
	Pair       string
	Notional   float64
	Tenor      string
	HedgeRatio *float64
	MarketView string
	OutputDir  string
	NoCharts   bool
	NoExport   bool
}

// CurvesOptions configure the curves command.
type CurvesOptions struct {
	OutputDir string
	Dashboard bool
	CSV       bool
}

// ExportOptions hold parameters for exporting snapshot history.
type ExportOptions struct {
	Pair      string
	Tenor     string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Kind  string
	Pair  string
	Tenor string
	Limit int
}

// BackfillOptions configure the backfill job.
type BackfillOptions struct {
	From   time.Time
	To     time.Time
	DryRun bool
}

// ServeOptions override the server section of the config.
type ServeOptions struct {
	Addr string
}
