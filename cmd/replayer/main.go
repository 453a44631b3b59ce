package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/defistate/dclstate-client-go/cmd/replayer/config"
	"github.com/defistate/dclstate-client-go/feeds/dclfeed"
	dcl "github.com/defistate/dclstate-client-go/protocols/dcl"
	dclindexer "github.com/defistate/dclstate-client-go/protocols/dcl/indexer"
	"github.com/defistate/dclstate-client-go/stats"
)

func main() {
	root := &cobra.Command{
		Use:          "replayer",
		Short:        "DCL off-chain replay engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay feed events on top of a snapshot",
		RunE:  runReplay,
	}
	replayCmd.Flags().String("snapshot-dir", "", "input snapshot directory")
	replayCmd.Flags().String("out-dir", "", "output snapshot directory")
	replayCmd.Flags().String("feed-url", "", "indexer HTTP root for event backfill")
	replayCmd.Flags().String("events-file", "", "local JSON file with feed records (alternative to feed-url)")
	replayCmd.Flags().Uint64("from", 0, "start height (exclusive)")
	replayCmd.Flags().Uint64("to", 0, "end height (inclusive)")
	replayCmd.Flags().Uint32("protocol-fee-rate", dcl.DEFAULT_PROTOCOL_FEE_RATE, "protocol fee share in basis points")
	replayCmd.Flags().String("stats-dir", "", "write endpoint stats JSON to this directory")
	replayCmd.Flags().String("pg-dsn", "", "Postgres DSN for the endpoint stats sink")
	root.AddCommand(replayCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against a snapshot",
		RunE:  runQuote,
	}
	quoteCmd.Flags().String("snapshot-dir", "", "input snapshot directory")
	quoteCmd.Flags().StringSlice("pools", nil, "pool ids of the route, in order")
	quoteCmd.Flags().String("token-in", "", "input token contract")
	quoteCmd.Flags().String("token-out", "", "output token contract")
	quoteCmd.Flags().String("amount-in", "", "input amount (base units)")
	quoteCmd.Flags().String("amount-out", "", "desired output amount (base units)")
	quoteCmd.Flags().Uint32("protocol-fee-rate", dcl.DEFAULT_PROTOCOL_FEE_RATE, "protocol fee share in basis points")
	root.AddCommand(quoteCmd)

	depthCmd := &cobra.Command{
		Use:   "depth",
		Short: "Print the order book around the current point",
		RunE:  runDepth,
	}
	depthCmd.Flags().String("snapshot-dir", "", "input snapshot directory")
	depthCmd.Flags().String("pool", "", "pool id")
	depthCmd.Flags().Uint8("depth", 10, "points of depth on each side")
	depthCmd.Flags().Uint32("protocol-fee-rate", dcl.DEFAULT_PROTOCOL_FEE_RATE, "protocol fee share in basis points")
	root.AddCommand(depthCmd)

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Diff two snapshots field by field",
		RunE:  runAudit,
	}
	auditCmd.Flags().String("old-dir", "", "expected snapshot directory")
	auditCmd.Flags().String("new-dir", "", "replayed snapshot directory")
	root.AddCommand(auditCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate per endpoint stats from a snapshot",
		RunE:  runStats,
	}
	statsCmd.Flags().String("snapshot-dir", "", "input snapshot directory")
	statsCmd.Flags().String("stats-dir", ".", "output directory for the stats JSON")
	statsCmd.Flags().String("pg-dsn", "", "Postgres DSN for the endpoint stats sink")
	statsCmd.Flags().Uint32("protocol-fee-rate", dcl.DEFAULT_PROTOCOL_FEE_RATE, "protocol fee share in basis points")
	root.AddCommand(statsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadSetup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler), nil
}

func loadRegistry(snapshotDir string, protocolFeeRate uint32) (*dcl.Dcl, error) {
	if snapshotDir == "" {
		return nil, fmt.Errorf("snapshot-dir is required")
	}
	view, err := dcl.ReadSnapshot(snapshotDir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	d, err := dcl.NewDclFromView(view, protocolFeeRate)
	if err != nil {
		return nil, fmt.Errorf("rebuild registry: %w", err)
	}
	return d, nil
}

type replayMetrics struct {
	eventsApplied *prometheus.CounterVec
	replayHeight  prometheus.Gauge
}

func newReplayMetrics(registry prometheus.Registerer) *replayMetrics {
	m := &replayMetrics{
		eventsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dclstate",
			Subsystem: "replayer",
			Name:      "events_applied_total",
			Help:      "Feed records applied to the registry, by kind.",
		}, []string{"kind"}),
		replayHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dclstate",
			Subsystem: "replayer",
			Name:      "replay_height",
			Help:      "Height of the last applied feed record.",
		}),
	}
	registry.MustRegister(m.eventsApplied, m.replayHeight)
	return m
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadSetup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := loadRegistry(cfg.SnapshotDir, cfg.ProtocolFeeRate)
	if err != nil {
		return err
	}
	logger.Info("Snapshot loaded", "dir", cfg.SnapshotDir, "pools", len(d.Pools))

	events, err := fetchEvents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("Feed records fetched", "count", len(events), "from", cfg.FromHeight, "to", cfg.ToHeight)

	metrics := newReplayMetrics(prometheus.DefaultRegisterer)
	for _, ev := range events {
		if err := d.ApplyEvent(ev); err != nil {
			return fmt.Errorf("apply %s at height=%d seq=%d: %w", ev.Kind, ev.Height, ev.Seq, err)
		}
		metrics.eventsApplied.WithLabelValues(string(ev.Kind)).Inc()
		metrics.replayHeight.Set(float64(ev.Height))
	}
	logger.Info("Replay finished", "events", len(events))

	if cfg.OutDir != "" {
		if err := d.View().WriteSnapshot(cfg.OutDir); err != nil {
			return err
		}
		logger.Info("Snapshot written", "dir", cfg.OutDir)
	}

	return sinkStats(ctx, cfg, d, logger)
}

// fetchEvents reads the replay input, either from a local records file or
// from the indexer's backfill endpoint.
func fetchEvents(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]*dcl.Event, error) {
	if cfg.EventsFile != "" {
		raw, err := os.ReadFile(cfg.EventsFile)
		if err != nil {
			return nil, fmt.Errorf("read events file: %w", err)
		}
		idx := dclindexer.New()
		events, err := idx.Decode(raw)
		if err != nil {
			return nil, err
		}
		indexed, err := idx.Index(events)
		if err != nil {
			return nil, err
		}
		return indexed.All(), nil
	}

	if cfg.FeedURL == "" {
		return nil, fmt.Errorf("either events-file or feed-url is required")
	}
	feed, err := dclfeed.NewClient(dclfeed.Config{
		BaseURL:    cfg.FeedURL,
		StreamURL:  cfg.StreamURL,
		Logger:     logger.With("component", "dclfeed"),
		BufferSize: 1,
	})
	if err != nil {
		return nil, err
	}
	return feed.FetchRange(ctx, cfg.FromHeight, cfg.ToHeight)
}

func sinkStats(ctx context.Context, cfg config.Config, d *dcl.Dcl, logger *slog.Logger) error {
	if cfg.StatsDir == "" && cfg.PgDSN == "" {
		return nil
	}

	report := stats.Collect(d, logger.With("component", "stats"))
	if cfg.StatsDir != "" {
		if err := report.WriteJSON(cfg.StatsDir); err != nil {
			return err
		}
		logger.Info("Endpoint stats written", "dir", cfg.StatsDir)
	}
	if cfg.PgDSN != "" {
		store, err := stats.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.UpsertReport(ctx, cfg.ToHeight, report); err != nil {
			return err
		}
		logger.Info("Endpoint stats upserted", "pools", len(report))
	}
	return nil
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadSetup(cmd)
	if err != nil {
		return err
	}

	poolArgs, _ := cmd.Flags().GetStringSlice("pools")
	tokenIn, _ := cmd.Flags().GetString("token-in")
	tokenOut, _ := cmd.Flags().GetString("token-out")
	amountIn, _ := cmd.Flags().GetString("amount-in")
	amountOut, _ := cmd.Flags().GetString("amount-out")

	if len(poolArgs) == 0 {
		return fmt.Errorf("pools list is required")
	}
	if (amountIn == "") == (amountOut == "") {
		return fmt.Errorf("exactly one of amount-in and amount-out is required")
	}

	d, err := loadRegistry(cfg.SnapshotDir, cfg.ProtocolFeeRate)
	if err != nil {
		return err
	}

	poolIDs := make([]dcl.PoolID, len(poolArgs))
	for i, raw := range poolArgs {
		poolIDs[i] = dcl.PoolID(raw)
	}

	var result *dcl.QuoteResult
	if amountIn != "" {
		amount, err := uint256.FromDecimal(amountIn)
		if err != nil {
			return fmt.Errorf("amount-in: %w", err)
		}
		result = d.Quote("", poolIDs, tokenIn, tokenOut, amount, "cli")
	} else {
		amount, err := uint256.FromDecimal(amountOut)
		if err != nil {
			return fmt.Errorf("amount-out: %w", err)
		}
		result = d.QuoteByOutput(poolIDs, tokenIn, tokenOut, amount, "cli")
	}

	return printJSON(result)
}

func runDepth(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadSetup(cmd)
	if err != nil {
		return err
	}

	poolID, _ := cmd.Flags().GetString("pool")
	depth, _ := cmd.Flags().GetUint8("depth")
	if poolID == "" {
		return fmt.Errorf("pool id is required")
	}

	d, err := loadRegistry(cfg.SnapshotDir, cfg.ProtocolFeeRate)
	if err != nil {
		return err
	}

	marketDepth, err := d.GetMarketDepth(dcl.PoolID(poolID), depth)
	if err != nil {
		return err
	}
	return printJSON(marketDepth)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	_, logger, err := loadSetup(cmd)
	if err != nil {
		return err
	}

	oldDir, _ := cmd.Flags().GetString("old-dir")
	newDir, _ := cmd.Flags().GetString("new-dir")
	if oldDir == "" || newDir == "" {
		return fmt.Errorf("old-dir and new-dir are required")
	}

	oldView, err := dcl.ReadSnapshot(oldDir)
	if err != nil {
		return fmt.Errorf("read %s: %w", oldDir, err)
	}
	newView, err := dcl.ReadSnapshot(newDir)
	if err != nil {
		return fmt.Errorf("read %s: %w", newDir, err)
	}

	diff := dcl.Differ(oldView, newView)
	if diff.IsEmpty() {
		logger.Info("Snapshots match")
		return nil
	}
	if err := printJSON(diff); err != nil {
		return err
	}
	return fmt.Errorf("snapshots differ")
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadSetup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := loadRegistry(cfg.SnapshotDir, cfg.ProtocolFeeRate)
	if err != nil {
		return err
	}
	return sinkStats(ctx, cfg, d, logger)
}

func printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}
