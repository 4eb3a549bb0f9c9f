package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"trade-edge-lab/internal/app"
	"trade-edge-lab/internal/config"
	"trade-edge-lab/internal/ingest"
	"trade-edge-lab/internal/logger"
	"trade-edge-lab/internal/metrics"
	"trade-edge-lab/internal/montecarlo"
	"trade-edge-lab/internal/observability"
	"trade-edge-lab/internal/pipeline"
	"trade-edge-lab/internal/reporting"
)

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Compute trade metrics and a Monte Carlo outcome distribution for a stored trade log",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file with TEL_* overrides"},
			&cli.BoolFlag{Name: "use-fixtures", Usage: "Analyze the built-in demo trade log in memory"},
			&cli.StringSliceFlag{Name: "symbol", Usage: "Only analyze these symbols (repeatable)"},
			&cli.StringFlag{Name: "from", Usage: "Earliest open time, inclusive"},
			&cli.StringFlag{Name: "to", Usage: "Latest open time, inclusive"},
			&cli.Int64Flag{Name: "simulations", Usage: "Number of Monte Carlo trials"},
			&cli.Int64Flag{Name: "trades", Usage: "Trades per trial (0 = history length)"},
			&cli.StringFlag{Name: "seed", Usage: "Seed for a reproducible run"},
			&cli.Int64Flag{Name: "workers", Usage: "Simulation goroutines (0 = GOMAXPROCS)"},
			&cli.Int64Flag{Name: "paths", Usage: "Equity paths written to " + pipeline.EquityPathsFile},
			&cli.BoolFlag{Name: "strict", Usage: "Fail when a headline metric is undefined"},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Report output directory"},
			&cli.StringFlag{Name: "postgres-dsn", Usage: "PostgreSQL connection string for trades"},
			&cli.StringFlag{Name: "clickhouse-dsn", Usage: "ClickHouse connection string for analysis runs"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "Prometheus metrics HTTP address (empty to disable)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Hide the progress bar"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		if errors.Is(err, pipeline.ErrInterrupted) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"), cmd.String("env-file"))
	if err != nil {
		return err
	}
	applyOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	filter, err := tradeFilter(cmd)
	if err != nil {
		return err
	}

	stopMetrics := app.StartMetricsServer(cfg.MetricsAddr, log.Logger)
	defer stopMetrics()

	ctx, done := app.WithShutdown(ctx, log.Logger)
	defer done()

	useFixtures := cmd.Bool("use-fixtures")
	stores, err := app.OpenStores(ctx, cfg, app.StoreOptions{InMemory: useFixtures, Runs: true}, log.Logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	if useFixtures {
		if err := pipeline.LoadFixtureTrades(ctx, stores.Trades, cfg.RiskPerTrade); err != nil {
			return fmt.Errorf("load fixtures: %w", err)
		}
		log.Info("loaded fixture trades", zap.Int("count", pipeline.FixtureTradeCount))
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	opts := pipeline.Options{
		Filter:       filter,
		RiskPerTrade: cfg.RiskPerTrade,
		Simulation: montecarlo.Options{
			Simulations: cfg.Simulations,
			Trades:      cfg.TradesPerSimulation,
			Seed:        cfg.SeedOption(),
			Workers:     workers,
		},
		PathsToExport: cfg.PathsToExport,
		StrictMetrics: cfg.StrictMetrics,
	}

	if !cmd.Bool("quiet") {
		bar := progressbar.Default(int64(cfg.Simulations), "simulating")
		opts.Simulation.OnTrial = func() { _ = bar.Add(1) }
		defer func() { _ = bar.Finish() }()
	}

	analysis := pipeline.NewAnalysis(stores.Trades, cfg.OutputDir, log.Logger).
		WithMetrics(observability.DefaultMetrics)
	if stores.Runs != nil {
		analysis = analysis.WithRunStore(stores.Runs)
	}

	result, err := analysis.Run(ctx, opts)
	if result != nil {
		fmt.Fprintln(os.Stdout)
		fmt.Fprint(os.Stdout, reporting.RenderTerminal(result.Report))
		for _, f := range result.Files {
			fmt.Fprintf(os.Stdout, "wrote %s\n", f)
		}
	}
	return err
}

// applyOverrides lets explicitly set flags win over file and environment config.
func applyOverrides(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("simulations") {
		cfg.Simulations = int(cmd.Int64("simulations"))
	}
	if cmd.IsSet("trades") {
		cfg.TradesPerSimulation = int(cmd.Int64("trades"))
	}
	if cmd.IsSet("seed") {
		cfg.Seed = cmd.String("seed")
	}
	if cmd.IsSet("workers") {
		cfg.Workers = int(cmd.Int64("workers"))
	}
	if cmd.IsSet("paths") {
		cfg.PathsToExport = int(cmd.Int64("paths"))
	}
	if cmd.IsSet("strict") {
		cfg.StrictMetrics = cmd.Bool("strict")
	}
	if cmd.IsSet("output-dir") {
		cfg.OutputDir = cmd.String("output-dir")
	}
	if cmd.IsSet("postgres-dsn") {
		cfg.PostgresDSN = cmd.String("postgres-dsn")
	}
	if cmd.IsSet("clickhouse-dsn") {
		cfg.ClickhouseDSN = cmd.String("clickhouse-dsn")
	}
	if cmd.IsSet("metrics-addr") {
		cfg.MetricsAddr = cmd.String("metrics-addr")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
}

func tradeFilter(cmd *cli.Command) (metrics.TradeFilter, error) {
	filter := metrics.TradeFilter{Symbols: cmd.StringSlice("symbol")}
	for _, bound := range []struct {
		flag string
		dst  *optional.Option[time.Time]
	}{
		{"from", &filter.From},
		{"to", &filter.To},
	} {
		raw := cmd.String(bound.flag)
		if raw == "" {
			continue
		}
		t, err := ingest.ParseTime(raw)
		if err != nil {
			return metrics.TradeFilter{}, fmt.Errorf("--%s %q: %w", bound.flag, raw, err)
		}
		*bound.dst = optional.Some(t)
	}
	return filter, nil
}
