package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"trade-edge-lab/internal/app"
	"trade-edge-lab/internal/config"
	"trade-edge-lab/internal/ingest"
	"trade-edge-lab/internal/logger"
	"trade-edge-lab/internal/observability"
)

var errNoInput = errors.New("expected at least one trade log path (CSV or Parquet)")

func main() {
	cmd := &cli.Command{
		Name:      "ingest",
		Usage:     "Validate a broker trade log and store its trades",
		ArgsUsage: "<trades.csv|trades.parquet>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file with TEL_* overrides"},
			&cli.FloatFlag{Name: "risk", Usage: "Risk per trade in account currency (1R)"},
			&cli.StringFlag{Name: "postgres-dsn", Usage: "PostgreSQL connection string"},
			&cli.BoolFlag{Name: "use-memory", Usage: "Validate into in-memory storage (dry run)"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "Prometheus metrics HTTP address (empty to disable)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return errNoInput
	}

	cfg, err := config.Load(cmd.String("config"), cmd.String("env-file"))
	if err != nil {
		return err
	}
	if cmd.IsSet("risk") {
		cfg.RiskPerTrade = cmd.Float("risk")
	}
	if cmd.IsSet("postgres-dsn") {
		cfg.PostgresDSN = cmd.String("postgres-dsn")
	}
	if cmd.IsSet("metrics-addr") {
		cfg.MetricsAddr = cmd.String("metrics-addr")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	stopMetrics := app.StartMetricsServer(cfg.MetricsAddr, log.Logger)
	defer stopMetrics()

	ctx, done := app.WithShutdown(ctx, log.Logger)
	defer done()

	stores, err := app.OpenStores(ctx, cfg, app.StoreOptions{InMemory: cmd.Bool("use-memory")}, log.Logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	loader, err := ingest.NewLoader(log.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := loader.Close(); err != nil {
			log.Warn("close loader", zap.Error(err))
		}
	}()

	ingestor := ingest.NewIngestor(loader, stores.Trades, observability.DefaultMetrics, log.Logger)
	for _, path := range paths {
		result, err := ingestor.Run(ctx, path, cfg.RiskPerTrade)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		fmt.Fprintf(os.Stdout, "%s: read %d, kept %d, stored %d, already present %d, dropped %v\n",
			path, result.Stats.Read, result.Stats.Kept, result.Stored, result.AlreadyPresent, result.Stats.Dropped())
	}
	return nil
}
