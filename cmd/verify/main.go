package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli/v3"

	"trade-edge-lab/internal/app"
	"trade-edge-lab/internal/config"
	"trade-edge-lab/internal/logger"
	"trade-edge-lab/internal/verification"
)

var errDiverged = errors.New("stored runs diverged from replay")

func main() {
	cmd := &cli.Command{
		Name:  "verify",
		Usage: "Replay stored analysis runs from their seed and compare the results",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file with TEL_* overrides"},
			&cli.StringFlag{Name: "run-id", Usage: "Verify one run (default: all stored runs)"},
			&cli.StringFlag{Name: "postgres-dsn", Usage: "PostgreSQL connection string for trades"},
			&cli.StringFlag{Name: "clickhouse-dsn", Usage: "ClickHouse connection string for analysis runs"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"), cmd.String("env-file"))
	if err != nil {
		return err
	}
	if cmd.IsSet("postgres-dsn") {
		cfg.PostgresDSN = cmd.String("postgres-dsn")
	}
	if cmd.IsSet("clickhouse-dsn") {
		cfg.ClickhouseDSN = cmd.String("clickhouse-dsn")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.ClickhouseDSN == "" {
		return errors.New("clickhouse_dsn is required to read stored runs")
	}

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, done := app.WithShutdown(ctx, log.Logger)
	defer done()

	stores, err := app.OpenStores(ctx, cfg, app.StoreOptions{Runs: true}, log.Logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	verifier := verification.NewRunVerifier(stores.Runs, stores.Trades, workers, log.Logger)

	var results []verification.VerificationResult
	if runID := cmd.String("run-id"); runID != "" {
		result, err := verifier.VerifyRun(ctx, runID)
		if err != nil {
			return err
		}
		results = append(results, *result)
	} else {
		report, err := verifier.VerifyAll(ctx)
		if err != nil {
			return err
		}
		results = report.Results
		fmt.Fprintf(os.Stdout, "runs: %d, matched: %d, divergent: %d\n",
			report.TotalRuns, report.MatchedRuns, report.DivergentRuns)
	}

	diverged := false
	for _, r := range results {
		if r.Match {
			fmt.Fprintf(os.Stdout, "%s ok\n", r.RunID)
			continue
		}
		diverged = true
		fmt.Fprintf(os.Stdout, "%s DIVERGED\n", r.RunID)
		for _, d := range r.Divergences {
			fmt.Fprintf(os.Stdout, "  %s: stored %v, replayed %v\n", d.Field, d.Expected, d.Actual)
		}
	}
	if diverged {
		return errDiverged
	}
	return nil
}
