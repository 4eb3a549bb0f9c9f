// Package montecarlo estimates the distribution of future equity outcomes by
// bootstrap resampling of historical per-trade profits.
//
// Every trial draws n_trades profits independently and uniformly, with
// replacement, from the historical sample, and accumulates them into an
// equity path. This assumes future trades are i.i.d. draws from the
// empirical distribution: sequencing effects, behaviour changes after
// drawdowns and a time-varying edge are not modelled.
//
// Runs without a seed pick a random one, so two unseeded runs produce
// different ensembles. The seed used is recorded on the ensemble and a run
// with the same seed, inputs and options reproduces it exactly, whatever
// the worker count.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trade-edge-lab/internal/domain"
)

var (
	// ErrInvalidParameters is returned for an empty profit sample or
	// non-positive simulation/trade counts.
	ErrInvalidParameters = errors.New("invalid simulation parameters")

	// ErrEmptyEnsemble is returned when summarizing an ensemble with no trials.
	ErrEmptyEnsemble = errors.New("empty simulation ensemble")
)

// DefaultSimulations is the number of trials used when none is configured.
const DefaultSimulations = 1000

// Options controls one Simulate call.
type Options struct {
	// Simulations is the number of independent trials, >= 1.
	Simulations int

	// Trades is the number of draws per trial. 0 resamples the same number
	// of trades as the historical sample.
	Trades int

	// Seed makes the run reproducible. None picks a random seed.
	Seed optional.Option[uint64]

	// Workers is the number of goroutines generating trials. <= 1 runs
	// sequentially.
	Workers int

	// RecordDraws keeps each trial's drawn profits on the ensemble.
	RecordDraws bool

	// OnTrial is called after each completed trial. It may be called from
	// several goroutines at once.
	OnTrial func()
}

// Sampler picks an index in [0, n).
type Sampler interface {
	IntN(n int) int
}

// samplerFactory builds the sampler for one trial.
type samplerFactory func(seed uint64, trial int) Sampler

// Resampler generates Monte Carlo ensembles of equity paths.
type Resampler struct {
	logger     *zap.Logger
	newSampler samplerFactory
}

// NewResampler creates a resampler backed by math/rand/v2 PCG generators.
func NewResampler(logger *zap.Logger) *Resampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resampler{
		logger:     logger,
		newSampler: pcgSampler,
	}
}

// pcgSampler derives an independent stream per trial from the run seed,
// so the trial's draws do not depend on which worker runs it.
func pcgSampler(seed uint64, trial int) Sampler {
	return rand.New(rand.NewPCG(seed, uint64(trial)))
}

// ResolveTrades applies the default trade-count policy.
func ResolveTrades(requested, sampleSize int) int {
	if requested == 0 {
		return sampleSize
	}
	return requested
}

// Simulate runs the bootstrap and returns the ensemble in trial order.
//
// If ctx is cancelled no further trials are started. The trials completed so
// far are returned together with the context error; they remain valid
// samples, just fewer of them.
func (r *Resampler) Simulate(ctx context.Context, profits []float64, opts Options) (*domain.SimulationEnsemble, error) {
	nTrades := ResolveTrades(opts.Trades, len(profits))
	if err := validate(profits, opts.Simulations, nTrades); err != nil {
		return nil, err
	}

	seed := rand.Uint64()
	if opts.Seed.IsSome() {
		seed = opts.Seed.Unwrap()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > opts.Simulations {
		workers = opts.Simulations
	}

	// Read-only for every trial
	sample := make([]float64, len(profits))
	copy(sample, profits)

	trials := make([]*domain.SimulationTrial, opts.Simulations)
	var next atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				i := int(next.Add(1) - 1)
				if i >= opts.Simulations {
					return nil
				}
				trial := runTrial(sample, nTrades, r.newSampler(seed, i), opts.RecordDraws)
				trial.Index = i
				trials[i] = trial
				if opts.OnTrial != nil {
					opts.OnTrial()
				}
			}
		})
	}
	runErr := g.Wait()

	ensemble := &domain.SimulationEnsemble{
		Trials:    make([]domain.SimulationTrial, 0, opts.Simulations),
		Requested: opts.Simulations,
		NTrades:   nTrades,
		Seed:      seed,
	}
	for _, t := range trials {
		if t != nil {
			ensemble.Trials = append(ensemble.Trials, *t)
		}
	}

	// Cancelled after the last trial finished: nothing was lost
	if runErr != nil && ensemble.Len() == opts.Simulations {
		runErr = nil
	}

	if runErr != nil {
		r.logger.Warn("simulation stopped early",
			zap.Int("completed", ensemble.Len()),
			zap.Int("requested", opts.Simulations),
			zap.Error(runErr),
		)
		return ensemble, runErr
	}

	r.logger.Debug("simulation complete",
		zap.Int("simulations", ensemble.Len()),
		zap.Int("trades", nTrades),
		zap.Int("workers", workers),
		zap.Uint64("seed", seed),
	)
	return ensemble, nil
}

func validate(profits []float64, simulations, nTrades int) error {
	if len(profits) == 0 {
		return fmt.Errorf("%w: empty profit sample", ErrInvalidParameters)
	}
	if simulations < 1 {
		return fmt.Errorf("%w: simulations must be >= 1, got %d", ErrInvalidParameters, simulations)
	}
	if nTrades < 1 {
		return fmt.Errorf("%w: trades per simulation must be >= 1, got %d", ErrInvalidParameters, nTrades)
	}
	return nil
}

// runTrial draws nTrades profits with replacement and accumulates them.
func runTrial(profits []float64, nTrades int, sampler Sampler, recordDraws bool) *domain.SimulationTrial {
	draws := make([]float64, nTrades)
	for j := range draws {
		draws[j] = profits[sampler.IntN(len(profits))]
	}

	trial := &domain.SimulationTrial{Equity: CumulativeSum(draws)}
	if recordDraws {
		trial.Draws = draws
	}
	return trial
}

// CumulativeSum returns the running sum of draws in order.
func CumulativeSum(draws []float64) domain.EquityPath {
	path := make(domain.EquityPath, len(draws))
	sum := 0.0
	for i, d := range draws {
		sum += d
		path[i] = sum
	}
	return path
}
