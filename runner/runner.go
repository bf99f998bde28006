// Package runner orchestrates repeated, independent simulation runs: each
// --repeats run owns its own SimulationAlg instance and RNG stream, and
// every run's rows are fanned in to a single channel so the CLI can print
// them as they complete instead of waiting for the slowest run. Grounded on
// the reinforcement learning driver's agent_worker/channerics.Merge fan-in
// (tabular/reinforcement/learning.go): there, independent agents generate
// episodes concurrently and a single estimator consumes them off one merged
// channel; here, independent simulation runs generate sample rows
// concurrently and the CLI writer consumes them the same way.
package runner

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

// SimulationAlg is the minimal shape every engine (gillespie.Gillespie,
// tausplit.Engine, generalsplit.Engine) presents to the runner and the CLI
// (spec.md §5, §6).
type SimulationAlg interface {
	Advance(t float64, rng *rand.Rand)
	State() []int64
	TotalReactions() uint64
}

// Row is one sampled timepoint from one run, ready for TSV rendering.
type Row struct {
	RunIndex      int
	Time          float64
	State         []int64
	ReactionCount uint64
	CPUTime       time.Duration
}

// Config describes how a single run is sampled: samples+1 rows (including
// t=0), each sampleTime apart, repeated Repeats times.
type Config struct {
	Samples    int
	SampleTime float64
	Repeats    int
}

// runPanic converts a recovered panic (e.g. a *sampling.DistributionError)
// into an error, since engines panic rather than return an error on an
// internal invariant break (spec.md §7).
type runPanic struct {
	RunIndex int
	Value    interface{}
}

func (e *runPanic) Error() string {
	return fmt.Sprintf("run %d: %v", e.RunIndex, e.Value)
}

// Run launches cfg.Repeats independent simulation runs, each built fresh by
// newAlg, and returns a channel of every run's sampled rows merged together
// in completion order, plus the errgroup driving them so the caller can
// Wait() for the first failure. Closing ctx aborts every run still in
// flight.
func Run(ctx context.Context, cfg Config, baseSeed uint64, newAlg func(runIdx int) SimulationAlg) (<-chan Row, *errgroup.Group) {
	group, groupCtx := errgroup.WithContext(ctx)

	workers := make([]<-chan Row, 0, cfg.Repeats)
	for i := 0; i < cfg.Repeats; i++ {
		runIdx := i
		rows := make(chan Row)
		group.Go(func() (err error) {
			defer close(rows)
			defer func() {
				if r := recover(); r != nil {
					err = &runPanic{RunIndex: runIdx, Value: r}
				}
			}()
			return runOne(groupCtx, cfg, runIdx, newAlg(runIdx), rows, runSeed(baseSeed, runIdx))
		})
		workers = append(workers, rows)
	}

	return channerics.Merge(groupCtx.Done(), workers...), group
}

func runOne(ctx context.Context, cfg Config, runIdx int, alg SimulationAlg, rows chan<- Row, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	start := time.Now()

	emit := func(t float64) error {
		row := Row{
			RunIndex:      runIdx,
			Time:          t,
			State:         append([]int64(nil), alg.State()...),
			ReactionCount: alg.TotalReactions(),
			CPUTime:       time.Since(start),
		}
		select {
		case rows <- row:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := emit(0); err != nil {
		return err
	}
	for i := 0; i < cfg.Samples; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		alg.Advance(cfg.SampleTime, rng)
		if err := emit(float64(i+1) * cfg.SampleTime); err != nil {
			return err
		}
	}
	return nil
}

// runSeed derives an independent per-run seed from the CLI's single base
// seed, via the splitmix64 mixing step, so that repeats are both
// deterministic given baseSeed and statistically independent of each other.
func runSeed(baseSeed uint64, runIdx int) int64 {
	z := baseSeed + uint64(runIdx)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return int64(z)
}
