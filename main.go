// Command tausplit exactly simulates a chemical reaction network described
// by one or more data files, using the Tau-Splitting algorithm (or, for
// comparison and statistical validation, straight Gillespie) to advance the
// system forward in time and print the sampled trajectory as TSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	tausplitcfg "tausplit/config"
	"tausplit/generalsplit"
	"tausplit/gillespie"
	"tausplit/network"
	"tausplit/reaction"
	"tausplit/runner"
	"tausplit/tausplit"
)

const (
	algGillespie       = "gillespie"
	algTauSplit        = "tau-split"
	algTauSplitGeneral = "tau-split-general"
)

type cliArgs struct {
	time          float64
	data          []string
	samples       int
	countReactions bool
	cpuTime       bool
	noPrintState  bool
	algorithm     string
	seed          uint64
	haveSeed      bool
	repeats       int
	repeatsSet    bool
	config        string
}

func parseArgs(argv []string) (*cliArgs, error) {
	fs := flag.NewFlagSet("tausplit", flag.ContinueOnError)
	samples := fs.Int("samples", 1, "how often to sample and store the state")
	countReactions := fs.Bool("count-reactions", false, "print the cumulative reaction count column")
	cpuTime := fs.Bool("cpu-time", false, "print the elapsed wall-clock time column")
	noPrintState := fs.Bool("no-print-state", false, "skip printing the per-species state columns")
	algorithm := fs.String("algorithm", "", "simulation algorithm: gillespie, tau-split, or tau-split-general (default: auto)")
	seed := fs.Uint64("seed", 0, "seed for random number generation (default: nondeterministic)")
	repeats := fs.Int("repeats", 1, "number of independent repeated runs")
	config := fs.String("config", "", "optional YAML file supplying defaults for seed/samples/algorithm/repeats")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	rest := fs.Args()
	if len(rest) < 2 {
		return nil, fmt.Errorf("usage: tausplit [flags] <time> <data_file...>")
	}
	t, err := strconv.ParseFloat(rest[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid simulation time %q: %w", rest[0], err)
	}

	args := &cliArgs{
		time:           t,
		data:           rest[1:],
		samples:        *samples,
		countReactions: *countReactions,
		cpuTime:        *cpuTime,
		noPrintState:   *noPrintState,
		algorithm:      *algorithm,
		seed:           *seed,
		haveSeed:       explicit["seed"],
		repeats:        *repeats,
		repeatsSet:     explicit["repeats"],
		config:         *config,
	}

	if args.config != "" {
		defaults, err := tausplitcfg.FromYaml(args.config)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", args.config, err)
		}
		if !explicit["seed"] && defaults.Seed != nil {
			args.seed = *defaults.Seed
			args.haveSeed = true
		}
		if !explicit["samples"] && defaults.Samples != nil {
			args.samples = *defaults.Samples
		}
		if !explicit["algorithm"] && defaults.Algorithm != nil {
			args.algorithm = *defaults.Algorithm
		}
		if !explicit["repeats"] && defaults.Repeats != nil {
			args.repeats = *defaults.Repeats
			args.repeatsSet = true
		}
	}

	return args, nil
}

// capacityExceeded reports whether any reaction falls outside the
// fixed-capacity envelope the listener-optimized engine requires.
func capacityExceeded(reactions []*reaction.Reaction) bool {
	for _, r := range reactions {
		if len(r.Inputs) > reaction.MaxInputs || len(r.Stoichiometry) > reaction.MaxStoichiometry {
			return true
		}
	}
	return false
}

// buildEngine selects and constructs the requested (or auto-selected)
// algorithm, restoring main.rs's capacity-probe selection rule verbatim
// (spec.md SPEC_FULL "Algorithm auto-selection"). verbose controls whether
// an explicit tau-split request pretty-prints every reaction first, which
// the caller only wants once regardless of how many repeats rebuild the
// engine afterward.
func buildEngine(kind string, initial []int64, reactions []*reaction.Reaction, names []string, verbose bool) (runner.SimulationAlg, error) {
	switch kind {
	case algGillespie:
		return gillespie.New(initial, reactions, names), nil
	case algTauSplitGeneral:
		return generalsplit.NewEngine(initial, reactions, names), nil
	case algTauSplit:
		if verbose {
			for _, r := range reactions {
				fmt.Println(r.FormatPretty(names))
			}
		}
		eng, err := tausplit.NewEngine(initial, reactions, names)
		if err != nil {
			capErr, _ := err.(*reaction.CapacityError)
			return nil, fmt.Errorf(
				"unable to run the optimized Tau-Splitting algorithm: reaction %s exceeds the fixed-capacity envelope (%d %s, limit %d); use --algorithm %s instead",
				reactions[capErr.ReactionIdx].FormatPretty(names), capErr.Have, capErr.Kind, capErr.Limit, algTauSplitGeneral,
			)
		}
		return eng, nil
	case "":
		if capacityExceeded(reactions) {
			return generalsplit.NewEngine(initial, reactions, names), nil
		}
		eng, err := tausplit.NewEngine(initial, reactions, names)
		if err != nil {
			return generalsplit.NewEngine(initial, reactions, names), nil
		}
		return eng, nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q: expected one of %s, %s, %s", kind, algGillespie, algTauSplit, algTauSplitGeneral)
	}
}

func resolveSeed(args *cliArgs) uint64 {
	if args.haveSeed {
		return args.seed
	}
	return uint64(time.Now().UnixNano())
}

func printHeader(w *os.File, names []string, args *cliArgs) {
	fmt.Fprint(w, "time")
	if !args.noPrintState {
		for _, name := range names {
			fmt.Fprintf(w, "\t%s", name)
		}
	}
	if args.countReactions {
		fmt.Fprint(w, "\treaction_count")
	}
	if args.cpuTime {
		fmt.Fprint(w, "\tcpu_time")
	}
	if args.repeatsSet {
		fmt.Fprint(w, "\trun_idx")
	}
	fmt.Fprintln(w)
}

func printRow(w *os.File, t float64, state []int64, reactionCount uint64, cpuTime time.Duration, runIdx int, args *cliArgs) {
	fmt.Fprintf(w, "%g", t)
	if !args.noPrintState {
		for _, count := range state {
			fmt.Fprintf(w, "\t%d", count)
		}
	}
	if args.countReactions {
		fmt.Fprintf(w, "\t%d", reactionCount)
	}
	if args.cpuTime {
		fmt.Fprintf(w, "\t%.3f", cpuTime.Seconds())
	}
	if args.repeatsSet {
		fmt.Fprintf(w, "\t%d", runIdx)
	}
	fmt.Fprintln(w)
}

// runSequential drives a single run inline, without the runner package's
// goroutine/channel machinery, for the common repeats==1 case.
func runSequential(args *cliArgs, initial []int64, reactions []*reaction.Reaction, names []string, seed uint64) error {
	alg, err := buildEngine(args.algorithm, initial, reactions, names, true)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(int64(seed)))
	start := time.Now()
	sampleTime := args.time / float64(args.samples)

	printHeader(os.Stdout, names, args)
	printRow(os.Stdout, 0, alg.State(), alg.TotalReactions(), 0, 0, args)
	for i := 0; i < args.samples; i++ {
		alg.Advance(sampleTime, rng)
		printRow(os.Stdout, float64(i+1)*sampleTime, alg.State(), alg.TotalReactions(), time.Since(start), 0, args)
	}
	return nil
}

// runParallel drives args.repeats independent runs concurrently via the
// runner package, streaming every run's rows to stdout as they complete
// (spec.md SPEC_FULL "--repeats R").
func runParallel(args *cliArgs, initial []int64, reactions []*reaction.Reaction, names []string, seed uint64) error {
	// Validate the requested algorithm once, up front: every repeat's own
	// engine is rebuilt from the same network and can never fail this check
	// that the first one already passed, so newAlg below never needs to
	// propagate a build error from inside a worker goroutine.
	if _, err := buildEngine(args.algorithm, initial, reactions, names, true); err != nil {
		return err
	}

	cfg := runner.Config{Samples: args.samples, SampleTime: args.time / float64(args.samples), Repeats: args.repeats}
	newAlg := func(runIdx int) runner.SimulationAlg {
		alg, _ := buildEngine(args.algorithm, initial, reactions, names, false)
		return alg
	}

	rows, group := runner.Run(context.Background(), cfg, seed, newAlg)

	printHeader(os.Stdout, names, args)
	for row := range rows {
		printRow(os.Stdout, row.Time, row.State, row.ReactionCount, row.CPUTime, row.RunIndex, args)
	}
	return group.Wait()
}

func run(argv []string) error {
	args, err := parseArgs(argv)
	if err != nil {
		return err
	}

	initial, reactions, names, err := network.ParseFiles(args.data)
	if err != nil {
		return err
	}

	seed := resolveSeed(args)
	if args.repeats > 1 {
		return runParallel(args, initial, reactions, names, seed)
	}
	return runSequential(args, initial, reactions, names, seed)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
