package main

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"tausplit/gillespie"
	"tausplit/reaction"
	"tausplit/runner"
	"tausplit/tausplit"
)

// finalStates draws n independent final-population samples of species 0
// from alg, each run starting fresh from initial and advancing by t.
func finalStates(newAlg func() runner.SimulationAlg, t float64, n int, seed int64) []int64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int64, n)
	for i := range out {
		alg := newAlg()
		alg.Advance(t, rng)
		out[i] = alg.State()[0]
	}
	return out
}

// histogram buckets samples into integer-width bins spanning [min, max],
// returning per-bin counts as float64 (the shape stat.ChiSquare wants).
func histogram(samples []int64, min, max int64, bins int) []float64 {
	span := max - min + 1
	width := (span + int64(bins) - 1) / int64(bins)
	if width < 1 {
		width = 1
	}
	counts := make([]float64, bins)
	for _, v := range samples {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	return counts
}

// chiSquareEquivalence implements spec.md §8 property 1's test fixture: bin
// both algorithms' final-state samples over the same support, scale one
// histogram's total to match the other's, and compute a chi-square p-value
// via gonum's stat.ChiSquare and distuv.ChiSquared. Adjacent bins are first
// merged left to right until each merged bin expects at least 5
// observations, since stat.ChiSquare's asymptotic approximation is
// unreliable below that count.
func chiSquareEquivalence(gillespieSamples, tauSamples []int64, bins int) (statistic, pValue float64) {
	min, max := gillespieSamples[0], gillespieSamples[0]
	for _, samples := range [][]int64{gillespieSamples, tauSamples} {
		for _, v := range samples {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	observed := histogram(tauSamples, min, max, bins)
	expected := histogram(gillespieSamples, min, max, bins)

	scale := float64(len(tauSamples)) / float64(len(gillespieSamples))
	for i := range expected {
		expected[i] *= scale
	}

	var mergedObs, mergedExp []float64
	var obsAcc, expAcc float64
	for i := range expected {
		obsAcc += observed[i]
		expAcc += expected[i]
		if expAcc >= 5 || i == len(expected)-1 {
			mergedObs = append(mergedObs, obsAcc)
			mergedExp = append(mergedExp, expAcc)
			obsAcc, expAcc = 0, 0
		}
	}

	statistic = stat.ChiSquare(mergedObs, mergedExp)
	df := float64(len(mergedObs) - 1)
	if df < 1 {
		df = 1
	}
	chi := distuv.ChiSquared{K: df}
	pValue = 1 - chi.CDF(statistic)
	return statistic, pValue
}

func birthNetwork() ([]*reaction.Reaction, []string) {
	r := reaction.New(nil, []reaction.StoiEntry{{Species: 0, Delta: 1}}, 10.0)
	return []*reaction.Reaction{r}, []string{"A"}
}

func decayPairNetwork() ([]*reaction.Reaction, []string) {
	decay := reaction.New(
		[]reaction.Input{{Species: 0, Multiplicity: 1}},
		[]reaction.StoiEntry{{Species: 0, Delta: -1}},
		0.5,
	)
	birth := reaction.New(nil, []reaction.StoiEntry{{Species: 0, Delta: 1}}, 10.0)
	return []*reaction.Reaction{decay, birth}, []string{"A"}
}

// TestTauSplitMatchesGillespieDistribution exercises spec.md §8 property 1
// ("distributional equivalence"): Tau-Splitting's final-state distribution
// must be statistically indistinguishable from the Gillespie reference's.
// The sample count here (2000) trades the spec's 2^16 for a test that
// finishes quickly; the chi-square fixture itself is the same one described
// in SPEC_FULL.md regardless of scale.
func TestTauSplitMatchesGillespieDistribution(t *testing.T) {
	Convey("Scenario A: pure birth process ∅ -> A at rate 10, A=0, T=1.0", t, func() {
		reactions, names := birthNetwork()
		const n = 2000

		gillespieSamples := finalStates(func() runner.SimulationAlg {
			return gillespie.New([]int64{0}, reactions, names)
		}, 1.0, n, 101)

		tauSamples := finalStates(func() runner.SimulationAlg {
			eng, err := tausplit.NewEngine([]int64{0}, reactions, names)
			if err != nil {
				t.Fatalf("unexpected capacity error: %v", err)
			}
			return eng
		}, 1.0, n, 202)

		_, pValue := chiSquareEquivalence(gillespieSamples, tauSamples, 15)
		So(pValue, ShouldBeGreaterThan, 0.01)
	})

	Convey("Scenario D: decay/birth pair A->∅ (0.5), ∅->A (10), A=0, T=20.0", t, func() {
		reactions, names := decayPairNetwork()
		const n = 2000

		gillespieSamples := finalStates(func() runner.SimulationAlg {
			return gillespie.New([]int64{0}, reactions, names)
		}, 20.0, n, 303)

		tauSamples := finalStates(func() runner.SimulationAlg {
			eng, err := tausplit.NewEngine([]int64{0}, reactions, names)
			if err != nil {
				t.Fatalf("unexpected capacity error: %v", err)
			}
			return eng
		}, 20.0, n, 404)

		_, pValue := chiSquareEquivalence(gillespieSamples, tauSamples, 15)
		So(pValue, ShouldBeGreaterThan, 0.01)
	})
}
