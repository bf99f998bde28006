// Package sampling is the RNG facade of spec.md §4.1: exponential, Poisson,
// binomial, and order-statistic samplers, plus a specialized fast
// Binomial(n, 1/2) for small n. Every sampler is deterministic given the
// *rand.Rand it is handed and panics with a *DistributionError on a
// non-finite or negative parameter, since spec.md §7 treats that as an
// internal invariant break rather than a recoverable condition.
package sampling

import (
	"math"
	"math/bits"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// New returns a deterministic RNG seeded from seed, in the spirit of the
// original implementation's SmallRng::seed_from_u64.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(int64(seed)))
}

// Poisson draws an integer count from a Poisson(lambda) distribution,
// returning 0 when lambda is exactly zero (spec.md §4.1).
func Poisson(rng *rand.Rand, lambda float64, reactionIdx int) uint64 {
	if lambda == 0 {
		return 0
	}
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) || lambda < 0 {
		panic(&DistributionError{Distribution: "poisson", Param: "lambda", Value: lambda, Reaction: reactionIdx})
	}
	d := distuv.Poisson{Lambda: lambda, Src: rng}
	return uint64(math.Round(d.Rand()))
}

// Binomial draws an integer count from a Binomial(n, p) distribution.
func Binomial(rng *rand.Rand, n uint64, p float64, reactionIdx int) uint64 {
	if math.IsNaN(p) || p < 0 || p > 1 {
		panic(&DistributionError{Distribution: "binomial", Param: "p", Value: p, Reaction: reactionIdx})
	}
	if n == 0 {
		return 0
	}
	d := distuv.Binomial{N: float64(n), P: p, Src: rng}
	v := uint64(math.Round(d.Rand()))
	if v > n {
		// Rounding at p very close to 1 can overshoot by one ULP; clamp.
		v = n
	}
	return v
}

// BinomialHalf is an optimized Binomial(n, 1/2): for n <= 64 it uses the
// population count of the top n bits of a random 64-bit word (the word is
// shifted right by 64-n), falling through to the general binomial sampler
// otherwise.
func BinomialHalf(rng *rand.Rand, n uint64) uint64 {
	if n == 0 {
		return 0
	}
	if n <= 64 {
		word := rng.Uint64() >> (64 - n)
		return uint64(bits.OnesCount64(word))
	}
	return Binomial(rng, n, 0.5, -1)
}

// Exponential draws a positive real from an Exponential(rate) distribution.
func Exponential(rng *rand.Rand, rate float64, reactionIdx int) float64 {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		panic(&DistributionError{Distribution: "exponential", Param: "rate", Value: rate, Reaction: reactionIdx})
	}
	d := distuv.Exponential{Rate: rate, Src: rng}
	return d.Rand()
}

// MaxUniform returns a draw from the distribution of the maximum of n iid
// uniforms on (0,1): U^(1/n) for n >= 1, and 0 for n == 0.
func MaxUniform(rng *rand.Rand, n uint64) float64 {
	if n == 0 {
		return 0
	}
	return math.Pow(rng.Float64(), 1/float64(n))
}

// BinomialCoefficient computes n choose k for small k via closed forms,
// falling back to the iterative product for larger k (spec.md §4.1).
func BinomialCoefficient(n, k uint64) uint64 {
	switch k {
	case 0:
		return 1
	case 1:
		return n
	case 2:
		if n == 0 {
			return 0
		}
		return (n*n - n) / 2
	case 3:
		if n < 2 {
			return 0
		}
		return (n * (n - 1) * (n - 2)) / 6
	default:
		res := uint64(1)
		for i := uint64(0); i < k; i++ {
			res = res * (n - i) / (i + 1)
		}
		return res
	}
}
