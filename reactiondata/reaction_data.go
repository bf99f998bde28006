// Package reactiondata implements the per-segment, per-reaction event-count
// data of the listener-optimized recursion tree (spec.md §3): how many times
// a reaction fired across a time segment, and the propensity bracket
// [low, high) within which that event count remains valid without
// resampling (spec.md §2's "propensity-bracket law").
package reactiondata

import (
	"fmt"
	"math/rand"

	"tausplit/sampling"
)

// AllowCornerStability enables the "one event collapses bounds to a single
// point" stability allowance (spec.md §4.8): a reaction with exactly one
// event is also considered stable when every reactant the event touches has
// its lower/upper bound pinned exactly to the single-event delta, even
// though its propensity bracket alone would call it unstable. Exposed as a
// variable rather than a constant so the statistical test fixtures of §8 can
// disable it if it is ever implicated in a distributional divergence.
var AllowCornerStability = true

// TauData is implemented by both ReactionData (active) and
// StableReactionData (lazily sampled inactive) so the recursion tree can
// treat a segment's reaction record uniformly regardless of activation
// state.
type TauData interface {
	EventCount() uint64
	ReactionIndex() int
	HasEvents() bool
}

// Data is the active form: a reaction has fired Events times across Time,
// and the current propensity may drift anywhere in [Low, High) without
// invalidating that count.
type Data struct {
	Reaction int
	Time     float64
	Events   uint64
	Low      float64
	High     float64
}

func (d *Data) EventCount() uint64  { return d.Events }
func (d *Data) ReactionIndex() int  { return d.Reaction }
func (d *Data) HasEvents() bool     { return d.Events != 0 }

func (d *Data) String() string {
	return fmt.Sprintf("RData(%d, (%g, %g)=>%d)", d.Reaction, d.Low, d.High, d.Events)
}

// Sample draws a fresh Data for a reaction newly activated over a segment
// of the given time, from the current input product and the reaction's rate
// constant.
func Sample(product float64, reactionIdx int, rate float64, t float64, rng *rand.Rand) *Data {
	events := sampling.Poisson(rng, product*t*rate, reactionIdx)
	low := product * sampling.MaxUniform(rng, events)
	high := product + sampling.Exponential(rng, rate*t, reactionIdx)
	return &Data{Reaction: reactionIdx, Time: t, Events: events, Low: low, High: high}
}

// Resample conditions the current event count on a new input product,
// extending the bracket only as far as needed to keep the count valid
// (spec.md §3's incremental resampling, avoiding a full resample).
func (d *Data) Resample(product float64, rate float64, rng *rand.Rand) {
	switch {
	case product < d.Low:
		remEvents := sampling.Binomial(rng, d.Events-1, product/d.Low, d.Reaction)
		low := product * sampling.MaxUniform(rng, remEvents)
		high := product + (d.Low-product)*(1-sampling.MaxUniform(rng, d.Events-remEvents-1))

		d.Low = low
		d.Events = remEvents
		d.High = high
	case product >= d.High:
		extraEvents := sampling.Poisson(rng, rate*d.Time*(product-d.High), d.Reaction)
		low := d.High + sampling.MaxUniform(rng, extraEvents)*(product-d.High)
		high := product + sampling.Exponential(rng, rate*d.Time, d.Reaction)

		d.Events += extraEvents + 1
		d.Low = low
		d.High = high
	}
}

// Stabilize converts an active Data into its lazily-sampled Stable form,
// deferring the Low/High resampling work to SampleLow/SampleHigh, should it
// ever be needed again.
func (d *Data) Stabilize() *Stable {
	return &Stable{
		Reaction: d.Reaction,
		Time:     d.Time,
		Events:   d.Events,
		Low:      d.Low,
		HasLow:   true,
		High:     d.High,
		HasHigh:  true,
	}
}

// Split partitions the Data's event count across two time-halved segments
// using a binomial(1/2) coupling, and adjusts whichever bracket edge
// (low or high) a segment's owner randomly wins, returning the sibling
// segment's data. (spec.md §3, "split without resampling".)
func (d *Data) Split(rate float64, rng *rand.Rand) *Data {
	d.Time /= 2
	res := *d
	events := d.Events

	res.Events = sampling.BinomialHalf(rng, events)
	d.Events = events - res.Events

	if events > 0 {
		if rng.Float64() < float64(res.Events)/float64(events) {
			d.Low *= sampling.MaxUniform(rng, d.Events)
		} else {
			res.Low *= sampling.MaxUniform(rng, res.Events)
		}
	}
	if rng.Float64() < 0.5 {
		d.High += sampling.Exponential(rng, rate*d.Time, d.Reaction)
	} else {
		res.High += sampling.Exponential(rng, rate*res.Time, res.Reaction)
	}

	return &res
}

// Stable is the inactive form: a reaction's event count over a segment that
// has not needed to resolve its exact propensity bracket, because nothing
// has yet required activating it.
type Stable struct {
	Reaction int
	Time     float64
	Events   uint64
	Low      float64
	HasLow   bool
	High     float64
	HasHigh  bool
}

func (s *Stable) EventCount() uint64 { return s.Events }
func (s *Stable) ReactionIndex() int { return s.Reaction }
func (s *Stable) HasEvents() bool    { return s.Events != 0 }

// SampleHigh lazily samples the high bracket edge the first time it is
// needed, and is a no-op thereafter.
func (s *Stable) SampleHigh(rate float64, rng *rand.Rand) float64 {
	if !s.HasHigh {
		s.High += sampling.Exponential(rng, rate*s.Time, s.Reaction)
		s.HasHigh = true
	}
	return s.High
}

// SampleLow lazily samples the low bracket edge the first time it is
// needed.
func (s *Stable) SampleLow(rng *rand.Rand) float64 {
	if !s.HasLow {
		s.Low *= sampling.MaxUniform(rng, s.Events)
		s.HasLow = true
	}
	return s.Low
}

// Destabilize reactivates a Stable back into a Data, sampling whichever
// bracket edges were deferred.
func (s *Stable) Destabilize(rate float64, rng *rand.Rand) *Data {
	low := s.SampleLow(rng)
	high := s.SampleHigh(rate, rng)
	return &Data{Reaction: s.Reaction, Time: s.Time, Events: s.Events, Low: low, High: high}
}

// Split partitions a Stable's event count across two halved segments,
// deferring bracket-edge sampling on whichever side loses the coupling.
func (s *Stable) Split(rng *rand.Rand) *Stable {
	s.Time /= 2
	res := *s
	events := s.Events

	res.Events = sampling.BinomialHalf(rng, events)
	s.Events = events - res.Events

	if events > 0 && s.HasLow {
		if rng.Float64() < float64(res.Events)/float64(events) {
			s.HasLow = false
		} else {
			res.HasLow = false
		}
	}
	if s.HasHigh {
		if rng.Float64() < 0.5 {
			s.HasHigh = false
		} else {
			res.HasHigh = false
		}
	}
	return &res
}
