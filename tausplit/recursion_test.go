package tausplit

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"tausplit/reaction"
	"tausplit/reactiondata"
	"tausplit/state"
)

func decayNetwork() ([]*reaction.Reaction, []string) {
	r := reaction.New(
		[]reaction.Input{{Species: 0, Multiplicity: 1}},
		[]reaction.StoiEntry{{Species: 0, Delta: -1}},
		1.0,
	)
	return []*reaction.Reaction{r}, []string{"A"}
}

func conversionNetwork() ([]*reaction.Reaction, []string) {
	r := reaction.New(
		[]reaction.Input{{Species: 0, Multiplicity: 1}},
		[]reaction.StoiEntry{{Species: 0, Delta: -1}, {Species: 1, Delta: 1}},
		2.0,
	)
	return []*reaction.Reaction{r}, []string{"A", "B"}
}

func TestEngineSimpleDecay(t *testing.T) {
	Convey("Given a simple decay network A -> ∅", t, func() {
		reactions, names := decayNetwork()
		rng := rand.New(rand.NewSource(123))

		Convey("Population never goes negative and never increases", func() {
			eng, err := NewEngine([]int64{50}, reactions, names)
			So(err, ShouldBeNil)

			prev := int64(50)
			for i := 0; i < 20; i++ {
				eng.Advance(0.05, rng)
				cur := eng.State()[0]
				So(cur, ShouldBeGreaterThanOrEqualTo, int64(0))
				So(cur, ShouldBeLessThanOrEqualTo, prev)
				prev = cur
			}
		})

		Convey("TotalReactions tracks exactly how much population was lost", func() {
			eng, err := NewEngine([]int64{50}, reactions, names)
			So(err, ShouldBeNil)
			eng.Advance(5.0, rng)
			So(uint64(50-eng.State()[0]), ShouldEqual, eng.TotalReactions())
		})
	})
}

func TestEngineConservesTotal(t *testing.T) {
	Convey("Given a conversion network A -> B, total population is conserved", t, func() {
		reactions, names := conversionNetwork()
		rng := rand.New(rand.NewSource(7))
		eng, err := NewEngine([]int64{30, 0}, reactions, names)
		So(err, ShouldBeNil)

		for i := 0; i < 10; i++ {
			eng.Advance(0.2, rng)
			state := eng.State()
			So(state[0]+state[1], ShouldEqual, int64(30))
			So(state[0], ShouldBeGreaterThanOrEqualTo, int64(0))
			So(state[1], ShouldBeGreaterThanOrEqualTo, int64(0))
		}
	})
}

func TestCornerStabilityOnlyRelaxesLowerBound(t *testing.T) {
	Convey("Given a decay reaction A -> ∅ whose single event pins A's bounds to the corner", t, func() {
		r := reaction.New(
			[]reaction.Input{{Species: 0, Multiplicity: 1}},
			[]reaction.StoiEntry{{Species: 0, Delta: -1}},
			1.0,
		)
		fr, err := reaction.NewFastReaction(0, r)
		So(err, ShouldBeNil)
		rng := rand.New(rand.NewSource(1))

		tree := New([]int64{10}, []*reaction.FastReaction{fr}, []string{"A"}, 1.0, rng)
		tree.state.Components[0] = state.ComponentData{Lower: 9, Value: 10, Upper: 10}

		Convey("cornerStable recognizes the pinned corner", func() {
			So(tree.cornerStable(fr, 1), ShouldBeTrue)
		})

		Convey("isStable still rejects it when the upper propensity bound is violated", func() {
			rdata := &reactiondata.Data{Reaction: 0, Events: 1, Low: 0, High: 0}
			So(tree.isStable(rdata), ShouldBeFalse)
		})

		Convey("isStable accepts it via the corner once the upper bound is legal", func() {
			rdata := &reactiondata.Data{Reaction: 0, Events: 1, Low: 9, High: 100}
			So(tree.isStable(rdata), ShouldBeTrue)
		})

		Convey("stableIsStable mirrors isStable: upper-bound violation is never excused by the corner", func() {
			stable := (&reactiondata.Data{Reaction: 0, Events: 1, Low: 0, High: 0}).Stabilize()
			So(tree.stableIsStable(stable, fr, rng), ShouldBeFalse)
		})
	})
}

func TestEngineRejectsOverCapacityReaction(t *testing.T) {
	Convey("A reaction with three inputs is rejected with a CapacityError", t, func() {
		r := reaction.New(
			[]reaction.Input{{Species: 0, Multiplicity: 1}, {Species: 1, Multiplicity: 1}, {Species: 2, Multiplicity: 1}},
			[]reaction.StoiEntry{{Species: 3, Delta: 1}},
			1.0,
		)
		_, err := NewEngine([]int64{1, 1, 1, 0}, []*reaction.Reaction{r}, []string{"A", "B", "C", "D"})
		So(err, ShouldHaveSameTypeAs, &reaction.CapacityError{})
	})
}
