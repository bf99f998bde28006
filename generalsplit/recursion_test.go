package generalsplit

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"tausplit/reaction"
)

func decayNetwork() ([]*reaction.Reaction, []string) {
	r := reaction.New(
		[]reaction.Input{{Species: 0, Multiplicity: 1}},
		[]reaction.StoiEntry{{Species: 0, Delta: -1}},
		1.0,
	)
	return []*reaction.Reaction{r}, []string{"A"}
}

// threeInputNetwork combines three species into a fourth: an envelope this
// package exists to cover, since it exceeds reaction.MaxInputs.
func threeInputNetwork() ([]*reaction.Reaction, []string) {
	r := reaction.New(
		[]reaction.Input{{Species: 0, Multiplicity: 1}, {Species: 1, Multiplicity: 1}, {Species: 2, Multiplicity: 1}},
		[]reaction.StoiEntry{{Species: 0, Delta: -1}, {Species: 1, Delta: -1}, {Species: 2, Delta: -1}, {Species: 3, Delta: 1}},
		0.01,
	)
	return []*reaction.Reaction{r}, []string{"A", "B", "C", "D"}
}

func TestEngineSimpleDecay(t *testing.T) {
	Convey("Given a simple decay network A -> ∅", t, func() {
		reactions, names := decayNetwork()
		rng := rand.New(rand.NewSource(123))
		eng := NewEngine([]int64{50}, reactions, names)

		Convey("Population never goes negative and never increases", func() {
			prev := int64(50)
			for i := 0; i < 20; i++ {
				eng.Advance(0.05, rng)
				cur := eng.State()[0]
				So(cur, ShouldBeGreaterThanOrEqualTo, int64(0))
				So(cur, ShouldBeLessThanOrEqualTo, prev)
				prev = cur
			}
		})
	})
}

func TestEngineHandlesThreeInputReaction(t *testing.T) {
	Convey("Given a three-input combination reaction, beyond the fast engine's envelope", t, func() {
		reactions, names := threeInputNetwork()
		rng := rand.New(rand.NewSource(9))
		eng := NewEngine([]int64{20, 20, 20, 0}, reactions, names)

		for i := 0; i < 10; i++ {
			eng.Advance(0.1, rng)
			state := eng.State()
			So(state[0], ShouldBeGreaterThanOrEqualTo, int64(0))
			So(state[1], ShouldBeGreaterThanOrEqualTo, int64(0))
			So(state[2], ShouldBeGreaterThanOrEqualTo, int64(0))
			So(state[0]+state[3], ShouldEqual, int64(20))
			So(state[1]+state[3], ShouldEqual, int64(20))
			So(state[2]+state[3], ShouldEqual, int64(20))
		}
	})
}

func TestEngineConservesTotal(t *testing.T) {
	Convey("Given a conversion network A -> B, total population is conserved", t, func() {
		r := reaction.New(
			[]reaction.Input{{Species: 0, Multiplicity: 1}},
			[]reaction.StoiEntry{{Species: 0, Delta: -1}, {Species: 1, Delta: 1}},
			2.0,
		)
		rng := rand.New(rand.NewSource(7))
		eng := NewEngine([]int64{30, 0}, []*reaction.Reaction{r}, []string{"A", "B"})

		for i := 0; i < 10; i++ {
			eng.Advance(0.2, rng)
			state := eng.State()
			So(state[0]+state[1], ShouldEqual, int64(30))
			So(state[0], ShouldBeGreaterThanOrEqualTo, int64(0))
			So(state[1], ShouldBeGreaterThanOrEqualTo, int64(0))
		}
	})
}
