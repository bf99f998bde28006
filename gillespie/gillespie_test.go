package gillespie

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"tausplit/reaction"
)

func decay() []*reaction.Reaction {
	return []*reaction.Reaction{
		reaction.New(
			[]reaction.Input{{Species: 0, Multiplicity: 1}},
			[]reaction.StoiEntry{{Species: 0, Delta: -1}},
			1.0,
		),
	}
}

func TestGillespieDecay(t *testing.T) {
	Convey("A decaying population never increases and stays non-negative", t, func() {
		rng := rand.New(rand.NewSource(7))
		g := New([]int64{50}, decay(), []string{"A"})

		for i := 0; i < 20; i++ {
			prev := g.State()[0]
			g.Advance(0.5, rng)
			So(g.State()[0], ShouldBeLessThanOrEqualTo, prev)
			So(g.State()[0], ShouldBeGreaterThanOrEqualTo, 0)
		}
	})
}

func TestGillespieConservesTotal(t *testing.T) {
	Convey("A -> B conserves the total population", t, func() {
		rng := rand.New(rand.NewSource(8))
		eqs := []*reaction.Reaction{
			reaction.New(
				[]reaction.Input{{Species: 0, Multiplicity: 1}},
				[]reaction.StoiEntry{{Species: 0, Delta: -1}, {Species: 1, Delta: 1}},
				2.0,
			),
		}
		g := New([]int64{40, 0}, eqs, []string{"A", "B"})
		total := g.State()[0] + g.State()[1]

		for i := 0; i < 10; i++ {
			g.Advance(1.0, rng)
			So(g.State()[0]+g.State()[1], ShouldEqual, total)
		}
	})
}

func TestChoiceTreeSampleWeighted(t *testing.T) {
	Convey("A ChoiceTree sums its weights and never samples a zero-weight index", t, func() {
		tree := newChoiceTree(3)
		tree.Update(0, 1.0)
		tree.Update(1, 0.0)
		tree.Update(2, 3.0)
		So(tree.Total(), ShouldEqual, 4.0)

		rng := rand.New(rand.NewSource(9))
		counts := map[int]int{}
		for i := 0; i < 1000; i++ {
			counts[tree.Sample(rng)]++
		}
		So(counts[1], ShouldEqual, 0)
	})
}
