package dependencygraph

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"tausplit/reaction"
)

func TestFromReactions(t *testing.T) {
	Convey("Given a conversion network A -> B", t, func() {
		r := reaction.New(
			[]reaction.Input{{Species: 0, Multiplicity: 1}},
			[]reaction.StoiEntry{{Species: 0, Delta: -1}, {Species: 1, Delta: 1}},
			1.0,
		)
		g := FromReactions(2, []*reaction.Reaction{r})

		Convey("Species 0 is an input of reaction 0", func() {
			So(g.HaveInput(0), ShouldResemble, []int{0})
			So(g.HaveInput(1), ShouldBeEmpty)
		})

		Convey("Both species are outputs of reaction 0", func() {
			So(g.HaveOutput(0), ShouldResemble, []int{0})
			So(g.HaveOutput(1), ShouldResemble, []int{0})
		})
	})
}
