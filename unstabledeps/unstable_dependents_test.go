package unstabledeps

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"tausplit/reaction"
)

func TestTracker(t *testing.T) {
	Convey("Given a tracker over three species", t, func() {
		tr := New(3)
		r := reaction.New(
			[]reaction.Input{{Species: 0, Multiplicity: 1}},
			[]reaction.StoiEntry{{Species: 0, Delta: -1}, {Species: 1, Delta: 1}},
			1.0,
		)
		fr, err := reaction.NewFastReaction(0, r)
		So(err, ShouldBeNil)

		Convey("AddUnstable increments input dependent counts", func() {
			tr.AddUnstable(fr)
			So(tr.Count(0), ShouldEqual, 1)
			So(tr.Count(1), ShouldEqual, 0)
		})

		Convey("HasDependents is true when an unstable reaction reads an output species", func() {
			producer := reaction.New(
				[]reaction.Input{{Species: 2, Multiplicity: 1}},
				[]reaction.StoiEntry{{Species: 0, Delta: 1}, {Species: 2, Delta: -1}},
				1.0,
			)
			fr2, err := reaction.NewFastReaction(1, producer)
			So(err, ShouldBeNil)

			tr.AddUnstable(fr)
			So(tr.HasDependents(fr2), ShouldBeTrue)
		})

		Convey("RemoveUnstable undoes AddUnstable", func() {
			tr.AddUnstable(fr)
			tr.RemoveUnstable(fr)
			So(tr.Count(0), ShouldEqual, 0)
		})
	})
}
