package reaction

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestReactionPropensity(t *testing.T) {
	Convey("Given a simple decay reaction A -> ∅", t, func() {
		r := New(
			[]Input{{Species: 0, Multiplicity: 1}},
			[]StoiEntry{{Species: 0, Delta: -1}},
			2.5,
		)

		Convey("Propensity scales linearly with population", func() {
			So(r.Propensity([]int64{10}), ShouldEqual, 25.0)
			So(r.Propensity([]int64{0}), ShouldEqual, 0.0)
		})

		Convey("Apply removes one molecule per firing", func() {
			state := []int64{10}
			r.Apply(state, 3)
			So(state[0], ShouldEqual, int64(7))
		})

		Convey("Positive/negative partitions are split correctly", func() {
			So(r.Negative(), ShouldHaveLength, 1)
			So(r.Positive(), ShouldHaveLength, 0)
		})

		Convey("Pretty-printing names the species", func() {
			So(r.FormatPretty([]string{"A"}), ShouldEqual, "A -> ∅")
		})
	})

	Convey("Given a dimerization 2A -> B", t, func() {
		r := New(
			[]Input{{Species: 0, Multiplicity: 2}},
			[]StoiEntry{{Species: 0, Delta: -2}, {Species: 1, Delta: 1}},
			1.0,
		)

		Convey("InputProduct uses the binomial coefficient of the population", func() {
			So(r.InputProduct([]int64{5, 0}), ShouldEqual, uint64(10))
			So(r.InputProduct([]int64{1, 0}), ShouldEqual, uint64(0))
		})
	})
}

func TestNewFastReaction(t *testing.T) {
	Convey("A reaction within the fixed-capacity envelope converts cleanly", t, func() {
		r := New(
			[]Input{{Species: 0, Multiplicity: 1}, {Species: 1, Multiplicity: 1}},
			[]StoiEntry{{Species: 0, Delta: -1}, {Species: 1, Delta: -1}, {Species: 2, Delta: 1}},
			1.0,
		)
		fr, err := NewFastReaction(0, r)
		So(err, ShouldBeNil)
		So(fr.NumInputs, ShouldEqual, 2)
		So(fr.NumStoi, ShouldEqual, 3)
		So(fr.InputSlice()[0].SelfConsumption, ShouldEqual, int64(-1))
	})

	Convey("A reaction with too many inputs reports a CapacityError", t, func() {
		r := New(
			[]Input{{Species: 0, Multiplicity: 1}, {Species: 1, Multiplicity: 1}, {Species: 2, Multiplicity: 1}},
			[]StoiEntry{{Species: 3, Delta: 1}},
			1.0,
		)
		_, err := NewFastReaction(5, r)
		So(err, ShouldResemble, &CapacityError{ReactionIdx: 5, Kind: "inputs", Have: 3, Limit: MaxInputs})
	})

	Convey("A reaction with too much stoichiometry reports a CapacityError", t, func() {
		r := New(
			nil,
			[]StoiEntry{{Species: 0, Delta: 1}, {Species: 1, Delta: 1}, {Species: 2, Delta: 1}, {Species: 3, Delta: 1}, {Species: 4, Delta: 1}},
			1.0,
		)
		_, err := NewFastReaction(2, r)
		So(err, ShouldResemble, &CapacityError{ReactionIdx: 2, Kind: "stoichiometry", Have: 5, Limit: MaxStoichiometry})
	})
}
