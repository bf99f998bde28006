package reactiondata

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const decayRate = 1.5

func TestSampleAndBracket(t *testing.T) {
	Convey("A freshly sampled Data satisfies the propensity-bracket law", t, func() {
		rng := rand.New(rand.NewSource(1))

		for i := 0; i < 200; i++ {
			d := Sample(20.0, 0, decayRate, 0.1, rng)
			So(d.Low, ShouldBeLessThanOrEqualTo, 20.0)
			So(d.High, ShouldBeGreaterThan, 0.0)
			So(d.HasEvents(), ShouldEqual, d.Events != 0)
		}
	})
}

func TestStabilizeDestabilizeRoundTrip(t *testing.T) {
	Convey("Stabilizing then destabilizing at the same product reproduces the bracket", t, func() {
		rng := rand.New(rand.NewSource(2))

		d := Sample(20.0, 0, decayRate, 0.1, rng)
		events := d.Events
		stable := d.Stabilize()
		So(stable.HasLow, ShouldBeTrue)
		So(stable.HasHigh, ShouldBeTrue)

		revived := stable.Destabilize(decayRate, rng)
		So(revived.Events, ShouldEqual, events)
		So(revived.Low, ShouldEqual, stable.Low)
		So(revived.High, ShouldEqual, stable.High)
	})
}

func TestSplitConservesEvents(t *testing.T) {
	Convey("Splitting a Data across two halves conserves the total event count", t, func() {
		rng := rand.New(rand.NewSource(3))

		for i := 0; i < 100; i++ {
			d := Sample(30.0, 0, decayRate, 1.0, rng)
			total := d.Events
			sibling := d.Split(decayRate, rng)
			So(d.Events+sibling.Events, ShouldEqual, total)
			So(d.Time, ShouldEqual, sibling.Time)
		}
	})
}

func TestStableSplitConservesEvents(t *testing.T) {
	Convey("Splitting a Stable across two halves conserves the total event count", t, func() {
		rng := rand.New(rand.NewSource(4))

		d := Sample(30.0, 0, decayRate, 1.0, rng)
		stable := d.Stabilize()
		total := stable.Events
		sibling := stable.Split(rng)
		So(stable.Events+sibling.Events, ShouldEqual, total)
	})
}
