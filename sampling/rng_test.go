package sampling

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPoisson(t *testing.T) {
	Convey("Given a seeded RNG", t, func() {
		rng := New(42)

		Convey("Poisson(0) is always 0", func() {
			for i := 0; i < 100; i++ {
				So(Poisson(rng, 0, -1), ShouldEqual, uint64(0))
			}
		})

		Convey("Poisson(lambda) has mean near lambda over many draws", func() {
			const lambda = 25.0
			total := uint64(0)
			const n = 20000
			for i := 0; i < n; i++ {
				total += Poisson(rng, lambda, -1)
			}
			mean := float64(total) / n
			So(mean, ShouldAlmostEqual, lambda, 1.0)
		})

		Convey("A negative lambda panics with a DistributionError", func() {
			So(func() { Poisson(rng, -1, 7) }, ShouldPanicWith, &DistributionError{
				Distribution: "poisson", Param: "lambda", Value: -1, Reaction: 7,
			})
		})
	})
}

func TestBinomialHalf(t *testing.T) {
	Convey("Given a seeded RNG", t, func() {
		rng := New(7)

		Convey("BinomialHalf(0) is always 0", func() {
			So(BinomialHalf(rng, 0), ShouldEqual, uint64(0))
		})

		Convey("BinomialHalf(n) never exceeds n, small or large n", func() {
			for _, n := range []uint64{1, 3, 64, 65, 200} {
				for i := 0; i < 200; i++ {
					v := BinomialHalf(rng, n)
					So(v, ShouldBeLessThanOrEqualTo, n)
				}
			}
		})

		Convey("BinomialHalf(n) has mean near n/2", func() {
			const n = uint64(64)
			total := uint64(0)
			const reps = 20000
			for i := 0; i < reps; i++ {
				total += BinomialHalf(rng, n)
			}
			mean := float64(total) / reps
			So(mean, ShouldAlmostEqual, float64(n)/2, 1.0)
		})
	})
}

func TestMaxUniform(t *testing.T) {
	Convey("Given a seeded RNG", t, func() {
		rng := New(11)

		Convey("MaxUniform(0) is 0", func() {
			So(MaxUniform(rng, 0), ShouldEqual, 0.0)
		})

		Convey("MaxUniform(n) is always within (0,1)", func() {
			for i := 0; i < 1000; i++ {
				v := MaxUniform(rng, 5)
				So(v, ShouldBeBetween, 0.0, 1.0)
			}
		})

		Convey("MaxUniform(n) grows toward 1 as n grows", func() {
			sum1 := 0.0
			sum100 := 0.0
			const reps = 5000
			for i := 0; i < reps; i++ {
				sum1 += MaxUniform(rng, 1)
				sum100 += MaxUniform(rng, 100)
			}
			So(sum100/reps, ShouldBeGreaterThan, sum1/reps)
		})
	})
}

func TestBinomialCoefficient(t *testing.T) {
	Convey("Small closed forms match combinatorics", t, func() {
		So(BinomialCoefficient(5, 0), ShouldEqual, uint64(1))
		So(BinomialCoefficient(5, 1), ShouldEqual, uint64(5))
		So(BinomialCoefficient(5, 2), ShouldEqual, uint64(10))
		So(BinomialCoefficient(5, 3), ShouldEqual, uint64(10))
		So(BinomialCoefficient(0, 2), ShouldEqual, uint64(0))
		So(BinomialCoefficient(1, 3), ShouldEqual, uint64(0))
	})
}
