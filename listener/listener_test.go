package listener

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMinListener(t *testing.T) {
	Convey("Given a MinListener with three entries", t, func() {
		var l MinListener
		l.Push(10, Entry{ReactionIdx: 0})
		l.Push(5, Entry{ReactionIdx: 1})
		l.Push(20, Entry{ReactionIdx: 2})

		Convey("PopIfSmallerThan returns the minimum when it beats the threshold", func() {
			e, ok := l.PopIfSmallerThan(6)
			So(ok, ShouldBeTrue)
			So(e.ReactionIdx, ShouldEqual, 1)
			So(l.Len(), ShouldEqual, 2)
		})

		Convey("PopIfSmallerThan returns false when nothing beats the threshold", func() {
			_, ok := l.PopIfSmallerThan(1)
			So(ok, ShouldBeFalse)
			So(l.Len(), ShouldEqual, 3)
		})
	})
}

func TestMaxListener(t *testing.T) {
	Convey("Given a MaxListener with three entries", t, func() {
		var l MaxListener
		l.Push(10, Entry{ReactionIdx: 0})
		l.Push(5, Entry{ReactionIdx: 1})
		l.Push(20, Entry{ReactionIdx: 2})

		Convey("PopIfLargerThan returns the maximum when it beats the threshold", func() {
			e, ok := l.PopIfLargerThan(15)
			So(ok, ShouldBeTrue)
			So(e.ReactionIdx, ShouldEqual, 2)
			So(l.Len(), ShouldEqual, 2)
		})

		Convey("PopIfLargerThan returns false when nothing beats the threshold", func() {
			_, ok := l.PopIfLargerThan(100)
			So(ok, ShouldBeFalse)
			So(l.Len(), ShouldEqual, 3)
		})
	})
}
