package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized", func() {
			err := Init()

			Convey("Then it is retrievable", func() {
				So(err, ShouldBeNil)
				So(Get(), ShouldNotBeNil)
			})
		})

		Convey("When a named child is created", func() {
			So(Init(), ShouldBeNil)
			named := Named("store")

			Convey("Then it logs without panicking", func() {
				So(func() {
					named.Info(context.Background(), "message", String("k", "v"))
				}, ShouldNotPanic)
			})
		})
	})
}

func TestFieldConstructors(t *testing.T) {
	Convey("Given the field constructors", t, func() {
		Convey("Then each carries its key and value", func() {
			So(String("a", "b"), ShouldResemble, Field{Key: "a", Value: "b"})
			So(Int("n", 3), ShouldResemble, Field{Key: "n", Value: 3})
			So(Int64("n", int64(9)), ShouldResemble, Field{Key: "n", Value: int64(9)})
			So(Float64("f", 1.5), ShouldResemble, Field{Key: "f", Value: 1.5})
			So(Duration("d", time.Second), ShouldResemble, Field{Key: "d", Value: time.Second})

			err := errors.New("boom")
			So(Error(err), ShouldResemble, Field{Key: "error", Value: err})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(Init(), ShouldBeNil)

		Convey("When valid levels are applied", func() {
			for _, lvl := range []string{"debug", "info", "warn", "warning", "error", "", "DEBUG"} {
				So(SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("When an unknown level is applied", func() {
			Convey("Then it errors", func() {
				So(SetLevelString("verbose"), ShouldNotBeNil)
			})
		})
	})
}
