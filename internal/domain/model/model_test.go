package model_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leaderforge/leaderforge/internal/domain/fault"
	model "github.com/leaderforge/leaderforge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScoreSubmissionValidate(t *testing.T) {
	Convey("Given a score submission", t, func() {
		base := model.ScoreSubmission{
			ID:          "sub-1",
			PlayerID:    "player-1",
			ScoreDelta:  500,
			Mode:        "solo",
			SubmittedAt: time.Now(),
		}

		Convey("When all fields are within bounds", func() {
			Convey("Then validation passes", func() {
				So(base.Validate(), ShouldBeNil)
			})
		})

		Convey("When the player id is blank", func() {
			sub := base
			sub.PlayerID = "   "
			err := sub.Validate()

			Convey("Then it is rejected as invalid input", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, fault.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When the score is negative", func() {
			sub := base
			sub.ScoreDelta = -1

			Convey("Then it is rejected as invalid input", func() {
				So(errors.Is(sub.Validate(), fault.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When the score exceeds the maximum", func() {
			sub := base
			sub.ScoreDelta = model.MaxScoreDelta + 1

			Convey("Then it is rejected as invalid input", func() {
				So(errors.Is(sub.Validate(), fault.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When the score sits exactly on the bounds", func() {
			low := base
			low.ScoreDelta = 0
			high := base
			high.ScoreDelta = model.MaxScoreDelta

			Convey("Then both bounds are accepted", func() {
				So(low.Validate(), ShouldBeNil)
				So(high.Validate(), ShouldBeNil)
			})
		})

		Convey("When the mode tag is too long", func() {
			sub := base
			sub.Mode = strings.Repeat("x", model.MaxModeLength+1)

			Convey("Then it is rejected as invalid input", func() {
				So(errors.Is(sub.Validate(), fault.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}

func TestFaultWrapping(t *testing.T) {
	Convey("Given a wrapped taxonomy error", t, func() {
		cause := errors.New("row missing")
		err := fault.Wrap(fault.ErrNotFound, cause)

		Convey("Then errors.Is matches the kind", func() {
			So(errors.Is(err, fault.ErrNotFound), ShouldBeTrue)
			So(errors.Is(err, fault.ErrUnavailable), ShouldBeFalse)
		})

		Convey("And the cause stays reachable", func() {
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "row missing")
		})

		Convey("And wrapping a nil cause returns the kind itself", func() {
			So(fault.Wrap(fault.ErrRateLimited, nil), ShouldEqual, fault.ErrRateLimited)
		})
	})
}
