package matchup_test

import (
	"math/rand"
	"testing"

	"github.com/okian/ranqr/internal/domain/matchup"
	"github.com/okian/ranqr/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func item(id int64, points int) *model.Item {
	return &model.Item{ID: id, CollectionID: 1, Points: points}
}

func compared(pairs ...model.Pair) []*model.Comparison {
	out := make([]*model.Comparison, len(pairs))
	for i, p := range pairs {
		out[i] = &model.Comparison{Pair: p, Outcome: model.OutcomeTie}
	}
	return out
}

func seeded() *matchup.Selector {
	return matchup.NewSelector(matchup.WithRand(rand.New(rand.NewSource(1))))
}

func TestNext(t *testing.T) {
	Convey("Given fewer than two items", t, func() {
		sel := seeded()

		Convey("When a matchup is requested", func() {
			_, ok := sel.Next([]*model.Item{item(1, 0)}, nil)

			Convey("Then there is none", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given a dominant same-score group", t, func() {
		sel := seeded()
		items := []*model.Item{item(1, 0), item(2, 0), item(3, 5)}

		Convey("When a matchup is requested", func() {
			pair, ok := sel.Next(items, nil)

			Convey("Then it comes from the largest group", func() {
				So(ok, ShouldBeTrue)
				So(pair, ShouldResemble, model.Pair{Low: 1, High: 2})
			})
		})
	})

	Convey("Given equal-size groups at mirrored scores", t, func() {
		sel := seeded()
		items := []*model.Item{item(1, 1), item(2, 1), item(3, -1), item(4, -1)}

		Convey("When a matchup is requested", func() {
			pair, ok := sel.Next(items, nil)

			Convey("Then the positive group is preferred", func() {
				So(ok, ShouldBeTrue)
				So(pair, ShouldResemble, model.Pair{Low: 1, High: 2})
			})
		})
	})

	Convey("Given uneven comparison counts inside the group", t, func() {
		sel := seeded()
		items := []*model.Item{item(1, 0), item(2, 0), item(3, 0), item(4, 5)}
		comps := compared(model.Pair{Low: 1, High: 4})

		Convey("When a matchup is requested", func() {
			pair, ok := sel.Next(items, comps)

			Convey("Then the least-compared endpoints are paired", func() {
				So(ok, ShouldBeTrue)
				So(pair, ShouldResemble, model.Pair{Low: 2, High: 3})
			})
		})
	})

	Convey("Given candidates that tie on comparison counts", t, func() {
		sel := seeded()
		items := []*model.Item{item(1, 0), item(2, 0), item(3, 0)}
		comps := compared(model.Pair{Low: 1, High: 2})

		Convey("When a matchup is requested", func() {
			pair, ok := sel.Next(items, comps)

			Convey("Then one of the tied candidates is drawn", func() {
				So(ok, ShouldBeTrue)
				So(pair, ShouldBeIn, []model.Pair{
					{Low: 1, High: 3},
					{Low: 2, High: 3},
				})
			})
		})
	})

	Convey("Given a fully compared chosen group", t, func() {
		sel := seeded()
		items := []*model.Item{item(1, 0), item(2, 0), item(3, 7)}
		comps := compared(model.Pair{Low: 1, High: 2})

		Convey("When a matchup is requested", func() {
			pair, ok := sel.Next(items, comps)

			Convey("Then the first open pair anywhere is served", func() {
				So(ok, ShouldBeTrue)
				So(pair, ShouldResemble, model.Pair{Low: 1, High: 3})
			})
		})
	})

	Convey("Given every pair already compared", t, func() {
		sel := seeded()
		items := []*model.Item{item(1, 0), item(2, 0), item(3, 7)}
		comps := compared(
			model.Pair{Low: 1, High: 2},
			model.Pair{Low: 1, High: 3},
			model.Pair{Low: 2, High: 3},
		)

		Convey("When a matchup is requested", func() {
			_, ok := sel.Next(items, comps)

			Convey("Then the collection is complete", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestDirect(t *testing.T) {
	items := []*model.Item{item(1, 0), item(2, 0), item(3, 0)}

	Convey("Given a direct matchup request", t, func() {
		Convey("When both items exist", func() {
			pair, err := matchup.Direct(items, 3, 1)

			Convey("Then the canonical pair is returned", func() {
				So(err, ShouldBeNil)
				So(pair, ShouldResemble, model.Pair{Low: 1, High: 3})
			})
		})

		Convey("When an item is missing", func() {
			_, err := matchup.Direct(items, 1, 99)

			Convey("Then it is rejected", func() {
				So(err, ShouldEqual, matchup.ErrItemNotInCollection)
			})
		})

		Convey("When the items are the same", func() {
			_, err := matchup.Direct(items, 2, 2)

			Convey("Then it is rejected", func() {
				So(err, ShouldEqual, model.ErrSelfPair)
			})
		})
	})
}
