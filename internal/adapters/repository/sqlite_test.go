package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/okian/ranqr/internal/adapters/repository"
	"github.com/okian/ranqr/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func openSQLite(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	store, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()

	Convey("Given a SQLite-backed store", t, func() {
		store := openSQLite(t)
		Convey("When a collection with items and a vote is written", func() {
			coll, err := store.CreateCollection(ctx, "movies", "imdb ")
			So(err, ShouldBeNil)

			created, err := store.AddItems(ctx, coll.ID, []repository.NewItem{
				{Name: "alpha"}, {Name: "beta"},
			})
			So(err, ShouldBeNil)
			So(created, ShouldHaveLength, 2)

			pair, err := model.NewPair(created[0].ID, created[1].ID)
			So(err, ShouldBeNil)
			So(store.UpsertComparison(ctx, &model.Comparison{
				CollectionID: coll.ID,
				Pair:         pair,
				Outcome:      model.OutcomeFirst,
			}), ShouldBeNil)
			So(store.UpdatePoints(ctx, map[int64]int{
				created[0].ID: 1,
				created[1].ID: -1,
			}), ShouldBeNil)

			Convey("Then everything reads back", func() {
				got, gerr := store.Collection(ctx, coll.ID)
				So(gerr, ShouldBeNil)
				So(got.Name, ShouldEqual, "movies")

				items, ierr := store.Items(ctx, coll.ID)
				So(ierr, ShouldBeNil)
				So(items, ShouldHaveLength, 2)
				So(items[0].Points, ShouldEqual, 1)

				comps, cerr := store.Comparisons(ctx, coll.ID)
				So(cerr, ShouldBeNil)
				So(comps, ShouldHaveLength, 1)
				So(comps[0].Pair, ShouldResemble, pair)
				So(comps[0].Outcome, ShouldEqual, model.OutcomeFirst)
			})

			Convey("And re-upserting the pair replaces the outcome in place", func() {
				So(store.UpsertComparison(ctx, &model.Comparison{
					CollectionID: coll.ID,
					Pair:         pair,
					Outcome:      model.OutcomeTie,
				}), ShouldBeNil)

				comps, cerr := store.Comparisons(ctx, coll.ID)
				So(cerr, ShouldBeNil)
				So(comps, ShouldHaveLength, 1)
				So(comps[0].Outcome, ShouldEqual, model.OutcomeTie)
			})

			Convey("And a duplicate collection name conflicts", func() {
				_, derr := store.CreateCollection(ctx, "movies", "")
				So(derr, ShouldWrap, repository.ErrConflict)
			})

			Convey("And duplicate item names inside the collection are skipped", func() {
				more, merr := store.AddItems(ctx, coll.ID, []repository.NewItem{
					{Name: "alpha"}, {Name: "gamma"},
				})
				So(merr, ShouldBeNil)
				So(more, ShouldHaveLength, 1)
				So(more[0].Name, ShouldEqual, "gamma")
			})
		})
	})
}

func TestSQLiteCascade(t *testing.T) {
	ctx := context.Background()

	Convey("Given a SQLite collection with votes", t, func() {
		store := openSQLite(t)
		coll, err := store.CreateCollection(ctx, "movies", "")
		So(err, ShouldBeNil)
		created, err := store.AddItems(ctx, coll.ID, []repository.NewItem{
			{Name: "alpha"}, {Name: "beta"}, {Name: "gamma"},
		})
		So(err, ShouldBeNil)
		for _, high := range created[1:] {
			pair, perr := model.NewPair(created[0].ID, high.ID)
			So(perr, ShouldBeNil)
			So(store.UpsertComparison(ctx, &model.Comparison{
				CollectionID: coll.ID,
				Pair:         pair,
				Outcome:      model.OutcomeFirst,
			}), ShouldBeNil)
		}

		Convey("When an item is deleted", func() {
			So(store.DeleteItem(ctx, created[1].ID), ShouldBeNil)

			Convey("Then its comparisons cascade away", func() {
				comps, cerr := store.Comparisons(ctx, coll.ID)
				So(cerr, ShouldBeNil)
				So(comps, ShouldHaveLength, 1)
			})
		})

		Convey("When the collection is deleted", func() {
			So(store.DeleteCollection(ctx, coll.ID), ShouldBeNil)

			Convey("Then nothing is left behind", func() {
				_, gerr := store.Collection(ctx, coll.ID)
				So(gerr, ShouldWrap, repository.ErrNotFound)

				items, ierr := store.Items(ctx, coll.ID)
				So(ierr, ShouldBeNil)
				So(items, ShouldBeEmpty)
			})
		})
	})
}
