package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/okian/ranqr/internal/adapters/http/api"
	"github.com/okian/ranqr/internal/adapters/repository"
	service "github.com/okian/ranqr/internal/app"
	"github.com/okian/ranqr/internal/domain/types"
	"github.com/okian/ranqr/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

type testAPI struct {
	mux *http.ServeMux
	svc *service.Service
}

func newTestAPI(ctx context.Context) *testAPI {
	svc := service.New(
		service.WithStore(repository.NewMemStore()),
		service.WithAuditInterval(0),
		service.WithAuditWorkerCount(1),
	)
	So(svc.Start(ctx), ShouldBeNil)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	return &testAPI{mux: mux, svc: svc}
}

func (a *testAPI) do(method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		So(json.NewEncoder(&buf).Encode(body), ShouldBeNil)
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](rec *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(rec.Body.Bytes(), &v), ShouldBeNil)
	return v
}

// seed creates a collection with three items over the API and returns
// the resulting detail.
func (a *testAPI) seed() types.CollectionDetail {
	rec := a.do(http.MethodPost, "/api/collections", map[string]any{
		"name":  "movies",
		"items": []string{"alpha", "beta", "gamma"},
	})
	So(rec.Code, ShouldEqual, http.StatusCreated)
	return decode[types.CollectionDetail](rec)
}

func TestCollectionEndpoints(t *testing.T) {
	ctx := context.Background()

	Convey("Given the API over a fresh service", t, func() {
		a := newTestAPI(ctx)
		Reset(a.svc.Stop)

		Convey("When a collection is created with initial items", func() {
			detail := a.seed()

			Convey("Then the detail response carries the items", func() {
				So(detail.Name, ShouldEqual, "movies")
				So(detail.Items, ShouldHaveLength, 3)
			})

			Convey("And the listing includes it", func() {
				rec := a.do(http.MethodGet, "/api/collections", nil)
				So(rec.Code, ShouldEqual, http.StatusOK)
				listed := decode[[]types.Collection](rec)
				So(listed, ShouldHaveLength, 1)
				So(listed[0].ItemCount, ShouldEqual, 3)
			})
		})

		Convey("When items arrive as a newline-separated block", func() {
			rec := a.do(http.MethodPost, "/api/collections", map[string]any{
				"name":  "songs",
				"items": "one\n\n  two  \nthree\n",
			})

			Convey("Then blank lines are skipped and the rest created", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				detail := decode[types.CollectionDetail](rec)
				So(detail.Items, ShouldHaveLength, 3)
				So(detail.Items[0].Name, ShouldEqual, "one")
				So(detail.Items[1].Name, ShouldEqual, "two")
			})
		})

		Convey("When the body is not JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/collections", bytes.NewBufferString("{"))
			rec := httptest.NewRecorder()
			a.mux.ServeHTTP(rec, req)

			Convey("Then the request is a 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the name is empty", func() {
			rec := a.do(http.MethodPost, "/api/collections", map[string]any{"name": "  "})

			Convey("Then the request is a 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a duplicate name is created", func() {
			a.seed()
			rec := a.do(http.MethodPost, "/api/collections", map[string]any{"name": "movies"})

			Convey("Then the request is a 409", func() {
				So(rec.Code, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When an unknown collection is fetched", func() {
			rec := a.do(http.MethodGet, "/api/collections/42", nil)

			Convey("Then the request is a 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the id is not numeric", func() {
			rec := a.do(http.MethodGet, "/api/collections/abc", nil)

			Convey("Then the request is a 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a collection is renamed via PATCH", func() {
			detail := a.seed()
			rec := a.do(http.MethodPatch, fmt.Sprintf("/api/collections/%d", detail.ID),
				map[string]any{"name": "films"})

			Convey("Then the update is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decode[types.Collection](rec).Name, ShouldEqual, "films")
			})
		})

		Convey("When a collection is deleted", func() {
			detail := a.seed()
			rec := a.do(http.MethodDelete, fmt.Sprintf("/api/collections/%d", detail.ID), nil)

			Convey("Then the status is confirmed and later reads 404", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]string](rec)["status"], ShouldEqual, "deleted")

				rec = a.do(http.MethodGet, fmt.Sprintf("/api/collections/%d", detail.ID), nil)
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestMatchupEndpoints(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded collection", t, func() {
		a := newTestAPI(ctx)
		Reset(a.svc.Stop)
		detail := a.seed()
		base := fmt.Sprintf("/api/collections/%d/matchup", detail.ID)

		Convey("When a matchup is requested", func() {
			rec := a.do(http.MethodGet, base, nil)

			Convey("Then two items are offered", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				m := decode[types.Matchup](rec)
				So(m.Item1.ID, ShouldNotEqual, 0)
				So(m.Item2.ID, ShouldNotEqual, 0)
			})
		})

		Convey("When a direct matchup is requested by query", func() {
			target := fmt.Sprintf("%s?item1=%d&item2=%d", base, detail.Items[2].ID, detail.Items[0].ID)
			rec := a.do(http.MethodGet, target, nil)

			Convey("Then the canonical pair is served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				m := decode[types.Matchup](rec)
				So(m.Item1.ID, ShouldEqual, detail.Items[0].ID)
				So(m.Item2.ID, ShouldEqual, detail.Items[2].ID)
			})
		})

		Convey("When a vote is posted", func() {
			rec := a.do(http.MethodPost, base, map[string]any{
				"item1_id": detail.Items[0].ID,
				"item2_id": detail.Items[1].ID,
				"result":   "item1",
			})

			Convey("Then the recorded vote is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				vote := decode[types.Vote](rec)
				So(vote.Result, ShouldEqual, "item1")
				So(vote.VoteDescription, ShouldEqual, "alpha > beta")
			})
		})

		Convey("When a vote names an unknown result", func() {
			rec := a.do(http.MethodPost, base, map[string]any{
				"item1_id": detail.Items[0].ID,
				"item2_id": detail.Items[1].ID,
				"result":   "draw",
			})

			Convey("Then the request is a 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When every pair has been voted on", func() {
			pairs := [][2]int{{0, 1}, {0, 2}, {1, 2}}
			for _, p := range pairs {
				rec := a.do(http.MethodPost, base, map[string]any{
					"item1_id": detail.Items[p[0]].ID,
					"item2_id": detail.Items[p[1]].ID,
					"result":   "tie",
				})
				So(rec.Code, ShouldEqual, http.StatusOK)
			}
			rec := a.do(http.MethodGet, base, nil)

			Convey("Then the matchup endpoint reports completion", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]string](rec)["message"], ShouldEqual, "completed")
			})
		})
	})
}

func TestItemEndpoints(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded collection", t, func() {
		a := newTestAPI(ctx)
		Reset(a.svc.Stop)
		detail := a.seed()
		alpha := detail.Items[0]

		Convey("When more items are added", func() {
			rec := a.do(http.MethodPost, fmt.Sprintf("/api/collections/%d/items", detail.ID),
				map[string]any{"items": []string{"delta"}, "media_links": []string{"dQw4w9WgXcQ"}})

			Convey("Then the created items come back with normalized links", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				created := decode[[]types.Item](rec)
				So(created, ShouldHaveLength, 1)
				So(created[0].MediaLink, ShouldEqual, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
			})
		})

		Convey("When items are added as a newline-separated block", func() {
			rec := a.do(http.MethodPost, fmt.Sprintf("/api/collections/%d/items", detail.ID),
				map[string]any{"items": "delta\n\nepsilon\n"})

			Convey("Then blank lines are skipped and the rest created", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				created := decode[[]types.Item](rec)
				So(created, ShouldHaveLength, 2)
				So(created[0].Name, ShouldEqual, "delta")
				So(created[1].Name, ShouldEqual, "epsilon")
			})
		})

		Convey("When an item is fetched and updated", func() {
			rec := a.do(http.MethodGet, fmt.Sprintf("/api/items/%d", alpha.ID), nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode[types.Item](rec).Name, ShouldEqual, "alpha")

			rec = a.do(http.MethodPatch, fmt.Sprintf("/api/items/%d", alpha.ID),
				map[string]any{"name": "alpha prime"})

			Convey("Then the rename is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decode[types.Item](rec).Name, ShouldEqual, "alpha prime")
			})
		})

		Convey("When an item's votes are read and reset", func() {
			vote := a.do(http.MethodPost, fmt.Sprintf("/api/collections/%d/matchup", detail.ID),
				map[string]any{"item1_id": alpha.ID, "item2_id": detail.Items[1].ID, "result": "item1"})
			So(vote.Code, ShouldEqual, http.StatusOK)

			rec := a.do(http.MethodGet, fmt.Sprintf("/api/items/%d/votes", alpha.ID), nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode[[]types.Vote](rec), ShouldHaveLength, 1)

			rec = a.do(http.MethodDelete, fmt.Sprintf("/api/items/%d/votes", alpha.ID), nil)

			Convey("Then the reset reports the removed count", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]int](rec)["comparisons_reset"], ShouldEqual, 1)
			})
		})

		Convey("When an item is deleted twice", func() {
			rec := a.do(http.MethodDelete, fmt.Sprintf("/api/items/%d", alpha.ID), nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			rec = a.do(http.MethodDelete, fmt.Sprintf("/api/items/%d", alpha.ID), nil)

			Convey("Then the second delete is a 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestAnalysisEndpoints(t *testing.T) {
	ctx := context.Background()

	Convey("Given a collection whose votes cycle", t, func() {
		a := newTestAPI(ctx)
		Reset(a.svc.Stop)
		detail := a.seed()
		voteBase := fmt.Sprintf("/api/collections/%d/matchup", detail.ID)
		for _, v := range []struct {
			i, j   int
			result string
		}{
			{0, 1, "item1"},
			{1, 2, "item1"},
			{0, 2, "item2"},
		} {
			rec := a.do(http.MethodPost, voteBase, map[string]any{
				"item1_id": detail.Items[v.i].ID,
				"item2_id": detail.Items[v.j].ID,
				"result":   v.result,
			})
			So(rec.Code, ShouldEqual, http.StatusOK)
		}

		Convey("When triangles are listed", func() {
			rec := a.do(http.MethodGet, fmt.Sprintf("/api/collections/%d/triangles", detail.ID), nil)

			Convey("Then the cycle is reported", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decode[[]types.Triangle](rec), ShouldHaveLength, 1)
			})
		})

		Convey("When resolutions are listed", func() {
			rec := a.do(http.MethodGet, fmt.Sprintf("/api/collections/%d/triangles/%d/%d/%d/options",
				detail.ID, detail.Items[0].ID, detail.Items[1].ID, detail.Items[2].ID), nil)

			Convey("Then six options come back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decode[[]types.TriangleOption](rec), ShouldHaveLength, 6)
			})
		})

		Convey("When the triangle is resolved", func() {
			rec := a.do(http.MethodPost, fmt.Sprintf("/api/collections/%d/triangles/resolve", detail.ID),
				map[string]any{
					"item_a_id": detail.Items[0].ID,
					"item_b_id": detail.Items[1].ID,
					"item_c_id": detail.Items[2].ID,
					"resolution": map[string]int{
						"item_a_order": 1,
						"item_b_order": 2,
						"item_c_order": 3,
					},
				})

			Convey("Then the resolution status and changes are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				body := rec.Body.String()
				So(body, ShouldContainSubstring, `"status":"resolved"`)
				So(body, ShouldContainSubstring, `"changes"`)
			})
		})

		Convey("When an invalid resolution is posted", func() {
			rec := a.do(http.MethodPost, fmt.Sprintf("/api/collections/%d/triangles/resolve", detail.ID),
				map[string]any{
					"item_a_id": detail.Items[0].ID,
					"item_b_id": detail.Items[1].ID,
					"item_c_id": detail.Items[2].ID,
					"resolution": map[string]int{
						"item_a_order": 1,
						"item_b_order": 1,
						"item_c_order": 3,
					},
				})

			Convey("Then the request is a 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the score distribution is requested", func() {
			rec := a.do(http.MethodGet,
				fmt.Sprintf("/api/collections/%d/score-distribution", detail.ID), nil)

			Convey("Then the point histogram comes back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				dist := decode[types.ScoreDistribution](rec)
				So(dist.Distribution, ShouldHaveLength, 1)
				So(dist.Distribution[0].Score, ShouldEqual, 0)
				So(dist.Distribution[0].Count, ShouldEqual, 3)
			})
		})

		Convey("When the path parameter is malformed", func() {
			rec := a.do(http.MethodGet,
				fmt.Sprintf("/api/collections/%d/score-distribution?path=x", detail.ID), nil)

			Convey("Then the request is a 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When controversial votes are requested", func() {
			rec := a.do(http.MethodGet,
				fmt.Sprintf("/api/collections/%d/controversial-votes", detail.ID), nil)

			Convey("Then a report comes back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				report := decode[types.ControversyReport](rec)
				So(report.TopVotes, ShouldNotBeNil)
			})
		})
	})
}

func TestExportImportEndpoints(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded collection with a vote", t, func() {
		a := newTestAPI(ctx)
		Reset(a.svc.Stop)
		detail := a.seed()
		rec := a.do(http.MethodPost, fmt.Sprintf("/api/collections/%d/matchup", detail.ID),
			map[string]any{"item1_id": detail.Items[0].ID, "item2_id": detail.Items[1].ID, "result": "item1"})
		So(rec.Code, ShouldEqual, http.StatusOK)

		Convey("When the collection is exported and re-imported", func() {
			rec := a.do(http.MethodGet, fmt.Sprintf("/api/collections/%d/export", detail.ID), nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			exp := decode[types.Export](rec)
			exp.Name = "movies-restored"

			rec = a.do(http.MethodPost, "/api/collections/import", exp)

			Convey("Then the imported detail matches", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				imported := decode[types.CollectionDetail](rec)
				So(imported.Name, ShouldEqual, "movies-restored")
				So(imported.Items, ShouldHaveLength, 3)
				So(imported.ComparisonCount, ShouldEqual, 1)
			})
		})

		Convey("When an unsupported envelope is imported", func() {
			rec := a.do(http.MethodPost, "/api/collections/import",
				types.Export{Version: 99, Name: "broken"})

			Convey("Then the request is a 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	ctx := context.Background()

	Convey("Given the API", t, func() {
		a := newTestAPI(ctx)
		Reset(a.svc.Stop)

		Convey("When the health endpoint is hit", func() {
			rec := a.do(http.MethodGet, "/healthz", nil)

			Convey("Then it responds OK", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When stats are requested", func() {
			rec := a.do(http.MethodGet, "/stats", nil)

			Convey("Then the service state is visible", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "started")
			})
		})
	})
}
