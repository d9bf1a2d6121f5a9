package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelight-dev/tracelight/internal/build"
	"github.com/tracelight-dev/tracelight/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st := store.NewSQLiteStore()
	require.NoError(t, st.Open(":memory:"))
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate())
	return st
}

func seedBuild(t *testing.T, st *store.SQLiteStore) *store.Build {
	t.Helper()
	queries := []build.QueryLineage{
		{
			Target: "mart.orders",
			Domain: "sales",
			Columns: []build.ColumnLineage{
				{Name: "order_id", Sources: []build.SourceRef{{Table: "staging.orders", Column: "id"}}},
			},
			Where: &build.PredicateLineage{
				Condition: "deleted_at IS NULL",
				Sources:   []build.SourceRef{{Table: "staging.orders", Column: "deleted_at"}},
			},
		},
	}

	full, err := build.Build(queries, build.Options{})
	require.NoError(t, err)
	physical, err := build.Build(queries, build.Options{PhysicalOnly: true})
	require.NoError(t, err)

	b, err := st.CreateBuild(len(queries), full.TableCount(), full.Domains())
	require.NoError(t, err)
	require.NoError(t, st.SaveDocument(b.ID, store.ScopeFull, full))
	require.NoError(t, st.SaveDocument(b.ID, store.ScopePhysical, physical))
	return b
}

func testRouter(st *store.SQLiteStore) chi.Router {
	r := chi.NewMux()
	SetupRoutes(r, NewHandlers(st, testLogger()))
	return r
}

func doGet(t *testing.T, r chi.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doGet(t, testRouter(setupTestStore(t)), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListBuilds(t *testing.T) {
	st := setupTestStore(t)
	r := testRouter(st)

	rec := doGet(t, r, "/api/builds")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	b := seedBuild(t, st)

	rec = doGet(t, r, "/api/builds")
	assert.Equal(t, http.StatusOK, rec.Code)

	var builds []store.Build
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &builds))
	require.Len(t, builds, 1)
	assert.Equal(t, b.ID, builds[0].ID)
	assert.Equal(t, 1, builds[0].QueryCount)
}

func TestListDomains(t *testing.T) {
	st := setupTestStore(t)
	r := testRouter(st)

	rec := doGet(t, r, "/api/domains")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	b := seedBuild(t, st)

	rec = doGet(t, r, "/api/domains")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Build   string   `json:"build"`
		Domains []string `json:"domains"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, b.ID, resp.Build)
	assert.Equal(t, []string{"sales"}, resp.Domains)
}

func TestGetGraph(t *testing.T) {
	st := setupTestStore(t)
	r := testRouter(st)
	seedBuild(t, st)

	rec := doGet(t, r, "/api/graph")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc build.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.NotEmpty(t, doc.Objects)
	assert.NotEmpty(t, doc.Connections)

	ids := make(map[string]bool)
	for _, obj := range doc.Objects {
		ids[obj.ID] = true
	}
	assert.True(t, ids["mart.orders"])
	assert.True(t, ids["mart.orders__WHERE"], "full scope should carry markers")
}

func TestGetGraph_Physical(t *testing.T) {
	st := setupTestStore(t)
	r := testRouter(st)
	seedBuild(t, st)

	rec := doGet(t, r, "/api/graph?physical=true")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc build.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	for _, obj := range doc.Objects {
		assert.NotEqual(t, "WhereInfo", obj.Kind, "physical scope should not carry markers")
		assert.NotEqual(t, "JoinInfo", obj.Kind)
	}
}

func TestGetGraph_DomainFilter(t *testing.T) {
	st := setupTestStore(t)
	r := testRouter(st)
	seedBuild(t, st)

	rec := doGet(t, r, "/api/graph?domain=sales")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc build.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.NotEmpty(t, doc.Objects)
	for _, obj := range doc.Objects {
		assert.Equal(t, "sales", obj.Domain)
	}
	// External staging tables carry no domain, so cross-domain edges drop.
	kept := make(map[string]bool)
	for _, obj := range doc.Objects {
		kept[obj.ID] = true
	}
	for _, conn := range doc.Connections {
		assert.True(t, kept[conn.Source])
		assert.True(t, kept[conn.Target])
	}
}

func TestGetGraph_UnknownBuild(t *testing.T) {
	st := setupTestStore(t)
	r := testRouter(st)
	seedBuild(t, st)

	rec := doGet(t, r, "/api/graph?build=missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRebuild(t *testing.T) {
	st := setupTestStore(t)

	dir := t.TempDir()
	manifest := `domain: sales
queries:
  - target: mart.orders
    columns:
      - name: order_id
        sources:
          - table: staging.orders
            column: id
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sales.yaml"), []byte(manifest), 0o644))

	b, err := Rebuild(st, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, b.QueryCount)
	assert.Equal(t, 2, b.TableCount)

	for _, scope := range []string{store.ScopeFull, store.ScopePhysical} {
		doc, err := st.GetDocument(b.ID, scope)
		require.NoError(t, err)
		assert.NotEmpty(t, doc.Objects)
	}

	domains, err := st.ListDomains(b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"sales"}, domains)
}
