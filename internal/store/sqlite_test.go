package store

import (
	"path/filepath"
	"testing"

	"github.com/tracelight-dev/tracelight/internal/build"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore()
	if err := s.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return s
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	s := NewSQLiteStore()
	if err := s.Open(filepath.Join(t.TempDir(), "state.db")); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestSQLiteStore_Migrate(t *testing.T) {
	s := setupTestStore(t)

	version, err := s.MigrationVersion()
	if err != nil {
		t.Fatalf("failed to get migration version: %v", err)
	}
	if version < 1 {
		t.Errorf("expected migration version >= 1, got %d", version)
	}

	for _, table := range []string{"builds", "build_domains", "documents"} {
		rows, err := s.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
		} else {
			rows.Close()
		}
	}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	s := NewSQLiteStore()
	if _, err := s.CreateBuild(0, 0, nil); err == nil {
		t.Error("expected error for unopened store")
	}
	if _, err := s.LatestBuild(); err == nil {
		t.Error("expected error for unopened store")
	}
}

func TestSQLiteStore_BuildLifecycle(t *testing.T) {
	s := setupTestStore(t)

	b, err := s.CreateBuild(3, 7, []string{"sales", "finance"})
	if err != nil {
		t.Fatalf("failed to create build: %v", err)
	}
	if b.ID == "" {
		t.Fatal("expected a generated build id")
	}

	got, err := s.GetBuild(b.ID)
	if err != nil {
		t.Fatalf("failed to get build: %v", err)
	}
	if got.QueryCount != 3 || got.TableCount != 7 {
		t.Errorf("unexpected build counts: %+v", got)
	}

	domains, err := s.ListDomains(b.ID)
	if err != nil {
		t.Fatalf("failed to list domains: %v", err)
	}
	if len(domains) != 2 || domains[0] != "finance" || domains[1] != "sales" {
		t.Errorf("expected sorted domains [finance sales], got %v", domains)
	}
}

func TestSQLiteStore_GetBuild_NotFound(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.GetBuild("missing"); err == nil {
		t.Error("expected error for missing build")
	}
}

func TestSQLiteStore_LatestBuild(t *testing.T) {
	s := setupTestStore(t)

	latest, err := s.LatestBuild()
	if err != nil {
		t.Fatalf("LatestBuild failed: %v", err)
	}
	if latest != nil {
		t.Errorf("expected nil for empty store, got %+v", latest)
	}

	first, err := s.CreateBuild(1, 1, nil)
	if err != nil {
		t.Fatalf("failed to create build: %v", err)
	}
	second, err := s.CreateBuild(2, 2, nil)
	if err != nil {
		t.Fatalf("failed to create build: %v", err)
	}

	latest, err = s.LatestBuild()
	if err != nil {
		t.Fatalf("LatestBuild failed: %v", err)
	}
	if latest == nil {
		t.Fatal("expected a latest build")
	}
	if latest.ID != second.ID && latest.ID != first.ID {
		t.Errorf("latest build is neither recorded build: %+v", latest)
	}

	builds, err := s.ListBuilds()
	if err != nil {
		t.Fatalf("ListBuilds failed: %v", err)
	}
	if len(builds) != 2 {
		t.Errorf("expected 2 builds, got %d", len(builds))
	}
}

func TestSQLiteStore_Documents(t *testing.T) {
	s := setupTestStore(t)

	b, err := s.CreateBuild(1, 2, []string{"sales"})
	if err != nil {
		t.Fatalf("failed to create build: %v", err)
	}

	doc := &build.Document{
		Objects: []build.Object{
			{ID: "t", Kind: "Table", Domain: "sales", Label: "t"},
			{ID: "t__columns", Kind: "ColumnContainer", Parent: "t", Domain: "sales"},
		},
	}
	if err := s.SaveDocument(b.ID, ScopeFull, doc); err != nil {
		t.Fatalf("failed to save document: %v", err)
	}

	got, err := s.GetDocument(b.ID, ScopeFull)
	if err != nil {
		t.Fatalf("failed to get document: %v", err)
	}
	if len(got.Objects) != 2 || got.Objects[0].ID != "t" {
		t.Errorf("unexpected document: %+v", got)
	}

	// Saving again replaces the stored document.
	doc.Objects = doc.Objects[:1]
	if err := s.SaveDocument(b.ID, ScopeFull, doc); err != nil {
		t.Fatalf("failed to replace document: %v", err)
	}
	got, err = s.GetDocument(b.ID, ScopeFull)
	if err != nil {
		t.Fatalf("failed to get replaced document: %v", err)
	}
	if len(got.Objects) != 1 {
		t.Errorf("expected replaced document with 1 object, got %d", len(got.Objects))
	}

	if _, err := s.GetDocument(b.ID, ScopePhysical); err == nil {
		t.Error("expected error for missing scope")
	}
}
