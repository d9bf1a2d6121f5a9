package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/tracelight-dev/tracelight/internal/build"
)

// SQLiteStore persists builds and documents in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new store instance. Call Open before use.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// CreateBuild records a new build with its domains.
func (s *SQLiteStore) CreateBuild(queryCount, tableCount int, domains []string) (*Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	b := &Build{
		ID:         generateID(),
		QueryCount: queryCount,
		TableCount: tableCount,
		CreatedAt:  time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO builds (id, query_count, table_count, created_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.QueryCount, b.TableCount, b.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create build: %w", err)
	}

	for _, domain := range domains {
		_, err = tx.Exec(`INSERT INTO build_domains (build_id, domain) VALUES (?, ?)`, b.ID, domain)
		if err != nil {
			return nil, fmt.Errorf("failed to record build domain: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return b, nil
}

// GetBuild retrieves a build by ID.
func (s *SQLiteStore) GetBuild(id string) (*Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	b := &Build{}
	err := s.db.QueryRow(
		`SELECT id, query_count, table_count, created_at FROM builds WHERE id = ?`,
		id,
	).Scan(&b.ID, &b.QueryCount, &b.TableCount, &b.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("build not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}

	return b, nil
}

// LatestBuild retrieves the most recent build, or nil when none exist.
func (s *SQLiteStore) LatestBuild() (*Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	b := &Build{}
	err := s.db.QueryRow(
		`SELECT id, query_count, table_count, created_at
		 FROM builds ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&b.ID, &b.QueryCount, &b.TableCount, &b.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest build: %w", err)
	}

	return b, nil
}

// ListBuilds retrieves all builds, most recent first.
func (s *SQLiteStore) ListBuilds() ([]*Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, query_count, table_count, created_at FROM builds ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var builds []*Build
	for rows.Next() {
		b := &Build{}
		if err := rows.Scan(&b.ID, &b.QueryCount, &b.TableCount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, b)
	}

	return builds, rows.Err()
}

// ListDomains retrieves the domains recorded for a build, sorted.
func (s *SQLiteStore) ListDomains(buildID string) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT domain FROM build_domains WHERE build_id = ? ORDER BY domain`,
		buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, domain)
	}

	return domains, rows.Err()
}

// SaveDocument stores the serialized document for a build and scope,
// replacing any previous document for the same pair.
func (s *SQLiteStore) SaveDocument(buildID, scope string, doc *build.Document) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO documents (build_id, scope, data, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (build_id, scope) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`,
		buildID, scope, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	return nil
}

// GetDocument retrieves the document stored for a build and scope.
func (s *SQLiteStore) GetDocument(buildID, scope string) (*build.Document, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var data string
	err := s.db.QueryRow(
		`SELECT data FROM documents WHERE build_id = ? AND scope = ?`,
		buildID, scope,
	).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: build %s scope %s", buildID, scope)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	doc := &build.Document{}
	if err := json.Unmarshal([]byte(data), doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	return doc, nil
}
