// Package store persists lineage builds and their rendered documents in
// SQLite. Each build is a snapshot of the lineage manifests at one point
// in time, with one serialized document per scope.
package store

import "time"

// Document scopes. The full scope includes JOIN/WHERE markers, the
// physical scope carries tables and columns only.
const (
	ScopeFull     = "full"
	ScopePhysical = "physical"
)

// Build is one recorded lineage build.
type Build struct {
	ID         string    `json:"id"`
	QueryCount int       `json:"query_count"`
	TableCount int       `json:"table_count"`
	CreatedAt  time.Time `json:"created_at"`
}
