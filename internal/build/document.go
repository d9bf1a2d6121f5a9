// Package build assembles column-level lineage documents from extracted
// per-query lineage descriptors. The SQL-to-lineage extraction itself is
// an external concern; this package turns its output into the node/edge
// document consumed by the graph model and the visualization front end.
package build

import (
	"sort"

	"github.com/tracelight-dev/tracelight/pkg/sqlgraph"
)

// SourceRef names a source column feeding a column or predicate.
type SourceRef struct {
	Table  string `yaml:"table" json:"table"`
	Column string `yaml:"column" json:"column"`
}

// ColumnLineage describes one output column of a query and its sources.
// A Name of "*" marks a star projection.
type ColumnLineage struct {
	Name    string      `yaml:"name" json:"name"`
	Sources []SourceRef `yaml:"sources" json:"sources"`
}

// PredicateLineage describes a JOIN or WHERE predicate and the columns it
// reads.
type PredicateLineage struct {
	Condition string      `yaml:"condition" json:"condition"`
	Sources   []SourceRef `yaml:"sources" json:"sources"`
}

// QueryLineage is the extracted lineage of a single query: the table it
// produces, the domain it belongs to, and the columns and predicates it
// evaluates.
type QueryLineage struct {
	Target  string             `yaml:"target" json:"target"`
	Domain  string             `yaml:"domain,omitempty" json:"domain,omitempty"`
	Columns []ColumnLineage    `yaml:"columns" json:"columns"`
	Joins   []PredicateLineage `yaml:"joins,omitempty" json:"joins,omitempty"`
	Where   *PredicateLineage  `yaml:"where,omitempty" json:"where,omitempty"`
}

// Position is a canvas coordinate. Child object positions are relative to
// their parent, following the front end's nesting convention.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Object is one serialized graph node.
type Object struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Parent   string   `json:"parent,omitempty"`
	Domain   string   `json:"domain,omitempty"`
	Label    string   `json:"label,omitempty"`
	Position Position `json:"position"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
}

// Connection is one serialized data-flow edge.
type Connection struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Document is the wire form served to the visualizer and persisted per
// build: a flat object list plus directed connections.
type Document struct {
	Objects     []Object     `json:"objects"`
	Connections []Connection `json:"connections"`
}

// Graph loads the document into the traversal model.
func (d *Document) Graph() (*sqlgraph.Graph, error) {
	nodes := make([]sqlgraph.NodeSpec, len(d.Objects))
	for i, obj := range d.Objects {
		nodes[i] = sqlgraph.NodeSpec{
			ID:     obj.ID,
			Kind:   obj.Kind,
			Parent: obj.Parent,
			Domain: obj.Domain,
			Label:  obj.Label,
		}
	}
	edges := make([]sqlgraph.EdgeSpec, len(d.Connections))
	for i, conn := range d.Connections {
		edges[i] = sqlgraph.EdgeSpec{Source: conn.Source, Target: conn.Target}
	}
	return sqlgraph.Load(nodes, edges)
}

// TableCount returns the number of table-kind objects in the document.
func (d *Document) TableCount() int {
	count := 0
	for _, obj := range d.Objects {
		if kind, err := sqlgraph.ParseKind(obj.Kind); err == nil && kind.IsTable() {
			count++
		}
	}
	return count
}

// Domains returns the sorted set of domain labels present in the document.
func (d *Document) Domains() []string {
	seen := make(map[string]bool)
	var domains []string
	for _, obj := range d.Objects {
		if obj.Domain != "" && !seen[obj.Domain] {
			seen[obj.Domain] = true
			domains = append(domains, obj.Domain)
		}
	}
	sort.Strings(domains)
	return domains
}
