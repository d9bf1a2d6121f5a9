package sqlgraph

import "fmt"

// NodeKind identifies the semantic kind of a graph node.
type NodeKind int

const (
	// KindTable is a physical or virtual table produced by a query.
	KindTable NodeKind = iota
	// KindExternalTable is a table referenced by queries but not defined by any.
	KindExternalTable
	// KindCycleBreakerTable is a synthetic copy of a table inserted to break
	// a cycle in the table-level dependency graph.
	KindCycleBreakerTable
	// KindTableColumn is a named column owned by a table.
	KindTableColumn
	// KindStarColumn represents a SELECT * projection owned by a table.
	KindStarColumn
	// KindJoinInfo is a marker node carrying JOIN predicate information.
	KindJoinInfo
	// KindWhereInfo is a marker node carrying WHERE predicate information.
	KindWhereInfo
	// KindColumnContainer groups the columns of a table in the containment tree.
	KindColumnContainer
	// KindTextInfoPanel is a text-only panel, one per domain.
	KindTextInfoPanel
)

// kindNames holds the wire names, indexed by NodeKind.
var kindNames = [...]string{
	"Table",
	"ExternalTable",
	"CycleBreakerTable",
	"TableColumn",
	"StarColumn",
	"JoinInfo",
	"WhereInfo",
	"ColumnContainer",
	"TextInfoPanel",
}

// String returns the wire name of the kind.
func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind converts a wire name back into a NodeKind.
func ParseKind(s string) (NodeKind, error) {
	for i, name := range kindNames {
		if name == s {
			return NodeKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// IsTable reports whether the kind is one of the table kinds.
func (k NodeKind) IsTable() bool {
	switch k {
	case KindTable, KindExternalTable, KindCycleBreakerTable:
		return true
	default:
		return false
	}
}

// IsSelectable reports whether the kind can be the target of a
// column/marker selection.
func (k NodeKind) IsSelectable() bool {
	switch k {
	case KindTableColumn, KindStarColumn, KindJoinInfo, KindWhereInfo:
		return true
	default:
		return false
	}
}

// HighlightState classifies a node or edge for rendering after a selection.
type HighlightState int

const (
	// StateDefault is the neutral state: visible, not emphasized.
	StateDefault HighlightState = iota
	// StateHighlighted marks elements related to the current selection.
	StateHighlighted
	// StateAltHighlighted marks the selected element itself.
	StateAltHighlighted
	// StateNotHighlighted marks elements unrelated to the current selection.
	StateNotHighlighted
)

// String returns the wire name of the highlight state.
func (s HighlightState) String() string {
	switch s {
	case StateDefault:
		return "default"
	case StateHighlighted:
		return "highlighted"
	case StateAltHighlighted:
		return "alt-highlighted"
	case StateNotHighlighted:
		return "not-highlighted"
	default:
		return fmt.Sprintf("HighlightState(%d)", int(s))
	}
}
