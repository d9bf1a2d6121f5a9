package sqlgraph

import "fmt"

// MalformedGraphError is returned by Load when the node/edge lists do not
// describe a well-formed graph. It is fatal to that load attempt; no graph
// is produced.
type MalformedGraphError struct {
	// ID is the node or edge identifier the problem was detected at.
	ID string
	// Reason describes what is wrong.
	Reason string
}

func (e *MalformedGraphError) Error() string {
	return fmt.Sprintf("malformed graph at %q: %s", e.ID, e.Reason)
}

// InvalidSelectionError is returned when a selection targets a node that
// does not exist or whose kind is not selectable for that operation.
// The highlight state prior to the call is left untouched.
type InvalidSelectionError struct {
	// ID is the requested node identifier.
	ID string
	// Reason describes why the selection was rejected.
	Reason string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("invalid selection %q: %s", e.ID, e.Reason)
}
