package sqlgraph

// Assignment is the highlight overlay produced by a selection: one state
// per node id and per edge id. Every operation replaces the overlay
// wholesale; no history is retained.
type Assignment struct {
	Nodes map[string]HighlightState
	Edges map[string]HighlightState
}

// newAssignment allocates an overlay with every element set to the given
// state.
func (g *Graph) newAssignment(state HighlightState) *Assignment {
	a := &Assignment{
		Nodes: make(map[string]HighlightState, len(g.nodes)),
		Edges: make(map[string]HighlightState, len(g.edges)),
	}
	for i := range g.nodes {
		a.Nodes[g.nodes[i].id] = state
	}
	for _, e := range g.edges {
		a.Edges[edgeID(g.nodes[e.source].id, g.nodes[e.target].id)] = state
	}
	return a
}

// ResetHighlights returns an overlay with every node and edge at the
// Default state. It never fails and is idempotent.
func (g *Graph) ResetHighlights() *Assignment {
	return g.newAssignment(StateDefault)
}

// direction selects which way a traversal follows edges.
type direction int

const (
	upstream   direction = iota // target to source: ancestors
	downstream                  // source to target: descendants
)

// reach computes the set of node indices reachable from start by a
// breadth-first walk in the given direction. The start node is a member
// of its own set. The visited set guarantees termination and a single
// visit per node even when the data-flow graph contains cycles.
func (g *Graph) reach(start int, dir direction) map[int]bool {
	visited := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		var edgeIdxs []int
		if dir == upstream {
			edgeIdxs = g.nodes[curr].in
		} else {
			edgeIdxs = g.nodes[curr].out
		}
		for _, ei := range edgeIdxs {
			next := g.edges[ei].source
			if dir == downstream {
				next = g.edges[ei].target
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return visited
}

// SelectColumnOrMarker highlights the full lineage of a column or
// predicate marker node. The selected node becomes AltHighlighted, every
// ancestor and descendant Highlighted, and an edge is Highlighted only if
// both endpoints lie on the ancestor side or both on the descendant side
// of the selection. Everything else is NotHighlighted.
func (g *Graph) SelectColumnOrMarker(id string) (*Assignment, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, &InvalidSelectionError{ID: id, Reason: "unknown node"}
	}
	if !g.nodes[i].kind.IsSelectable() {
		return nil, &InvalidSelectionError{
			ID:     id,
			Reason: "node kind " + g.nodes[i].kind.String() + " is not a column or marker",
		}
	}

	ancestors := g.reach(i, upstream)
	descendants := g.reach(i, downstream)

	a := g.newAssignment(StateNotHighlighted)
	for ni := range ancestors {
		a.Nodes[g.nodes[ni].id] = StateHighlighted
	}
	for ni := range descendants {
		a.Nodes[g.nodes[ni].id] = StateHighlighted
	}
	a.Nodes[id] = StateAltHighlighted

	for _, e := range g.edges {
		onAncestorPath := ancestors[e.source] && ancestors[e.target]
		onDescendantPath := descendants[e.source] && descendants[e.target]
		if onAncestorPath || onDescendantPath {
			a.Edges[edgeID(g.nodes[e.source].id, g.nodes[e.target].id)] = StateHighlighted
		}
	}
	return a, nil
}

// SelectTable highlights a table and keeps every related table visible.
// A table is related if any column or marker contained in the selected
// table reaches (in either direction) a node owned by it; the selected
// table is always related to itself. Related tables and their contents
// stay Default, the selected table is Highlighted, everything else is
// NotHighlighted.
func (g *Graph) SelectTable(id string) (*Assignment, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, &InvalidSelectionError{ID: id, Reason: "unknown node"}
	}
	if !g.nodes[i].kind.IsTable() {
		return nil, &InvalidSelectionError{
			ID:     id,
			Reason: "node kind " + g.nodes[i].kind.String() + " is not a table",
		}
	}

	related := map[int]bool{i: true}
	for _, ci := range g.containedIn(i) {
		if !g.nodes[ci].kind.IsSelectable() {
			continue
		}
		for ni := range g.reach(ci, upstream) {
			if o := g.owner(ni); o >= 0 {
				related[o] = true
			}
		}
		for ni := range g.reach(ci, downstream) {
			if o := g.owner(ni); o >= 0 {
				related[o] = true
			}
		}
	}

	a := g.newAssignment(StateNotHighlighted)
	for ni := range g.nodes {
		if o := g.owner(ni); o >= 0 && related[o] {
			a.Nodes[g.nodes[ni].id] = StateDefault
		}
	}
	a.Nodes[id] = StateHighlighted

	for _, e := range g.edges {
		so := g.owner(e.source)
		to := g.owner(e.target)
		if so >= 0 && to >= 0 && related[so] && related[to] {
			a.Edges[edgeID(g.nodes[e.source].id, g.nodes[e.target].id)] = StateDefault
		}
	}
	return a, nil
}

// containedIn returns the indices of all containment descendants of node
// i, not including i itself.
func (g *Graph) containedIn(i int) []int {
	var result []int
	queue := append([]int(nil), g.nodes[i].children...)
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		result = append(result, curr)
		queue = append(queue, g.nodes[curr].children...)
	}
	return result
}

// SelectDomainPanel highlights the text panel of a domain and keeps the
// rest of that domain visible. It is total: unknown domains simply yield
// an all-NotHighlighted overlay.
func (g *Graph) SelectDomainPanel(domain string) *Assignment {
	a := g.newAssignment(StateNotHighlighted)
	for i := range g.nodes {
		if g.nodes[i].domain != domain {
			continue
		}
		if g.nodes[i].kind == KindTextInfoPanel {
			a.Nodes[g.nodes[i].id] = StateHighlighted
		} else {
			a.Nodes[g.nodes[i].id] = StateDefault
		}
	}
	for _, e := range g.edges {
		if g.nodes[e.source].domain == domain && g.nodes[e.target].domain == domain {
			a.Edges[edgeID(g.nodes[e.source].id, g.nodes[e.target].id)] = StateDefault
		}
	}
	return a
}

// Ancestors returns the ids of every node reachable from id by following
// edges target to source, including id itself.
func (g *Graph) Ancestors(id string) ([]string, error) {
	return g.reachIDs(id, upstream)
}

// Descendants returns the ids of every node reachable from id by
// following edges source to target, including id itself.
func (g *Graph) Descendants(id string) ([]string, error) {
	return g.reachIDs(id, downstream)
}

func (g *Graph) reachIDs(id string, dir direction) ([]string, error) {
	i, ok := g.index[id]
	if !ok {
		return nil, &InvalidSelectionError{ID: id, Reason: "unknown node"}
	}
	set := g.reach(i, dir)
	ids := make([]string, 0, len(set))
	for ni := range set {
		ids = append(ids, g.nodes[ni].id)
	}
	return ids, nil
}
