// Package sqlgraph implements the column-level lineage graph model: an
// immutable structural graph of tables, columns and predicate markers
// connected by data-flow edges, plus the highlight/traversal engine that
// classifies every node and edge in response to a selection.
//
// The structural graph is stored arena-style: nodes and edges live in flat
// slices, parent and endpoint references are integer indices, and a string
// index maps external ids to slots. Highlight state is never stored on the
// graph itself; each selection computes a fresh Assignment overlay.
package sqlgraph

// NodeSpec describes one node of the wire format consumed by Load.
type NodeSpec struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Parent string `json:"parent,omitempty"`
	Domain string `json:"domain,omitempty"`
	Label  string `json:"label,omitempty"`
}

// EdgeSpec describes one directed data-flow edge: Source feeds Target.
type EdgeSpec struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// node is the arena representation of a NodeSpec. parent is -1 for roots.
type node struct {
	id     string
	kind   NodeKind
	parent int
	domain string
	label  string

	children []int // containment children, by node index
	in       []int // incoming edge indices (edges targeting this node)
	out      []int // outgoing edge indices (edges sourced at this node)
}

// edge is the arena representation of an EdgeSpec.
type edge struct {
	source int
	target int
}

// Graph is a frozen structural lineage graph. All methods are read-only;
// a Graph is safe to share once loaded.
type Graph struct {
	nodes []node
	edges []edge
	index map[string]int
}

// Load validates the node and edge descriptors and constructs a Graph.
// It fails with *MalformedGraphError if an id is duplicated, an edge or
// parent reference points at an unknown node, the containment tree has a
// cycle, or a column/marker parent chain does not terminate at a table.
func Load(nodes []NodeSpec, edges []EdgeSpec) (*Graph, error) {
	g := &Graph{
		nodes: make([]node, 0, len(nodes)),
		edges: make([]edge, 0, len(edges)),
		index: make(map[string]int, len(nodes)),
	}

	for _, spec := range nodes {
		if spec.ID == "" {
			return nil, &MalformedGraphError{ID: spec.ID, Reason: "empty node id"}
		}
		if _, exists := g.index[spec.ID]; exists {
			return nil, &MalformedGraphError{ID: spec.ID, Reason: "duplicate node id"}
		}
		kind, err := ParseKind(spec.Kind)
		if err != nil {
			return nil, &MalformedGraphError{ID: spec.ID, Reason: err.Error()}
		}
		g.index[spec.ID] = len(g.nodes)
		g.nodes = append(g.nodes, node{
			id:     spec.ID,
			kind:   kind,
			parent: -1,
			domain: spec.Domain,
			label:  spec.Label,
		})
	}

	// Resolve parent references after all nodes are indexed.
	for i, spec := range nodes {
		if spec.Parent == "" {
			continue
		}
		pi, ok := g.index[spec.Parent]
		if !ok {
			return nil, &MalformedGraphError{ID: spec.ID, Reason: "parent references unknown node " + spec.Parent}
		}
		g.nodes[i].parent = pi
		g.nodes[pi].children = append(g.nodes[pi].children, i)
	}

	if err := g.validateContainment(); err != nil {
		return nil, err
	}

	for _, spec := range edges {
		si, ok := g.index[spec.Source]
		if !ok {
			return nil, &MalformedGraphError{
				ID:     edgeID(spec.Source, spec.Target),
				Reason: "edge source references unknown node " + spec.Source,
			}
		}
		ti, ok := g.index[spec.Target]
		if !ok {
			return nil, &MalformedGraphError{
				ID:     edgeID(spec.Source, spec.Target),
				Reason: "edge target references unknown node " + spec.Target,
			}
		}
		ei := len(g.edges)
		g.edges = append(g.edges, edge{source: si, target: ti})
		g.nodes[si].out = append(g.nodes[si].out, ei)
		g.nodes[ti].in = append(g.nodes[ti].in, ei)
	}

	return g, nil
}

// validateContainment walks every parent chain, rejecting cycles and
// column/marker/container chains that do not end at a table node.
func (g *Graph) validateContainment() error {
	for i := range g.nodes {
		seen := map[int]bool{i: true}
		curr := i
		for g.nodes[curr].parent >= 0 {
			curr = g.nodes[curr].parent
			if seen[curr] {
				return &MalformedGraphError{ID: g.nodes[i].id, Reason: "containment cycle via parent references"}
			}
			seen[curr] = true
		}

		kind := g.nodes[i].kind
		needsTableRoot := kind.IsSelectable() || kind == KindColumnContainer
		if needsTableRoot && !g.nodes[curr].kind.IsTable() {
			return &MalformedGraphError{
				ID:     g.nodes[i].id,
				Reason: "parent chain does not terminate at a table node",
			}
		}
	}
	return nil
}

// owner returns the index of the table that owns node i: the first table
// kind on the parent chain, or i itself if it is a table. Returns -1 for
// nodes with no owning table (e.g. domain panels).
func (g *Graph) owner(i int) int {
	for curr := i; curr >= 0; curr = g.nodes[curr].parent {
		if g.nodes[curr].kind.IsTable() {
			return curr
		}
	}
	return -1
}

// edgeID derives the stable edge identifier used in assignments and on
// the wire.
func edgeID(source, target string) string {
	return source + "-" + target
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node returns the descriptor of the node with the given id.
func (g *Graph) Node(id string) (NodeSpec, bool) {
	i, ok := g.index[id]
	if !ok {
		return NodeSpec{}, false
	}
	return g.spec(i), true
}

// Nodes returns descriptors for every node, in load order.
func (g *Graph) Nodes() []NodeSpec {
	specs := make([]NodeSpec, len(g.nodes))
	for i := range g.nodes {
		specs[i] = g.spec(i)
	}
	return specs
}

// Edges returns descriptors for every edge, in load order.
func (g *Graph) Edges() []EdgeSpec {
	specs := make([]EdgeSpec, len(g.edges))
	for i, e := range g.edges {
		specs[i] = EdgeSpec{Source: g.nodes[e.source].id, Target: g.nodes[e.target].id}
	}
	return specs
}

// Owner returns the id of the table owning the given node. A table owns
// itself. The second result is false if the node is unknown or has no
// owning table.
func (g *Graph) Owner(id string) (string, bool) {
	i, ok := g.index[id]
	if !ok {
		return "", false
	}
	o := g.owner(i)
	if o < 0 {
		return "", false
	}
	return g.nodes[o].id, true
}

func (g *Graph) spec(i int) NodeSpec {
	n := g.nodes[i]
	parent := ""
	if n.parent >= 0 {
		parent = g.nodes[n.parent].id
	}
	return NodeSpec{
		ID:     n.id,
		Kind:   n.kind.String(),
		Parent: parent,
		Domain: n.domain,
		Label:  n.label,
	}
}
