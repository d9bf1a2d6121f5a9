package build

import (
	"sort"

	"github.com/tracelight-dev/tracelight/pkg/sqlgraph"
)

// breakCycles removes table-level cycles from the assembled graph by
// inserting cycle-breaker tables: for a dependency edge src -> dst that
// closes a cycle, dst is re-pointed at a synthetic copy of src that has
// no sources of its own. Repeats until the table relation is acyclic.
func (b *builder) breakCycles() {
	// Each insertion removes one table-level dependency edge, so the
	// number of iterations is bounded by the edge count.
	for guard := 0; guard <= len(b.edges); guard++ {
		src, dst, found := b.findCycleEdge()
		if !found {
			return
		}
		b.insertBreaker(src, dst)
	}
}

// findCycleEdge looks for a dependency edge that completes a cycle.
// Tables are scanned in name order so the choice is deterministic: the
// returned pair (src, dst) means dst depends on src and src reaches dst
// through the source relation.
func (b *builder) findCycleEdge() (string, string, bool) {
	sources := b.tableSources()

	names := append([]string(nil), b.order...)
	sort.Strings(names)

	for _, start := range names {
		visited := map[string]bool{start: true}
		stack := []string{start}
		for len(stack) > 0 {
			curr := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if sources[curr][start] {
				return start, curr, true
			}
			var next []string
			for s := range sources[curr] {
				if !visited[s] {
					visited[s] = true
					next = append(next, s)
				}
			}
			sort.Strings(next)
			stack = append(stack, next...)
		}
	}
	return "", "", false
}

// insertBreaker creates the cycle-breaker copy of src for dst and
// re-points every edge from src into dst at the copy.
func (b *builder) insertBreaker(src, dst string) {
	name := src + "__copy_for__" + dst + "_"
	if _, exists := b.tables[name]; exists {
		return
	}

	breaker := b.ensureTable(name)
	breaker.kind = sqlgraph.KindCycleBreakerTable
	breaker.label = src + " (Copy)"
	breaker.domain = b.tables[dst].domain

	srcTable := b.tables[src]
	for i := range b.edges {
		e := &b.edges[i]
		if e.fromTable != src || e.toTable != dst {
			continue
		}
		kind := sqlgraph.KindTableColumn
		for _, c := range srcTable.columns {
			if c.name == e.fromCol {
				kind = c.kind
				break
			}
		}
		breaker.ensureColumn(e.fromCol, kind)
		e.fromTable = name
	}
}
