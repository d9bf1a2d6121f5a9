package build

import (
	"fmt"
	"sort"

	"github.com/tracelight-dev/tracelight/pkg/sqlgraph"
	"github.com/tracelight-dev/tracelight/pkg/sqlgraph/layout"
)

// Sizing constants for serialized objects, in pixels.
const (
	columnWidth  = 180
	rowHeight    = 28
	childSpacing = 10
	itemMargin   = 10
	headerHeight = 32

	panelWidth   = 220
	panelHeight  = 60
	panelSpacing = 40
	panelRowY    = -160
)

// Options controls document assembly.
type Options struct {
	// PhysicalOnly drops JOIN/WHERE marker nodes and their edges,
	// keeping only tables and columns.
	PhysicalOnly bool
}

// Build assembles a Document from extracted query lineage. Tables
// referenced as sources but not produced by any query become external
// tables; table-level cycles are broken with cycle-breaker copies before
// layout.
func Build(queries []QueryLineage, opts Options) (*Document, error) {
	b := &builder{
		opts:   opts,
		tables: make(map[string]*tableEntity),
	}
	for _, q := range queries {
		if err := b.addQuery(q); err != nil {
			return nil, err
		}
	}
	b.breakCycles()
	return b.serialize(), nil
}

// tableEntity is a table being assembled, with its owned columns and
// markers.
type tableEntity struct {
	name    string
	kind    sqlgraph.NodeKind
	domain  string
	label   string
	columns []*columnEntity

	hasJoin    bool
	hasWhere   bool
	joinLabel  string
	whereLabel string
}

// columnEntity is a column owned by a table.
type columnEntity struct {
	name string
	kind sqlgraph.NodeKind
}

// edgeEntity is a column-level data-flow edge, expressed against entity
// names so cycle breaking can re-point endpoints before ids are minted.
type edgeEntity struct {
	fromTable string
	fromCol   string
	toTable   string
	toCol     string // column name, or the JOIN/WHERE marker name
}

type builder struct {
	opts   Options
	tables map[string]*tableEntity
	order  []string
	edges  []edgeEntity
}

func (b *builder) addQuery(q QueryLineage) error {
	if q.Target == "" {
		return fmt.Errorf("query with empty target table")
	}
	if existing, ok := b.tables[q.Target]; ok && existing.kind != sqlgraph.KindExternalTable {
		return fmt.Errorf("duplicate target table %q", q.Target)
	}

	t := b.ensureTable(q.Target)
	t.kind = sqlgraph.KindTable
	t.domain = q.Domain
	t.label = q.Target

	for _, col := range q.Columns {
		if col.Name == "" {
			return fmt.Errorf("table %q: column with empty name", q.Target)
		}
		kind := sqlgraph.KindTableColumn
		if col.Name == "*" {
			kind = sqlgraph.KindStarColumn
		}
		t.ensureColumn(col.Name, kind)
		for _, src := range col.Sources {
			b.addSourceEdge(src, q.Target, col.Name)
		}
	}

	if b.opts.PhysicalOnly {
		return nil
	}
	for _, join := range q.Joins {
		t.hasJoin = true
		t.joinLabel = appendCondition(t.joinLabel, join.Condition)
		for _, src := range join.Sources {
			b.addSourceEdge(src, q.Target, markerJoin)
		}
	}
	if q.Where != nil {
		t.hasWhere = true
		t.whereLabel = q.Where.Condition
		for _, src := range q.Where.Sources {
			b.addSourceEdge(src, q.Target, markerWhere)
		}
	}
	return nil
}

// markerJoin and markerWhere are the reserved marker names; real columns
// named JOIN or WHERE do not occur in extracted lineage.
const (
	markerJoin  = "JOIN"
	markerWhere = "WHERE"
)

// addSourceEdge registers the source column (creating external tables and
// missing columns as needed) and records the edge.
func (b *builder) addSourceEdge(src SourceRef, toTable, toCol string) {
	if src.Table == "" || src.Column == "" {
		return
	}
	st := b.ensureTable(src.Table)
	kind := sqlgraph.KindTableColumn
	if src.Column == "*" {
		kind = sqlgraph.KindStarColumn
	}
	st.ensureColumn(src.Column, kind)
	b.edges = append(b.edges, edgeEntity{
		fromTable: src.Table,
		fromCol:   src.Column,
		toTable:   toTable,
		toCol:     toCol,
	})
}

func (b *builder) ensureTable(name string) *tableEntity {
	if t, ok := b.tables[name]; ok {
		return t
	}
	t := &tableEntity{
		name:  name,
		kind:  sqlgraph.KindExternalTable,
		label: name,
	}
	b.tables[name] = t
	b.order = append(b.order, name)
	return t
}

func (t *tableEntity) ensureColumn(name string, kind sqlgraph.NodeKind) *columnEntity {
	for _, c := range t.columns {
		if c.name == name {
			return c
		}
	}
	c := &columnEntity{name: name, kind: kind}
	t.columns = append(t.columns, c)
	return c
}

func appendCondition(existing, cond string) string {
	if cond == "" {
		return existing
	}
	if existing == "" {
		return cond
	}
	return existing + "; " + cond
}

// Entity ids follow the <parent>__<name> convention of the wire format.

func tableID(name string) string           { return name }
func containerID(table string) string      { return table + "__columns" }
func columnID(table, column string) string { return table + "__columns__" + column }
func markerID(table, marker string) string { return table + "__" + marker }
func panelID(domain string) string         { return "domain__" + domain }

func (b *builder) edgeEndpoint(table, col string) string {
	if col == markerJoin || col == markerWhere {
		return markerID(table, col)
	}
	return columnID(table, col)
}

// serialize emits the document: tables sorted by name, laid out
// topologically, children positioned relative to their parents.
func (b *builder) serialize() *Document {
	names := append([]string(nil), b.order...)
	sort.Strings(names)

	// Table-level source relation for layout.
	sources := b.tableSources()

	layoutTables := make([]layout.Table, 0, len(names))
	for _, name := range names {
		t := b.tables[name]
		var srcs []string
		for s := range sources[name] {
			srcs = append(srcs, s)
		}
		sort.Strings(srcs)
		w, h := b.tableSize(t)
		layoutTables = append(layoutTables, layout.Table{
			ID:      name,
			Width:   w,
			Height:  h,
			Sources: srcs,
		})
	}
	positions := layout.Assign(layoutTables)

	doc := &Document{}

	domains := b.domainList()
	for i, domain := range domains {
		doc.Objects = append(doc.Objects, Object{
			ID:       panelID(domain),
			Kind:     sqlgraph.KindTextInfoPanel.String(),
			Domain:   domain,
			Label:    domain,
			Position: Position{X: float64(i) * (panelWidth + panelSpacing), Y: panelRowY},
			Width:    panelWidth,
			Height:   panelHeight,
		})
	}

	for _, name := range names {
		t := b.tables[name]
		w, h := b.tableSize(t)
		pos := positions[name]
		doc.Objects = append(doc.Objects, Object{
			ID:       tableID(name),
			Kind:     t.kind.String(),
			Domain:   t.domain,
			Label:    t.label,
			Position: Position(pos),
			Width:    w,
			Height:   h,
		})

		containerH := containerHeight(len(t.columns))
		doc.Objects = append(doc.Objects, Object{
			ID:       containerID(name),
			Kind:     sqlgraph.KindColumnContainer.String(),
			Parent:   tableID(name),
			Domain:   t.domain,
			Position: Position{X: itemMargin, Y: headerHeight},
			Width:    columnWidth + 2*itemMargin,
			Height:   containerH,
		})
		for i, c := range t.columns {
			doc.Objects = append(doc.Objects, Object{
				ID:       columnID(name, c.name),
				Kind:     c.kind.String(),
				Parent:   containerID(name),
				Domain:   t.domain,
				Label:    c.name,
				Position: Position{X: itemMargin, Y: float64(itemMargin + i*(rowHeight+childSpacing))},
				Width:    columnWidth,
				Height:   rowHeight,
			})
		}

		markerY := headerHeight + containerH + childSpacing
		if t.hasJoin {
			doc.Objects = append(doc.Objects, Object{
				ID:       markerID(name, markerJoin),
				Kind:     sqlgraph.KindJoinInfo.String(),
				Parent:   tableID(name),
				Domain:   t.domain,
				Label:    markerLabel(markerJoin, t.joinLabel),
				Position: Position{X: itemMargin, Y: float64(markerY)},
				Width:    columnWidth + 2*itemMargin,
				Height:   rowHeight,
			})
			markerY += rowHeight + childSpacing
		}
		if t.hasWhere {
			doc.Objects = append(doc.Objects, Object{
				ID:       markerID(name, markerWhere),
				Kind:     sqlgraph.KindWhereInfo.String(),
				Parent:   tableID(name),
				Domain:   t.domain,
				Label:    markerLabel(markerWhere, t.whereLabel),
				Position: Position{X: itemMargin, Y: float64(markerY)},
				Width:    columnWidth + 2*itemMargin,
				Height:   rowHeight,
			})
		}
	}

	for _, e := range b.edges {
		source := b.edgeEndpoint(e.fromTable, e.fromCol)
		target := b.edgeEndpoint(e.toTable, e.toCol)
		doc.Connections = append(doc.Connections, Connection{
			ID:     source + "-" + target,
			Source: source,
			Target: target,
		})
	}
	return doc
}

// tableSources derives the table-level dependency relation from the
// column edges: a table's sources are the tables feeding any of its
// columns or markers.
func (b *builder) tableSources() map[string]map[string]bool {
	sources := make(map[string]map[string]bool, len(b.tables))
	for _, e := range b.edges {
		if e.fromTable == e.toTable {
			continue
		}
		if sources[e.toTable] == nil {
			sources[e.toTable] = make(map[string]bool)
		}
		sources[e.toTable][e.fromTable] = true
	}
	return sources
}

func (b *builder) tableSize(t *tableEntity) (float64, float64) {
	markers := 0
	if t.hasJoin {
		markers++
	}
	if t.hasWhere {
		markers++
	}
	h := float64(headerHeight) + containerHeight(len(t.columns)) +
		float64(markers*(rowHeight+childSpacing)) + itemMargin
	w := float64(columnWidth + 4*itemMargin)
	return w, h
}

func containerHeight(columns int) float64 {
	if columns == 0 {
		return 2 * itemMargin
	}
	return float64(2*itemMargin + columns*rowHeight + (columns-1)*childSpacing)
}

func markerLabel(marker, condition string) string {
	if condition == "" {
		return marker
	}
	return marker + ": " + condition
}

// domainList returns the distinct domains of the assembled tables, sorted.
func (b *builder) domainList() []string {
	seen := make(map[string]bool)
	var domains []string
	for _, name := range b.order {
		d := b.tables[name].domain
		if d != "" && !seen[d] {
			seen[d] = true
			domains = append(domains, d)
		}
	}
	sort.Strings(domains)
	return domains
}
