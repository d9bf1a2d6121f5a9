package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tracelight-dev/tracelight/internal/store"
	"github.com/tracelight-dev/tracelight/pkg/sqlgraph"
)

// TraceOptions holds options for the trace command.
type TraceOptions struct {
	Build        string
	Physical     bool
	OutputFormat string
}

// NewTraceCommand creates the trace command.
func NewTraceCommand() *cobra.Command {
	opts := &TraceOptions{}

	cmd := &cobra.Command{
		Use:   "trace <node-id>",
		Short: "Trace the lineage of a column, marker or table",
		Long: `Compute the highlight assignment for a selection and print every node
it touches.

Selecting a column or predicate marker traces its full lineage: the
selected node, all upstream sources and all downstream consumers.
Selecting a table shows the tables it exchanges data with.`,
		Example: `  # Trace a column through the graph
  tracelight trace mart.orders__columns__order_id

  # Trace a table's related tables
  tracelight trace mart.orders

  # Trace against the physical-only scope
  tracelight trace mart.orders --physical

  # Output as JSON
  tracelight trace mart.orders__columns__order_id --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Build, "build", "", "Build ID (default: latest)")
	cmd.Flags().BoolVar(&opts.Physical, "physical", false, "Trace against the physical-only scope")
	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "text", "Output format (text|json)")

	return cmd
}

func runTrace(cmd *cobra.Command, nodeID string, opts *TraceOptions) error {
	cfg := GetConfig(cmd.Context())

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	b, err := resolveBuild(st, opts.Build)
	if err != nil {
		return err
	}

	if cfg.PhysicalOnly && !cmd.Flags().Changed("physical") {
		opts.Physical = true
	}
	scope := store.ScopeFull
	if opts.Physical {
		scope = store.ScopePhysical
	}
	doc, err := st.GetDocument(b.ID, scope)
	if err != nil {
		return err
	}

	g, err := doc.Graph()
	if err != nil {
		return err
	}

	spec, ok := g.Node(nodeID)
	if !ok {
		return fmt.Errorf("node %q not found in build %s", nodeID, b.ID)
	}
	kind, err := sqlgraph.ParseKind(spec.Kind)
	if err != nil {
		return err
	}

	var a *sqlgraph.Assignment
	if kind.IsTable() {
		a, err = g.SelectTable(nodeID)
	} else {
		a, err = g.SelectColumnOrMarker(nodeID)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.OutputFormat == "json" {
		return json.NewEncoder(out).Encode(traceResult(g, nodeID, a))
	}

	_, _ = fmt.Fprintf(out, "Trace for %s (%s) in build %s\n", nodeID, spec.Kind, b.ID)
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"NODE", "KIND", "STATE"})
	for _, row := range traceRows(g, a) {
		t.AppendRow(table.Row{row.ID, row.Kind, row.State})
	}
	t.Render()
	return nil
}

// traceRow is one node touched by a trace.
type traceRow struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	State string `json:"state"`
}

// traceRows collects the nodes a selection touched, skipping the
// not-highlighted remainder, sorted by id for stable output.
func traceRows(g *sqlgraph.Graph, a *sqlgraph.Assignment) []traceRow {
	var rows []traceRow
	for _, spec := range g.Nodes() {
		state := a.Nodes[spec.ID]
		if state == sqlgraph.StateNotHighlighted {
			continue
		}
		rows = append(rows, traceRow{
			ID:    spec.ID,
			Kind:  spec.Kind,
			State: state.String(),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func traceResult(g *sqlgraph.Graph, nodeID string, a *sqlgraph.Assignment) map[string]any {
	return map[string]any{
		"selected": nodeID,
		"nodes":    traceRows(g, a),
	}
}
