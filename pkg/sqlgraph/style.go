package sqlgraph

// Style is the visual classification of a node for a rendering layer.
// It is a pure function of kind and highlight state; the traversal core
// never depends on it.
type Style struct {
	Fill    string  `json:"fill"`
	Stroke  string  `json:"stroke"`
	Opacity float64 `json:"opacity"`
	Dashed  bool    `json:"dashed,omitempty"`
}

// base fills per kind.
var kindFills = map[NodeKind]string{
	KindTable:             "#ffffff",
	KindExternalTable:     "#ece6f7",
	KindCycleBreakerTable: "#f5f5f5",
	KindTableColumn:       "#f0f4f8",
	KindStarColumn:        "#fdf3d8",
	KindJoinInfo:          "#e4f0e4",
	KindWhereInfo:         "#e4ecf4",
	KindColumnContainer:   "#fafafa",
	KindTextInfoPanel:     "#fff8e6",
}

// StyleFor maps a node kind and highlight state to a render style.
func StyleFor(kind NodeKind, state HighlightState) Style {
	s := Style{
		Fill:    kindFills[kind],
		Stroke:  "#b0b8c0",
		Opacity: 1.0,
	}
	if kind == KindCycleBreakerTable {
		s.Dashed = true
	}

	switch state {
	case StateHighlighted:
		s.Stroke = "#1a73e8"
	case StateAltHighlighted:
		s.Stroke = "#e8710a"
		s.Fill = "#fce8d6"
	case StateNotHighlighted:
		s.Opacity = 0.25
	}
	return s
}

// EdgeStyleFor maps an edge highlight state to a render style. Edges have
// no kind of their own.
func EdgeStyleFor(state HighlightState) Style {
	s := Style{Stroke: "#b0b8c0", Opacity: 1.0}
	switch state {
	case StateHighlighted:
		s.Stroke = "#1a73e8"
	case StateAltHighlighted:
		s.Stroke = "#e8710a"
	case StateNotHighlighted:
		s.Opacity = 0.15
	}
	return s
}
