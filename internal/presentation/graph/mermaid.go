package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/graph"
)

// Overlay contains run data to visualize on the graph.
type Overlay struct {
	Statuses []domain.StatusEntry
}

// GenerateMermaid produces a Mermaid flowchart from a component graph, in
// build order. It applies semantic styling:
// - Start: ((Circle))
// - Source (nothing wired in): [/Parallelogram/]
// - Terminal: [[Subroutine]]
// - Default: [Rectangle]
// Edges are labelled "output → input". With an overlay, components are
// classed ok or failed from their status entries.
func GenerateMermaid(g *graph.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, inst := range g.Order() {
		id := inst.ID()
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		switch {
		case id == g.Start():
			opener, closer = "((", "))"
		case len(g.EdgesTo(id)) == 0:
			opener, closer = "[/", "/]"
		case g.IsTerminal(id):
			opener, closer = "[[", "]]"
		}

		label := id
		if name := inst.Definition().Name; name != "" && name != id {
			label = fmt.Sprintf("%s <br/> %s", id, name)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escape(label), closer))
	}

	for _, e := range g.Edges() {
		sb.WriteString(fmt.Sprintf("    %s -- \"%s → %s\" --> %s\n",
			sanitizeMermaidID(e.Source), escape(e.SourceOutput), escape(e.TargetInput), sanitizeMermaidID(e.Target)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef ok fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#c62828,stroke-width:4px,color:#000;\n")

		failed := map[string]bool{}
		var seen []string
		for _, st := range overlay.Statuses {
			if _, ok := g.Instance(st.Component); !ok {
				continue
			}
			if st.Status == domain.StatusError {
				failed[st.Component] = true
			}
			if !contains(seen, st.Component) {
				seen = append(seen, st.Component)
			}
		}
		for _, id := range seen {
			class := "ok"
			if failed[id] {
				class = "failed"
			}
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", sanitizeMermaidID(id), class))
		}
	}

	return sb.String()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
