package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/triage/pkg/catalog"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/flow"
)

const (
	startID = "start"
	doneID  = "done"
)

// Overlay contains session progress to visualize on the graph.
type Overlay struct {
	Visited   []domain.QuestionID
	Current   domain.QuestionID
	OtherOpen bool // Current is waiting for its "other" free text
	Completed bool
}

// OverlayFromState derives the overlay for a stored session.
func OverlayFromState(s *domain.State) *Overlay {
	if s == nil {
		return nil
	}
	o := &Overlay{
		Current:   s.QuestionID,
		OtherOpen: s.Status == domain.StatusAwaitingOtherText,
		Completed: s.Status == domain.StatusCompleted,
	}
	for _, id := range s.History {
		if id != s.QuestionID || s.Answers.Has(id) {
			o.Visited = append(o.Visited, id)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the question order.
// Shapes:
// - Start/Done: ((Circle))
// - Question: [/Parallelogram/]
// - "Other" free-text sub-prompt: >Flag]
// Questions with an "other" choice get a dotted detour through their
// sub-prompt. Questions missing from the catalog are drawn as plain
// rectangles so mismatches stay visible.
func GenerateMermaid(c *catalog.Catalog, seq *flow.Sequencer, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	fmt.Fprintf(&sb, "    %s((\"start\"))\n", startID)

	ids := seq.IDs()
	prev := startID
	for i, id := range ids {
		safeID := sanitizeMermaidID(string(id))
		next := doneID
		if i+1 < len(ids) {
			next = sanitizeMermaidID(string(ids[i+1]))
		}

		q, err := c.Lookup(id)
		if err != nil {
			fmt.Fprintf(&sb, "    %s[\"%s (missing)\"]\n", safeID, id)
		} else {
			fmt.Fprintf(&sb, "    %s[/\"%d. %s\"/]\n", safeID, i+1, escapeLabel(title(q)))
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", prev, safeID)

		if err == nil {
			if other, ok := q.OtherChoice(); ok {
				otherID := safeID + "_other"
				fmt.Fprintf(&sb, "    %s>\"describe\"]\n", otherID)
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", safeID, escapeLabel(other.Label), otherID)
				fmt.Fprintf(&sb, "    %s --> %s\n", otherID, next)
			}
		}
		prev = safeID
	}
	fmt.Fprintf(&sb, "    %s --> %s((\"done\"))\n", prev, doneID)

	if overlay != nil {
		writeOverlay(&sb, overlay)
	}
	return sb.String()
}

func writeOverlay(sb *strings.Builder, overlay *Overlay) {
	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for contrast on both light and dark themes.
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	seen := make(map[string]bool)
	visit := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			fmt.Fprintf(sb, "    class %s visited;\n", id)
		}
	}
	visit(startID)
	for _, id := range overlay.Visited {
		visit(sanitizeMermaidID(string(id)))
	}

	switch {
	case overlay.Completed:
		fmt.Fprintf(sb, "    class %s current;\n", doneID)
	case overlay.Current != "":
		current := sanitizeMermaidID(string(overlay.Current))
		if overlay.OtherOpen {
			visit(current)
			current += "_other"
		}
		fmt.Fprintf(sb, "    class %s current;\n", current)
	}
}

func title(q domain.Question) string {
	if q.Title != "" {
		return q.Title
	}
	return string(q.ID)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
