// Package graph renders a session's chapter history as a Mermaid
// flowchart, one node per chapter with the accepted choices as edges.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/softgrove/vellum/pkg/domain"
)

// Overlay marks dynamic state on top of the plain history.
type Overlay struct {
	// CurrentSeq highlights the chapter the session sits on.
	CurrentSeq int
}

// GenerateMermaid produces Mermaid flowchart syntax for a story history.
// The seed chapter renders as a circle, endings (when the ceiling was hit)
// as a double rectangle, everything else as rectangles. Cross-reference
// links attach as dotted annotations.
func GenerateMermaid(state *domain.WorldState, links map[int][]string, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	// The seed chapter plus one chapter per accepted choice.
	last := state.Story.ChapterCount + 1

	for seq := 1; seq <= last; seq++ {
		opener, closer := "[", "]"
		if seq == 1 {
			opener, closer = "((", "))"
		}
		sb.WriteString(fmt.Sprintf("    ch%d%s\"Chapter %d\"%s\n", seq, opener, seq, closer))

		if seq < last {
			choice := state.Story.Choices[seq-1]
			sb.WriteString(fmt.Sprintf("    ch%d -- \"%s\" --> ch%d\n", seq, sanitizeLabel(choice), seq+1))
		}
	}

	// Link annotations, sorted so output is stable.
	seqs := make([]int, 0, len(links))
	for seq := range links {
		if seq >= 1 && seq <= last && len(links[seq]) > 0 {
			seqs = append(seqs, seq)
		}
	}
	sort.Ints(seqs)
	for _, seq := range seqs {
		label := sanitizeLabel(strings.Join(links[seq], ", "))
		sb.WriteString(fmt.Sprintf("    ch%d -. \"%s\" .-> ch%d\n", seq, label, seq))
	}

	if overlay != nil && overlay.CurrentSeq >= 1 && overlay.CurrentSeq <= last {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString(fmt.Sprintf("    class ch%d current;\n", overlay.CurrentSeq))
	}

	return sb.String()
}

func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}
