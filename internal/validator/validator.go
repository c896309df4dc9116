// Package validator checks a saved session for internal consistency:
// the state parses, the choice history lines up with the chapter count,
// every chapter document is readable, and the link index points at
// chapters that exist.
package validator

import (
	"context"
	"fmt"
	"sort"

	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/ports"
)

// Report lists everything wrong with one namespace. Empty Problems means
// the save is sound.
type Report struct {
	Namespace string
	Problems  []string
}

// OK reports whether the save passed every check.
func (r Report) OK() bool {
	return len(r.Problems) == 0
}

func (r *Report) addf(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// ValidateSession runs all checks against one namespace. Only a failure to
// reach the backend at all is returned as an error; findings about the save
// itself go into the report.
func ValidateSession(ctx context.Context, states ports.StateStore, chapters ports.ChapterStore, links ports.LinkStore, namespace string) (Report, error) {
	report := Report{Namespace: namespace}

	state, err := states.Load(ctx, namespace)
	if err != nil {
		report.addf("world state unreadable: %v", err)
		return report, nil
	}

	if state.Meta.Version == "" {
		report.addf("world state has no schema version")
	}
	if got, want := len(state.Story.Choices), state.Story.ChapterCount; got != want {
		report.addf("choice history out of step: %d choices recorded for %d chapters", got, want)
	}

	latest, err := chapters.Latest(ctx, namespace)
	if err != nil {
		report.addf("no readable chapters: %v", err)
		return report, nil
	}

	// The seed chapter does not count, so a consistent save has at least
	// ChapterCount+1 documents worth of sequence range.
	if latest.Seq < state.Story.ChapterCount+1 {
		report.addf("latest chapter is %d but the state claims %d accepted choices", latest.Seq, state.Story.ChapterCount)
	}

	present := make(map[int]bool, latest.Seq)
	for seq := 1; seq <= latest.Seq; seq++ {
		ref := domain.ChapterRef{Namespace: namespace, Seq: seq}
		if _, err := chapters.Read(ctx, ref); err != nil {
			report.addf("chapter %d unreadable: %v", seq, err)
			continue
		}
		present[seq] = true
	}

	if links != nil {
		index, err := links.Get(ctx, namespace)
		if err != nil {
			report.addf("link index unreadable: %v", err)
			return report, nil
		}
		seqs := make([]int, 0, len(index))
		for seq := range index {
			seqs = append(seqs, seq)
		}
		sort.Ints(seqs)
		for _, seq := range seqs {
			if !present[seq] {
				report.addf("link index references missing chapter %d", seq)
			}
		}
	}

	return report, nil
}
