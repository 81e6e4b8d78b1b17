package agent

import (
	"ai-discovery-be/pkg/facilitation"
	"ai-discovery-be/pkg/ideas"
	"ai-discovery-be/pkg/technique"
)

// Workspace is the typed per-session context mutated by actions.
type Workspace struct {
	ProblemStatement string
	Facilitation     *facilitation.State
	Ideas            *ideas.Ledger
}

func NewWorkspace(problem string) *Workspace {
	return &Workspace{
		ProblemStatement: problem,
		Facilitation:     facilitation.NewState(),
		Ideas:            ideas.NewLedger(),
	}
}

// Clone copies the workspace so a turn can be staged and discarded on failure.
func (w *Workspace) Clone() *Workspace {
	return &Workspace{
		ProblemStatement: w.ProblemStatement,
		Facilitation:     w.Facilitation.Clone(),
		Ideas:            w.Ideas.Clone(),
	}
}

func (w *Workspace) Snapshot() Snapshot {
	return Snapshot{
		Facilitation:   w.Facilitation.Clone(),
		Ideas:          w.Ideas.List(ideas.Filter{}),
		TechniquesUsed: w.Facilitation.TechniquesUsed(),
	}
}

func (w *Workspace) ideasFrom(key technique.Key) int {
	return len(w.Ideas.List(ideas.Filter{Source: string(key)}))
}
