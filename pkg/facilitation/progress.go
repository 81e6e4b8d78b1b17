package facilitation

import (
	"fmt"
	"time"

	"ai-discovery-be/pkg/technique"
)

// Completion reports what happened when the active technique was finished.
type Completion struct {
	Completed      technique.Technique  `json:"completed"`
	Next           *technique.Technique `json:"next,omitempty"`
	TotalCompleted int                  `json:"total_completed"`
	TotalSelected  int                  `json:"total_selected"`
	Message        string               `json:"message"`
}

func (c Completion) HasMore() bool {
	return c.Next != nil
}

// CompleteCurrent closes the active technique and moves to the next selected one.
// After the last technique the index returns to NoTechnique.
func (s *State) CompleteCurrent(catalog *technique.Catalog, ideasGenerated int, summary string, now time.Time) (Completion, error) {
	active, ok := s.Active()
	if !ok {
		return Completion{}, ErrNoActiveTechnique
	}
	done, ok := catalog.Get(active)
	if !ok {
		return Completion{}, fmt.Errorf("technique %s missing from catalog", active)
	}

	s.Completed = append(s.Completed, CompletedTechnique{
		Technique:      active,
		IdeasGenerated: ideasGenerated,
		Summary:        summary,
		CompletedAt:    now,
	})
	s.CurrentStep = 0
	s.WaitingForResponse = false
	s.CurrentQuestion = ""
	s.AwaitingConfirmation = false

	out := Completion{
		Completed:      done,
		TotalCompleted: s.CurrentTechniqueIndex + 1,
		TotalSelected:  len(s.SelectedTechniques),
	}

	if s.CurrentTechniqueIndex+1 < len(s.SelectedTechniques) {
		s.CurrentTechniqueIndex++
		next, ok := catalog.Get(s.SelectedTechniques[s.CurrentTechniqueIndex])
		if ok {
			out.Next = &next
			out.Message = fmt.Sprintf("Great work on %s! Moving on to technique %d of %d: %s.",
				done.Name, s.CurrentTechniqueIndex+1, len(s.SelectedTechniques), next.Name)
			return out, nil
		}
	}

	s.CurrentTechniqueIndex = NoTechnique
	out.Message = fmt.Sprintf("Great work on %s! That completes all %d selected techniques.", done.Name, len(s.SelectedTechniques))
	return out, nil
}
