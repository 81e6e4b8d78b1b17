package facilitation

import (
	"errors"
	"fmt"
	"time"

	"ai-discovery-be/pkg/technique"
)

var (
	ErrInvalidSelection   = errors.New("invalid technique selection")
	ErrNoActiveTechnique  = errors.New("no technique is active")
	ErrTechniqueNotActive = errors.New("technique is not the active one")
	ErrPromptsExhausted   = errors.New("technique has no more prompts")
	ErrInvalidStep        = errors.New("invalid facilitation step")
	ErrNotWaiting         = errors.New("no question is waiting for an answer")
)

// NoTechnique is the CurrentTechniqueIndex value when nothing is active.
const NoTechnique = -1

// ChainLink is one turn of a yes-and chain or one level of a five-whys chain.
type ChainLink struct {
	Level          int       `json:"level,omitempty"`
	Turn           Turn      `json:"turn,omitempty"`
	Idea           string    `json:"idea,omitempty"`
	Question       string    `json:"question"`
	PreviousAnswer string    `json:"previous_answer,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// CompletedTechnique is recorded each time the active technique is finished.
type CompletedTechnique struct {
	Technique      technique.Key `json:"technique"`
	IdeasGenerated int           `json:"ideas_generated"`
	Summary        string        `json:"summary,omitempty"`
	CompletedAt    time.Time     `json:"completed_at"`
}

// Response is a user answer to a facilitation question.
type Response struct {
	Technique technique.Key `json:"technique"`
	Step      int           `json:"step"`
	Question  string        `json:"question"`
	Answer    string        `json:"answer"`
	At        time.Time     `json:"at"`
}

// State is the per-session facilitation record. It is not safe for concurrent use;
// callers own one State per session.
type State struct {
	SelectedTechniques    []technique.Key `json:"selected_techniques"`
	CurrentTechniqueIndex int             `json:"current_technique_index"`
	CurrentStep           int             `json:"current_step"`
	WaitingForResponse    bool            `json:"waiting_for_response"`
	CurrentQuestion       string          `json:"current_question,omitempty"`
	AwaitingConfirmation  bool            `json:"awaiting_confirmation"`
	SessionStartedAt      time.Time       `json:"session_started_at,omitempty"`

	Completed     []CompletedTechnique `json:"completed,omitempty"`
	Responses     []Response           `json:"responses,omitempty"`
	YesAndChain   []ChainLink          `json:"yes_and_chain,omitempty"`
	FiveWhysChain []ChainLink          `json:"five_whys_chain,omitempty"`
}

func NewState() *State {
	return &State{CurrentTechniqueIndex: NoTechnique}
}

// Active returns the key of the technique currently being facilitated.
func (s *State) Active() (technique.Key, bool) {
	if s.CurrentTechniqueIndex < 0 || s.CurrentTechniqueIndex >= len(s.SelectedTechniques) {
		return "", false
	}
	return s.SelectedTechniques[s.CurrentTechniqueIndex], true
}

// Validate checks the structural invariants of the record.
func (s *State) Validate() error {
	if s.CurrentTechniqueIndex != NoTechnique &&
		(s.CurrentTechniqueIndex < 0 || s.CurrentTechniqueIndex >= len(s.SelectedTechniques)) {
		return fmt.Errorf("current technique index %d out of range [0,%d)", s.CurrentTechniqueIndex, len(s.SelectedTechniques))
	}
	if s.WaitingForResponse && s.CurrentQuestion == "" {
		return fmt.Errorf("waiting for a response without a current question")
	}
	return nil
}

// Clone returns a deep copy so a turn can be applied speculatively.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.SelectedTechniques = append([]technique.Key(nil), s.SelectedTechniques...)
	c.Completed = append([]CompletedTechnique(nil), s.Completed...)
	c.Responses = append([]Response(nil), s.Responses...)
	c.YesAndChain = append([]ChainLink(nil), s.YesAndChain...)
	c.FiveWhysChain = append([]ChainLink(nil), s.FiveWhysChain...)
	return &c
}

// TechniquesUsed lists every technique selected or completed, first-seen order.
func (s *State) TechniquesUsed() []technique.Key {
	seen := make(map[technique.Key]bool)
	out := make([]technique.Key, 0, len(s.Completed)+len(s.SelectedTechniques))
	for _, c := range s.Completed {
		if !seen[c.Technique] {
			seen[c.Technique] = true
			out = append(out, c.Technique)
		}
	}
	for _, k := range s.SelectedTechniques {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// RecordAnswer stores the user's reply to the current question.
func (s *State) RecordAnswer(answer string, now time.Time) error {
	if !s.WaitingForResponse {
		return ErrNotWaiting
	}
	active, _ := s.Active()
	s.Responses = append(s.Responses, Response{
		Technique: active,
		Step:      s.CurrentStep,
		Question:  s.CurrentQuestion,
		Answer:    answer,
		At:        now,
	})
	s.WaitingForResponse = false
	return nil
}

// LastAnswer returns the most recent recorded answer for the active technique.
func (s *State) LastAnswer() string {
	active, ok := s.Active()
	if !ok {
		return ""
	}
	for i := len(s.Responses) - 1; i >= 0; i-- {
		if s.Responses[i].Technique == active {
			return s.Responses[i].Answer
		}
	}
	return ""
}

// begin overwrites the selection and resets per-technique progress.
// Completed history is kept so techniques used across selections are not lost.
func (s *State) begin(keys []technique.Key, needsConfirmation bool, now time.Time) {
	s.SelectedTechniques = keys
	s.CurrentTechniqueIndex = 0
	s.CurrentStep = 0
	s.WaitingForResponse = false
	s.CurrentQuestion = ""
	s.AwaitingConfirmation = needsConfirmation
	s.SessionStartedAt = now
	s.Responses = nil
	s.YesAndChain = nil
	s.FiveWhysChain = nil
}
