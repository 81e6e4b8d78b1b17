package facilitation

import (
	"fmt"
	"strings"
	"time"

	"ai-discovery-be/pkg/technique"
)

// Turn says who speaks next in a yes-and chain.
type Turn string

const (
	TurnUser  Turn = "user"
	TurnAgent Turn = "agent"
)

// WhatIfScenario indexes the what-if prompt list (1-based).
type WhatIfScenario int

const (
	ScenarioUnlimitedResources WhatIfScenario = iota + 1
	ScenarioExtremeConstraints
	ScenarioTimeTravel
	ScenarioOppositeAudience
	ScenarioScaleExtreme
	ScenarioNoTechnology
	ScenarioUniversalOpposition
	ScenarioFailureImpossible
)

// AnalogyKind indexes the analogical-thinking prompt list (1-based).
type AnalogyKind int

const (
	AnalogyNature AnalogyKind = iota + 1
	AnalogySports
	AnalogyCooking
	AnalogyArchitecture
	AnalogyMusic
	AnalogyGardening
	AnalogyTransportation
	AnalogyEducation
)

// BuildType indexes the yes-and prompt list (1-based).
type BuildType int

const (
	BuildAddFeature BuildType = iota + 1
	BuildExpandAudience
	BuildChangeContext
	BuildCombineConcept
	BuildEmotionalImpact
	BuildConstraint
	BuildAdditionalBenefit
	BuildMetaphor
)

// MaxWhyLevel is the depth of a five-whys chain.
const MaxWhyLevel = 5

// Step is one facilitation move. The set is closed; see Apply.
type Step interface {
	techniqueKey() technique.Key
}

type WhatIfStep struct {
	Scenario WhatIfScenario
}

type AnalogyStep struct {
	Kind AnalogyKind
}

type YesAndStep struct {
	Idea  string
	Build BuildType
	Turn  Turn
}

type WhyStep struct {
	Idea           string
	Level          int
	PreviousAnswer string
}

// PromptStep advances whatever technique is active to its next prompt.
type PromptStep struct {
	Idea           string
	PreviousAnswer string
}

func (WhatIfStep) techniqueKey() technique.Key  { return technique.WhatIfScenarios }
func (AnalogyStep) techniqueKey() technique.Key { return technique.AnalogicalThinking }
func (YesAndStep) techniqueKey() technique.Key  { return technique.YesAndBuilding }
func (WhyStep) techniqueKey() technique.Key     { return technique.FiveWhys }
func (PromptStep) techniqueKey() technique.Key  { return "" }

// Prompt is the question produced by applying a step.
type Prompt struct {
	Technique   technique.Key `json:"technique"`
	Step        int           `json:"step"`
	Question    string        `json:"question"`
	WaitForUser bool          `json:"wait_for_user"`
	// Last is set when the technique has no further prompts after this one.
	Last bool `json:"last"`
}

// Apply executes step against the active technique and records the question asked.
func (s *State) Apply(catalog *technique.Catalog, step Step, now time.Time) (Prompt, error) {
	active, ok := s.Active()
	if !ok {
		return Prompt{}, ErrNoActiveTechnique
	}
	if want := step.techniqueKey(); want != "" && want != active {
		return Prompt{}, fmt.Errorf("%w: %s while %s is active", ErrTechniqueNotActive, want, active)
	}
	tech, ok := catalog.Get(active)
	if !ok {
		return Prompt{}, fmt.Errorf("technique %s missing from catalog", active)
	}

	switch st := step.(type) {
	case WhatIfStep:
		return s.ask(tech, int(st.Scenario), "", "")
	case AnalogyStep:
		return s.ask(tech, int(st.Kind), "", "")
	case YesAndStep:
		return s.applyYesAnd(tech, st, now)
	case WhyStep:
		return s.applyWhy(tech, st, now)
	case PromptStep:
		switch active {
		case technique.FiveWhys:
			return s.applyWhy(tech, WhyStep{Idea: st.Idea, Level: s.CurrentStep + 1, PreviousAnswer: st.PreviousAnswer}, now)
		case technique.YesAndBuilding:
			return s.applyYesAnd(tech, YesAndStep{Idea: st.Idea, Build: BuildType(s.CurrentStep + 1), Turn: TurnUser}, now)
		}
		return s.ask(tech, s.CurrentStep+1, st.Idea, st.PreviousAnswer)
	default:
		return Prompt{}, fmt.Errorf("%w: %T", ErrInvalidStep, step)
	}
}

func (s *State) ask(tech technique.Technique, index int, idea, answer string) (Prompt, error) {
	q, ok := tech.Prompt(index)
	if !ok {
		if index > len(tech.Prompts) {
			return Prompt{}, ErrPromptsExhausted
		}
		return Prompt{}, fmt.Errorf("%w: prompt %d of %s", ErrInvalidStep, index, tech.Key)
	}
	q = fill(q, idea, answer)

	s.CurrentStep = index
	s.CurrentQuestion = q
	s.WaitingForResponse = true
	s.AwaitingConfirmation = false

	return Prompt{
		Technique:   tech.Key,
		Step:        index,
		Question:    q,
		WaitForUser: true,
		Last:        index == len(tech.Prompts),
	}, nil
}

func (s *State) applyWhy(tech technique.Technique, st WhyStep, now time.Time) (Prompt, error) {
	if st.Level < 1 || st.Level > MaxWhyLevel {
		if st.Level > MaxWhyLevel {
			return Prompt{}, ErrPromptsExhausted
		}
		return Prompt{}, fmt.Errorf("%w: why level %d", ErrInvalidStep, st.Level)
	}
	answer := st.PreviousAnswer
	if answer == "" {
		answer = st.Idea
	}
	p, err := s.ask(tech, st.Level, st.Idea, answer)
	if err != nil {
		return Prompt{}, err
	}
	p.Last = st.Level == MaxWhyLevel
	s.FiveWhysChain = append(s.FiveWhysChain, ChainLink{
		Level:          st.Level,
		Idea:           st.Idea,
		Question:       p.Question,
		PreviousAnswer: st.PreviousAnswer,
		Timestamp:      now,
	})
	return p, nil
}

func (s *State) applyYesAnd(tech technique.Technique, st YesAndStep, now time.Time) (Prompt, error) {
	turn := st.Turn
	if turn == "" {
		turn = TurnUser
	}
	p, err := s.ask(tech, int(st.Build), st.Idea, "")
	if err != nil {
		return Prompt{}, err
	}
	if turn == TurnAgent {
		// The agent builds on the idea itself, so nothing is awaited from the user.
		s.WaitingForResponse = false
		p.WaitForUser = false
	}
	s.YesAndChain = append(s.YesAndChain, ChainLink{
		Level:     int(st.Build),
		Turn:      turn,
		Idea:      st.Idea,
		Question:  p.Question,
		Timestamp: now,
	})
	return p, nil
}

func fill(prompt, idea, answer string) string {
	if idea == "" {
		idea = "your idea"
	}
	if answer == "" {
		answer = idea
	}
	return strings.NewReplacer("{idea}", idea, "{answer}", answer).Replace(prompt)
}
