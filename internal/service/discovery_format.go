package service

import (
	"regexp"
	"strings"

	"ai-discovery-be/internal/entity"
)

var (
	blankRuns = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
	// a digit before the terminator is a list marker ("1. Idea"), not a sentence end
	sentenceBreak = regexp.MustCompile(`([^\d\s.][.!?])[ \t]+([A-Z])`)
	listMarker    = regexp.MustCompile(`([^\n])[ \t]+(\d+\.[ \t])`)
)

// FormatResponse normalizes agent text for display: paragraph breaks after
// sentences, numbered items on their own lines, no runs of blank lines.
func FormatResponse(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = sentenceBreak.ReplaceAllString(text, "$1\n\n$2")
	text = listMarker.ReplaceAllString(text, "$1\n$2")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

var nextSteps = map[entity.Phase][]string{
	entity.PhaseSetup: {
		"Describe the problem and who experiences it",
		"Continue with brainstorming",
		"Select a technique like SCAMPER or Six Thinking Hats",
	},
	entity.PhaseBrainstorming: {
		"Try SCAMPER technique",
		"Use Six Thinking Hats",
		"Create a mind map",
		"Move to prioritization",
	},
	entity.PhasePrioritization: {
		"Score and rank ideas",
		"Group ideas into clusters",
		"Move to technical architecture",
	},
	entity.PhaseArchitecture: {
		"Define technical stack",
		"Plan implementation",
		"Move to validation",
	},
	entity.PhaseValidation: {
		"Review risks and feasibility",
		"Generate final report",
		"Complete discovery",
	},
	entity.PhaseCompleted: {
		"Review the ideas and transcript",
		"Start a new discovery session",
	},
}

var defaultNextSteps = []string{"Continue the discovery process"}

// NextSteps returns the advisory steps for a phase. Unknown phases get a generic list.
func NextSteps(phase entity.Phase) []string {
	steps, ok := nextSteps[phase]
	if !ok {
		steps = defaultNextSteps
	}
	return append([]string(nil), steps...)
}

const helpText = `Start a discovery session with one of these commands:

/brainstorm [topic] - guided brainstorming with structured creativity techniques
/analyst [topic] - clarify the problem, users, market and success metrics
/pm [topic] - turn ideas into prioritized requirements and an MVP scope
/architect [topic] - architecture and technology recommendations
/validator [topic] - risks, assumptions and validation experiments
/help - show this message

Inside a session:
/idea Title: description - save an idea
/ideas - list saved ideas
/score - score and rank ideas by priority
/next - finish the current brainstorming technique
/whatif [n] - ask what-if scenario n during What If Scenarios
/analogy [n] - ask analogy n during Analogical Thinking`
