package agent

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"ai-discovery-be/pkg/facilitation"
	"ai-discovery-be/pkg/ideas"
	"ai-discovery-be/pkg/technique"
)

// Action is one tool move derived from a user message. The set is closed and
// dispatched by Execute.
type Action interface {
	name() string
}

type GreetAction struct{}

type SelectAction struct {
	Input string
}

// ConfirmAction accepts a proposed (recommended, random or progressive) selection.
type ConfirmAction struct{}

// CompleteTechniqueAction finishes the active technique and moves to the next one.
type CompleteTechniqueAction struct{}

type SaveIdeaAction struct {
	Draft ideas.Draft
}

type ListIdeasAction struct{}

// StepAction asks a specific facilitation move, such as a chosen what-if scenario.
type StepAction struct {
	Step facilitation.Step
}

type ScoreIdeasAction struct{}

// ReplyAction is free text: an answer to the current question or plain conversation.
type ReplyAction struct {
	Text string
}

func (GreetAction) name() string             { return "greet" }
func (SelectAction) name() string            { return "select_techniques" }
func (ConfirmAction) name() string           { return "confirm_selection" }
func (CompleteTechniqueAction) name() string { return "complete_technique" }
func (SaveIdeaAction) name() string          { return "save_idea" }
func (ListIdeasAction) name() string         { return "list_ideas" }
func (StepAction) name() string              { return "facilitation_step" }
func (ScoreIdeasAction) name() string        { return "score_ideas" }
func (ReplyAction) name() string             { return "reply" }

var affirmatives = map[string]bool{
	"yes": true, "y": true, "ok": true, "okay": true, "confirm": true,
	"sure": true, "go": true, "start": true, "let's go": true,
}

// Interpret maps a message onto an action. first is true for the opening turn.
func Interpret(role Role, ws *Workspace, resolver *facilitation.Resolver, message string, first bool) Action {
	text := strings.TrimSpace(message)
	lower := strings.ToLower(text)

	switch {
	case first:
		return GreetAction{}
	case lower == "/next":
		return CompleteTechniqueAction{}
	case lower == "/ideas":
		return ListIdeasAction{}
	case lower == "/score":
		return ScoreIdeasAction{}
	case strings.HasPrefix(lower, "/idea "):
		return SaveIdeaAction{Draft: parseIdea(text[len("/idea "):])}
	}

	if role != RoleBrainstorm {
		return ReplyAction{Text: text}
	}

	if step, ok := parseStep(lower, ws.Facilitation); ok {
		return StepAction{Step: step}
	}

	fs := ws.Facilitation
	if fs.AwaitingConfirmation && affirmatives[strings.Trim(lower, ".! ")] {
		return ConfirmAction{}
	}
	if !fs.WaitingForResponse && resolver.Recognizes(text) {
		return SelectAction{Input: text}
	}
	return ReplyAction{Text: text}
}

// parseIdea reads "Title: description". Without a colon the whole text is the title.
func parseIdea(s string) ideas.Draft {
	title, desc, found := strings.Cut(s, ":")
	if !found {
		return ideas.Draft{Title: strings.TrimSpace(s)}
	}
	return ideas.Draft{Title: strings.TrimSpace(title), Description: strings.TrimSpace(desc)}
}

// parseStep reads "/whatif [n]" and "/analogy [n]". Without n the next prompt is used.
func parseStep(lower string, fs *facilitation.State) (facilitation.Step, bool) {
	cmd, arg, _ := strings.Cut(lower, " ")
	if cmd != "/whatif" && cmd != "/analogy" {
		return nil, false
	}
	n := fs.CurrentStep + 1
	if arg = strings.TrimSpace(arg); arg != "" {
		v, err := strconv.Atoi(arg)
		if err != nil {
			v = 0
		}
		n = v
	}
	if cmd == "/whatif" {
		return facilitation.WhatIfStep{Scenario: facilitation.WhatIfScenario(n)}, true
	}
	return facilitation.AnalogyStep{Kind: facilitation.AnalogyKind(n)}, true
}

// Outcome is what an action produced. Note is shown to the user verbatim ahead
// of the model's reply.
type Outcome struct {
	Action string
	Note   string
}

// Execute applies action to ws. Recoverable conditions (bad selection, nothing
// active) are reported in the Note rather than as errors.
func Execute(role Role, ws *Workspace, resolver *facilitation.Resolver, action Action, now time.Time) (Outcome, error) {
	catalog := resolver.Catalog()
	fs := ws.Facilitation
	out := Outcome{Action: action.name()}

	switch a := action.(type) {
	case GreetAction:
		out.Note = greeting(role, ws.ProblemStatement)

	case SelectAction:
		sel, err := resolver.Select(fs, a.Input)
		var invalid *facilitation.InvalidSelectionError
		if errors.As(err, &invalid) {
			out.Note = invalid.Guidance
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out.Note = sel.Message
		if sel.AwaitingSelection || sel.RequiresConfirmation {
			return out, nil
		}
		q, err := firstPrompt(ws, catalog, now)
		if err != nil {
			return out, err
		}
		out.Note += "\n\n" + q

	case ConfirmAction:
		fs.AwaitingConfirmation = false
		active, _ := fs.Active()
		t, _ := catalog.Get(active)
		q, err := firstPrompt(ws, catalog, now)
		if err != nil {
			return out, err
		}
		out.Note = fmt.Sprintf("Let's begin with %s.\n\n%s", t.Name, q)

	case CompleteTechniqueAction:
		if fs.AwaitingConfirmation {
			out.Note = confirmFirst
			return out, nil
		}
		note, err := advance(ws, catalog, now)
		if err != nil {
			return out, err
		}
		out.Note = note

	case SaveIdeaAction:
		d := a.Draft
		if active, ok := fs.Active(); ok && d.Source == "" {
			d.Source = string(active)
		}
		idea, err := ws.Ideas.Save(d)
		if err != nil {
			out.Note = fmt.Sprintf("I couldn't save that idea: %v. Use /idea Title: description.", err)
			return out, nil
		}
		out.Note = fmt.Sprintf("Saved idea %q (%s).", idea.Title, idea.ID)

	case StepAction:
		if fs.AwaitingConfirmation {
			out.Note = confirmFirst
			return out, nil
		}
		p, err := fs.Apply(catalog, a.Step, now)
		switch {
		case errors.Is(err, facilitation.ErrNoActiveTechnique):
			out.Note = "No technique is active right now. " + catalog.Guidance()
			return out, nil
		case errors.Is(err, facilitation.ErrTechniqueNotActive),
			errors.Is(err, facilitation.ErrInvalidStep),
			errors.Is(err, facilitation.ErrPromptsExhausted):
			out.Note = fmt.Sprintf("That move isn't available here: %v.", err)
			return out, nil
		case err != nil:
			return out, err
		}
		out.Note = p.Question

	case ListIdeasAction:
		out.Note = formatIdeas(ws.Ideas.List(ideas.Filter{}))

	case ScoreIdeasAction:
		out.Note = formatRanking(ws.Ideas.ScoreAll(ideas.DefaultWeights))

	case ReplyAction:
		note, err := answer(ws, catalog, a.Text, now)
		if err != nil {
			return out, err
		}
		out.Note = note

	default:
		return out, fmt.Errorf("unsupported action %T", action)
	}

	return out, nil
}

const confirmFirst = "Please confirm the proposed techniques (yes) or pick your own by number before moving on."

func firstPrompt(ws *Workspace, catalog *technique.Catalog, now time.Time) (string, error) {
	p, err := ws.Facilitation.Apply(catalog, facilitation.PromptStep{Idea: ws.ProblemStatement}, now)
	if err != nil {
		return "", err
	}
	return p.Question, nil
}

// answer records a reply to the current question, captures it as an idea and
// asks the next prompt, moving on when the technique runs out of prompts.
func answer(ws *Workspace, catalog *technique.Catalog, text string, now time.Time) (string, error) {
	fs := ws.Facilitation
	if !fs.WaitingForResponse {
		return "", nil
	}
	active, _ := fs.Active()
	question := fs.CurrentQuestion
	if err := fs.RecordAnswer(text, now); err != nil {
		return "", err
	}

	var b strings.Builder
	t, _ := catalog.Get(active)
	if _, err := ws.Ideas.Save(ideas.Draft{
		Title:       headline(text),
		Description: text,
		Rationale:   question,
		Category:    t.Name,
		Tags:        []string{string(active)},
		Source:      string(active),
	}); err == nil {
		b.WriteString("Captured that as an idea.")
	}

	p, err := fs.Apply(catalog, facilitation.PromptStep{Idea: ws.ProblemStatement, PreviousAnswer: text}, now)
	switch {
	case err == nil:
		b.WriteString("\n\n")
		b.WriteString(p.Question)
	case errors.Is(err, facilitation.ErrPromptsExhausted):
		note, err := advance(ws, catalog, now)
		if err != nil {
			return "", err
		}
		b.WriteString("\n\n")
		b.WriteString(note)
	default:
		return "", err
	}
	return b.String(), nil
}

// advance completes the active technique and opens the next one, if any.
func advance(ws *Workspace, catalog *technique.Catalog, now time.Time) (string, error) {
	fs := ws.Facilitation
	active, ok := fs.Active()
	if !ok {
		return "No technique is active right now. " + catalog.Guidance(), nil
	}
	c, err := fs.CompleteCurrent(catalog, ws.ideasFrom(active), "", now)
	if err != nil {
		return "", err
	}
	if !c.HasMore() {
		return c.Message + " Type /ideas to review what we captured or /score to prioritize them.", nil
	}
	q, err := firstPrompt(ws, catalog, now)
	if err != nil {
		return "", err
	}
	return c.Message + "\n\n" + q, nil
}

const maxHeadline = 80

func headline(text string) string {
	line := strings.TrimSpace(text)
	if i := strings.IndexAny(line, ".!?\n"); i > 0 {
		line = line[:i]
	}
	if utf8.RuneCountInString(line) > maxHeadline {
		r := []rune(line)
		line = strings.TrimSpace(string(r[:maxHeadline])) + "..."
	}
	return line
}

func formatIdeas(list []ideas.Idea) string {
	if len(list) == 0 {
		return "No ideas recorded yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Ideas so far (%d):", len(list))
	for i, idea := range list {
		fmt.Fprintf(&b, "\n%d. %s [%s]", i+1, idea.Title, idea.Category)
	}
	return b.String()
}

func formatRanking(ranked []ideas.Idea) string {
	if len(ranked) == 0 {
		return "No ideas to score yet."
	}
	var b strings.Builder
	b.WriteString("Ideas ranked by priority:")
	for i, idea := range ranked {
		s := idea.Score
		fmt.Fprintf(&b, "\n%d. %s: priority %.1f (impact %.1f, feasibility %.1f, effort %.1f)",
			i+1, idea.Title, s.Priority, s.Impact, s.Feasibility, s.Effort)
	}
	return b.String()
}
