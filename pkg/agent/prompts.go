package agent

import (
	"fmt"
	"strings"

	"ai-discovery-be/pkg/facilitation"
	"ai-discovery-be/pkg/technique"
)

const facilitatorRules = `You are a facilitator, not a generator. Ask questions and build on the user's answers; do not invent ideas on their behalf.
Tool output shown to the user is given to you as context. Do not repeat it. Add at most a short, encouraging remark.`

var systemPrompts = map[Role]string{
	RoleBrainstorm: "You are a brainstorming facilitator guiding a product discovery session through structured creativity techniques.",
	RoleAnalyst:    "You are a business analyst. Help the user sharpen the problem statement, target users, market context and success metrics.",
	RolePM:         "You are a product manager. Help the user turn ideas into prioritized requirements, user stories and an MVP scope.",
	RoleArchitect:  "You are a software architect. Recommend architecture, technology choices and integration patterns for the user's product idea.",
	RoleValidator:  "You are a validation specialist. Assess risks, feasibility and assumptions, and propose experiments to validate the idea.",
}

var greetings = map[Role]string{
	RoleAnalyst:   "Hi! I'm your business analyst. Tell me about the problem you want to solve and who experiences it.",
	RolePM:        "Hi! I'm your product manager. Share the ideas you have so far and we'll shape them into a prioritized plan.",
	RoleArchitect: "Hi! I'm your software architect. Describe what you want to build and any constraints on scale, budget or stack.",
	RoleValidator: "Hi! I'm your validation specialist. Tell me about the idea and the assumptions you're least sure about.",
}

func greeting(role Role, problem string) string {
	if role != RoleBrainstorm {
		return greetings[role]
	}
	var b strings.Builder
	b.WriteString("Hi! I'm your brainstorming facilitator.")
	if problem != "" {
		fmt.Fprintf(&b, " We'll explore: %s.", strings.TrimRight(problem, ". "))
	}
	b.WriteString(" How would you like to choose techniques?\n\n")
	b.WriteString("1. option:1 - browse the full list and pick your own\n")
	b.WriteString("2. option:2 - let me recommend techniques\n")
	b.WriteString("3. option:3 - random selection\n")
	b.WriteString("4. option:4 - progressive flow from broad to focused\n\n")
	b.WriteString("You can also list technique numbers or names directly, e.g. 6,8,10.")
	return b.String()
}

// systemPrompt renders the role prompt plus the current facilitation context.
func systemPrompt(role Role, ws *Workspace, catalog *technique.Catalog) string {
	var b strings.Builder
	b.WriteString(systemPrompts[role])
	b.WriteString("\n\n")
	b.WriteString(facilitatorRules)

	if ws.ProblemStatement != "" {
		fmt.Fprintf(&b, "\n\nProblem statement: %s", ws.ProblemStatement)
	}
	writeFacilitation(&b, ws.Facilitation, catalog)
	if n := ws.Ideas.Len(); n > 0 {
		fmt.Fprintf(&b, "\nIdeas captured so far: %d", n)
	}
	return b.String()
}

func writeFacilitation(b *strings.Builder, fs *facilitation.State, catalog *technique.Catalog) {
	if len(fs.SelectedTechniques) == 0 {
		return
	}
	names := make([]string, 0, len(fs.SelectedTechniques))
	for _, k := range fs.SelectedTechniques {
		if t, ok := catalog.Get(k); ok {
			names = append(names, t.Name)
		}
	}
	fmt.Fprintf(b, "\nSelected techniques: %s", strings.Join(names, ", "))
	if active, ok := fs.Active(); ok {
		t, _ := catalog.Get(active)
		fmt.Fprintf(b, "\nActive technique: %s (step %d)", t.Name, fs.CurrentStep)
	}
	if fs.WaitingForResponse {
		fmt.Fprintf(b, "\nWaiting for the user to answer: %s", fs.CurrentQuestion)
	}
}
