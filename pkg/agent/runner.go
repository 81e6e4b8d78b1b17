package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-discovery-be/pkg/facilitation"
	"ai-discovery-be/pkg/ideas"
	"ai-discovery-be/pkg/llm"
)

// maxHistory bounds the number of transcript turns sent to the model.
const maxHistory = 24

// LLMRunner interprets each message into a tool action, applies it to a staged
// copy of the workspace and asks the model for the conversational part of the reply.
// The staged copy is committed only when the model call succeeds.
type LLMRunner struct {
	role     Role
	provider llm.LLMProvider
	resolver *facilitation.Resolver
	now      func() time.Time

	mu        sync.Mutex
	workspace *Workspace
	history   []llm.Message
}

var (
	_ Runner   = (*LLMRunner)(nil)
	_ Observer = (*LLMRunner)(nil)
)

func NewLLMRunner(role Role, provider llm.LLMProvider, resolver *facilitation.Resolver, ws *Workspace, history []llm.Message) *LLMRunner {
	return &LLMRunner{
		role:      role,
		provider:  provider,
		resolver:  resolver,
		now:       time.Now,
		workspace: ws,
		history:   append([]llm.Message(nil), history...),
	}
}

func (r *LLMRunner) Ask(ctx context.Context, message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := r.workspace.Clone()
	action := Interpret(r.role, staged, r.resolver, message, len(r.history) == 0)
	outcome, err := Execute(r.role, staged, r.resolver, action, r.now())
	if err != nil {
		return "", fmt.Errorf("%s: %w", outcome.Action, err)
	}

	reply, err := r.provider.Chat(ctx, r.conversation(staged, message, outcome))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamAgent, err)
	}
	reply = strings.TrimSpace(reply)

	full := reply
	if outcome.Note != "" {
		full = outcome.Note
		if reply != "" {
			full += "\n\n" + reply
		}
	}

	r.workspace = staged
	r.history = append(r.history,
		llm.Message{Role: llm.RoleUser, Content: message},
		llm.Message{Role: llm.RoleAssistant, Content: full},
	)
	return full, nil
}

func (r *LLMRunner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.workspace.Snapshot()
}

func (r *LLMRunner) conversation(ws *Workspace, message string, outcome Outcome) []llm.Message {
	history := r.history
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	msgs := make([]llm.Message, 0, len(history)+3)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemPrompt(r.role, ws, r.resolver.Catalog())})
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})
	if outcome.Note != "" {
		msgs = append(msgs, llm.Message{
			Role:    llm.RoleSystem,
			Content: fmt.Sprintf("Tool %s output, already shown to the user:\n%s", outcome.Action, outcome.Note),
		})
	}
	return msgs
}

// LLMBuilder builds LLMRunner-backed handles.
type LLMBuilder struct {
	provider llm.LLMProvider
	resolver *facilitation.Resolver
	now      func() time.Time
}

var _ Builder = (*LLMBuilder)(nil)

func NewLLMBuilder(provider llm.LLMProvider, resolver *facilitation.Resolver) *LLMBuilder {
	return &LLMBuilder{provider: provider, resolver: resolver, now: time.Now}
}

func (b *LLMBuilder) Build(ctx context.Context, spec Spec) (*Handle, error) {
	if spec.SessionID == "" {
		return nil, fmt.Errorf("agent: session id is required")
	}
	if _, ok := ParseRole(string(spec.Role)); !ok {
		return nil, fmt.Errorf("agent: unknown role %q", spec.Role)
	}

	ws := NewWorkspace(spec.ProblemStatement)
	if spec.Facilitation != nil {
		if err := spec.Facilitation.Validate(); err != nil {
			return nil, fmt.Errorf("agent: restore facilitation: %w", err)
		}
		ws.Facilitation = spec.Facilitation.Clone()
	}
	if len(spec.Ideas) > 0 {
		ws.Ideas = ideas.Restore(spec.Ideas)
	}

	runner := NewLLMRunner(spec.Role, b.provider, b.resolver, ws, spec.Transcript)
	runner.now = b.now

	return &Handle{
		SessionID: spec.SessionID,
		Role:      spec.Role,
		Runner:    runner,
		CreatedAt: b.now(),
	}, nil
}
