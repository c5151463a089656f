// Package agents defines the turn-handling contract shared by the four
// conversation agents and the router that dispatches between them.
package agents

import (
	"context"

	contractx "github.com/bancoagil/atendimento/agent/contract"
	statex "github.com/bancoagil/atendimento/agent/state"
)

// Handoff asks the router to move the session to another agent. When
// Redeliver is set the same inbound text is processed again by the target;
// otherwise Reply.Text already answers the turn.
type Handoff struct {
	Target    contractx.AgentType
	Redeliver bool
}

// Reply is one agent's answer to a turn.
type Reply struct {
	Text    string
	Handoff *Handoff
}

// Agent handles the turns of one conversation phase. Process mutates the
// session through its methods only, and converts collaborator failures into
// user-facing text: a non-nil error means a broken invariant, not a broken
// dependency.
type Agent interface {
	Type() contractx.AgentType
	Process(ctx context.Context, text string, st *statex.SessionState) (Reply, error)
}

// HandoffTo is a convenience constructor for redelivering handoffs.
func HandoffTo(target contractx.AgentType) Reply {
	return Reply{Handoff: &Handoff{Target: target, Redeliver: true}}
}
