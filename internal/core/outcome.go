package core

// OutcomeKind tells which of the two results a controller flow produced
type OutcomeKind int

const (
	// OutcomeCompleted carries the messages that are new to the caller
	OutcomeCompleted OutcomeKind = iota + 1
	// OutcomeRequiresAction carries a run waiting for tool outputs
	OutcomeRequiresAction
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomeRequiresAction:
		return "requires_action"
	default:
		return "unknown"
	}
}

// Outcome is the resolved result of SendMessage or SendToolOutputs
type Outcome struct {
	Kind OutcomeKind

	// Messages is set for OutcomeCompleted, newest first
	Messages []Message

	// Run is set for OutcomeRequiresAction
	Run *Run
}

// Completed builds a completed outcome
func Completed(messages []Message) Outcome {
	return Outcome{Kind: OutcomeCompleted, Messages: messages}
}

// RequiresAction builds an outcome that hands tool calls to the caller
func RequiresAction(run *Run) Outcome {
	return Outcome{Kind: OutcomeRequiresAction, Run: run}
}

// ToolCalls returns the pending tool calls of a requires-action outcome
func (o Outcome) ToolCalls() []ToolCall {
	return o.Run.ToolCalls()
}

// Chronological returns the outcome's messages oldest first
func (o Outcome) Chronological() []Message {
	out := make([]Message, len(o.Messages))
	for i, m := range o.Messages {
		out[len(o.Messages)-1-i] = m
	}
	return out
}
