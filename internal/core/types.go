// Package core defines the value types exchanged with the assistant backend:
// threads, messages, runs, tool calls and the outcome of a controller flow.
package core

import (
	"encoding/json"
	"fmt"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Thread is a server-side conversation context
type Thread struct {
	ID string `json:"id"`
}

// TextContent is the payload of a text content part
type TextContent struct {
	Value string `json:"value"`
}

// ContentPart is one element of a message's content. Only text parts carry
// a payload the client understands; other types are kept but ignored.
type ContentPart struct {
	Type string       `json:"type"`
	Text *TextContent `json:"text,omitempty"`
}

// Message is immutable once returned by the backend
type Message struct {
	ID       string        `json:"id"`
	ThreadID string        `json:"thread_id,omitempty"`
	Role     Role          `json:"role"`
	Content  []ContentPart `json:"content"`
}

// Text returns the value of the first text part, or "" when there is none
func (m Message) Text() string {
	for _, part := range m.Content {
		if part.Text != nil {
			return part.Text.Value
		}
	}
	return ""
}

// FunctionCall is the function half of a tool call. Arguments is the JSON
// object encoded as a string, exactly as the backend sends it.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a function invocation the assistant asks the client to perform
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// ToolCallTypeFunction is the only tool call type the client dispatches
const ToolCallTypeFunction = "function"

// FunctionName returns the name of the requested function
func (c ToolCall) FunctionName() string {
	return c.Function.Name
}

// Args returns the call arguments as raw JSON. An empty argument string is
// treated as an empty object.
func (c ToolCall) Args() json.RawMessage {
	if c.Function.Arguments == "" {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(c.Function.Arguments)
}

// DecodeArgs unmarshals the call arguments into v
func (c ToolCall) DecodeArgs(v any) error {
	if err := json.Unmarshal(c.Args(), v); err != nil {
		return fmt.Errorf("invalid arguments for %s: %w", c.Function.Name, err)
	}
	return nil
}

// ToolOutput answers one ToolCall
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// SubmitToolOutputs lists the tool calls awaiting outputs
type SubmitToolOutputs struct {
	ToolCalls []ToolCall `json:"tool_calls"`
}

// RequiredAction is present on a run in the requires_action state
type RequiredAction struct {
	Type              string            `json:"type"`
	SubmitToolOutputs SubmitToolOutputs `json:"submit_tool_outputs"`
}

// RunError describes why a run failed, when the backend says
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Run is one execution of the assistant against a thread
type Run struct {
	ID             string          `json:"id"`
	ThreadID       string          `json:"thread_id"`
	AssistantID    string          `json:"assistant_id,omitempty"`
	Status         RunStatus       `json:"status"`
	RequiredAction *RequiredAction `json:"required_action,omitempty"`
	LastError      *RunError       `json:"last_error,omitempty"`
}

// ToolCalls returns the pending tool calls in the order the backend sent them
func (r *Run) ToolCalls() []ToolCall {
	if r == nil || r.RequiredAction == nil {
		return nil
	}
	return r.RequiredAction.SubmitToolOutputs.ToolCalls
}

// HasToolCall reports whether id names one of the run's pending tool calls
func (r *Run) HasToolCall(id string) bool {
	for _, call := range r.ToolCalls() {
		if call.ID == id {
			return true
		}
	}
	return false
}
