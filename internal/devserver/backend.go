package devserver

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Backland-Labs/waitlist/internal/core"
)

// Errors returned by Backend
var (
	ErrThreadNotFound = errors.New("thread not found")
	ErrRunNotFound    = errors.New("run not found")
	ErrRunActive      = errors.New("thread already has an active run")
	ErrRunNotWaiting  = errors.New("run is not waiting for tool outputs")
	ErrBadToolOutputs = errors.New("tool outputs do not match the pending tool calls")
)

// Responder decides what the fake assistant does with a run. Plan is asked
// once when the run starts working; Finish once its tool outputs are in.
type Responder interface {
	Plan(userText string) (calls []core.ToolCall, reply string)
	Finish(userText string, calls []core.ToolCall, outputs []core.ToolOutput) string
}

type thread struct {
	id       string
	messages []core.Message // oldest first
	runs     map[string]*run
	active   string
}

type run struct {
	core.Run
	userText string
	calls    []core.ToolCall
	reply    string
	planned  bool
	answered bool
}

// Backend is an in-memory stand-in for the assistant service. Runs advance one
// step per status fetch: queued, in_progress, then requires_action or
// completed.
type Backend struct {
	mu        sync.Mutex
	threads   map[string]*thread
	responder Responder
}

// NewBackend creates an empty backend
func NewBackend(responder Responder) *Backend {
	return &Backend{
		threads:   make(map[string]*thread),
		responder: responder,
	}
}

func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// CreateThread starts an empty thread
func (b *Backend) CreateThread() core.Thread {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := &thread{id: newID("thread"), runs: make(map[string]*run)}
	b.threads[t.id] = t
	return core.Thread{ID: t.id}
}

// AddMessage appends a user message to a thread
func (b *Backend) AddMessage(threadID, content string) (core.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.threads[threadID]
	if !ok {
		return core.Message{}, ErrThreadNotFound
	}
	if t.active != "" {
		return core.Message{}, ErrRunActive
	}
	msg := textMessage(threadID, core.RoleUser, content)
	t.messages = append(t.messages, msg)
	return msg, nil
}

// CreateRun starts a run on the thread's latest user message
func (b *Backend) CreateRun(threadID, assistantID string) (core.Run, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.threads[threadID]
	if !ok {
		return core.Run{}, ErrThreadNotFound
	}
	if t.active != "" {
		return core.Run{}, ErrRunActive
	}

	r := &run{
		Run: core.Run{
			ID:          newID("run"),
			ThreadID:    threadID,
			AssistantID: assistantID,
			Status:      core.RunQueued,
		},
		userText: lastUserText(t.messages),
	}
	t.runs[r.ID] = r
	t.active = r.ID
	return r.Run, nil
}

// Poll returns the run after advancing it one step
func (b *Backend) Poll(threadID, runID string) (core.Run, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, r, err := b.lookup(threadID, runID)
	if err != nil {
		return core.Run{}, err
	}

	switch r.Status {
	case core.RunQueued:
		r.Status = core.RunInProgress
	case core.RunInProgress:
		if !r.planned {
			r.calls, r.reply = b.responder.Plan(r.userText)
			r.planned = true
		}
		if len(r.calls) > 0 && !r.answered {
			r.Status = core.RunRequiresAction
			r.RequiredAction = &core.RequiredAction{
				Type:              "submit_tool_outputs",
				SubmitToolOutputs: core.SubmitToolOutputs{ToolCalls: r.calls},
			}
			break
		}
		b.complete(t, r)
	}
	return r.Run, nil
}

// SubmitToolOutputs answers a run waiting on tool calls. Every pending call
// must get exactly one output.
func (b *Backend) SubmitToolOutputs(threadID, runID string, outputs []core.ToolOutput) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, r, err := b.lookup(threadID, runID)
	if err != nil {
		return err
	}
	if r.Status != core.RunRequiresAction {
		return ErrRunNotWaiting
	}
	if err := matchOutputs(r.calls, outputs); err != nil {
		return err
	}

	r.reply = b.responder.Finish(r.userText, r.calls, outputs)
	r.answered = true
	r.RequiredAction = nil
	r.Status = core.RunInProgress
	return nil
}

// Messages returns the thread's messages, newest first
func (b *Backend) Messages(threadID string) ([]core.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.threads[threadID]
	if !ok {
		return nil, ErrThreadNotFound
	}
	out := make([]core.Message, len(t.messages))
	for i, m := range t.messages {
		out[len(t.messages)-1-i] = m
	}
	return out, nil
}

func (b *Backend) complete(t *thread, r *run) {
	r.Status = core.RunCompleted
	if r.reply != "" {
		t.messages = append(t.messages, textMessage(t.id, core.RoleAssistant, r.reply))
	}
	t.active = ""
}

func (b *Backend) lookup(threadID, runID string) (*thread, *run, error) {
	t, ok := b.threads[threadID]
	if !ok {
		return nil, nil, ErrThreadNotFound
	}
	r, ok := t.runs[runID]
	if !ok {
		return nil, nil, ErrRunNotFound
	}
	return t, r, nil
}

func matchOutputs(calls []core.ToolCall, outputs []core.ToolOutput) error {
	if len(outputs) != len(calls) {
		return fmt.Errorf("%w: got %d outputs for %d calls", ErrBadToolOutputs, len(outputs), len(calls))
	}
	pending := make(map[string]bool, len(calls))
	for _, c := range calls {
		pending[c.ID] = true
	}
	for _, out := range outputs {
		if !pending[out.ToolCallID] {
			return fmt.Errorf("%w: unexpected tool call id %s", ErrBadToolOutputs, out.ToolCallID)
		}
		delete(pending, out.ToolCallID)
	}
	return nil
}

func textMessage(threadID string, role core.Role, text string) core.Message {
	return core.Message{
		ID:       newID("msg"),
		ThreadID: threadID,
		Role:     role,
		Content:  []core.ContentPart{{Type: "text", Text: &core.TextContent{Value: text}}},
	}
}

func lastUserText(messages []core.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == core.RoleUser {
			return messages[i].Text()
		}
	}
	return ""
}
