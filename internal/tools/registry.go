package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/Backland-Labs/waitlist/internal/core"
	"github.com/Backland-Labs/waitlist/internal/logger"
)

// Handler performs one tool call and returns the output text reported back
// to the run
type Handler interface {
	Handle(ctx context.Context, args json.RawMessage) (string, error)
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(ctx context.Context, args json.RawMessage) (string, error)

// Handle calls f(ctx, args)
func (f HandlerFunc) Handle(ctx context.Context, args json.RawMessage) (string, error) {
	return f(ctx, args)
}

// Definition describes a function the assistant may call
type Definition struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Handler     Handler
}

// Registry holds the tool definitions known to the client
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string
}

// NewRegistry creates a registry holding defs
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition)}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds def. Names are unique.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %s has no handler", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("tool %s is already registered", def.Name)
	}
	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Lookup returns the definition registered under name
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Definitions returns every definition in registration order
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.defs[name])
	}
	return defs
}

// Dispatch runs the handler of every function call in calls, in order, and
// returns their outputs as one batch. Calls of another type and calls to
// unknown functions are skipped with a warning. A handler error becomes the
// output text of its call.
func (r *Registry) Dispatch(ctx context.Context, calls []core.ToolCall) []core.ToolOutput {
	outputs := make([]core.ToolOutput, 0, len(calls))

	for _, call := range calls {
		log := logger.WithFields(map[string]interface{}{
			"tool_call_id": call.ID,
			"function":     call.FunctionName(),
		})

		if call.Type != core.ToolCallTypeFunction {
			log.WithField("type", call.Type).Debug("Skipping non-function tool call")
			continue
		}

		def, ok := r.Lookup(call.FunctionName())
		if !ok {
			log.Warn("Unknown function requested by assistant")
			continue
		}

		log.WithField("arguments", call.Function.Arguments).Debug("Processing tool call")
		output, err := def.Handler.Handle(ctx, call.Args())
		if err != nil {
			log.WithField("error", err).Error("Tool call failed")
			output = "error: " + err.Error()
		}
		outputs = append(outputs, core.ToolOutput{ToolCallID: call.ID, Output: output})
	}

	return outputs
}
