package assistant

import (
	"context"

	"github.com/Backland-Labs/waitlist/internal/core"
)

// Transport performs the backend calls a Controller needs. Implementations
// return *TransportError for network failures and non-2xx responses and
// *ProtocolError for responses missing required fields.
type Transport interface {
	CreateThread(ctx context.Context) (*core.Thread, error)
	CreateMessage(ctx context.Context, threadID, content string) (*core.Message, error)
	CreateRun(ctx context.Context, threadID, assistantID string) (*core.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*core.Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []core.ToolOutput) error

	// ListMessages returns the thread's message page, newest first
	ListMessages(ctx context.Context, threadID string) ([]core.Message, error)
}
