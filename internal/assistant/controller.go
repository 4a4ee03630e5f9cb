package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Backland-Labs/waitlist/internal/core"
	"github.com/Backland-Labs/waitlist/internal/logger"
)

// DefaultPollInterval is the fixed wait before each run status poll
const DefaultPollInterval = 2500 * time.Millisecond

// Controller sequences message submission, run creation and polling for one
// thread. It is safe for concurrent use; concurrent flows are refused rather
// than queued.
type Controller struct {
	transport   Transport
	assistantID string
	interval    time.Duration
	sleeper     Sleeper

	mu    sync.Mutex
	state core.State
	busy  bool // a flow or thread creation owns the controller
}

// Option configures a Controller
type Option func(*Controller)

// WithPollInterval overrides DefaultPollInterval
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithSleeper replaces the timer used between polls
func WithSleeper(s Sleeper) Option {
	return func(c *Controller) {
		if s != nil {
			c.sleeper = s
		}
	}
}

// NewController creates a controller that starts runs for assistantID
func NewController(transport Transport, assistantID string, opts ...Option) (*Controller, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if assistantID == "" {
		return nil, fmt.Errorf("assistant ID is required")
	}

	c := &Controller{
		transport:   transport,
		assistantID: assistantID,
		interval:    DefaultPollInterval,
		sleeper:     timerSleeper{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns a snapshot of the controller state
func (c *Controller) State() core.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CreateThread creates a new thread and makes it the controller's thread.
// An existing thread is replaced, not merged; a run on it that was waiting
// for tool outputs is abandoned.
func (c *Controller) CreateThread(ctx context.Context) (*core.Thread, error) {
	const op = "create thread"

	if err := c.acquire(op); err != nil {
		return nil, err
	}
	defer c.release()

	thread, err := c.transport.CreateThread(ctx)
	if err != nil {
		logger.WithField("error", err).Error("Error creating thread")
		return nil, err
	}

	c.update(func(s core.State) core.State { return s.WithThread(*thread) })
	logger.WithField("thread_id", thread.ID).Info("Thread created")
	return thread, nil
}

// SendMessage posts text to the thread, starts a run and polls it until it
// completes or requires action.
func (c *Controller) SendMessage(ctx context.Context, text string) (core.Outcome, error) {
	const op = "send message"

	threadID, err := c.begin(op, func(s core.State) error {
		if !s.HasThread() {
			return ErrNoThread
		}
		if strings.TrimSpace(text) == "" {
			return ErrEmptyContent
		}
		if s.HasActiveRun() {
			return ErrAlreadyActive
		}
		return nil
	})
	if err != nil {
		return core.Outcome{}, err
	}
	defer c.release()

	msg, err := c.transport.CreateMessage(ctx, threadID, text)
	if err != nil {
		logger.WithField("error", err).Error("Error creating message")
		return core.Outcome{}, err
	}
	// The user's own message is never reported back as new.
	c.update(func(s core.State) core.State { return s.AdvanceCursor(msg.ID) })
	logger.WithFields(map[string]interface{}{
		"thread_id":  threadID,
		"message_id": msg.ID,
	}).Debug("Message created")

	run, err := c.transport.CreateRun(ctx, threadID, c.assistantID)
	if err != nil {
		logger.WithField("error", err).Error("Error creating run")
		return core.Outcome{}, err
	}
	c.update(func(s core.State) core.State { return s.WithRun(*run) })
	logger.WithRun(threadID, run.ID).WithField("status", run.Status.String()).Debug("Run started")

	return c.poll(ctx, threadID, run.ID)
}

// SendToolOutputs submits outputs for the run waiting on them and resumes
// polling it. Every output must answer a tool call of that run.
func (c *Controller) SendToolOutputs(ctx context.Context, outputs []core.ToolOutput) (core.Outcome, error) {
	const op = "send tool outputs"

	var run *core.Run
	threadID, err := c.begin(op, func(s core.State) error {
		if !s.HasThread() {
			return ErrNoThread
		}
		if !s.HasActiveRun() || s.ActiveRun.Status != core.RunRequiresAction {
			return ErrNoActiveRun
		}
		if len(outputs) == 0 {
			return ErrNoToolOutputs
		}
		run = s.ActiveRun
		return nil
	})
	if err != nil {
		return core.Outcome{}, err
	}
	defer c.release()

	runID := run.ID
	for _, out := range outputs {
		if !run.HasToolCall(out.ToolCallID) {
			c.update(core.State.ClearRun)
			return core.Outcome{}, protocol(op, ErrUnknownToolCall, out.ToolCallID)
		}
	}

	if err := c.transport.SubmitToolOutputs(ctx, threadID, runID, outputs); err != nil {
		logger.WithField("error", err).Error("Error submitting tool outputs")
		c.update(core.State.ClearRun)
		return core.Outcome{}, err
	}
	logger.WithRun(threadID, runID).WithField("outputs", len(outputs)).Debug("Tool outputs submitted")

	return c.poll(ctx, threadID, runID)
}

// AbandonRun forgets a run waiting for tool outputs so a new message can be
// sent. The remote run is left to expire.
func (c *Controller) AbandonRun() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return precondition("abandon run", ErrAlreadyActive)
	}
	if !c.state.HasActiveRun() {
		return nil
	}
	logger.WithRun(c.state.Thread.ID, c.state.ActiveRun.ID).Warn("Abandoning run waiting for tool outputs")
	c.state = c.state.ClearRun()
	return nil
}

// poll waits one interval before every status check and returns at the first
// decision point. Any error clears the active run.
func (c *Controller) poll(ctx context.Context, threadID, runID string) (core.Outcome, error) {
	const op = "poll run"
	log := logger.WithRun(threadID, runID)

	for {
		if err := c.sleeper.Sleep(ctx, c.interval); err != nil {
			c.update(core.State.ClearRun)
			return core.Outcome{}, fmt.Errorf("%s: %w", op, err)
		}

		run, err := c.transport.GetRun(ctx, threadID, runID)
		if err != nil {
			log.WithField("error", err).Error("Error retrieving run status")
			c.update(core.State.ClearRun)
			return core.Outcome{}, err
		}
		log.WithField("status", run.Status.String()).Debug("Run status updated")

		switch run.Status {
		case core.RunQueued, core.RunInProgress, core.RunCancelling:
			c.update(func(s core.State) core.State { return s.WithRun(*run) })
			continue

		case core.RunRequiresAction:
			if len(run.ToolCalls()) == 0 {
				c.update(core.State.ClearRun)
				return core.Outcome{}, protocol(op, ErrMalformedResponse, "requires_action run has no tool calls")
			}
			c.update(func(s core.State) core.State { return s.WithRun(*run) })
			return core.RequiresAction(run), nil

		case core.RunCompleted:
			c.update(core.State.ClearRun)
			return c.collect(ctx, threadID)

		case core.RunFailed:
			c.update(core.State.ClearRun)
			reason := ""
			if run.LastError != nil {
				reason = run.LastError.Message
			}
			return core.Outcome{}, protocol(op, ErrRunFailed, reason)

		case core.RunCancelled, core.RunExpired:
			c.update(core.State.ClearRun)
			return core.Outcome{}, protocol(op, ErrRunCancelled, run.Status.String())

		default:
			c.update(core.State.ClearRun)
			return core.Outcome{}, protocol(op, ErrMalformedResponse, "unhandled run status "+run.Status.String())
		}
	}
}

// collect fetches the thread's messages and returns the ones newer than the
// cursor, advancing it
func (c *Controller) collect(ctx context.Context, threadID string) (core.Outcome, error) {
	page, err := c.transport.ListMessages(ctx, threadID)
	if err != nil {
		logger.WithField("error", err).Error("Error retrieving thread messages")
		return core.Outcome{}, err
	}

	c.mu.Lock()
	fresh, cursor := TrimToNew(c.state.Cursor, page)
	c.state = c.state.AdvanceCursor(cursor)
	c.mu.Unlock()

	logger.WithFields(map[string]interface{}{
		"thread_id": threadID,
		"fetched":   len(page),
		"new":       len(fresh),
	}).Debug("Got messages")
	return core.Completed(fresh), nil
}

// begin claims the controller for a flow after check accepts the current
// state, and returns the thread id the flow works on
func (c *Controller) begin(op string, check func(core.State) error) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return "", precondition(op, ErrAlreadyActive)
	}
	if err := check(c.state); err != nil {
		return "", precondition(op, err)
	}
	c.busy = true
	return c.state.Thread.ID, nil
}

func (c *Controller) acquire(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return precondition(op, ErrAlreadyActive)
	}
	c.busy = true
	return nil
}

func (c *Controller) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
}

func (c *Controller) update(transition func(core.State) core.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = transition(c.state)
}

// IsPrecondition reports whether err is a refused call rather than a failure
// of the backend
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
