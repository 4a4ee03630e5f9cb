// Package chat drives a conversation between a terminal user and the
// assistant: it sends what the user types, answers the tool calls a run asks
// for, and shows the replies.
package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Backland-Labs/waitlist/internal/assistant"
	"github.com/Backland-Labs/waitlist/internal/core"
	"github.com/Backland-Labs/waitlist/internal/logger"
)

// DefaultMaxToolRounds bounds how many batches of tool calls one message may
// trigger
const DefaultMaxToolRounds = 8

// ErrTooManyToolRounds is returned when a run keeps asking for tool outputs
var ErrTooManyToolRounds = errors.New("assistant requested too many tool rounds")

// ErrNoRecognizedTools is returned when none of a run's tool calls could be
// answered
var ErrNoRecognizedTools = errors.New("assistant requested only unknown tools")

// Controller is the run lifecycle the session drives
type Controller interface {
	CreateThread(ctx context.Context) (*core.Thread, error)
	SendMessage(ctx context.Context, text string) (core.Outcome, error)
	SendToolOutputs(ctx context.Context, outputs []core.ToolOutput) (core.Outcome, error)
	AbandonRun() error
}

// Dispatcher answers a batch of tool calls
type Dispatcher interface {
	Dispatch(ctx context.Context, calls []core.ToolCall) []core.ToolOutput
}

// Presenter shows the conversation to the user
type Presenter interface {
	ShowUser(text string)
	ShowAssistant(messages []core.Message)
	ShowError(message string)
	Busy()
	Idle()
}

// Session is one conversation on one thread
type Session struct {
	controller Controller
	tools      Dispatcher
	presenter  Presenter
	maxRounds  int
}

// NewSession creates a session. maxRounds <= 0 selects DefaultMaxToolRounds.
func NewSession(controller Controller, tools Dispatcher, presenter Presenter, maxRounds int) *Session {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	return &Session{
		controller: controller,
		tools:      tools,
		presenter:  presenter,
		maxRounds:  maxRounds,
	}
}

// Start opens a new thread for the conversation
func (s *Session) Start(ctx context.Context) error {
	thread, err := s.controller.CreateThread(ctx)
	if err != nil {
		s.presenter.ShowError(fmt.Sprintf("Error connecting to the assistant: %v", err))
		return err
	}
	logger.WithField("thread_id", thread.ID).Debug("Chat session started")
	return nil
}

// Send delivers text and shows the assistant's reply, answering any tool
// calls the run makes on the way
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.presenter.ShowUser(text)
	s.presenter.Busy()

	outcome, err := s.controller.SendMessage(ctx, text)
	for round := 0; err == nil && outcome.Kind == core.OutcomeRequiresAction; round++ {
		if round >= s.maxRounds {
			err = s.abandon(ErrTooManyToolRounds)
			break
		}

		s.presenter.Idle()
		outputs := s.tools.Dispatch(ctx, outcome.ToolCalls())
		if len(outputs) == 0 {
			err = s.abandon(ErrNoRecognizedTools)
			break
		}
		if skipped := len(outcome.ToolCalls()) - len(outputs); skipped > 0 {
			logger.WithField("skipped", skipped).Warn("Submitting outputs for recognized tool calls only")
		}

		s.presenter.Busy()
		outcome, err = s.controller.SendToolOutputs(ctx, outputs)
	}
	s.presenter.Idle()

	if err != nil {
		s.presenter.ShowError(describe(err))
		return err
	}

	s.presenter.ShowAssistant(outcome.Chronological())
	return nil
}

// Run reads one message per line from in until EOF or ctx is done. "/new"
// starts a fresh thread. Errors from single messages are shown and the loop
// goes on.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			s.handleLine(ctx, line)
		}
	}
}

func (s *Session) handleLine(ctx context.Context, line string) {
	switch strings.TrimSpace(line) {
	case "":
		return
	case "/new":
		_ = s.Start(ctx)
	default:
		if err := s.Send(ctx, line); err != nil {
			logger.WithField("error", err).Debug("Message failed")
		}
	}
}

func (s *Session) abandon(reason error) error {
	if err := s.controller.AbandonRun(); err != nil {
		return errors.Join(reason, err)
	}
	return reason
}

// describe turns a flow error into the line shown to the user
func describe(err error) string {
	switch {
	case errors.Is(err, assistant.ErrAlreadyActive):
		return "Please wait for the assistant to finish replying."
	case errors.Is(err, assistant.ErrNoThread):
		return "Not connected to the assistant. Type /new to reconnect."
	case errors.Is(err, assistant.ErrRunFailed), errors.Is(err, assistant.ErrRunCancelled):
		return fmt.Sprintf("The assistant could not answer: %v", err)
	default:
		return fmt.Sprintf("Error talking to the assistant: %v", err)
	}
}
