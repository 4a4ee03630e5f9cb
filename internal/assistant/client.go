package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Backland-Labs/waitlist/internal/core"
	"github.com/Backland-Labs/waitlist/internal/logger"
)

const defaultTimeout = 30 * time.Second

// HTTPTransport implements Transport against the backend's JSON API
type HTTPTransport struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPTransport creates a transport for the backend at baseURL
func NewHTTPTransport(baseURL string, timeout time.Duration) (*HTTPTransport, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// CreateThread implements Transport.CreateThread
func (t *HTTPTransport) CreateThread(ctx context.Context) (*core.Thread, error) {
	const op = "create thread"

	var thread core.Thread
	if err := t.doJSON(ctx, op, http.MethodPost, "/threads/create", nil, &thread); err != nil {
		return nil, err
	}
	if thread.ID == "" {
		return nil, protocol(op, ErrMalformedResponse, "thread has no id")
	}
	return &thread, nil
}

// CreateMessage implements Transport.CreateMessage
func (t *HTTPTransport) CreateMessage(ctx context.Context, threadID, content string) (*core.Message, error) {
	const op = "create message"

	req := struct {
		ThreadID string `json:"threadId"`
		Content  string `json:"content"`
	}{ThreadID: threadID, Content: content}

	var msg core.Message
	if err := t.doJSON(ctx, op, http.MethodPost, "/messages/create", req, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, protocol(op, ErrMalformedResponse, "message has no id")
	}
	return &msg, nil
}

// CreateRun implements Transport.CreateRun
func (t *HTTPTransport) CreateRun(ctx context.Context, threadID, assistantID string) (*core.Run, error) {
	const op = "create run"

	req := struct {
		AssistantID string `json:"assistant_id"`
	}{AssistantID: assistantID}

	var run core.Run
	path := fmt.Sprintf("/threads/%s/runs/create", url.PathEscape(threadID))
	if err := t.doJSON(ctx, op, http.MethodPost, path, req, &run); err != nil {
		return nil, err
	}
	if err := validateRun(op, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun implements Transport.GetRun
func (t *HTTPTransport) GetRun(ctx context.Context, threadID, runID string) (*core.Run, error) {
	const op = "get run"

	var run core.Run
	path := fmt.Sprintf("/threads/%s/runs/%s", url.PathEscape(threadID), url.PathEscape(runID))
	if err := t.doJSON(ctx, op, http.MethodGet, path, nil, &run); err != nil {
		return nil, err
	}
	if err := validateRun(op, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// SubmitToolOutputs implements Transport.SubmitToolOutputs. The response
// body is opaque text and is only logged.
func (t *HTTPTransport) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []core.ToolOutput) error {
	const op = "submit tool outputs"

	req := struct {
		ToolOutputs []core.ToolOutput `json:"tool_outputs"`
	}{ToolOutputs: outputs}

	path := fmt.Sprintf("/threads/%s/runs/%s/submit_tool_outputs", url.PathEscape(threadID), url.PathEscape(runID))
	body, err := t.do(ctx, op, http.MethodPost, path, req)
	if err != nil {
		return err
	}
	logger.WithField("response_size", len(body)).Debug("Tool outputs submitted")
	return nil
}

// ListMessages implements Transport.ListMessages
func (t *HTTPTransport) ListMessages(ctx context.Context, threadID string) ([]core.Message, error) {
	const op = "list messages"

	var page struct {
		Data []core.Message `json:"data"`
	}
	path := fmt.Sprintf("/threads/%s/messages", url.PathEscape(threadID))
	if err := t.doJSON(ctx, op, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	if page.Data == nil {
		return nil, protocol(op, ErrMalformedResponse, "response has no data field")
	}
	for i, msg := range page.Data {
		if msg.ID == "" {
			return nil, protocol(op, ErrMalformedResponse, fmt.Sprintf("message %d has no id", i))
		}
	}
	return page.Data, nil
}

func validateRun(op string, run *core.Run) error {
	if run.ID == "" {
		return protocol(op, ErrMalformedResponse, "run has no id")
	}
	if run.Status == core.RunStatusUnknown {
		return protocol(op, ErrMalformedResponse, "run has no status")
	}
	return nil
}

// doJSON performs a request and decodes the JSON response into out
func (t *HTTPTransport) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	body, err := t.do(ctx, op, method, path, in)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return protocol(op, ErrMalformedResponse, fmt.Sprintf("failed to decode response: %v", err))
	}
	return nil
}

// do performs a request and returns the body of a 2xx response
func (t *HTTPTransport) do(ctx context.Context, op, method, path string, in any) ([]byte, error) {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	log := logger.WithFields(map[string]interface{}{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})
	log.Debug("Sending backend request")

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: 0, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Warn("Backend request failed")
		return nil, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	return body, nil
}
