package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatus_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wire     string
		expected RunStatus
		terminal bool
	}{
		{"queued", RunQueued, false},
		{"in_progress", RunInProgress, false},
		{"requires_action", RunRequiresAction, false},
		{"cancelling", RunCancelling, false},
		{"completed", RunCompleted, true},
		{"failed", RunFailed, true},
		{"cancelled", RunCancelled, true},
		{"expired", RunExpired, true},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			var status RunStatus
			require.NoError(t, json.Unmarshal([]byte(`"`+tt.wire+`"`), &status))
			assert.Equal(t, tt.expected, status)
			assert.Equal(t, tt.terminal, status.IsTerminal())

			out, err := json.Marshal(status)
			require.NoError(t, err)
			assert.JSONEq(t, `"`+tt.wire+`"`, string(out))
		})
	}
}

func TestRunStatus_RejectsUnknown(t *testing.T) {
	t.Parallel()

	var run Run
	err := json.Unmarshal([]byte(`{"id":"run_1","status":"paused"}`), &run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown run status "paused"`)

	_, err = json.Marshal(RunStatusUnknown)
	assert.Error(t, err)
}

func TestRun_DecodesRequiredAction(t *testing.T) {
	t.Parallel()

	payload := `{
		"id": "run_1",
		"thread_id": "thread_1",
		"status": "requires_action",
		"required_action": {
			"type": "submit_tool_outputs",
			"submit_tool_outputs": {
				"tool_calls": [
					{"id": "a", "type": "function", "function": {"name": "validate_email", "arguments": "{\"email_address\":\"x@y.com\"}"}},
					{"id": "b", "type": "function", "function": {"name": "highlight_care_terms", "arguments": ""}}
				]
			}
		}
	}`

	var run Run
	require.NoError(t, json.Unmarshal([]byte(payload), &run))

	calls := run.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "a", calls[0].ID)
	assert.Equal(t, "validate_email", calls[0].FunctionName())
	assert.True(t, run.HasToolCall("b"))
	assert.False(t, run.HasToolCall("c"))

	var args struct {
		EmailAddress string `json:"email_address"`
	}
	require.NoError(t, calls[0].DecodeArgs(&args))
	assert.Equal(t, "x@y.com", args.EmailAddress)
	assert.JSONEq(t, `{}`, string(calls[1].Args()))
}

func TestToolCall_DecodeArgsError(t *testing.T) {
	t.Parallel()

	call := ToolCall{ID: "a", Function: FunctionCall{Name: "recommend_articles", Arguments: "{not json"}}
	var v map[string]any
	err := call.DecodeArgs(&v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid arguments for recommend_articles")
}

func TestMessage_Text(t *testing.T) {
	t.Parallel()

	msg := Message{
		ID:   "m1",
		Role: RoleAssistant,
		Content: []ContentPart{
			{Type: "image_file"},
			{Type: "text", Text: &TextContent{Value: "hello"}},
		},
	}
	assert.Equal(t, "hello", msg.Text())
	assert.Empty(t, Message{ID: "m2"}.Text())
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	completed := Completed([]Message{{ID: "m3"}, {ID: "m2"}, {ID: "m1"}})
	assert.Equal(t, OutcomeCompleted, completed.Kind)
	assert.Equal(t, "completed", completed.Kind.String())
	assert.Nil(t, completed.ToolCalls())

	chrono := completed.Chronological()
	require.Len(t, chrono, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{chrono[0].ID, chrono[1].ID, chrono[2].ID})
	assert.Equal(t, "m3", completed.Messages[0].ID, "Chronological must not reorder the outcome")

	run := &Run{ID: "run_1", RequiredAction: &RequiredAction{SubmitToolOutputs: SubmitToolOutputs{
		ToolCalls: []ToolCall{{ID: "a"}, {ID: "b"}},
	}}}
	action := RequiresAction(run)
	assert.Equal(t, OutcomeRequiresAction, action.Kind)
	assert.Len(t, action.ToolCalls(), 2)
}

func TestState_Transitions(t *testing.T) {
	t.Parallel()

	var s State
	assert.False(t, s.HasThread())
	assert.False(t, s.HasActiveRun())

	s = s.WithThread(Thread{ID: "thread_1"})
	s = s.AdvanceCursor("m1")
	s = s.WithRun(Run{ID: "run_1", ThreadID: "thread_1", Status: RunQueued})
	require.NoError(t, s.Validate())
	assert.True(t, s.HasActiveRun())

	before := s
	after := s.ClearRun()
	assert.True(t, before.HasActiveRun(), "transitions must not mutate the receiver")
	assert.False(t, after.HasActiveRun())

	assert.Equal(t, "m1", after.AdvanceCursor("").Cursor)

	replaced := s.WithThread(Thread{ID: "thread_2"})
	assert.Equal(t, "thread_2", replaced.Thread.ID)
	assert.Empty(t, replaced.Cursor)
	assert.False(t, replaced.HasActiveRun())
}

func TestState_Validate(t *testing.T) {
	t.Parallel()

	thread := &Thread{ID: "thread_1"}
	tests := []struct {
		name     string
		state    State
		errorMsg string
	}{
		{"empty", State{}, ""},
		{"thread only", State{Thread: thread}, ""},
		{"run without thread", State{ActiveRun: &Run{ID: "run_1"}}, "without a thread"},
		{"run on other thread", State{Thread: thread, ActiveRun: &Run{ID: "run_1", ThreadID: "thread_9", Status: RunQueued}}, "belongs to thread thread_9"},
		{"terminal active run", State{Thread: thread, ActiveRun: &Run{ID: "run_1", Status: RunCompleted}}, "is completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}
