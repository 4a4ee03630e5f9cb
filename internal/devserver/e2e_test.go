package devserver_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go/v2/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Backland-Labs/waitlist/internal/articles"
	"github.com/Backland-Labs/waitlist/internal/assistant"
	"github.com/Backland-Labs/waitlist/internal/chat"
	"github.com/Backland-Labs/waitlist/internal/devserver"
	"github.com/Backland-Labs/waitlist/internal/output"
	"github.com/Backland-Labs/waitlist/internal/subscribe"
	"github.com/Backland-Labs/waitlist/internal/tools"
)

type harness struct {
	session *chat.Session
	sink    *subscribe.SQLiteSink
	out     *bytes.Buffer
}

// newHarness wires the chat stack the way the CLI does, against a dev server
// backed by the scripted assistant
func newHarness(t *testing.T) *harness {
	t.Helper()

	sink, err := subscribe.OpenSQLite(filepath.Join(t.TempDir(), "subscribers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	srv := httptest.NewServer(devserver.NewServer(0, devserver.NewBackend(devserver.ScriptedAssistant{}), sink).Handler())
	t.Cleanup(srv.Close)

	transport, err := assistant.NewHTTPTransport(srv.URL, 5*time.Second)
	require.NoError(t, err)
	controller, err := assistant.NewController(transport, "asst_e2e", assistant.WithPollInterval(time.Millisecond))
	require.NoError(t, err)

	ranker, err := articles.NewOpenAIRanker(srv.URL+"/", "", "gpt-4o-mini", option.WithMaxRetries(0))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	presenter := chat.NewTerminalPresenter(output.NewPrinterWithWriters(out, out, false))

	registry, err := tools.NewRegistry(tools.Builtins(tools.Collaborators{
		Subscriber:  subscribe.NewClient(srv.URL, 5*time.Second),
		Highlighter: presenter,
		Ranker:      ranker,
		Catalog:     articles.DefaultCatalog(),
		Presenter:   presenter,
	})...)
	require.NoError(t, err)

	return &harness{
		session: chat.NewSession(controller, registry, presenter, 0),
		sink:    sink,
		out:     out,
	}
}

func TestEndToEnd_Greeting(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.session.Start(ctx))
	require.NoError(t, h.session.Send(ctx, "hello"))

	assert.Contains(t, h.out.String(), "You: hello")
	assert.Contains(t, h.out.String(), "Assistant: Thanks for stopping by!")
}

func TestEndToEnd_SubscribesValidEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.session.Start(ctx))
	require.NoError(t, h.session.Send(ctx, "Please add Jane@Example.com"))

	assert.Contains(t, h.out.String(), "You're on the waitlist.")

	subs, err := h.sink.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "jane@example.com", subs[0].Email)
}

func TestEndToEnd_RejectsInvalidEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.session.Start(ctx))
	require.NoError(t, h.session.Send(ctx, "my email is jane@example"))

	assert.Contains(t, h.out.String(), "doesn't look quite right")

	subs, err := h.sink.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestEndToEnd_CareSituation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.session.Start(ctx))
	require.NoError(t, h.session.Send(ctx, "My mom has dementia and I need memory care advice"))

	got := h.out.String()
	assert.Contains(t, got, "My mom has *dementia* and I need *memory care* advice")
	assert.Contains(t, got, tools.ArticlesIntro)
	assert.Contains(t, got, "https://sandwich-club.onrender.com/articles/Hn4TfW9a")
	assert.Contains(t, got, "https://sandwich-club.onrender.com/articles/PCEiUdUj")
	assert.Contains(t, got, "just leave your email address here")
}

func TestEndToEnd_ReplLoop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	in := strings.NewReader("hello\n/new\nsign me up: sam@example.org\n")
	require.NoError(t, h.session.Run(ctx, in))

	assert.Equal(t, 1, strings.Count(h.out.String(), "Thanks for stopping by!"))
	assert.Contains(t, h.out.String(), "You're on the waitlist.")

	subs, err := h.sink.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "sam@example.org", subs[0].Email)
}
