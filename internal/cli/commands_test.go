package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Backland-Labs/waitlist/internal/config"
	"github.com/Backland-Labs/waitlist/internal/devserver"
	"github.com/Backland-Labs/waitlist/internal/output"
	"github.com/Backland-Labs/waitlist/internal/subscribe"
	"github.com/Backland-Labs/waitlist/internal/tools"
)

type MockConfigLoader struct {
	mock.Mock
}

func (m *MockConfigLoader) Load() (*config.Config, error) {
	args := m.Called()
	cfg, _ := args.Get(0).(*config.Config)
	return cfg, args.Error(1)
}

// testConfig points every backend at url
func testConfig(url string, dir string) *config.Config {
	return &config.Config{
		Env:           config.EnvProduction,
		APIURL:        url,
		AssistantID:   "asst_cli",
		PollInterval:  time.Millisecond,
		HTTPTimeout:   5 * time.Second,
		Verbosity:     config.VerbosityNormal,
		SubscribersDB: filepath.Join(dir, "subscribers.db"),
		Ranker: config.RankerConfig{
			Model:   config.DefaultRankerModel,
			BaseURL: url + "/",
		},
	}
}

type cliHarness struct {
	loader *MockConfigLoader
	out    *bytes.Buffer
	deps   *Dependencies
}

func newCLIHarness(cfg *config.Config, stdin string) *cliHarness {
	loader := new(MockConfigLoader)
	loader.On("Load").Return(cfg, nil)
	out := &bytes.Buffer{}
	return &cliHarness{
		loader: loader,
		out:    out,
		deps: &Dependencies{
			ConfigLoader: loader,
			Stdin:        strings.NewReader(stdin),
			Printer:      output.NewPrinterWithWriters(out, out, false),
		},
	}
}

func (h *cliHarness) run(args ...string) (string, error) {
	cmd := newRootCommand(h.deps)
	cmdOut := &bytes.Buffer{}
	cmd.SetOut(cmdOut)
	cmd.SetErr(cmdOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return cmdOut.String(), err
}

func startDevServer(t *testing.T, sub devserver.Subscriber) string {
	t.Helper()
	srv := httptest.NewServer(devserver.NewServer(0, devserver.NewBackend(devserver.ScriptedAssistant{}), sub).Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestSendCommand(t *testing.T) {
	url := startDevServer(t, nil)
	h := newCLIHarness(testConfig(url, t.TempDir()), "")

	_, err := h.run("send", "hello", "there")
	require.NoError(t, err)

	assert.Contains(t, h.out.String(), "You: hello there")
	assert.Contains(t, h.out.String(), "Assistant: Thanks for stopping by!")
	h.loader.AssertExpectations(t)
}

func TestSendCommand_SubscribesThroughBackend(t *testing.T) {
	sink, err := subscribe.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer sink.Close()
	url := startDevServer(t, sink)
	h := newCLIHarness(testConfig(url, t.TempDir()), "")

	_, err = h.run("send", "count me in: ana@example.com")
	require.NoError(t, err)

	assert.Contains(t, h.out.String(), "You're on the waitlist.")
	subs, err := sink.List(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "ana@example.com", subs[0].Email)
}

func TestSendCommand_DevelopmentUsesLocalSink(t *testing.T) {
	url := startDevServer(t, nil)
	cfg := testConfig(url, t.TempDir())
	cfg.Env = config.EnvDevelopment
	h := newCLIHarness(cfg, "")

	_, err := h.run("send", "ana@example.com")
	require.NoError(t, err)

	sink, err := subscribe.OpenSQLite(cfg.SubscribersDB)
	require.NoError(t, err)
	defer sink.Close()
	subs, err := sink.List(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "ana@example.com", subs[0].Email)
}

func TestSendCommand_Errors(t *testing.T) {
	t.Run("config failure", func(t *testing.T) {
		loader := new(MockConfigLoader)
		loader.On("Load").Return(nil, errors.New("bad env"))
		h := &cliHarness{loader: loader, out: &bytes.Buffer{}}
		h.deps = &Dependencies{ConfigLoader: loader, Printer: output.NewPrinterWithWriters(h.out, h.out, false)}

		_, err := h.run("send", "hi")
		assert.ErrorContains(t, err, "failed to load config: bad env")
	})

	t.Run("missing assistant", func(t *testing.T) {
		cfg := testConfig("http://localhost:1", t.TempDir())
		cfg.AssistantID = ""
		h := newCLIHarness(cfg, "")

		_, err := h.run("send", "hi")
		assert.ErrorContains(t, err, "WAITLIST_ASSISTANT_ID is required")
	})

	t.Run("backend unreachable", func(t *testing.T) {
		url := startDevServer(t, nil)
		cfg := testConfig(url+"/nowhere", t.TempDir())
		h := newCLIHarness(cfg, "")

		_, err := h.run("send", "hi")
		assert.Error(t, err)
		assert.Contains(t, h.out.String(), "Error connecting to the assistant")
	})

	t.Run("blank message", func(t *testing.T) {
		h := newCLIHarness(testConfig("http://localhost:1", t.TempDir()), "")

		_, err := h.run("send", "   ")
		assert.ErrorContains(t, err, "message cannot be empty")
	})
}

func TestChatCommand(t *testing.T) {
	url := startDevServer(t, nil)
	h := newCLIHarness(testConfig(url, t.TempDir()), "hello\n\nMy dad had a fall last week\n")

	_, err := h.run("chat")
	require.NoError(t, err)

	got := h.out.String()
	assert.Contains(t, got, "Connected to "+url)
	assert.Contains(t, got, "Thanks for stopping by!")
	assert.Contains(t, got, "My dad had a *fall* last week")
	assert.Contains(t, got, tools.ArticlesIntro)
}

func TestToolsCommand(t *testing.T) {
	h := newCLIHarness(nil, "")

	out, err := h.run("tools")
	require.NoError(t, err)

	var defs []struct {
		Type     string `json:"type"`
		Function struct {
			Name       string          `json:"name"`
			Parameters json.RawMessage `json:"parameters"`
		} `json:"function"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &defs))
	require.Len(t, defs, 3)

	names := make([]string, len(defs))
	for i, d := range defs {
		assert.Equal(t, "function", d.Type)
		assert.NotEmpty(t, d.Function.Parameters)
		names[i] = d.Function.Name
	}
	assert.Equal(t, []string{tools.ValidateEmailName, tools.HighlightCareTermsName, tools.RecommendArticlesName}, names)
	h.loader.AssertNotCalled(t, "Load")
}

func TestSubscribersCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig("http://localhost:1", dir)

	h := newCLIHarness(cfg, "")
	out, err := h.run("subscribers")
	require.NoError(t, err)
	assert.Equal(t, "No subscribers yet\n", out)

	sink, err := subscribe.OpenSQLite(cfg.SubscribersDB)
	require.NoError(t, err)
	require.NoError(t, sink.Subscribe(context.Background(), "Ana@Example.com"))
	require.NoError(t, sink.Close())

	out, err = h.run("subscribers")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ana@example.com\t"), out)
}

func TestLocalFlagSwitchesToDevelopment(t *testing.T) {
	cfg := testConfig("http://localhost:1", t.TempDir())
	h := newCLIHarness(cfg, "")

	_, err := h.run("--local", "subscribers")
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, config.DevelopmentURL, cfg.APIURL)
}
