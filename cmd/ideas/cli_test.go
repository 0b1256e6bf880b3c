package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idealoop/ideas/internal/api"
	"github.com/idealoop/ideas/internal/engine"
	"github.com/idealoop/ideas/internal/lifecycle"
	"github.com/idealoop/ideas/internal/storage/sqlite"
	"github.com/idealoop/ideas/internal/telemetry"
	"github.com/idealoop/ideas/internal/types"
	"github.com/idealoop/ideas/internal/ui"
)

// setup starts an API server on a temp SQLite file and points the CLI at it.
func setup(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	ui.SetColor(false)

	store, err := sqlite.New(context.Background(), filepath.Join(dir, "ideas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	srv := httptest.NewServer(api.NewServer(engine.New(store), store, "", nil).Handler())
	t.Cleanup(srv.Close)
	t.Setenv("IDEAS_API_URL", srv.URL)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func runJSON[T any](t *testing.T, args ...string) T {
	t.Helper()
	out, err := run(t, append([]string{"--json"}, args...)...)
	require.NoError(t, err, out)
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestHumanAndAgentRoundTrip(t *testing.T) {
	setup(t)

	idea := runJSON[types.Idea](t, "create", "Build", "a", "CLI")
	assert.Equal(t, "Build a CLI", idea.Content)
	id := strconv.FormatInt(idea.ID, 10)

	out, err := run(t, "execute", id)
	require.NoError(t, err)
	assert.Contains(t, out, "draft -> pending")

	polled := runJSON[[]types.Idea](t, "agent", "poll")
	require.Len(t, polled, 1)

	_, err = run(t, "--agent", "A", "agent", "claim", id)
	require.NoError(t, err)
	_, err = run(t, "--agent", "A", "agent", "start", id)
	require.NoError(t, err)

	out, err = run(t, "--agent", "B", "agent", "feedback", id, "sneaky")
	require.ErrorIs(t, err, lifecycle.ErrForbidden)
	assert.Empty(t, out)

	sc := runJSON[types.StatusChange](t, "--agent", "A", "agent", "ask", id, "Go", "or", "Rust?")
	assert.Equal(t, types.StatusWaitingUser, sc.NewStatus)

	out, err = run(t, "reply", id, "Go")
	require.NoError(t, err)
	assert.Contains(t, out, "user_input")

	_, err = run(t, "--agent", "A", "agent", "start", id)
	require.NoError(t, err)
	_, err = run(t, "--agent", "A", "agent", "complete", id)
	require.NoError(t, err)

	shown := runJSON[types.IdeaWithMessages](t, "show", id)
	assert.Equal(t, types.StatusCompleted, shown.Status)
	assert.Equal(t, "A", shown.OwnerAgent)

	out, err = run(t, "verify", id)
	require.NoError(t, err)
	assert.Contains(t, out, "thread replays to completed")
}

func TestListUpdateCancelDelete(t *testing.T) {
	setup(t)

	first := runJSON[types.Idea](t, "create", "first")
	runJSON[types.Idea](t, "create", "second")
	id := strconv.FormatInt(first.ID, 10)

	updated := runJSON[types.Idea](t, "update", id, "first", "revised")
	assert.Equal(t, "first revised", updated.Content)

	out, err := run(t, "cancel", id)
	require.NoError(t, err)
	assert.Contains(t, out, "draft -> cancelled")

	_, err = run(t, "cancel", id)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	cancelled := runJSON[[]types.Idea](t, "list", "--status", "cancelled")
	require.Len(t, cancelled, 1)
	assert.Equal(t, first.ID, cancelled[0].ID)

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "first revised")
	assert.Contains(t, out, "second")

	_, err = run(t, "delete", id)
	require.NoError(t, err)
	_, err = run(t, "show", id)
	assert.Error(t, err)

	_, err = run(t, "list", "--status", "nope")
	assert.Error(t, err)
	_, err = run(t, "show", "abc")
	assert.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	setup(t)

	out, err := run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(".ideas", "config.yaml"))
	_, err = os.Stat(filepath.Join(".ideas", "config.yaml"))
	require.NoError(t, err)

	_, err = run(t, "config", "init")
	assert.Error(t, err)

	t.Setenv("IDEAS_MYSQL_PASSWORD", "secret")
	out, err = run(t, "--agent", "cli-agent", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "config file:")
	assert.Contains(t, out, "(env_var)")
	assert.Contains(t, out, "cli-agent (flag)")
	assert.NotContains(t, out, "secret")
}

func TestWriteErrorJSON(t *testing.T) {
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })

	var buf bytes.Buffer
	writeError(&buf, &lifecycle.TransitionError{Current: types.StatusDraft, Op: types.OpClaim})
	var body map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &body))
	assert.Equal(t, api.KindInvalidTransition, body["kind"])
	assert.Equal(t, "cannot claim idea in status draft", body["error"])
}

func TestFlagOverridesAreValidated(t *testing.T) {
	setup(t)

	_, err := run(t, "--api-url", "ftp://ideas.example.com", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.url")

	_, err = run(t, "serve", "--addr", "nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.addr")
}

func TestServeShutsDownTelemetryOnCancel(t *testing.T) {
	setup(t)
	t.Setenv("IDEAS_HTTP_ADDR", "127.0.0.1:0")
	t.Setenv("IDEAS_TELEMETRY_ENABLED", "true")
	t.Setenv("IDEAS_LOG_FILE", filepath.Join(t.TempDir(), "serve.log"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		root := newRootCmd()
		root.SetArgs([]string{"serve"})
		done <- root.ExecuteContext(ctx)
	}()

	require.Eventually(t, telemetry.Enabled, 5*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
	assert.False(t, telemetry.Enabled())
}
