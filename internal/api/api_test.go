package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idealoop/ideas/internal/engine"
	"github.com/idealoop/ideas/internal/lifecycle"
	"github.com/idealoop/ideas/internal/storage"
	"github.com/idealoop/ideas/internal/storage/sqlite"
	"github.com/idealoop/ideas/internal/types"
)

type fixture struct {
	client *Client
	srv    *httptest.Server
	logs   *syncBuffer
}

// syncBuffer lets the test read log output while handlers are still writing.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "ideas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logs := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(logs, nil))
	srv := httptest.NewServer(NewServer(engine.New(store), store, "", logger).Handler())
	t.Cleanup(srv.Close)
	return &fixture{client: NewClient(srv.URL, 5*time.Second), srv: srv, logs: logs}
}

func TestFullLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)
	c := f.client
	ctx := context.Background()

	idea, err := c.Create(ctx, "Build a CLI")
	require.NoError(t, err)
	assert.Equal(t, types.StatusDraft, idea.Status)

	sc, err := c.Execute(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, sc.NewStatus)

	polled, err := c.Poll(ctx)
	require.NoError(t, err)
	require.Len(t, polled, 1)

	_, err = c.Claim(ctx, idea.ID, "A")
	require.NoError(t, err)
	_, err = c.Start(ctx, idea.ID, "A")
	require.NoError(t, err)
	_, err = c.Feedback(ctx, idea.ID, "A", "scaffolded the project")
	require.NoError(t, err)
	sc, err = c.Ask(ctx, idea.ID, "A", "Go or Rust?")
	require.NoError(t, err)
	assert.Equal(t, types.StatusWaitingUser, sc.NewStatus)

	msg, err := c.Reply(ctx, idea.ID, "Go")
	require.NoError(t, err)
	assert.Equal(t, types.KindUserInput, msg.Kind)

	sc, err = c.Complete(ctx, idea.ID, "A", "")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, sc.NewStatus)

	got, err := c.Get(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.Status)
	assert.Equal(t, "A", got.OwnerAgent)
	assert.Len(t, got.Messages, 12)

	msgs, err := c.Messages(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Messages[len(got.Messages)-1].ID, msgs[len(msgs)-1].ID)

	v, err := c.Verify(ctx, idea.ID)
	require.NoError(t, err)
	assert.True(t, v.Consistent)
	assert.Equal(t, types.StatusCompleted, v.Replayed)
}

func TestErrorsSurviveTheWire(t *testing.T) {
	f := newFixture(t)
	c := f.client
	ctx := context.Background()

	_, err := c.Get(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	idea, err := c.Create(ctx, "x")
	require.NoError(t, err)

	_, err = c.Claim(ctx, idea.ID, "A")
	require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	var te *lifecycle.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, types.StatusDraft, te.Current)
	assert.Equal(t, types.OpClaim, te.Op)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

	_, err = c.Execute(ctx, idea.ID)
	require.NoError(t, err)
	_, err = c.Claim(ctx, idea.ID, "A")
	require.NoError(t, err)

	_, err = c.Start(ctx, idea.ID, "B")
	require.ErrorIs(t, err, lifecycle.ErrForbidden)
	var fe *lifecycle.ForbiddenError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "A", fe.Expected)
	assert.Equal(t, "B", fe.Supplied)

	_, err = c.Create(ctx, "   ")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidArgument)

	_, err = c.Fail(ctx, idea.ID, "A", "")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidArgument)
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		method, path, body string
		code               int
	}{
		{http.MethodGet, "/api/ideas/abc", "", http.StatusBadRequest},
		{http.MethodGet, "/api/ideas/0", "", http.StatusBadRequest},
		{http.MethodGet, "/api/ideas?status_filter=bogus", "", http.StatusBadRequest},
		{http.MethodPost, "/api/ideas", "{not json", http.StatusBadRequest},
		{http.MethodPost, "/api/agent/claim/1", "", http.StatusBadRequest},
		{http.MethodPost, "/api/agent/claim/1", `{"agent_id":"A"}`, http.StatusNotFound},
		{http.MethodDelete, "/api/ideas/7", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path+" "+tc.body, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, f.srv.URL+tc.path, strings.NewReader(tc.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.code, resp.StatusCode)
			var body ErrorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestListFilterAndUpdateDelete(t *testing.T) {
	f := newFixture(t)
	c := f.client
	ctx := context.Background()

	first, err := c.Create(ctx, "first")
	require.NoError(t, err)
	second, err := c.Create(ctx, "second")
	require.NoError(t, err)
	_, err = c.Execute(ctx, second.ID)
	require.NoError(t, err)

	all, err := c.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	draft := types.StatusDraft
	drafts, err := c.List(ctx, &draft)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, first.ID, drafts[0].ID)

	content := "first, revised"
	updated, err := c.Update(ctx, first.ID, &content)
	require.NoError(t, err)
	assert.Equal(t, content, updated.Content)

	unchanged, err := c.Update(ctx, first.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, content, unchanged.Content)

	require.NoError(t, c.Delete(ctx, first.ID))
	_, err = c.Get(ctx, first.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	empty, err := c.List(ctx, &draft)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCancelIsTerminal(t *testing.T) {
	c := newFixture(t).client
	ctx := context.Background()

	idea, err := c.Create(ctx, "x")
	require.NoError(t, err)
	sc, err := c.Cancel(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCancelled, sc.NewStatus)

	_, err = c.Cancel(ctx, idea.ID)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestRequestIDAndAccessLog(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))

	resp, err = http.Get(f.srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Len(t, resp.Header.Get(RequestIDHeader), 36)

	require.Eventually(t, func() bool {
		return strings.Contains(f.logs.String(), `"request_id":"req-123"`)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, f.logs.String(), `"path":"/health"`)
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("database is locked") }

func TestHealth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.client.Health(ctx))
	require.NoError(t, f.client.WaitHealthy(ctx, time.Second))

	srv := httptest.NewServer(NewServer(nil, downStore{}, "", nil).Handler())
	defer srv.Close()
	err := NewClient(srv.URL, time.Second).Health(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "locked")
}

func TestServerStartAndShutdown(t *testing.T) {
	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "ideas.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(engine.New(store), store, "127.0.0.1:0", nil)
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return s.Addr() != "127.0.0.1:0" }, 2*time.Second, 10*time.Millisecond)
	c := NewClient("http://"+s.Addr(), time.Second)
	require.NoError(t, c.WaitHealthy(ctx, 2*time.Second))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
