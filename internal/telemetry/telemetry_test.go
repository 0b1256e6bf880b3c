package telemetry

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idealoop/ideas/internal/storage"
	"github.com/idealoop/ideas/internal/types"
)

type stubStorage struct {
	storage.Storage
	calls []string
	err   error
}

func (s *stubStorage) GetIdea(_ context.Context, id int64) (*types.Idea, error) {
	s.calls = append(s.calls, "GetIdea")
	if s.err != nil {
		return nil, s.err
	}
	return &types.Idea{ID: id}, nil
}

func (s *stubStorage) RunInTransaction(_ context.Context, fn func(tx storage.Transaction) error) error {
	s.calls = append(s.calls, "RunInTransaction")
	return fn(nil)
}

func (s *stubStorage) Ping(context.Context) error {
	s.calls = append(s.calls, "Ping")
	return s.err
}

func (s *stubStorage) Close() error { return nil }

func TestWrapStorageDisabledReturnsInner(t *testing.T) {
	require.NoError(t, Init(context.Background(), Options{}))
	inner := &stubStorage{}
	assert.Same(t, inner, WrapStorage(inner))
	assert.False(t, Enabled())
}

func TestWrapStorageEnabled(t *testing.T) {
	var out bytes.Buffer
	ctx := context.Background()
	require.NoError(t, Init(ctx, Options{Enabled: true, Stdout: true, ServiceName: "ideas-test", Version: "dev", Writer: &out}))
	t.Cleanup(func() { Shutdown(context.Background()) })
	require.True(t, Enabled())

	inner := &stubStorage{}
	wrapped := WrapStorage(inner)
	_, ok := wrapped.(*InstrumentedStorage)
	require.True(t, ok)

	idea, err := wrapped.GetIdea(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), idea.ID)

	ran := false
	require.NoError(t, wrapped.RunInTransaction(ctx, func(storage.Transaction) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)

	inner.err = errors.New("down")
	assert.EqualError(t, wrapped.Ping(ctx), "down")
	assert.Equal(t, []string{"GetIdea", "RunInTransaction", "Ping"}, inner.calls)

	Shutdown(ctx)
	assert.Contains(t, out.String(), "storage.GetIdea")
}

func TestInitExportsToOTLPEndpoint(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(collector.Close)

	ctx := context.Background()
	endpoint := strings.TrimPrefix(collector.URL, "http://")
	require.NoError(t, Init(ctx, Options{Enabled: true, ServiceName: "ideas-test", Version: "dev", OTLPEndpoint: endpoint}))
	require.True(t, Enabled())

	_, span := Tracer("").Start(ctx, "otlp-check")
	span.End()
	counter, err := Meter("").Int64Counter("ideas.test.counter")
	require.NoError(t, err)
	counter.Add(ctx, 1)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	Shutdown(shutdownCtx)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, paths, "/v1/traces")
	assert.Contains(t, paths, "/v1/metrics")
}

func TestInitWithoutExporters(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Init(context.Background(), Options{Enabled: true, ServiceName: "ideas-test", Writer: &out}))
	t.Cleanup(func() { Shutdown(context.Background()) })
	assert.True(t, Enabled())
}
