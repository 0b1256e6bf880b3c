//go:build integration

package mysql

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/idealoop/ideas/internal/engine"
	"github.com/idealoop/ideas/internal/lifecycle"
	"github.com/idealoop/ideas/internal/storage"
	"github.com/idealoop/ideas/internal/types"
)

// setupMySQL starts a MySQL container and returns a store connected to it.
func setupMySQL(t *testing.T) *MySQLStore {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8.4",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "root",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(2 * time.Minute),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start mysql container")
	t.Cleanup(func() {
		if err := c.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate MySQL container: %v", err)
		}
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	store, err := New(ctx, Config{
		Host:     host,
		Port:     port.Int(),
		User:     "root",
		Password: "root",
		Database: "ideas_test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMySQLStoreIntegration(t *testing.T) {
	store := setupMySQL(t)
	ctx := context.Background()
	eng := engine.New(store)

	idea, err := eng.Create(ctx, "integration")
	require.NoError(t, err)
	_, err = eng.Execute(ctx, idea.ID)
	require.NoError(t, err)

	t.Run("concurrent claims through the engine", func(t *testing.T) {
		const workers = 8
		var (
			wins   atomic.Int32
			losses atomic.Int32
		)
		var g errgroup.Group
		for i := 0; i < workers; i++ {
			agent := fmt.Sprintf("agent-%d", i)
			g.Go(func() error {
				_, err := eng.Claim(ctx, idea.ID, agent)
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, lifecycle.ErrInvalidTransition):
					losses.Add(1)
				default:
					return err
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(workers-1), losses.Load())
	})

	t.Run("queries", func(t *testing.T) {
		got, err := store.GetIdea(ctx, idea.ID)
		require.NoError(t, err)
		assert.Equal(t, types.StatusClaimed, got.Status)
		assert.NotEmpty(t, got.OwnerAgent)

		msgs, err := store.ListMessages(ctx, idea.ID)
		require.NoError(t, err)
		assert.Len(t, msgs, 3)

		claimed := types.StatusClaimed
		list, err := store.ListIdeas(ctx, types.IdeaFilter{Status: &claimed})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, store.DeleteIdea(ctx, idea.ID))
		_, err := store.GetIdea(ctx, idea.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		msgs, err := store.ListMessages(ctx, idea.ID)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})
}
