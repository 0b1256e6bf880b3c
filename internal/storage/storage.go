// Package storage provides the persistence contract for ideas and their threads.
//
// Concrete backends live in the sqlite and mysql sub-packages. Both give
// RunInTransaction the same guarantee: an idea read with GetIdeaForUpdate
// cannot be modified by another transaction until this one commits or rolls
// back.
package storage

import (
	"context"
	"errors"

	"github.com/idealoop/ideas/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist in the database.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned by operations on a store that has been closed.
var ErrClosed = errors.New("storage closed")

// Storage is the interface satisfied by the sqlite and mysql stores.
// Consumers depend on this interface rather than on a concrete type so that
// decorators (telemetry) can be substituted.
type Storage interface {
	// Reads
	GetIdea(ctx context.Context, id int64) (*types.Idea, error)
	ListIdeas(ctx context.Context, filter types.IdeaFilter) ([]*types.Idea, error)
	ListMessages(ctx context.Context, ideaID int64) ([]*types.Message, error)

	// DeleteIdea removes an idea and its thread.
	DeleteIdea(ctx context.Context, id int64) error

	// RunInTransaction executes fn in a single atomic transaction.
	// If fn returns an error or panics, every write is rolled back.
	RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// Transaction provides the writes of one lifecycle operation.
//
// Example usage:
//
//	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
//	    idea, err := tx.GetIdeaForUpdate(ctx, id)
//	    if err != nil {
//	        return err // Triggers rollback
//	    }
//	    idea.Status = types.StatusPending
//	    if err := tx.UpdateIdea(ctx, idea); err != nil {
//	        return err
//	    }
//	    _, err = tx.AppendMessage(ctx, id, types.KindSystemEvent, "[draft -> pending] Execution requested")
//	    return err // nil triggers commit
//	})
type Transaction interface {
	// GetIdeaForUpdate reads an idea and holds its row until the transaction ends.
	GetIdeaForUpdate(ctx context.Context, id int64) (*types.Idea, error)

	// InsertIdea stores a new idea, assigning its ID and timestamps.
	InsertIdea(ctx context.Context, idea *types.Idea) error

	// UpdateIdea writes content, status and owner, refreshing UpdatedAt.
	UpdateIdea(ctx context.Context, idea *types.Idea) error

	// AppendMessage adds an entry to the end of an idea's thread.
	AppendMessage(ctx context.Context, ideaID int64, kind types.MessageKind, content string) (*types.Message, error)
}
