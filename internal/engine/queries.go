package engine

import (
	"context"
	"errors"

	"github.com/idealoop/ideas/internal/lifecycle"
	"github.com/idealoop/ideas/internal/types"
)

// Get returns an idea with its full thread.
func (e *Engine) Get(ctx context.Context, id int64) (*types.IdeaWithMessages, error) {
	idea, err := e.store.GetIdea(ctx, id)
	if err != nil {
		return nil, err
	}
	msgs, err := e.store.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	return &types.IdeaWithMessages{Idea: *idea, Messages: msgs}, nil
}

// Messages returns an idea's thread oldest first.
func (e *Engine) Messages(ctx context.Context, id int64) ([]*types.Message, error) {
	if _, err := e.store.GetIdea(ctx, id); err != nil {
		return nil, err
	}
	return e.store.ListMessages(ctx, id)
}

// List returns every idea, newest first, optionally restricted to one status.
func (e *Engine) List(ctx context.Context, status *types.Status) ([]*types.Idea, error) {
	if status != nil && !status.IsValid() {
		return nil, lifecycle.InvalidArgument("unknown status %q", *status)
	}
	return e.store.ListIdeas(ctx, types.IdeaFilter{Status: status, OrderBy: types.OrderNewestFirst})
}

// Poll returns the ideas an agent should pick up: pending or waiting_agent,
// least recently updated first.
func (e *Engine) Poll(ctx context.Context) ([]*types.Idea, error) {
	var statuses []types.Status
	for _, s := range types.AllStatuses {
		if s.IsPollable() {
			statuses = append(statuses, s)
		}
	}
	return e.store.ListIdeas(ctx, types.IdeaFilter{
		Statuses: statuses,
		OrderBy:  types.OrderLeastRecentlyUpdated,
	})
}

// Verification compares an idea's stored status with the one its thread replays to.
type Verification struct {
	ID         int64        `json:"id"`
	Status     types.Status `json:"status"`
	Replayed   types.Status `json:"replayed,omitempty"`
	Consistent bool         `json:"consistent"`
	Problem    string       `json:"problem,omitempty"`
}

// Verify replays an idea's thread and checks it arrives at the stored status.
func (e *Engine) Verify(ctx context.Context, id int64) (*Verification, error) {
	got, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := &Verification{ID: id, Status: got.Status}
	replayed, err := lifecycle.Replay(got.Messages)
	switch {
	case errors.Is(err, lifecycle.ErrInconsistentThread):
		v.Problem = err.Error()
	case err != nil:
		return nil, err
	default:
		v.Replayed = replayed
		v.Consistent = replayed == got.Status
		if !v.Consistent {
			v.Problem = "thread replays to " + string(replayed)
		}
	}
	if !v.Consistent {
		e.logger.WarnContext(ctx, "idea thread inconsistent", "idea_id", id, "status", got.Status, "problem", v.Problem)
	}
	return v, nil
}
