package engine

import (
	"context"

	"github.com/idealoop/ideas/internal/lifecycle"
	"github.com/idealoop/ideas/internal/storage"
	"github.com/idealoop/ideas/internal/types"
)

// Create stores a new draft idea and opens its thread.
func (e *Engine) Create(ctx context.Context, content string) (*types.Idea, error) {
	if err := requireText("content", content); err != nil {
		return nil, err
	}
	idea := &types.Idea{Content: content, Status: lifecycle.Initial}
	err := e.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := tx.InsertIdea(ctx, idea); err != nil {
			return err
		}
		_, err := tx.AppendMessage(ctx, idea.ID, types.KindSystemEvent, lifecycle.CreatedEvent)
		return err
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "create idea failed", "error", err)
		return nil, err
	}
	e.logger.InfoContext(ctx, "idea created", "idea_id", idea.ID)
	return idea, nil
}

// Execute hands a draft to the agent queue.
func (e *Engine) Execute(ctx context.Context, id int64) (*types.StatusChange, error) {
	res, err := e.apply(ctx, id, types.OpExecute, "", func(_ *types.Idea, d lifecycle.Decision) ([]entry, string) {
		return nil, lifecycle.Summary(d.Op, "", "")
	})
	if err != nil {
		return nil, err
	}
	return change(res), nil
}

// Claim assigns a pending idea to agent. Of several concurrent claims exactly
// one succeeds; the rest see the claimed status and fail with
// lifecycle.ErrInvalidTransition.
func (e *Engine) Claim(ctx context.Context, id int64, agent string) (*types.StatusChange, error) {
	if err := requireAgent(agent); err != nil {
		return nil, err
	}
	res, err := e.apply(ctx, id, types.OpClaim, agent, func(idea *types.Idea, d lifecycle.Decision) ([]entry, string) {
		idea.OwnerAgent = agent
		return nil, lifecycle.Summary(d.Op, agent, "")
	})
	if err != nil {
		return nil, err
	}
	return change(res), nil
}

// Start begins or resumes execution by the owning agent.
func (e *Engine) Start(ctx context.Context, id int64, agent string) (*types.StatusChange, error) {
	if err := requireAgent(agent); err != nil {
		return nil, err
	}
	res, err := e.apply(ctx, id, types.OpStart, agent, func(_ *types.Idea, d lifecycle.Decision) ([]entry, string) {
		return nil, lifecycle.Summary(d.Op, agent, "")
	})
	if err != nil {
		return nil, err
	}
	return change(res), nil
}

// Feedback records progress from the owning agent without changing status.
func (e *Engine) Feedback(ctx context.Context, id int64, agent, content string) (*types.StatusChange, error) {
	if err := requireAgent(agent); err != nil {
		return nil, err
	}
	if err := requireText("content", content); err != nil {
		return nil, err
	}
	res, err := e.apply(ctx, id, types.OpFeedback, agent, func(_ *types.Idea, _ lifecycle.Decision) ([]entry, string) {
		return []entry{{types.KindAgentFeedback, content}}, ""
	})
	if err != nil {
		return nil, err
	}
	return change(res), nil
}

// Ask parks the idea until the user replies.
func (e *Engine) Ask(ctx context.Context, id int64, agent, question string) (*types.StatusChange, error) {
	if err := requireAgent(agent); err != nil {
		return nil, err
	}
	if err := requireText("question", question); err != nil {
		return nil, err
	}
	res, err := e.apply(ctx, id, types.OpAsk, agent, func(_ *types.Idea, d lifecycle.Decision) ([]entry, string) {
		return []entry{{types.KindAgentFeedback, lifecycle.QuestionFeedback(question)}},
			lifecycle.Summary(d.Op, agent, "")
	})
	if err != nil {
		return nil, err
	}
	return change(res), nil
}

// Reply appends user input. If the idea was waiting on the user it goes back
// to the agent queue; in any other status the message is recorded as is.
func (e *Engine) Reply(ctx context.Context, id int64, content string) (*types.Message, error) {
	if err := requireText("content", content); err != nil {
		return nil, err
	}
	res, err := e.apply(ctx, id, types.OpReply, "", func(_ *types.Idea, d lifecycle.Decision) ([]entry, string) {
		return []entry{{types.KindUserInput, content}}, lifecycle.Summary(d.Op, "", "")
	})
	if err != nil {
		return nil, err
	}
	return res.messages[0], nil
}

// Complete finishes execution. An empty summary records the default wording.
func (e *Engine) Complete(ctx context.Context, id int64, agent, summary string) (*types.StatusChange, error) {
	if err := requireAgent(agent); err != nil {
		return nil, err
	}
	res, err := e.apply(ctx, id, types.OpComplete, agent, func(_ *types.Idea, d lifecycle.Decision) ([]entry, string) {
		return []entry{{types.KindAgentFeedback, lifecycle.CompletedFeedback(summary)}},
			lifecycle.Summary(d.Op, agent, "")
	})
	if err != nil {
		return nil, err
	}
	return change(res), nil
}

// Fail ends execution unsuccessfully.
func (e *Engine) Fail(ctx context.Context, id int64, agent, reason string) (*types.StatusChange, error) {
	if err := requireAgent(agent); err != nil {
		return nil, err
	}
	if err := requireText("reason", reason); err != nil {
		return nil, err
	}
	res, err := e.apply(ctx, id, types.OpFail, agent, func(_ *types.Idea, d lifecycle.Decision) ([]entry, string) {
		return []entry{{types.KindAgentFeedback, lifecycle.FailedFeedback(reason)}},
			lifecycle.Summary(d.Op, agent, reason)
	})
	if err != nil {
		return nil, err
	}
	return change(res), nil
}

// Cancel stops a non-terminal idea.
func (e *Engine) Cancel(ctx context.Context, id int64) (*types.StatusChange, error) {
	res, err := e.apply(ctx, id, types.OpCancel, "", func(_ *types.Idea, d lifecycle.Decision) ([]entry, string) {
		return nil, lifecycle.Summary(d.Op, "", "")
	})
	if err != nil {
		return nil, err
	}
	return change(res), nil
}

// Update replaces the idea's content. A nil content is a no-op that still
// checks the idea exists and returns it.
func (e *Engine) Update(ctx context.Context, id int64, content *string) (*types.Idea, error) {
	if content != nil {
		if err := requireText("content", *content); err != nil {
			return nil, err
		}
	}
	res, err := e.apply(ctx, id, types.OpUpdate, "", func(idea *types.Idea, _ lifecycle.Decision) ([]entry, string) {
		if content == nil {
			return nil, ""
		}
		old := idea.Content
		idea.Content = *content
		return []entry{{types.KindSystemEvent, lifecycle.ContentUpdatedEvent(old)}}, ""
	})
	if err != nil {
		return nil, err
	}
	return res.idea, nil
}

// Delete removes an idea and its thread. It is not a lifecycle transition and
// is allowed in every status.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return lifecycle.InvalidArgument("idea id must be positive, got %d", id)
	}
	if err := e.store.DeleteIdea(ctx, id); err != nil {
		e.reject(ctx, id, "delete", "", err)
		return err
	}
	e.logger.InfoContext(ctx, "idea deleted", "idea_id", id)
	return nil
}
