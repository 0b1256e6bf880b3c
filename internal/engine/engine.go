// Package engine runs lifecycle operations against a store.
//
// Every mutating operation is one storage transaction: lock the idea, ask
// lifecycle.Decide whether the operation is legal, write the new status and
// append the thread entries. Either all of it commits or none of it does.
package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/idealoop/ideas/internal/lifecycle"
	"github.com/idealoop/ideas/internal/storage"
	"github.com/idealoop/ideas/internal/telemetry"
	"github.com/idealoop/ideas/internal/types"
)

// Engine executes lifecycle operations. It holds no per-idea state; all
// coordination happens inside the store's transactions.
type Engine struct {
	store       storage.Storage
	policy      lifecycle.Policy
	logger      *slog.Logger
	transitions metric.Int64Counter
	rejections  metric.Int64Counter
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithPolicy replaces the default transition policy.
func WithPolicy(p lifecycle.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// New returns an engine backed by store.
func New(store storage.Storage, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	m := telemetry.Meter("")
	e.transitions, _ = m.Int64Counter("ideas.transitions",
		metric.WithDescription("Lifecycle operations applied"),
	)
	e.rejections, _ = m.Int64Counter("ideas.rejections",
		metric.WithDescription("Lifecycle operations rejected by status or ownership"),
	)
	return e
}

// entry is a thread message an operation appends before its transition event.
type entry struct {
	kind    types.MessageKind
	content string
}

// result is what apply reports back to the operation.
type result struct {
	idea     *types.Idea
	decision lifecycle.Decision
	messages []*types.Message
	caller   string
}

// prepare inspects the locked idea and the decision, mutates the idea's
// non-status fields if needed, and returns the entries to append plus the
// transition summary.
type prepare func(idea *types.Idea, d lifecycle.Decision) ([]entry, string)

// apply runs one lifecycle operation in a transaction.
func (e *Engine) apply(ctx context.Context, id int64, op types.Operation, caller string, prep prepare) (*result, error) {
	if id <= 0 {
		return nil, lifecycle.InvalidArgument("idea id must be positive, got %d", id)
	}
	var res *result
	err := e.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		idea, err := tx.GetIdeaForUpdate(ctx, id)
		if err != nil {
			return err
		}
		d, err := e.policy.Decide(idea.Status, op, idea.OwnerAgent, caller)
		if err != nil {
			return err
		}

		before := *idea
		entries, summary := prep(idea, d)
		idea.Status = d.To
		if idea.Status != before.Status || idea.OwnerAgent != before.OwnerAgent || idea.Content != before.Content {
			if err := tx.UpdateIdea(ctx, idea); err != nil {
				return err
			}
		}

		var msgs []*types.Message
		for _, en := range entries {
			m, err := tx.AppendMessage(ctx, id, en.kind, en.content)
			if err != nil {
				return err
			}
			msgs = append(msgs, m)
		}
		if d.Changed() {
			m, err := tx.AppendMessage(ctx, id, types.KindSystemEvent, lifecycle.TransitionEvent(d, summary))
			if err != nil {
				return err
			}
			msgs = append(msgs, m)
		}
		res = &result{idea: idea, decision: d, messages: msgs, caller: caller}
		return nil
	})
	if err != nil {
		e.reject(ctx, id, op, caller, err)
		return nil, err
	}

	e.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", string(op)),
		attribute.String("from", string(res.decision.From)),
		attribute.String("to", string(res.decision.To)),
	))
	e.logger.InfoContext(ctx, "idea operation applied",
		"idea_id", id,
		"op", op,
		"from", res.decision.From,
		"to", res.decision.To,
		"agent", caller,
	)
	return res, nil
}

func (e *Engine) reject(ctx context.Context, id int64, op types.Operation, caller string, err error) {
	if !IsCallerError(err) {
		e.logger.ErrorContext(ctx, "idea operation failed", "idea_id", id, "op", op, "error", err)
		return
	}
	e.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("op", string(op))))
	e.logger.DebugContext(ctx, "idea operation rejected", "idea_id", id, "op", op, "agent", caller, "error", err)
}

// IsCallerError reports whether err was caused by the request rather than by
// the store: not found, illegal transition, wrong owner or malformed input.
func IsCallerError(err error) bool {
	return errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, lifecycle.ErrInvalidTransition) ||
		errors.Is(err, lifecycle.ErrForbidden) ||
		errors.Is(err, lifecycle.ErrInvalidArgument)
}

func change(r *result) *types.StatusChange {
	return &types.StatusChange{
		ID:        r.idea.ID,
		OldStatus: r.decision.From,
		NewStatus: r.decision.To,
		Message:   lifecycle.Response(r.decision.Op, r.caller),
	}
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return lifecycle.InvalidArgument("%s is required", field)
	}
	return nil
}

func requireAgent(agent string) error {
	return requireText("agent_id", agent)
}
