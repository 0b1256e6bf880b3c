// Package lifecycle holds the idea state machine: which operation is legal in
// which status, who may trigger it, and how transitions are written to the
// thread.
//
// Everything here is pure. Storage and locking live in the engine package;
// Decide is called with the status read under the row lock.
package lifecycle

import (
	"github.com/idealoop/ideas/internal/types"
)

// Initial is the status every idea is created in.
const Initial = types.StatusDraft

// Decision is the outcome of a legal operation.
type Decision struct {
	Op   types.Operation
	From types.Status
	To   types.Status
}

// Changed reports whether the decision moves the idea to a new status.
func (d Decision) Changed() bool {
	return d.From != d.To
}

type rule struct {
	from        map[types.Status]struct{} // nil means every status
	nonTerminal bool                      // from is every non-terminal status
	owner       bool                      // caller must be the owning agent
	next        func(types.Status) types.Status
}

func statuses(ss ...types.Status) map[types.Status]struct{} {
	m := make(map[types.Status]struct{}, len(ss))
	for _, s := range ss {
		m[s] = struct{}{}
	}
	return m
}

func to(s types.Status) func(types.Status) types.Status {
	return func(types.Status) types.Status { return s }
}

func unchanged(s types.Status) types.Status { return s }

// rules is the complete transition table. Create is absent: it has no prior status.
var rules = map[types.Operation]rule{
	types.OpExecute: {
		from: statuses(types.StatusDraft),
		next: to(types.StatusPending),
	},
	types.OpClaim: {
		from: statuses(types.StatusPending),
		next: to(types.StatusClaimed),
	},
	types.OpStart: {
		from:  statuses(types.StatusClaimed, types.StatusWaitingAgent),
		owner: true,
		next:  to(types.StatusExecuting),
	},
	types.OpFeedback: {
		from:  statuses(types.StatusExecuting),
		owner: true,
		next:  unchanged,
	},
	types.OpAsk: {
		from:  statuses(types.StatusExecuting),
		owner: true,
		next:  to(types.StatusWaitingUser),
	},
	types.OpComplete: {
		from:  statuses(types.StatusExecuting),
		owner: true,
		next:  to(types.StatusCompleted),
	},
	types.OpFail: {
		from:  statuses(types.StatusExecuting),
		owner: true,
		next:  to(types.StatusFailed),
	},
	types.OpCancel: {
		nonTerminal: true,
		next:        to(types.StatusCancelled),
	},
	types.OpReply: {
		next: func(s types.Status) types.Status {
			if s == types.StatusWaitingUser {
				return types.StatusWaitingAgent
			}
			return s
		},
	},
	types.OpUpdate: {
		next: unchanged,
	},
}

// Policy adjusts the table for deployments that want stricter rules.
type Policy struct {
	// LockTerminalContent rejects content updates on completed, failed and cancelled ideas.
	LockTerminalContent bool
}

// Decide applies the default policy.
func Decide(current types.Status, op types.Operation, owner, caller string) (Decision, error) {
	return Policy{}.Decide(current, op, owner, caller)
}

// Decide checks op against the idea's current status and, for agent-scoped
// operations, against its owner. The status check runs first, so an owner
// calling from the wrong status gets a TransitionError rather than a
// ForbiddenError.
func (p Policy) Decide(current types.Status, op types.Operation, owner, caller string) (Decision, error) {
	r, ok := rules[op]
	if !ok || !allowed(r, current) {
		return Decision{}, &TransitionError{Current: current, Op: op}
	}
	if op == types.OpUpdate && p.LockTerminalContent && current.IsTerminal() {
		return Decision{}, &TransitionError{Current: current, Op: op}
	}
	if r.owner && owner != caller {
		return Decision{}, &ForbiddenError{Expected: owner, Supplied: caller}
	}
	return Decision{Op: op, From: current, To: r.next(current)}, nil
}

func allowed(r rule, current types.Status) bool {
	if !current.IsValid() {
		return false
	}
	if r.nonTerminal {
		return !current.IsTerminal()
	}
	if r.from == nil {
		return true
	}
	_, ok := r.from[current]
	return ok
}

// Legal lists the operations permitted from a status, ignoring identity.
func Legal(current types.Status) []types.Operation {
	var ops []types.Operation
	for _, op := range operationOrder {
		if r, ok := rules[op]; ok && allowed(r, current) {
			ops = append(ops, op)
		}
	}
	return ops
}

var operationOrder = []types.Operation{
	types.OpExecute,
	types.OpClaim,
	types.OpStart,
	types.OpFeedback,
	types.OpAsk,
	types.OpReply,
	types.OpComplete,
	types.OpFail,
	types.OpCancel,
	types.OpUpdate,
}
