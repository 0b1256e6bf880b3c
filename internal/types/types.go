// Package types defines core data structures for the ideas service.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Idea is a unit of work that moves through the execution lifecycle.
type Idea struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	Status     Status    `json:"status"`
	OwnerAgent string    `json:"agent_id,omitempty"` // Set on claim, never cleared
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks that the idea can be persisted.
func (i *Idea) Validate() error {
	if strings.TrimSpace(i.Content) == "" {
		return fmt.Errorf("content is required")
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", i.Status)
	}
	return nil
}

// IdeaWithMessages is an idea together with its full thread, oldest first.
type IdeaWithMessages struct {
	Idea
	Messages []*Message `json:"messages"`
}

// Status represents the current lifecycle state of an idea
type Status string

// Idea status constants
const (
	StatusDraft        Status = "draft"
	StatusPending      Status = "pending"
	StatusClaimed      Status = "claimed"
	StatusExecuting    Status = "executing"
	StatusWaitingUser  Status = "waiting_user"
	StatusWaitingAgent Status = "waiting_agent"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusCancelled    Status = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusDraft,
	StatusPending,
	StatusClaimed,
	StatusExecuting,
	StatusWaitingUser,
	StatusWaitingAgent,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

// IsValid checks if the status value is part of the vocabulary
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusClaimed, StatusExecuting, StatusWaitingUser,
		StatusWaitingAgent, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further lifecycle transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// IsPollable reports whether an agent should pick the idea up.
func (s Status) IsPollable() bool {
	return s == StatusPending || s == StatusWaitingAgent
}

// ParseStatus converts user input into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// MessageKind categorizes thread entries
type MessageKind string

// Message kind constants
const (
	KindUserInput     MessageKind = "user_input"
	KindAgentFeedback MessageKind = "agent_feedback"
	KindSystemEvent   MessageKind = "system_event"
)

// IsValid checks if the message kind is part of the vocabulary
func (k MessageKind) IsValid() bool {
	switch k {
	case KindUserInput, KindAgentFeedback, KindSystemEvent:
		return true
	}
	return false
}

// Message is one immutable entry in an idea's thread.
type Message struct {
	ID        int64       `json:"id"`
	IdeaID    int64       `json:"idea_id"`
	Kind      MessageKind `json:"type"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// Operation names a lifecycle operation.
type Operation string

// Operation constants
const (
	OpCreate   Operation = "create"
	OpExecute  Operation = "execute"
	OpClaim    Operation = "claim"
	OpStart    Operation = "start"
	OpFeedback Operation = "feedback"
	OpAsk      Operation = "ask"
	OpReply    Operation = "reply"
	OpComplete Operation = "complete"
	OpFail     Operation = "fail"
	OpCancel   Operation = "cancel"
	OpUpdate   Operation = "update"
)

// IsAgentScoped reports whether the operation requires the caller to be the owning agent.
func (o Operation) IsAgentScoped() bool {
	switch o {
	case OpStart, OpFeedback, OpAsk, OpComplete, OpFail:
		return true
	}
	return false
}

// StatusChange is the result of a mutating lifecycle operation.
type StatusChange struct {
	ID        int64  `json:"id"`
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
	Message   string `json:"message"`
}

// IdeaFilter narrows ListIdeas.
type IdeaFilter struct {
	Status   *Status  // Single status, nil means all
	Statuses []Status // Any of these statuses; used by poll
	OrderBy  IdeaOrder
	Limit    int
}

// IdeaOrder selects the ordering of a listing.
type IdeaOrder int

const (
	// OrderNewestFirst sorts by created_at descending, id descending.
	OrderNewestFirst IdeaOrder = iota
	// OrderLeastRecentlyUpdated sorts by updated_at ascending, id ascending.
	OrderLeastRecentlyUpdated
)
