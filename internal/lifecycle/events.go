package lifecycle

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/idealoop/ideas/internal/types"
)

// CreatedEvent is the first system event of every thread.
const CreatedEvent = "Idea created"

// DefaultCompletionSummary is recorded when complete is called without a summary.
const DefaultCompletionSummary = "Task completed successfully"

const updatePrefixLen = 50

// Summary is the human-readable part of the system event for a transition.
func Summary(op types.Operation, agent, detail string) string {
	switch op {
	case types.OpExecute:
		return "Execution requested"
	case types.OpClaim:
		return "Claimed by agent: " + agent
	case types.OpStart:
		return "Execution started by agent: " + agent
	case types.OpAsk:
		return "Agent requested user instruction"
	case types.OpReply:
		return "User provided instruction, waiting for agent to continue"
	case types.OpComplete:
		return "Task completed"
	case types.OpFail:
		return "Task failed: " + detail
	case types.OpCancel:
		return "Execution cancelled"
	}
	return string(op)
}

// Response is the short message returned to the caller of an operation. It
// differs from the thread summary: the thread keeps the detail.
func Response(op types.Operation, agent string) string {
	switch op {
	case types.OpExecute:
		return "Idea marked for execution"
	case types.OpClaim:
		return "Task claimed by agent " + agent
	case types.OpStart:
		return "Execution started"
	case types.OpFeedback:
		return "Feedback recorded"
	case types.OpAsk:
		return "Waiting for user instruction"
	case types.OpComplete:
		return "Task completed"
	case types.OpFail:
		return "Task failed"
	case types.OpCancel:
		return "Idea cancelled"
	}
	return string(op)
}

// TransitionEvent formats the system event recorded for a status change.
// The "[old -> new]" prefix is what Replay reads back.
func TransitionEvent(d Decision, summary string) string {
	return fmt.Sprintf("[%s -> %s] %s", d.From, d.To, summary)
}

// ParseTransitionEvent extracts the status change encoded by TransitionEvent.
func ParseTransitionEvent(content string) (from, to types.Status, ok bool) {
	if !strings.HasPrefix(content, "[") {
		return "", "", false
	}
	end := strings.Index(content, "]")
	if end < 0 {
		return "", "", false
	}
	left, right, found := strings.Cut(content[1:end], " -> ")
	if !found {
		return "", "", false
	}
	from, to = types.Status(left), types.Status(right)
	if !from.IsValid() || !to.IsValid() {
		return "", "", false
	}
	return from, to, true
}

// QuestionFeedback is the agent_feedback text recorded by ask.
func QuestionFeedback(question string) string {
	return "[Question] " + question
}

// CompletedFeedback is the agent_feedback text recorded by complete.
func CompletedFeedback(summary string) string {
	if strings.TrimSpace(summary) == "" {
		summary = DefaultCompletionSummary
	}
	return "[Completed] " + summary
}

// FailedFeedback is the agent_feedback text recorded by fail.
func FailedFeedback(reason string) string {
	return "[Failed] " + reason
}

// ContentUpdatedEvent records the start of the content an update replaced.
func ContentUpdatedEvent(old string) string {
	if utf8.RuneCountInString(old) <= updatePrefixLen {
		return "Content updated from: " + old
	}
	runes := []rune(old)
	return "Content updated from: " + string(runes[:updatePrefixLen]) + "..."
}
