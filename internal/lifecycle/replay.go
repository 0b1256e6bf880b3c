package lifecycle

import (
	"errors"
	"fmt"

	"github.com/idealoop/ideas/internal/types"
)

// ErrInconsistentThread is returned when a thread's system events do not form
// a valid chain of transitions.
var ErrInconsistentThread = errors.New("inconsistent thread")

// Replay reconstructs an idea's status from its thread. Messages must be in
// thread order. Only system events are read; the chain must start with
// CreatedEvent and every transition must leave from the status the previous
// one reached.
func Replay(messages []*types.Message) (types.Status, error) {
	var status types.Status
	for _, m := range messages {
		if m.Kind != types.KindSystemEvent {
			continue
		}
		if m.Content == CreatedEvent {
			if status != "" {
				return "", fmt.Errorf("%w: message %d: idea created twice", ErrInconsistentThread, m.ID)
			}
			status = Initial
			continue
		}
		from, to, ok := ParseTransitionEvent(m.Content)
		if !ok {
			continue
		}
		if status == "" {
			return "", fmt.Errorf("%w: message %d: transition before creation", ErrInconsistentThread, m.ID)
		}
		if from != status {
			return "", fmt.Errorf("%w: message %d: transition from %s but idea was %s",
				ErrInconsistentThread, m.ID, from, status)
		}
		status = to
	}
	if status == "" {
		return "", fmt.Errorf("%w: no creation event", ErrInconsistentThread)
	}
	return status, nil
}
