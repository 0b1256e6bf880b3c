package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdeaValidation(t *testing.T) {
	tests := []struct {
		name    string
		idea    Idea
		wantErr string
	}{
		{name: "valid draft", idea: Idea{Content: "Build a CLI", Status: StatusDraft}},
		{name: "blank content", idea: Idea{Content: " \n\t", Status: StatusDraft}, wantErr: "content is required"},
		{name: "unknown status", idea: Idea{Content: "x", Status: "paused"}, wantErr: "invalid status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.idea.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStatusClassification(t *testing.T) {
	terminal := map[Status]bool{StatusCompleted: true, StatusFailed: true, StatusCancelled: true}
	pollable := map[Status]bool{StatusPending: true, StatusWaitingAgent: true}

	require.Len(t, AllStatuses, 9)
	for _, s := range AllStatuses {
		assert.True(t, s.IsValid(), s)
		assert.Equal(t, terminal[s], s.IsTerminal(), s)
		assert.Equal(t, pollable[s], s.IsPollable(), s)
	}
	assert.False(t, Status("").IsValid())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("  Waiting_User ")
	require.NoError(t, err)
	assert.Equal(t, StatusWaitingUser, s)

	_, err = ParseStatus("sideways")
	assert.ErrorContains(t, err, `unknown status "sideways"`)
}

func TestMessageKindAndOperations(t *testing.T) {
	for _, k := range []MessageKind{KindUserInput, KindAgentFeedback, KindSystemEvent} {
		assert.True(t, k.IsValid())
	}
	assert.False(t, MessageKind("note").IsValid())

	scoped := []Operation{OpStart, OpFeedback, OpAsk, OpComplete, OpFail}
	for _, op := range scoped {
		assert.True(t, op.IsAgentScoped(), op)
	}
	for _, op := range []Operation{OpCreate, OpExecute, OpClaim, OpReply, OpCancel, OpUpdate} {
		assert.False(t, op.IsAgentScoped(), op)
	}
}
