package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/idealoop/ideas/internal/lifecycle"
	"github.com/idealoop/ideas/internal/types"
)

// CreateRequest is the body of POST /api/ideas.
type CreateRequest struct {
	Content string `json:"content"`
}

// UpdateRequest is the body of PUT /api/ideas/{id}. A nil Content leaves the idea unchanged.
type UpdateRequest struct {
	Content *string `json:"content,omitempty"`
}

// ReplyRequest is the body of POST /api/ideas/{id}/messages.
type ReplyRequest struct {
	Content string `json:"content"`
}

// AgentRequest is the body of every /api/agent/{op}/{id} call. Only the
// field matching the operation is read.
type AgentRequest struct {
	AgentID  string `json:"agent_id"`
	Content  string `json:"content,omitempty"`
	Question string `json:"question,omitempty"`
	Summary  string `json:"summary,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, lifecycle.InvalidArgument("idea id must be a positive integer, got %q", raw)
	}
	return id, nil
}

// decode reads a JSON body into v. An empty body leaves v zero.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return lifecycle.InvalidArgument("malformed JSON body: %v", err)
	}
	return nil
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	idea, err := s.engine.Create(r.Context(), req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var filter *types.Status
	if raw := r.URL.Query().Get("status_filter"); raw != "" {
		st, err := types.ParseStatus(raw)
		if err != nil {
			s.writeError(w, r, lifecycle.InvalidArgument("%v", err))
			return
		}
		filter = &st
	}
	ideas, err := s.engine.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(ideas))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	idea, err := s.engine.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req UpdateRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	idea, err := s.engine.Update(r.Context(), id, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.engine.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeChange(w, r)(s.engine.Execute(r.Context(), id))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeChange(w, r)(s.engine.Cancel(r.Context(), id))
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req ReplyRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	msg, err := s.engine.Reply(r.Context(), id, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	msgs, err := s.engine.Messages(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(msgs))
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.engine.Verify(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	ideas, err := s.engine.Poll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(ideas))
}

// agentCall decodes the agent body and resolves the path id.
func (s *Server) agentCall(w http.ResponseWriter, r *http.Request) (int64, AgentRequest, bool) {
	var req AgentRequest
	id, err := pathID(r)
	if err == nil {
		err = decode(w, r, &req)
	}
	if err != nil {
		s.writeError(w, r, err)
		return 0, req, false
	}
	return id, req, true
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	if id, req, ok := s.agentCall(w, r); ok {
		s.writeChange(w, r)(s.engine.Claim(r.Context(), id, req.AgentID))
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if id, req, ok := s.agentCall(w, r); ok {
		s.writeChange(w, r)(s.engine.Start(r.Context(), id, req.AgentID))
	}
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if id, req, ok := s.agentCall(w, r); ok {
		s.writeChange(w, r)(s.engine.Feedback(r.Context(), id, req.AgentID, req.Content))
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if id, req, ok := s.agentCall(w, r); ok {
		s.writeChange(w, r)(s.engine.Ask(r.Context(), id, req.AgentID, req.Question))
	}
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	if id, req, ok := s.agentCall(w, r); ok {
		s.writeChange(w, r)(s.engine.Complete(r.Context(), id, req.AgentID, req.Summary))
	}
}

func (s *Server) handleFail(w http.ResponseWriter, r *http.Request) {
	if id, req, ok := s.agentCall(w, r); ok {
		s.writeChange(w, r)(s.engine.Fail(r.Context(), id, req.AgentID, req.Reason))
	}
}

// writeChange returns a sink for an engine transition result.
func (s *Server) writeChange(w http.ResponseWriter, r *http.Request) func(*types.StatusChange, error) {
	return func(change *types.StatusChange, err error) {
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, change)
	}
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
