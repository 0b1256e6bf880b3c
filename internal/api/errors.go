package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/idealoop/ideas/internal/lifecycle"
	"github.com/idealoop/ideas/internal/storage"
	"github.com/idealoop/ideas/internal/types"
)

// Error kinds carried in the "kind" field of every error body.
const (
	KindNotFound          = "not_found"
	KindInvalidTransition = "invalid_transition"
	KindForbidden         = "forbidden"
	KindInvalidArgument   = "invalid_argument"
	KindInternal          = "internal"
)

// ErrorBody is the JSON shape of every non-2xx response.
type ErrorBody struct {
	Error         string          `json:"error"`
	Kind          string          `json:"kind"`
	CurrentStatus types.Status    `json:"current_status,omitempty"`
	Operation     types.Operation `json:"operation,omitempty"`
	Expected      string          `json:"expected,omitempty"`
	Supplied      string          `json:"supplied,omitempty"`
}

// classify maps an error to its HTTP status and body.
func classify(err error) (int, ErrorBody) {
	body := ErrorBody{Error: err.Error()}

	var te *lifecycle.TransitionError
	var fe *lifecycle.ForbiddenError
	switch {
	case errors.As(err, &te):
		body.Kind = KindInvalidTransition
		body.CurrentStatus = te.Current
		body.Operation = te.Op
		return http.StatusConflict, body
	case errors.As(err, &fe):
		body.Kind = KindForbidden
		body.Expected = fe.Expected
		body.Supplied = fe.Supplied
		return http.StatusForbidden, body
	case errors.Is(err, storage.ErrNotFound):
		body.Kind = KindNotFound
		return http.StatusNotFound, body
	case errors.Is(err, lifecycle.ErrInvalidArgument):
		body.Kind = KindInvalidArgument
		return http.StatusBadRequest, body
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		body.Kind = KindInvalidTransition
		return http.StatusConflict, body
	case errors.Is(err, lifecycle.ErrForbidden):
		body.Kind = KindForbidden
		return http.StatusForbidden, body
	default:
		body.Kind = KindInternal
		body.Error = "internal error"
		return http.StatusInternalServerError, body
	}
}

// APIError is returned by Client for non-2xx responses. It unwraps to the
// same error values the engine produced on the server side, so errors.Is and
// errors.As work across the wire.
type APIError struct {
	StatusCode int
	Body       ErrorBody
	cause      error
}

func (e *APIError) Error() string {
	if e.Body.Error != "" {
		return e.Body.Error
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.cause }

func newAPIError(code int, body ErrorBody) *APIError {
	e := &APIError{StatusCode: code, Body: body}
	switch body.Kind {
	case KindNotFound:
		e.cause = storage.ErrNotFound
	case KindInvalidTransition:
		if body.CurrentStatus != "" {
			e.cause = &lifecycle.TransitionError{Current: body.CurrentStatus, Op: body.Operation}
		} else {
			e.cause = lifecycle.ErrInvalidTransition
		}
	case KindForbidden:
		e.cause = &lifecycle.ForbiddenError{Expected: body.Expected, Supplied: body.Supplied}
	case KindInvalidArgument:
		e.cause = lifecycle.ErrInvalidArgument
	}
	return e
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
