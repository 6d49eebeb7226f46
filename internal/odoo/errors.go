package odoo

import (
	"errors"
	"fmt"
)

// Kind classifies remote failures for the sync orchestrator.
type Kind string

const (
	// KindAuth: credentials rejected or the authenticate call could not complete.
	KindAuth Kind = "auth"
	// KindRemote: a data call failed or returned an error payload.
	KindRemote Kind = "remote"
)

// Match targets for errors.Is.
var (
	ErrAuth   = errors.New("odoo authentication failed")
	ErrRemote = errors.New("odoo request failed")
)

// Error is returned by every Client call.
type Error struct {
	Kind    Kind
	Op      string // service.method of the failing call
	Code    int    // JSON-RPC error code, 0 for transport failures
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("odoo %s [%s]: %s", e.Op, e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets callers match on ErrAuth / ErrRemote without knowing the details.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrAuth:
		return e.Kind == KindAuth
	case ErrRemote:
		return e.Kind == KindRemote
	}
	return false
}

// RPCError is the error member of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

func (e *RPCError) Error() string {
	if e.Data.Message != "" {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.Code, e.Data.Message)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

func newError(kind Kind, op, message string, err error) *Error {
	e := &Error{Kind: kind, Op: op, Message: message, Err: err}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		e.Code = rpcErr.Code
	}
	return e
}
