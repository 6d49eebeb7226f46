package contactsync

import (
	"errors"
	"fmt"
)

var (
	// ErrRunInProgress is returned when another run holds the run guard.
	ErrRunInProgress = errors.New("sync run already in progress")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("orchestrator already started")
	// ErrStopped is returned by Start and Trigger once Stop has been called.
	ErrStopped = errors.New("orchestrator stopped")
)

// ParseError reports a remote record that could not be mapped to a contact.
type ParseError struct {
	Index      int   // position in the fetched batch
	ExternalID int64 // 0 when the id itself is missing
	Field      string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("record %d (external id %d): invalid %s: %v", e.Index, e.ExternalID, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StorageError reports a failed read or write against the contact store.
type StorageError struct {
	Op         string
	ExternalID int64
	Err        error
}

func (e *StorageError) Error() string {
	if e.ExternalID != 0 {
		return fmt.Sprintf("storage %s (external id %d): %v", e.Op, e.ExternalID, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
