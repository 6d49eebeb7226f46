package models

import (
	"time"

	dErrors "contactsync/pkg/domain-errors"
)

// Contact is the local copy of one remote partner.
//
// Invariants:
//   - ExternalID is positive and unique across the store
//   - WriteDate is UTC with whole-second precision
//   - ID is assigned by the store on first insert and never changes
type Contact struct {
	ID         int64     `json:"id"`
	ExternalID int64     `json:"external_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	WriteDate  time.Time `json:"write_date"`
}

// NewContact validates the invariants a remote record must satisfy before it
// can be stored.
func NewContact(externalID int64, name, email string, writeDate time.Time) (*Contact, error) {
	if externalID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "external id must be positive")
	}
	if writeDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "write date is required")
	}
	return &Contact{
		ExternalID: externalID,
		Name:       name,
		Email:      email,
		WriteDate:  writeDate.UTC().Truncate(time.Second),
	}, nil
}
