package handler

import (
	"time"

	"contactsync/internal/contacts/models"
)

// ContactResponse is the JSON shape of one contact.
type ContactResponse struct {
	ID         int64  `json:"id"`
	ExternalID int64  `json:"external_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	WriteDate  string `json:"write_date"`
}

// FromContact converts a stored contact to its response shape.
func FromContact(c *models.Contact) ContactResponse {
	return ContactResponse{
		ID:         c.ID,
		ExternalID: c.ExternalID,
		Name:       c.Name,
		Email:      c.Email,
		WriteDate:  c.WriteDate.UTC().Format(time.RFC3339),
	}
}

// FromContacts converts a list, never returning nil so the body is `[]`.
func FromContacts(cs []*models.Contact) []ContactResponse {
	out := make([]ContactResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, FromContact(c))
	}
	return out
}
