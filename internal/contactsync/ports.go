package contactsync

import (
	"context"
	"time"

	contactmodels "contactsync/internal/contacts/models"
	"contactsync/internal/contactsync/models"
	"contactsync/internal/odoo"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// RemoteClient is the subset of the Odoo client the sync needs.
type RemoteClient interface {
	Authenticate(ctx context.Context, creds odoo.Credentials) (odoo.Session, error)
	FetchChangedSince(ctx context.Context, sess odoo.Session, since *time.Time) ([]odoo.Partner, error)
}

// ContactStore is the write side of the contact store plus the watermark query.
type ContactStore interface {
	Upsert(ctx context.Context, c *contactmodels.Contact) error
	Watermark(ctx context.Context) (*time.Time, error)
}

// RunRecorder persists run history.
type RunRecorder interface {
	Record(ctx context.Context, run *models.Run) error
}

// RunPublisher announces finished runs to other systems.
type RunPublisher interface {
	Publish(ctx context.Context, run *models.Run) error
}

// DistributedLocker provides a lock shared between replicas.
type DistributedLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}
