package contactsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contactmodels "contactsync/internal/contacts/models"
	contactstore "contactsync/internal/contacts/store"
)

type brokenSource struct{}

func (brokenSource) Watermark(context.Context) (*time.Time, error) {
	return nil, errors.New("no connection")
}

func TestTrackerCurrent(t *testing.T) {
	ctx := context.Background()

	t.Run("nil on empty storage", func(t *testing.T) {
		wm, err := NewTracker(contactstore.NewInMemory()).Current(ctx)
		require.NoError(t, err)
		assert.Nil(t, wm)
	})

	t.Run("max write date across stored contacts", func(t *testing.T) {
		store := contactstore.NewInMemory()
		times := []time.Time{
			time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		}
		for i, wd := range times {
			require.NoError(t, store.Upsert(ctx, &contactmodels.Contact{ExternalID: int64(i + 1), WriteDate: wd}))
		}
		wm, err := NewTracker(store).Current(ctx)
		require.NoError(t, err)
		require.NotNil(t, wm)
		assert.Equal(t, times[1], *wm)
	})

	t.Run("storage failures are StorageError", func(t *testing.T) {
		_, err := NewTracker(brokenSource{}).Current(ctx)
		var serr *StorageError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, "watermark", serr.Op)
	})
}
