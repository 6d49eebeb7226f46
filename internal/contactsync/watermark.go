package contactsync

import (
	"context"
	"time"
)

// WatermarkSource answers the newest stored modification time.
type WatermarkSource interface {
	Watermark(ctx context.Context) (*time.Time, error)
}

// Tracker derives the incremental lower bound from stored data rather than a
// separate cursor, so a run that failed halfway resumes from what it actually
// wrote.
type Tracker struct {
	source WatermarkSource
}

func NewTracker(source WatermarkSource) *Tracker {
	return &Tracker{source: source}
}

// Current returns the max stored write_date, or nil when nothing is stored.
func (t *Tracker) Current(ctx context.Context) (*time.Time, error) {
	wm, err := t.source.Watermark(ctx)
	if err != nil {
		return nil, &StorageError{Op: "watermark", Err: err}
	}
	if wm == nil {
		return nil, nil
	}
	v := wm.UTC()
	return &v, nil
}
