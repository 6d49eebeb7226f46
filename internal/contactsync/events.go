package contactsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"contactsync/internal/contactsync/models"
)

// RunCompletedEvent is the payload produced for every finished run.
type RunCompletedEvent struct {
	Type      string      `json:"type"`
	EmittedAt time.Time   `json:"emitted_at"`
	Run       *models.Run `json:"run"`
}

const runCompletedType = "contactsync.run.completed"

// Producer writes one keyed message. *kafka.Producer satisfies it.
type Producer interface {
	Produce(ctx context.Context, key string, value []byte) error
}

// EventPublisher publishes run reports keyed by run id, so every event for a
// run lands on the same partition.
type EventPublisher struct {
	producer Producer
	now      func() time.Time
}

func NewEventPublisher(p Producer) *EventPublisher {
	return &EventPublisher{producer: p, now: time.Now}
}

func (p *EventPublisher) Publish(ctx context.Context, run *models.Run) error {
	payload, err := json.Marshal(RunCompletedEvent{
		Type:      runCompletedType,
		EmittedAt: p.now().UTC(),
		Run:       run,
	})
	if err != nil {
		return fmt.Errorf("encode run event: %w", err)
	}
	return p.producer.Produce(ctx, run.ID, payload)
}
