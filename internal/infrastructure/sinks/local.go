package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/tracking"
)

// EventStore persists events.
type EventStore interface {
	Store(event tracking.Event) error
}

// StoreSink writes every event to the local event log.
type StoreSink struct {
	store EventStore
}

func NewStoreSink(store EventStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Send(ctx context.Context, event tracking.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.Store(event)
}

// Publisher fans a message out to live subscribers.
type Publisher interface {
	Publish(data []byte)
}

// LiveMessage is the JSON frame the admin live feed receives.
type LiveMessage struct {
	Type        string            `json:"type"`
	ID          string            `json:"id"`
	Kind        string            `json:"kind"`
	Name        string            `json:"name"`
	VisitorID   string            `json:"visitorId"`
	PageURL     string            `json:"pageUrl,omitempty"`
	Attribution map[string]string `json:"attribution"`
	Payload     map[string]any    `json:"payload"`
	OccurredAt  time.Time         `json:"occurredAt"`
}

// LiveSink publishes every event to the admin live feed.
type LiveSink struct {
	publisher Publisher
}

func NewLiveSink(publisher Publisher) *LiveSink {
	return &LiveSink{publisher: publisher}
}

func (s *LiveSink) Name() string { return "live" }

func (s *LiveSink) Send(_ context.Context, event tracking.Event) error {
	attr := make(map[string]string, len(event.Attribution))
	for k, v := range event.Attribution {
		attr[string(k)] = v
	}
	data, err := json.Marshal(LiveMessage{
		Type:        "event",
		ID:          event.ID,
		Kind:        string(event.Kind),
		Name:        event.Name,
		VisitorID:   event.Visitor.ID,
		PageURL:     event.Visitor.PageURL,
		Attribution: attr,
		Payload:     event.Payload,
		OccurredAt:  event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("live: encode event: %w", err)
	}
	s.publisher.Publish(data)
	return nil
}
