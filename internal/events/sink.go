package events

import (
	"context"

	"rwa-registry-go/internal/models"
)

// Sink receives registry events after they are committed.
// Handle must be idempotent: a delivery may be retried. Errors that retrying
// cannot fix should be wrapped with backoff.Permanent so the dispatcher moves
// on to the next event.
type Sink interface {
	Name() string
	Handle(ctx context.Context, event models.Event) error
}

// Observer is notified about delivery outcomes
type Observer interface {
	ObserveDelivery(sink string, eventType models.EventType, err error)
	ObserveDrop(eventType models.EventType)
}

type noopObserver struct{}

func (noopObserver) ObserveDelivery(string, models.EventType, error) {}
func (noopObserver) ObserveDrop(models.EventType)                    {}
