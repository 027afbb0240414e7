package memory

import (
	"context"
	"sync"

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
)

var _ ports.EventPublisher = (*EventRecorder)(nil)

// EventRecorder collects published events when no broker is configured.
type EventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

func (r *EventRecorder) Publish(_ context.Context, events ...domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of everything published so far.
func (r *EventRecorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}
