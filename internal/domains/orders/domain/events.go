package domain

import "time"

// Event is the base interface for order domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	AggregateID() int64
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderCreated is raised when an order is first stored. OrderID is filled in after persistence.
type OrderCreated struct {
	BaseEvent
	OrderID int64
	Status  Status
	Rush    bool
}

func (e OrderCreated) EventName() string  { return "orders.order.created" }
func (e OrderCreated) AggregateID() int64 { return e.OrderID }

// OrderStatusChanged is raised on every state machine step.
type OrderStatusChanged struct {
	BaseEvent
	OrderID    int64
	FromStatus Status
	ToStatus   Status
	Reason     string
}

func (e OrderStatusChanged) EventName() string  { return "orders.order.status_changed" }
func (e OrderStatusChanged) AggregateID() int64 { return e.OrderID }

// OrderDeleted is raised when an order row is removed.
type OrderDeleted struct {
	BaseEvent
	OrderID int64
}

func (e OrderDeleted) EventName() string  { return "orders.order.deleted" }
func (e OrderDeleted) AggregateID() int64 { return e.OrderID }

// WithOrderID stamps id on events recorded before the order had one.
func WithOrderID(events []Event, id int64, reason string) []Event {
	out := make([]Event, 0, len(events))
	for _, event := range events {
		switch e := event.(type) {
		case OrderCreated:
			e.OrderID = id
			out = append(out, e)
		case OrderStatusChanged:
			e.OrderID = id
			if e.ToStatus == StatusRejected && e.Reason == "" {
				e.Reason = reason
			}
			out = append(out, e)
		default:
			out = append(out, event)
		}
	}
	return out
}
