package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Apurer/aims-commerce/internal/shared/projection"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusShipped   Status = "SHIPPED"
	StatusCancelled Status = "CANCELLED"
	StatusDelivered Status = "DELIVERED"
)

var (
	ErrInvalidReference  = errors.New("order must reference a transaction, an invoice and a delivery info")
	ErrUnknownStatus     = errors.New("order status is invalid")
	ErrIllegalTransition = errors.New("illegal order status transition")
	ErrInvalidRush       = errors.New("invalid rush order details")
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: nil,
	StatusRejected:  nil,
	StatusCancelled: nil,
}

// ParseStatus normalizes a client supplied status. Blank input defaults to PENDING.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if status == "" {
		return StatusPending, nil
	}
	if _, ok := transitions[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return status, nil
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// RushDetails turns an order into a rush order.
type RushDetails struct {
	DeliveryTime time.Time
	Instruction  string
}

// Validate requires a present or future delivery time and a non-blank instruction.
func (r RushDetails) Validate(now time.Time) error {
	if r.DeliveryTime.IsZero() {
		return fmt.Errorf("%w: Delivery time must not be null", ErrInvalidRush)
	}
	if r.DeliveryTime.Before(now.Truncate(time.Minute)) {
		return fmt.Errorf("%w: Delivery time must be present or future", ErrInvalidRush)
	}
	if strings.TrimSpace(r.Instruction) == "" {
		return fmt.Errorf("%w: Delivery instruction must not be blank", ErrInvalidRush)
	}
	return nil
}

// Order links a payment transaction, an invoice and a delivery address.
type Order struct {
	ID              int64
	TransactionID   int64
	InvoiceID       int64
	DeliveryInfoID  int64
	Status          Status
	Rush            *RushDetails
	RejectionReason string
	Metadata        projection.Metadata

	events []Event
}

// NewOrder validates references and records an OrderCreated event.
func NewOrder(transactionID, invoiceID, deliveryInfoID int64, status Status, rush *RushDetails, now time.Time) (*Order, error) {
	if transactionID <= 0 || invoiceID <= 0 || deliveryInfoID <= 0 {
		return nil, ErrInvalidReference
	}
	if status == "" {
		status = StatusPending
	}
	if _, ok := transitions[status]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	order := &Order{
		TransactionID:  transactionID,
		InvoiceID:      invoiceID,
		DeliveryInfoID: deliveryInfoID,
		Status:         status,
		Rush:           rush,
	}
	order.record(OrderCreated{BaseEvent: BaseEvent{Timestamp: now}, Status: status, Rush: rush != nil})
	return order, nil
}

// IsRush reports whether the order carries rush delivery details.
func (o *Order) IsRush() bool {
	return o.Rush != nil
}

// TransitionTo moves the order along the state machine.
func (o *Order) TransitionTo(next Status, now time.Time) error {
	if _, ok := transitions[next]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, next)
	}
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: invalid status transition from %s to %s", ErrIllegalTransition, o.Status, next)
	}
	previous := o.Status
	o.Status = next
	o.record(OrderStatusChanged{BaseEvent: BaseEvent{Timestamp: now}, OrderID: o.ID, FromStatus: previous, ToStatus: next})
	return nil
}

// Reject transitions to REJECTED and keeps the reason.
func (o *Order) Reject(reason string, now time.Time) error {
	if err := o.TransitionTo(StatusRejected, now); err != nil {
		return err
	}
	o.RejectionReason = reason
	return nil
}

// Events returns the events recorded since the last ClearEvents.
func (o *Order) Events() []Event {
	return append([]Event(nil), o.events...)
}

func (o *Order) ClearEvents() {
	o.events = nil
}

// Clone returns a copy without pending events.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	if o.Rush != nil {
		rush := *o.Rush
		clone.Rush = &rush
	}
	clone.events = nil
	return &clone
}

func (o *Order) record(event Event) {
	o.events = append(o.events, event)
}
