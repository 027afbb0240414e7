package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 9, 30, 45, 0, time.UTC)

func newPending(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrder(1, 2, 3, "", nil, now)
	require.NoError(t, err)
	return order
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("  ")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)

	status, err = ParseStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, status)

	_, err = ParseStatus("LOST")
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestNewOrderRequiresReferences(t *testing.T) {
	_, err := NewOrder(0, 2, 3, StatusPending, nil, now)
	require.ErrorIs(t, err, ErrInvalidReference)

	order := newPending(t)
	assert.Equal(t, StatusPending, order.Status)
	require.Len(t, order.Events(), 1)
	assert.Equal(t, "orders.order.created", order.Events()[0].EventName())
}

func TestTransitionHappyPath(t *testing.T) {
	order := newPending(t)
	for _, next := range []Status{StatusApproved, StatusShipped, StatusDelivered} {
		require.NoError(t, order.TransitionTo(next, now))
	}
	assert.Equal(t, StatusDelivered, order.Status)
	assert.True(t, order.Status.Terminal())
	assert.Len(t, order.Events(), 4)
}

func TestTransitionRejectsSkippingSteps(t *testing.T) {
	order := newPending(t)
	err := order.TransitionTo(StatusDelivered, now)
	require.ErrorIs(t, err, ErrIllegalTransition)
	assert.EqualError(t, err, "illegal order status transition: invalid status transition from PENDING to DELIVERED")
	assert.Equal(t, StatusPending, order.Status)
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusShipped, false},
		{StatusApproved, StatusShipped, true},
		{StatusApproved, StatusCancelled, true},
		{StatusApproved, StatusRejected, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusRejected, StatusApproved, false},
		{StatusCancelled, StatusPending, false},
		{StatusDelivered, StatusShipped, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestRejectKeepsReason(t *testing.T) {
	order := newPending(t)
	order.ClearEvents()
	require.NoError(t, order.Reject("no stock", now))
	assert.Equal(t, StatusRejected, order.Status)
	assert.Equal(t, "no stock", order.RejectionReason)

	events := WithOrderID(order.Events(), 9, order.RejectionReason)
	require.Len(t, events, 1)
	changed := events[0].(OrderStatusChanged)
	assert.Equal(t, int64(9), changed.OrderID)
	assert.Equal(t, "no stock", changed.Reason)
}

func TestRushDetailsValidate(t *testing.T) {
	tests := []struct {
		name string
		rush RushDetails
		msg  string
	}{
		{"missing time", RushDetails{Instruction: "call"}, "Delivery time must not be null"},
		{"past time", RushDetails{DeliveryTime: now.Add(-2 * time.Minute), Instruction: "call"}, "Delivery time must be present or future"},
		{"blank instruction", RushDetails{DeliveryTime: now.Add(time.Hour), Instruction: "  "}, "Delivery instruction must not be blank"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rush.Validate(now)
			require.ErrorIs(t, err, ErrInvalidRush)
			assert.True(t, strings.HasSuffix(err.Error(), tt.msg))
		})
	}

	// Same minute counts as present.
	present := RushDetails{DeliveryTime: now.Truncate(time.Minute), Instruction: "leave at door"}
	require.NoError(t, present.Validate(now))
}

func TestCloneDropsEventsAndCopiesRush(t *testing.T) {
	order, err := NewOrder(1, 2, 3, StatusPending, &RushDetails{DeliveryTime: now, Instruction: "a"}, now)
	require.NoError(t, err)
	clone := order.Clone()
	clone.Rush.Instruction = "b"
	assert.Equal(t, "a", order.Rush.Instruction)
	assert.Empty(t, clone.Events())
	assert.True(t, clone.IsRush())
}
