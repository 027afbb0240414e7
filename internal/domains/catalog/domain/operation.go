package domain

import (
	"errors"
	"fmt"
	"time"
)

// OperationType names an audited catalog mutation.
type OperationType string

const (
	OperationAdd    OperationType = "ADD_PRODUCT"
	OperationUpdate OperationType = "UPDATE_PRODUCT"
	OperationDelete OperationType = "DELETE_PRODUCT"
)

// Business limits applied to catalog mutations.
const (
	MaxDailyUpdatesDeletes = 30
	MaxDailyPerProduct     = 30
	MaxDailyPriceUpdates   = 2
	MaxBulkDelete          = 10
)

var (
	ErrDailyLimitExceeded = errors.New("daily operation limit exceeded")
	ErrPriceUpdateLimit   = errors.New("cannot update product price more than 2 times per day")
	ErrBulkLimitExceeded  = fmt.Errorf("cannot delete more than %d products at once", MaxBulkDelete)
	ErrUnknownOperation   = errors.New("unknown operation type")
)

// Operation is one entry of the catalog audit log.
type Operation struct {
	ID        int64
	ProductID int64
	Type      OperationType
	Timestamp time.Time
}

// ParseOperationType validates an operation type label.
func ParseOperationType(raw string) (OperationType, error) {
	switch t := OperationType(raw); t {
	case OperationAdd, OperationUpdate, OperationDelete:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, raw)
	}
}

// Locked reports whether the operation type is serialized process-wide.
func (t OperationType) Locked() bool {
	return t == OperationAdd || t == OperationUpdate
}

// PerProductLimitError describes an exhausted per-product daily allowance.
func PerProductLimitError(t OperationType) error {
	noun := "updates"
	if t == OperationDelete {
		noun = "deletions"
	}
	return fmt.Errorf("%w: maximum %d product %s per day exceeded", ErrDailyLimitExceeded, MaxDailyPerProduct, noun)
}

// GlobalLimitError describes an exhausted store-wide daily update/delete allowance.
func GlobalLimitError() error {
	return fmt.Errorf("%w: cannot perform more than %d update/delete operations per day", ErrDailyLimitExceeded, MaxDailyUpdatesDeletes)
}

// DayWindow returns the [start, end) bounds of the calendar day containing t.
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
