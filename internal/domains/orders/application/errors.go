package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrConflict signals the request clashes with the current order state.
	ErrConflict = errors.New("order conflict")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrConflict) {
		return err
	}
	if errors.Is(err, domain.ErrInvalidReference) ||
		errors.Is(err, domain.ErrUnknownStatus) ||
		errors.Is(err, domain.ErrInvalidRush) ||
		errors.Is(err, domain.ErrInvalidDeliveryInfo) ||
		errors.Is(err, domain.ErrInvalidInvoice) ||
		errors.Is(err, domain.ErrRushIneligible) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, domain.ErrIllegalTransition) ||
		errors.Is(err, ports.ErrIdempotencyConflict) ||
		errors.Is(err, ports.ErrDuplicateReference) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
