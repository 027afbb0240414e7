package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/aims-commerce/internal/domains/catalog/domain"
	"github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
)

var (
	// ErrInvalidInput signals the request violated a product invariant or business rule.
	ErrInvalidInput = errors.New("invalid product input")
	// ErrConflict signals a concurrent mutation or a uniqueness clash.
	ErrConflict = errors.New("product conflict")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidProduct) ||
		errors.Is(err, domain.ErrUnknownKind) ||
		errors.Is(err, domain.ErrPriceOutOfRange) ||
		errors.Is(err, domain.ErrPriceUpdateLimit) ||
		errors.Is(err, domain.ErrDailyLimitExceeded) ||
		errors.Is(err, domain.ErrBulkLimitExceeded) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrInvalidStockOperation) ||
		errors.Is(err, domain.ErrInvalidStockQuantity) ||
		errors.Is(err, domain.ErrUnknownOperation) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, ports.ErrDuplicateBarcode) || errors.Is(err, ports.ErrLockHeld) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
