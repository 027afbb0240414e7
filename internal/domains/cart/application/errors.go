package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/aims-commerce/internal/domains/cart/domain"
)

var ErrInvalidInput = errors.New("invalid cart input")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidQuantity) || errors.Is(err, domain.ErrInsufficientStock) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
