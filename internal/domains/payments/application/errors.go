package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/aims-commerce/internal/domains/payments/domain"
	"github.com/Apurer/aims-commerce/internal/domains/payments/ports"
)

var ErrInvalidInput = errors.New("invalid payment input")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidTransaction) || errors.Is(err, ports.ErrUnsupportedGateway) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
