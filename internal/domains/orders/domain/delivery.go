package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Apurer/aims-commerce/internal/shared/projection"
)

var ErrInvalidDeliveryInfo = errors.New("invalid delivery info")

var (
	phonePattern = regexp.MustCompile(`^\d{9,15}$`)
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+$`)
)

const maxAddressLength = 255

// DeliveryInfo is the recipient and address an order ships to.
type DeliveryInfo struct {
	ID            int64
	RecipientName string
	Email         string
	Phone         string
	Address       string
	Province      string
	District      string
	Metadata      projection.Metadata
}

// Validate checks contact fields in the order a clerk would fill them in.
func (d *DeliveryInfo) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: DeliveryInfo must not be null", ErrInvalidDeliveryInfo)
	}
	switch {
	case isBlank(d.RecipientName):
		return fmt.Errorf("%w: Recipient name is required", ErrInvalidDeliveryInfo)
	case !emailPattern.MatchString(d.Email):
		return fmt.Errorf("%w: Email is not valid", ErrInvalidDeliveryInfo)
	case isBlank(d.Address):
		return fmt.Errorf("%w: Address is required", ErrInvalidDeliveryInfo)
	case len([]rune(d.Address)) > maxAddressLength:
		return fmt.Errorf("%w: Address is too long", ErrInvalidDeliveryInfo)
	case isBlank(d.Province):
		return fmt.Errorf("%w: Province is required", ErrInvalidDeliveryInfo)
	case isBlank(d.Phone):
		return fmt.Errorf("%w: Phone number is required", ErrInvalidDeliveryInfo)
	case !phonePattern.MatchString(d.Phone):
		return fmt.Errorf("%w: Invalid phone number", ErrInvalidDeliveryInfo)
	}
	return nil
}

func (d *DeliveryInfo) Clone() *DeliveryInfo {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
