package domain

import "errors"

// ErrPaymentDeclined is the category every PaymentError belongs to.
var ErrPaymentDeclined = errors.New("payment declined")

// PaymentError carries the gateway response code and its human readable message.
type PaymentError struct {
	Code    string
	Message string
}

func (e *PaymentError) Error() string {
	return e.Message
}

func (e *PaymentError) Unwrap() error {
	return ErrPaymentDeclined
}
