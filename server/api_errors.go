package server

import (
	"errors"

	"github.com/gin-gonic/gin"

	cartapp "github.com/Apurer/aims-commerce/internal/domains/cart/application"
	cartports "github.com/Apurer/aims-commerce/internal/domains/cart/ports"
	catalogapp "github.com/Apurer/aims-commerce/internal/domains/catalog/application"
	catalogports "github.com/Apurer/aims-commerce/internal/domains/catalog/ports"
	ordersapp "github.com/Apurer/aims-commerce/internal/domains/orders/application"
	ordersports "github.com/Apurer/aims-commerce/internal/domains/orders/ports"
	paymentsapp "github.com/Apurer/aims-commerce/internal/domains/payments/application"
	paymentsdomain "github.com/Apurer/aims-commerce/internal/domains/payments/domain"
	paymentsports "github.com/Apurer/aims-commerce/internal/domains/payments/ports"
	usersapp "github.com/Apurer/aims-commerce/internal/domains/users/application"
	usersports "github.com/Apurer/aims-commerce/internal/domains/users/ports"
	apierrors "github.com/Apurer/aims-commerce/internal/shared/errors"
)

// responder maps application error categories to problem details. Invalid input is checked
// before not found because reference errors wrap both.
var responder = apierrors.NewChainedResponder(
	invalidInputMapper,
	authenticationMapper,
	conflictMapper,
	paymentDeclinedMapper,
	notFoundMapper,
)

func invalidInputMapper(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, catalogapp.ErrInvalidInput) ||
		errors.Is(err, cartapp.ErrInvalidInput) ||
		errors.Is(err, ordersapp.ErrInvalidInput) ||
		errors.Is(err, paymentsapp.ErrInvalidInput) ||
		errors.Is(err, usersapp.ErrInvalidInput) {
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func authenticationMapper(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, usersapp.ErrAuthentication) {
		return apierrors.ErrUnauthorized.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func conflictMapper(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, catalogapp.ErrConflict) ||
		errors.Is(err, ordersapp.ErrConflict) ||
		errors.Is(err, usersapp.ErrConflict) {
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func paymentDeclinedMapper(err error) (apierrors.ProblemDetail, bool) {
	var declined *paymentsdomain.PaymentError
	if errors.As(err, &declined) {
		return apierrors.NewPaymentDeclinedProblem(declined.Code, declined.Message), true
	}
	return apierrors.ProblemDetail{}, false
}

func notFoundMapper(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, catalogports.ErrNotFound) ||
		errors.Is(err, cartports.ErrNotFound) ||
		errors.Is(err, cartports.ErrProductNotFound) ||
		errors.Is(err, ordersports.ErrNotFound) ||
		errors.Is(err, ordersports.ErrDeliveryInfoNotFound) ||
		errors.Is(err, ordersports.ErrInvoiceNotFound) ||
		errors.Is(err, ordersports.ErrProductNotFound) ||
		errors.Is(err, ordersports.ErrCartNotFound) ||
		errors.Is(err, ordersports.ErrTransactionNotFound) ||
		errors.Is(err, paymentsports.ErrNotFound) ||
		errors.Is(err, usersports.ErrNotFound) {
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

// respondServiceError writes the problem matching err, or a 500.
func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

// respondError answers transport level failures such as malformed bodies.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	responder.Respond(c, apierrors.ProblemForStatus(status).WithDetail(err.Error()))
}
