package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	orderports "github.com/Apurer/aims-commerce/internal/domains/orders/ports"
)

const (
	// PendingOrderIDsActivityName lists orders still waiting for approval.
	PendingOrderIDsActivityName = "orders.activities.PendingOrderIDs"
	// RejectIfUnderstockedActivityName re-checks stock for a single order.
	RejectIfUnderstockedActivityName = "orders.activities.RejectIfUnderstocked"
)

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service orderports.Service
}

func NewActivities(service orderports.Service) *Activities {
	return &Activities{service: service}
}

// PendingOrderIDs returns the ids of every pending order.
func (a *Activities) PendingOrderIDs(ctx context.Context) ([]int64, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("orders activity not initialized")
		return nil, errors.New("orders activity not initialized")
	}
	ids, err := a.service.PendingOrderIDs(ctx)
	if err != nil {
		logger.Error("PendingOrderIDs activity failed", "error", err)
		return nil, err
	}
	logger.Info("PendingOrderIDs activity completed", "pending", len(ids))
	return ids, nil
}

// RejectIfUnderstocked rejects one order when stock no longer covers it.
func (a *Activities) RejectIfUnderstocked(ctx context.Context, orderID int64) (bool, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("orders activity not initialized", "orderId", orderID)
		return false, errors.New("orders activity not initialized")
	}
	rejected, err := a.service.RejectIfUnderstocked(ctx, orderID)
	if err != nil {
		logger.Error("RejectIfUnderstocked activity failed", "orderId", orderID, "error", err)
		return false, err
	}
	if rejected {
		logger.Info("order rejected for insufficient stock", "orderId", orderID)
	}
	return rejected, nil
}
