package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	orderactivities "github.com/Apurer/aims-commerce/internal/durable/temporal/activities/orders"
)

// RunRejectUnderstockedSequence lists pending orders and checks each one in its own activity,
// so a retry only repeats the order that failed.
func RunRejectUnderstockedSequence(ctx workflow.Context) ([]int64, error) {
	logger := workflow.GetLogger(ctx)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var pending []int64
	if err := workflow.ExecuteActivity(ctx, orderactivities.PendingOrderIDsActivityName).Get(ctx, &pending); err != nil {
		logger.Error("listing pending orders failed", "error", err)
		return nil, err
	}
	logger.Info("reject understocked sequence started", "pending", len(pending))

	rejected := []int64{}
	for _, id := range pending {
		var ok bool
		if err := workflow.ExecuteActivity(ctx, orderactivities.RejectIfUnderstockedActivityName, id).Get(ctx, &ok); err != nil {
			logger.Error("stock check failed", "orderId", id, "error", err)
			return rejected, err
		}
		if ok {
			rejected = append(rejected, id)
		}
	}
	logger.Info("reject understocked sequence completed", "rejected", len(rejected))
	return rejected, nil
}
