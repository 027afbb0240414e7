package orders

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/aims-commerce/internal/durable/temporal/sequences"
)

const (
	// RejectUnderstockedWorkflowName is the public identifier for registering the workflow.
	RejectUnderstockedWorkflowName = "orders.workflows.RejectUnderstocked"
	// OrdersTaskQueue is the queue consumed by the worker processing order workflows.
	OrdersTaskQueue = "ORDERS"
)

// RejectUnderstockedWorkflowInput carries the trace of the request that started the sweep.
type RejectUnderstockedWorkflowInput struct {
	TraceID string
}

// RejectUnderstockedWorkflow rejects every pending order whose stock is no longer sufficient.
func RejectUnderstockedWorkflow(ctx workflow.Context, input RejectUnderstockedWorkflowInput) ([]int64, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("RejectUnderstockedWorkflow started", withTraceID(input.TraceID)...)
	rejected, err := sequences.RunRejectUnderstockedSequence(ctx)
	if err != nil {
		logger.Error("RejectUnderstockedWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return nil, err
	}
	logger.Info("RejectUnderstockedWorkflow completed", withTraceID(input.TraceID, "rejected", len(rejected))...)
	return rejected, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
