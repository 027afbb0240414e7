package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
	orderworkflows "github.com/Apurer/aims-commerce/internal/durable/temporal/workflows/orders"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalOrderWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineOrderWorkflows)(nil)
)

// TemporalOrderWorkflows runs order workflows on a Temporal cluster.
type TemporalOrderWorkflows struct {
	client    client.Client
	taskQueue string
}

func NewTemporalOrderWorkflows(c client.Client) *TemporalOrderWorkflows {
	return &TemporalOrderWorkflows{client: c, taskQueue: orderworkflows.OrdersTaskQueue}
}

// RejectUnderstocked starts the sweep and waits for the rejected order ids.
func (o *TemporalOrderWorkflows) RejectUnderstocked(ctx context.Context) ([]int64, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal order workflows not configured")
	}
	traceID := workflowTraceID(ctx)
	workflowID := buildRejectWorkflowID(traceID)
	options := client.StartWorkflowOptions{
		ID:                                       workflowID,
		TaskQueue:                                o.taskQueue,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	run, err := o.client.ExecuteWorkflow(ctx, options, orderworkflows.RejectUnderstockedWorkflowName,
		orderworkflows.RejectUnderstockedWorkflowInput{TraceID: traceID})
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		// A retried request with the same trace joins the sweep already in flight.
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var rejected []int64
	if err := run.Get(ctx, &rejected); err != nil {
		return nil, err
	}
	return rejected, nil
}

// InlineOrderWorkflows runs the sweep in process, for tests and deployments without Temporal.
type InlineOrderWorkflows struct {
	service ports.Service
}

func NewInlineOrderWorkflows(service ports.Service) *InlineOrderWorkflows {
	return &InlineOrderWorkflows{service: service}
}

func (o *InlineOrderWorkflows) RejectUnderstocked(ctx context.Context) ([]int64, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline order workflows not configured")
	}
	return o.service.RejectUnderstocked(ctx)
}

func buildRejectWorkflowID(traceID string) string {
	if traceID == "" {
		return fmt.Sprintf("orders-reject-understocked-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
	}
	return fmt.Sprintf("orders-reject-understocked-%s", traceID)
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
