package ports

import "context"

// WorkflowOrchestrator exposes durable workflow operations required by the orders bounded context.
type WorkflowOrchestrator interface {
	RejectUnderstocked(ctx context.Context) ([]int64, error)
}
