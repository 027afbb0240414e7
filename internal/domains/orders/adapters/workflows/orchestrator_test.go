package workflows

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func TestBuildRejectWorkflowIDUsesTrace(t *testing.T) {
	assert.Equal(t, "orders-reject-understocked-abc", buildRejectWorkflowID("abc"))
	assert.True(t, strings.HasPrefix(buildRejectWorkflowID(""), "orders-reject-understocked-"))
	assert.NotEqual(t, buildRejectWorkflowID(""), buildRejectWorkflowID(""))
}

func TestWorkflowTraceIDFromSpanContext(t *testing.T) {
	assert.Empty(t, workflowTraceID(context.Background()))

	traceID, err := oteltrace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)
	spanID, err := oteltrace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)
	ctx := oteltrace.ContextWithSpanContext(context.Background(), oteltrace.NewSpanContext(oteltrace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", workflowTraceID(ctx))
}

func TestUnconfiguredOrchestrators(t *testing.T) {
	_, err := NewTemporalOrderWorkflows(nil).RejectUnderstocked(context.Background())
	require.Error(t, err)
	_, err = NewInlineOrderWorkflows(nil).RejectUnderstocked(context.Background())
	require.Error(t, err)
}
