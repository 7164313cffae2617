package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRoute(t *testing.T) {
	before := testutil.ToFloat64(routeTotal.WithLabelValues("crm-agent"))
	RecordRoute("crm-agent")
	RecordRoute("crm-agent")
	assert.Equal(t, before+2, testutil.ToFloat64(routeTotal.WithLabelValues("crm-agent")))
}

func TestRecordToolCall(t *testing.T) {
	before := testutil.ToFloat64(toolCallsTotal.WithLabelValues("list_users", ToolResultOK))
	RecordToolCall("list_users", ToolResultOK)
	assert.Equal(t, before+1, testutil.ToFloat64(toolCallsTotal.WithLabelValues("list_users", ToolResultOK)))
}

func TestRecordCost_IgnoresNonPositive(t *testing.T) {
	c := llmCostTotal.WithLabelValues("test-model")
	before := testutil.ToFloat64(c)
	RecordCost("test-model", 0)
	RecordCost("test-model", -1)
	assert.Equal(t, before, testutil.ToFloat64(c))

	RecordCost("test-model", 0.5)
	assert.InDelta(t, before+0.5, testutil.ToFloat64(c), 1e-9)
}

func TestObservePass(t *testing.T) {
	before := testutil.CollectAndCount(passDuration)
	ObservePass("metrics-test-label", 150*time.Millisecond)
	assert.Equal(t, before+1, testutil.CollectAndCount(passDuration))
}
