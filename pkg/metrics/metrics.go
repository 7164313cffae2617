// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crmbot"

// Tool call results.
const (
	ToolResultOK      = "ok"
	ToolResultError   = "error"
	ToolResultUnknown = "unknown_tool"
)

var (
	// routeTotal counts classified passes.
	// Labels: label (crm-agent, unknown)
	routeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_total",
		Help:      "Total routing passes by chosen handler label",
	}, []string{"label"})

	// toolCallsTotal counts tool executions.
	// Labels: tool, result (ok, error, unknown_tool)
	toolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_calls_total",
		Help:      "Total CRM tool executions by tool and result",
	}, []string{"tool", "result"})

	// llmCostTotal accumulates estimated model spend.
	// Labels: model
	llmCostTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_cost_usd_total",
		Help:      "Estimated language model cost in USD",
	}, []string{"model"})

	// passDuration measures one full routing pass.
	// Labels: label
	passDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pass_duration_seconds",
		Help:      "Duration of a routing pass in seconds",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
	}, []string{"label"})
)

func RecordRoute(label string) {
	routeTotal.WithLabelValues(label).Inc()
}

func RecordToolCall(tool, result string) {
	toolCallsTotal.WithLabelValues(tool, result).Inc()
}

// RecordCost ignores non-positive amounts; counters cannot decrease.
func RecordCost(model string, usd float64) {
	if usd <= 0 {
		return
	}
	llmCostTotal.WithLabelValues(model).Add(usd)
}

func ObservePass(label string, elapsed time.Duration) {
	passDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}
