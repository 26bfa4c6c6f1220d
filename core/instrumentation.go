package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-dashboard/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

type engineMetrics struct {
	dispatched metric.Int64Counter
	buffered   metric.Int64Counter
	discarded  metric.Int64Counter
	failed     metric.Int64Counter
}

func newEngineMetrics() engineMetrics {
	m := engineMetrics{}
	m.dispatched, _ = meter.Int64Counter("assistant.turns.dispatched",
		metric.WithDescription("Chat calls opened by the engine"))
	m.buffered, _ = meter.Int64Counter("assistant.utterances.buffered",
		metric.WithDescription("Utterances parked in the pending slot"))
	m.discarded, _ = meter.Int64Counter("assistant.utterances.discarded",
		metric.WithDescription("Voice utterances dropped while the assistant was busy"))
	m.failed, _ = meter.Int64Counter("assistant.turns.failed",
		metric.WithDescription("Chat calls that ended with an error"))
	return m
}
