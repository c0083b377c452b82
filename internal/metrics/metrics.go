package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code.",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbot_http_request_duration_seconds",
			Help:    "Time until the handler returned. Streaming responses include the whole stream.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"route", "method"},
	)

	Generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_generations_total",
			Help: "Model generations by selected model and outcome.",
		},
		[]string{"model", "outcome"},
	)

	GenerationSteps = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatbot_generation_steps",
			Help:    "Model steps per generation.",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	ToolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_tool_calls_total",
			Help: "Tool executions by tool name and outcome.",
		},
		[]string{"tool", "outcome"},
	)

	ResumedStreams = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_resumed_streams_total",
			Help: "Stream resume requests by result (local, live, fallback, empty, disabled).",
		},
		[]string{"result"},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatbot_rate_limited_requests_total",
			Help: "Requests rejected by the per-client limiter.",
		},
	)
)

// Register adds every collector to reg. main passes prometheus.DefaultRegisterer.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequests,
		HTTPDuration,
		Generations,
		GenerationSteps,
		ToolCalls,
		ResumedStreams,
		RateLimited,
	)
}

// Outcome labels shared by counters.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)
