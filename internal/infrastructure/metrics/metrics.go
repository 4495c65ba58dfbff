package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Generation
	GenerationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uigen_generation_requests_total",
			Help: "Component generation requests by result",
		},
		[]string{"result"}, // result: ok|bad_request|failed
	)
	GenerationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "uigen_generation_duration_seconds",
			Help:    "Histogram of end-to-end generation durations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s..64s
		},
	)

	// Validation
	ValidationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uigen_validation_runs_total",
			Help: "Number of validation runs by validator type and result",
		},
		[]string{"validator", "result"}, // validator: schema|template, result: pass|fail
	)

	// Style compiler
	StyleCompilations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uigen_style_compilations_total",
			Help: "Stylesheet compilations by result",
		},
		[]string{"result"}, // result: ok|degraded
	)
	StyleCompileDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "uigen_style_compile_duration_seconds",
			Help:    "Duration of compiler subprocess runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Script runtime
	ScriptRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uigen_script_runs_total",
			Help: "Setup script executions by result",
		},
		[]string{"result"}, // result: ok|script_error|runtime_error
	)

	// LLM
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uigen_llm_requests_total",
			Help: "Number of LLM requests by model",
		},
		[]string{"model"},
	)

	// Websockets / realtime
	WebsocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "uigen_ws_connections",
			Help: "Current number of open websocket connections",
		},
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uigen_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		// Generation
		GenerationRequests,
		GenerationDurationSeconds,
		// Validation
		ValidationRuns,
		// Styles
		StyleCompilations,
		StyleCompileDurationSeconds,
		// Script runtime
		ScriptRuns,
		// LLM
		LLMRequests,
		// WS
		WebsocketConnections,
		// Errors
		Errors,
	)
}

// StartMetricsServer serves /metrics on a dedicated listener.
func StartMetricsServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

// Generation
func IncGeneration(result string) {
	GenerationRequests.WithLabelValues(result).Inc()
}

func ObserveGenerationDuration(d time.Duration) {
	GenerationDurationSeconds.Observe(d.Seconds())
}

// Validation
func IncValidationRun(validator, result string) {
	ValidationRuns.WithLabelValues(validator, result).Inc()
}

// Styles
func IncStyleCompilation(result string) {
	StyleCompilations.WithLabelValues(result).Inc()
}

func ObserveStyleCompileDuration(d time.Duration) {
	StyleCompileDurationSeconds.Observe(d.Seconds())
}

// Script runtime
func IncScriptRun(result string) {
	ScriptRuns.WithLabelValues(result).Inc()
}

// LLM
func IncLLMRequest(model string) {
	LLMRequests.WithLabelValues(model).Inc()
}

// Websocket
func IncWSConnections() {
	WebsocketConnections.Inc()
}

func DecWSConnections() {
	WebsocketConnections.Dec()
}

// Errors
func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
