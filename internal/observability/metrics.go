package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions   prometheus.Gauge
	SessionEvents    *prometheus.CounterVec
	PlaybackEvents   *prometheus.CounterVec
	SpeechRequests   *prometheus.CounterVec
	BackendFailures  *prometheus.CounterVec
	GreetingEvents   *prometheus.CounterVec
	SynthesisLatency prometheus.Histogram

	stageWindow *speechStageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active client sessions (tabs).",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		PlaybackEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_events_total",
			Help:      "Playback coordinator events by type.",
		}, []string{"event"}),
		SpeechRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_requests_total",
			Help:      "Speech requests by backend and result.",
		}, []string{"backend", "result"}),
		BackendFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_backend_failures_total",
			Help:      "Speech backend failures by backend and code.",
		}, []string{"backend", "code"}),
		GreetingEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "greeting_events_total",
			Help:      "Greeting sequencer events by type.",
		}, []string{"event"}),
		SynthesisLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "speech_synthesis_latency_ms",
			Help:      "Latency from speak request to audible playback in milliseconds.",
			Buckets:   []float64{100, 200, 300, 500, 700, 900, 1200, 2000, 5000},
		}),
		stageWindow: newSpeechStageWindow(256),
	}
}

func (m *Metrics) ObserveSynthesisLatency(d time.Duration) {
	m.SynthesisLatency.Observe(float64(d.Milliseconds()))
}

// ObserveSpeechStage records a stage duration into the rolling latency window.
func (m *Metrics) ObserveSpeechStage(stage string, d time.Duration) {
	if m == nil || m.stageWindow == nil {
		return
	}
	m.stageWindow.Observe(stage, float64(d.Milliseconds()))
}

// ObserveSpeechIndicator bumps a named counter in the rolling window.
func (m *Metrics) ObserveSpeechIndicator(name string) {
	if m == nil || m.stageWindow == nil {
		return
	}
	m.stageWindow.ObserveIndicator(name)
}

// SpeechLatencySnapshot returns percentile stats over the recent window.
func (m *Metrics) SpeechLatencySnapshot() SpeechStageSnapshot {
	if m == nil || m.stageWindow == nil {
		return SpeechStageSnapshot{}
	}
	return m.stageWindow.Snapshot()
}

// ResetSpeechLatency clears the rolling window (used by perf tooling).
func (m *Metrics) ResetSpeechLatency() {
	if m == nil || m.stageWindow == nil {
		return
	}
	m.stageWindow.Reset()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
