package observability

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// SpeechStageStats summarizes recent latencies for one stage of the speech
// pipeline, such as a remote synthesis call or the wait until audio is
// audible. Percentiles are computed over the rolling window only.
type SpeechStageStats struct {
	Stage       string  `json:"stage"`
	Samples     int     `json:"samples"`
	LastMS      float64 `json:"last_ms"`
	AvgMS       float64 `json:"avg_ms"`
	P50MS       float64 `json:"p50_ms"`
	P95MS       float64 `json:"p95_ms"`
	P99MS       float64 `json:"p99_ms"`
	TargetP95MS float64 `json:"target_p95_ms,omitempty"`
}

// SpeechIndicator counts a named pipeline event that has no duration, for
// example a cache hit or a skipped request.
type SpeechIndicator struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SpeechStageSnapshot is the JSON shape served by the latency endpoint.
type SpeechStageSnapshot struct {
	GeneratedAt time.Time          `json:"generated_at"`
	WindowSize  int                `json:"window_size"`
	Stages      []SpeechStageStats `json:"stages"`
	Indicators  []SpeechIndicator  `json:"indicators,omitempty"`
}

// speechStageWindow holds the last maxSamples observations per stage in a
// ring buffer. It backs the latency endpoint directly, so operators can read
// recent percentiles without a Prometheus query.
type speechStageWindow struct {
	mu         sync.RWMutex
	maxSamples int
	stages     map[string]*speechStageBuffer
	indicators map[string]int
}

// speechStageBuffer is a fixed-size ring. Once filled, new samples overwrite
// the oldest ones.
type speechStageBuffer struct {
	values []float64
	next   int
	filled bool
	last   float64
}

func (b *speechStageBuffer) push(ms float64) {
	b.values[b.next] = ms
	b.last = ms
	b.next++
	if b.next >= len(b.values) {
		b.next = 0
		b.filled = true
	}
}

// sorted returns the occupied portion of the ring as a freshly sorted slice.
func (b *speechStageBuffer) sorted() []float64 {
	n := b.next
	if b.filled {
		n = len(b.values)
	}
	if n <= 0 {
		return nil
	}
	samples := make([]float64, n)
	copy(samples, b.values[:n])
	sort.Float64s(samples)
	return samples
}

func newSpeechStageWindow(maxSamples int) *speechStageWindow {
	if maxSamples <= 0 {
		maxSamples = 256
	}
	return &speechStageWindow{
		maxSamples: maxSamples,
		stages:     make(map[string]*speechStageBuffer),
		indicators: make(map[string]int),
	}
}

// Observe records one latency sample. Unnamed stages and negative durations
// are dropped.
func (w *speechStageWindow) Observe(stage string, ms float64) {
	if stage == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, ok := w.stages[stage]
	if !ok {
		buf = &speechStageBuffer{
			values: make([]float64, w.maxSamples),
		}
		w.stages[stage] = buf
	}
	buf.push(ms)
}

func (w *speechStageWindow) Snapshot() SpeechStageSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	stages := make([]SpeechStageStats, 0, len(w.stages))
	keys := make([]string, 0, len(w.stages))
	for stage := range w.stages {
		keys = append(keys, stage)
	}
	sort.Strings(keys)

	for _, stage := range keys {
		buf := w.stages[stage]
		if buf == nil {
			continue
		}
		samples := buf.sorted()
		if len(samples) == 0 {
			continue
		}

		sum := 0.0
		for _, v := range samples {
			sum += v
		}

		stages = append(stages, SpeechStageStats{
			Stage:       stage,
			Samples:     len(samples),
			LastMS:      round2(buf.last),
			AvgMS:       round2(sum / float64(len(samples))),
			P50MS:       round2(quantile(samples, 0.50)),
			P95MS:       round2(quantile(samples, 0.95)),
			P99MS:       round2(quantile(samples, 0.99)),
			TargetP95MS: stageTargetP95MS(stage),
		})
	}

	indicators := make([]SpeechIndicator, 0, len(w.indicators))
	indicatorKeys := make([]string, 0, len(w.indicators))
	for name := range w.indicators {
		indicatorKeys = append(indicatorKeys, name)
	}
	sort.Strings(indicatorKeys)
	for _, name := range indicatorKeys {
		count := w.indicators[name]
		if count <= 0 {
			continue
		}
		indicators = append(indicators, SpeechIndicator{
			Name:  name,
			Count: count,
		})
	}

	return SpeechStageSnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.maxSamples,
		Stages:      stages,
		Indicators:  indicators,
	}
}

func (w *speechStageWindow) ObserveIndicator(name string) {
	if w == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.indicators[name]++
}

func (w *speechStageWindow) Reset() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stages = make(map[string]*speechStageBuffer)
	w.indicators = make(map[string]int)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// stageTargetP95MS maps a stage to its p95 budget in milliseconds. Zero
// means no budget is published for that stage.
func stageTargetP95MS(stage string) float64 {
	switch stage {
	case "remote_synthesis":
		return 1500
	case "cache_lookup":
		return 5
	case "speak_to_audible":
		return 2000
	default:
		return 0
	}
}
