// Package datadog implements a Datadog backend for the internal/metrics package.
//
// NOTE ABOUT FLUSHING:
// A benchmark run over a large corpus can take minutes. Submitting only once
// at process exit makes Datadog dashboards/monitors awkward (a single spike
// instead of a time series). Therefore we:
//   - buffer metrics in-memory (fast, lock-protected)
//   - periodically Flush() on a ticker (default: once per minute)
//   - Flush() one final time on Close()
//
// Concurrency model:
//   - benchmark workers can call IncCounter/ObserveHistogram at any time
//   - Flush snapshots+resets buffers under a mutex, then submits out-of-lock
//   - the flush loop calls Flush() periodically; Close() stops the loop
//
// If the process is killed with SIGKILL/OOM, Close() won't run (no backend
// can fix that).
package datadog

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"csvsniff/internal/metrics"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

// Options controls Datadog backend configuration.
type Options struct {
	// JobName becomes tag "job:<name>" on every metric.
	// If empty, defaults to "sniffbench".
	JobName string

	// Tags are extra Datadog tags (e.g. []string{"env:prod", "service:sniffbench"}).
	Tags []string

	// FlushEvery controls how often we submit buffered metrics to Datadog.
	// If <= 0, defaults to 60 seconds.
	FlushEvery time.Duration

	// The following fields are unexported test seams. Production code will
	// never set them; unit tests can set them to avoid real network
	// submission and nondeterministic clocks/tickers.
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

// metricsSubmitter is the minimal interface needed to submit metrics.
//
// The Datadog SDK exposes a concrete *datadogV2.MetricsApi, which makes unit
// testing difficult (we cannot stub it without doing real HTTP). Backend
// depends on this interface instead, enabling deterministic tests with a
// fake submitter.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend implements metrics.Backend for Datadog.
type Backend struct {
	api metricsSubmitter
	ctx context.Context

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}

	baseTags []string

	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker

	mu sync.Mutex

	runCounts         map[string]float64   // corpus\x00outcome -> count
	durationSamples   map[string][]float64 // corpus\x00outcome -> seconds
	candidatesSamples map[string][]float64 // corpus\x00outcome -> candidates scored
	accuracySamples   map[string][]float64 // corpus -> accuracy ratio
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

func (b *Backend) loop() {
	defer close(b.doneCh)

	t := b.newTicker(b.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// Close stops the background flush loop and performs one final Flush().
func (b *Backend) Close() error {
	close(b.stopCh)
	<-b.doneCh
	return b.Flush()
}

// NewBackend constructs a Datadog backend using the official client.
//
// Edge cases:
//   - If opts.FlushEvery <= 0, defaults to 60s.
//   - If opts.JobName is empty, defaults to "sniffbench".
//   - Environment tag selection uses ENV then DD_ENV, otherwise env:unknown.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	job := opts.JobName
	if job == "" {
		job = "sniffbench"
	}

	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	envTag := resolveEnvTag()
	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, envTag, "job:"+job)
	baseTags = append(baseTags, opts.Tags...)

	nowFn := opts.now
	if nowFn == nil {
		nowFn = time.Now
	}
	newTicker := opts.newTicker
	if newTicker == nil {
		newTicker = time.NewTicker
	}

	submitter := opts.submitter
	if submitter == nil {
		cfg := dd.NewConfiguration()
		client := dd.NewAPIClient(cfg)
		submitter = datadogV2.NewMetricsApi(client)
	}

	ctx := dd.NewDefaultContext(parent)

	b := &Backend{
		api:        submitter,
		ctx:        ctx,
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),

		baseTags: baseTags,

		now:       nowFn,
		newTicker: newTicker,

		runCounts:         make(map[string]float64),
		durationSamples:   make(map[string][]float64),
		candidatesSamples: make(map[string][]float64),
		accuracySamples:   make(map[string][]float64),
	}

	go b.loop()
	return b, nil
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case "sniff_bench_runs_total":
		corpus := labels["corpus"]
		outcome := labels["outcome"]
		if outcome == "" {
			outcome = "unknown"
		}
		k := corpusOutcomeKey(corpus, outcome)
		b.runCounts[k] += delta

	default:
		// Ignore unknown metrics by design.
	}
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case "sniff_bench_duration_seconds":
		corpus := labels["corpus"]
		outcome := labels["outcome"]
		if outcome == "" {
			outcome = "unknown"
		}
		k := corpusOutcomeKey(corpus, outcome)
		b.durationSamples[k] = append(b.durationSamples[k], value)

	case "sniff_bench_candidates_scored":
		corpus := labels["corpus"]
		outcome := labels["outcome"]
		if outcome == "" {
			outcome = "unknown"
		}
		k := corpusOutcomeKey(corpus, outcome)
		b.candidatesSamples[k] = append(b.candidatesSamples[k], value)

	case "sniff_bench_accuracy":
		corpus := labels["corpus"]
		b.accuracySamples[corpus] = append(b.accuracySamples[corpus], value)

	default:
		// Ignore unknown histograms by design.
	}
}

// snapshot is the immutable set of buffered metric state used to build a
// flush payload. Flush() must reset buffers under a lock, but must submit
// out-of-lock; snapshot separates (1) collect+reset from (2) payload
// building+submission.
type snapshot struct {
	runCounts         map[string]float64
	durationSamples   map[string][]float64
	candidatesSamples map[string][]float64
	accuracySamples   map[string][]float64
}

func (b *Backend) snapshotAndReset() snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := snapshot{
		runCounts:         b.runCounts,
		durationSamples:   b.durationSamples,
		candidatesSamples: b.candidatesSamples,
		accuracySamples:   b.accuracySamples,
	}

	b.runCounts = make(map[string]float64)
	b.durationSamples = make(map[string][]float64)
	b.candidatesSamples = make(map[string][]float64)
	b.accuracySamples = make(map[string][]float64)

	return s
}

func (s snapshot) isEmpty() bool {
	return len(s.runCounts) == 0 &&
		len(s.durationSamples) == 0 &&
		len(s.candidatesSamples) == 0 &&
		len(s.accuracySamples) == 0
}

// Flush submits buffered metrics to Datadog and resets local buffers.
//
// Flush resets buffers even if submission fails, to keep the benchmark
// harness fast and avoid blocking future writes.
func (b *Backend) Flush() error {
	snap := b.snapshotAndReset()
	if snap.isEmpty() {
		return nil
	}

	nowUnix := b.now().Unix()

	series := b.buildSeries(snap, nowUnix)
	payload := datadogV2.MetricPayload{Series: series}

	_, _, err := b.api.SubmitMetrics(b.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

func (b *Backend) buildSeries(s snapshot, nowUnix int64) []datadogV2.MetricSeries {
	addCount := func(metric string, value float64, tags []string) datadogV2.MetricSeries {
		return datadogV2.MetricSeries{
			Metric: metric,
			Type:   datadogV2.METRICINTAKETYPE_COUNT.Ptr(),
			Points: []datadogV2.MetricPoint{
				{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
			},
			Tags: tags,
		}
	}

	series := make([]datadogV2.MetricSeries, 0, len(s.runCounts)+len(s.durationSamples)+16)

	for k, v := range s.runCounts {
		if v == 0 {
			continue
		}
		corpus, outcome := splitCorpusOutcomeKey(k)
		tags := withTags(b.baseTags, "corpus:"+corpus, "outcome:"+outcome)
		series = append(series, addCount("sniff.bench.runs_total", v, tags))
	}

	for k, samples := range s.durationSamples {
		corpus, outcome := splitCorpusOutcomeKey(k)
		tags := withTags(b.baseTags, "corpus:"+corpus, "outcome:"+outcome)
		addPercentiles(&series, tags, "sniff.bench.duration_ms", samplesToMillis(samples), nowUnix)
	}

	for k, samples := range s.candidatesSamples {
		corpus, outcome := splitCorpusOutcomeKey(k)
		tags := withTags(b.baseTags, "corpus:"+corpus, "outcome:"+outcome)
		addPercentiles(&series, tags, "sniff.bench.candidates_scored", samples, nowUnix)
	}

	for corpus, samples := range s.accuracySamples {
		tags := withTags(b.baseTags, "corpus:"+corpus)
		addPercentiles(&series, tags, "sniff.bench.accuracy", samples, nowUnix)
	}

	return series
}

func samplesToMillis(seconds []float64) []float64 {
	ms := make([]float64, len(seconds))
	for i, v := range seconds {
		ms[i] = v * 1000
	}
	return ms
}

// addPercentiles appends a fixed set of percentile gauges for a sample set.
// It sorts a copy of samples and does not mutate the input.
func addPercentiles(series *[]datadogV2.MetricSeries, tags []string, metricPrefix string, samples []float64, nowUnix int64) {
	if len(samples) == 0 {
		return
	}
	cp := append([]float64(nil), samples...)
	sort.Float64s(cp)

	*series = append(*series, gaugeSeries(metricPrefix+".p50", percentileNearestRank(cp, 0.50), tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".p90", percentileNearestRank(cp, 0.90), tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".p95", percentileNearestRank(cp, 0.95), tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".p99", percentileNearestRank(cp, 0.99), tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".max", cp[len(cp)-1], tags, nowUnix))
	*series = append(*series, gaugeSeries(metricPrefix+".samples", float64(len(cp)), tags, nowUnix))
}

func gaugeSeries(metric string, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   datadogV2.METRICINTAKETYPE_GAUGE.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

func corpusOutcomeKey(corpus, outcome string) string {
	return corpus + "\x00" + outcome
}

func splitCorpusOutcomeKey(k string) (corpus, outcome string) {
	parts := strings.SplitN(k, "\x00", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return k, "unknown"
}

func withTags(base []string, extras ...string) []string {
	out := make([]string, 0, len(base)+len(extras))
	out = append(out, base...)
	out = append(out, extras...)
	return out
}

func percentileNearestRank(s []float64, p float64) float64 {
	n := len(s)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return s[0]
	}
	if p >= 1 {
		return s[n-1]
	}
	idx := int(p*float64(n-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return s[idx]
}

var _ metrics.Backend = (*Backend)(nil)

// ParseTagsCSV parses comma-separated tags like "env:prod,service:sniffbench".
func ParseTagsCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func wrapInitErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("datadog metrics init: %w", err)
}
