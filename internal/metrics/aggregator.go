// internal/metrics/aggregator.go
package metrics

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mwiater/storyqa/internal/logging"
	"github.com/mwiater/storyqa/internal/providers"
)

// Sample is one completed generation call as seen by the metrics provider.
type Sample struct {
	Meta        providers.GenerationMetadata
	Latency     time.Duration
	OutputWords int
}

// Aggregator collects and manages performance metrics for models.
type Aggregator struct {
	mutex    sync.Mutex
	metrics  map[string]*ModelMetrics
	filePath string
}

// NewAggregator creates an Aggregator backed by filePath and loads any
// metrics already stored there.
func NewAggregator(filePath string) *Aggregator {
	agg := &Aggregator{
		metrics:  make(map[string]*ModelMetrics),
		filePath: filePath,
	}
	agg.load()
	return agg
}

// load reads metrics from the JSON file into memory.
func (a *Aggregator) load() {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	data, err := os.ReadFile(a.filePath)
	if err != nil {
		return
	}

	var metricsSlice []*ModelMetrics
	if err := json.Unmarshal(data, &metricsSlice); err != nil {
		logging.LogMetricsEvent("ignoring unreadable metrics file %s: %v", a.filePath, err)
		return
	}

	for _, m := range metricsSlice {
		if m == nil || m.ModelName == "" {
			continue
		}
		a.metrics[m.ModelName] = m
	}
}

// save writes the current metrics from memory to the JSON file.
func (a *Aggregator) save() error {
	if strings.TrimSpace(a.filePath) == "" {
		return errors.New("metrics: no file path configured")
	}
	logging.LogMetricsEvent("Saving metrics to %s", a.filePath)

	data, err := json.MarshalIndent(a.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(a.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(a.filePath, data, 0o644)
}

// Record updates the metrics for a given model with new data.
func (a *Aggregator) Record(sample Sample) {
	logging.LogMetricsEvent("Record called for model %s", sample.Meta.Model)
	a.mutex.Lock()
	defer a.mutex.Unlock()

	modelMetrics := a.modelLocked(sample.Meta.Model)
	modelMetrics.LastUpdatedUTC = time.Now().UTC()

	updateStats(&modelMetrics.OverallStats, sample)

	bucket := getBucket(sample.Meta.PromptEvalCount)
	found := false
	for i := range modelMetrics.PerformanceBuckets {
		if modelMetrics.PerformanceBuckets[i].Dimension == "input_tokens" && modelMetrics.PerformanceBuckets[i].Bucket == bucket {
			updateStats(&modelMetrics.PerformanceBuckets[i].Stats, sample)
			found = true
			break
		}
	}
	if !found {
		newBucket := PerformanceBucket{
			Dimension: "input_tokens",
			Bucket:    bucket,
		}
		updateStats(&newBucket.Stats, sample)
		modelMetrics.PerformanceBuckets = append(modelMetrics.PerformanceBuckets, newBucket)
	}
}

// RecordFailure counts a failed call against a model without touching the running stats.
func (a *Aggregator) RecordFailure(model string) {
	logging.LogMetricsEvent("RecordFailure called for model %s", model)
	a.mutex.Lock()
	defer a.mutex.Unlock()

	modelMetrics := a.modelLocked(model)
	modelMetrics.LastUpdatedUTC = time.Now().UTC()
	modelMetrics.OverallStats.Failures++
}

func (a *Aggregator) modelLocked(model string) *ModelMetrics {
	modelMetrics, exists := a.metrics[model]
	if !exists {
		modelMetrics = &ModelMetrics{ModelName: model}
		a.metrics[model] = modelMetrics
	}
	return modelMetrics
}

// Snapshot returns a copy of all model metrics sorted by model name.
func (a *Aggregator) Snapshot() []ModelMetrics {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	out := make([]ModelMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		copied := *m
		copied.PerformanceBuckets = append([]PerformanceBucket(nil), m.PerformanceBuckets...)
		sort.Slice(copied.PerformanceBuckets, func(i, j int) bool {
			return bucketOrder(copied.PerformanceBuckets[i].Bucket) < bucketOrder(copied.PerformanceBuckets[j].Bucket)
		})
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelName < out[j].ModelName })
	return out
}

// updateStats updates the running statistics with a new sample.
func updateStats(stats *RunningAggregatedStats, sample Sample) {
	meta := sample.Meta
	stats.TotalRequests++
	updateRunningStat(&stats.LatencyMillis, float64(sample.Latency.Milliseconds()))
	updateRunningStat(&stats.OutputWords, float64(sample.OutputWords))

	var tokensPerSecond float64
	if meta.EvalDuration > 0 {
		tokensPerSecond = float64(meta.EvalCount) / (float64(meta.EvalDuration) / 1e9)
	}
	updateRunningStat(&stats.TokensPerSecond, tokensPerSecond)

	updateRunningStat(&stats.InputTokens, float64(meta.PromptEvalCount))
	updateRunningStat(&stats.OutputTokens, float64(meta.EvalCount))
}

// updateRunningStat updates a single running statistic using Welford's online algorithm.
func updateRunningStat(rs *RunningStat, value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}

var buckets = []string{"0-256", "257-1024", "1025-4096", "4097-8192", "8192+"}

// getBucket determines the appropriate performance bucket for a given number of input tokens.
func getBucket(inputTokens int) string {
	switch {
	case inputTokens <= 256:
		return buckets[0]
	case inputTokens <= 1024:
		return buckets[1]
	case inputTokens <= 4096:
		return buckets[2]
	case inputTokens <= 8192:
		return buckets[3]
	default:
		return buckets[4]
	}
}

func bucketOrder(bucket string) int {
	for i, b := range buckets {
		if b == bucket {
			return i
		}
	}
	return len(buckets)
}

// Close persists the metrics to disk.
func (a *Aggregator) Close() error {
	return a.save()
}
