// internal/metrics/metrics_test.go
package metrics

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwiater/storyqa/internal/appconfig"
	"github.com/mwiater/storyqa/internal/providers"
)

type stubProvider struct {
	resp   providers.GenerateResponse
	err    error
	closed bool
}

func (s *stubProvider) EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error {
	return nil
}

func (s *stubProvider) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, error) {
	return s.resp, s.err
}

func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

func TestUpdateRunningStat(t *testing.T) {
	var rs RunningStat
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		updateRunningStat(&rs, v)
	}
	if rs.Count != 8 || rs.Mean != 5 || rs.Min != 2 || rs.Max != 9 {
		t.Fatalf("unexpected running stat: %+v", rs)
	}
	// sample variance of the series is 32/7
	if got, want := rs.StdDev(), math.Sqrt(32.0/7.0); math.Abs(got-want) > 1e-9 {
		t.Fatalf("StdDev() = %v, want %v", got, want)
	}
}

func TestGetBucket(t *testing.T) {
	tests := map[int]string{0: "0-256", 256: "0-256", 257: "257-1024", 4096: "1025-4096", 8000: "4097-8192", 9000: "8192+"}
	for tokens, want := range tests {
		if got := getBucket(tokens); got != want {
			t.Fatalf("getBucket(%d) = %q, want %q", tokens, got, want)
		}
	}
}

func TestAggregatorRecordAndPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "metrics.json")
	agg := NewAggregator(path)

	agg.Record(Sample{
		Meta:        providers.GenerationMetadata{Model: "gpt2", PromptEvalCount: 10, EvalCount: 20, EvalDuration: int64(2 * time.Second)},
		Latency:     300 * time.Millisecond,
		OutputWords: 15,
	})
	agg.Record(Sample{
		Meta:        providers.GenerationMetadata{Model: "gpt2", PromptEvalCount: 500},
		Latency:     100 * time.Millisecond,
		OutputWords: 5,
	})
	agg.RecordFailure("bart")

	snap := agg.Snapshot()
	if len(snap) != 2 || snap[0].ModelName != "bart" || snap[1].ModelName != "gpt2" {
		t.Fatalf("unexpected snapshot order: %+v", snap)
	}
	gpt2 := snap[1]
	if gpt2.OverallStats.TotalRequests != 2 {
		t.Fatalf("expected 2 requests, got %d", gpt2.OverallStats.TotalRequests)
	}
	if gpt2.OverallStats.OutputWords.Mean != 10 || gpt2.OverallStats.LatencyMillis.Max != 300 {
		t.Fatalf("unexpected overall stats: %+v", gpt2.OverallStats)
	}
	if gpt2.OverallStats.TokensPerSecond.Max != 10 {
		t.Fatalf("expected 10 tokens/sec max, got %v", gpt2.OverallStats.TokensPerSecond.Max)
	}
	if len(gpt2.PerformanceBuckets) != 2 || gpt2.PerformanceBuckets[0].Bucket != "0-256" {
		t.Fatalf("unexpected buckets: %+v", gpt2.PerformanceBuckets)
	}
	if snap[0].OverallStats.Failures != 1 || snap[0].OverallStats.TotalRequests != 0 {
		t.Fatalf("unexpected failure stats: %+v", snap[0].OverallStats)
	}

	if err := agg.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reloaded := NewAggregator(path)
	again := reloaded.Snapshot()
	if len(again) != 2 || again[1].OverallStats.OutputWords.Count != 2 {
		t.Fatalf("expected persisted stats to reload, got %+v", again)
	}
}

func TestProviderRecordsGenerations(t *testing.T) {
	agg := NewAggregator(filepath.Join(t.TempDir(), "metrics.json"))
	stub := &stubProvider{resp: providers.GenerateResponse{Text: "one two three"}}
	p := NewProvider(stub, agg)

	resp, err := p.Generate(context.Background(), providers.GenerateRequest{Model: "openai-community/gpt2"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if resp.Text != "one two three" {
		t.Fatalf("response not passed through: %q", resp.Text)
	}

	stub.err = errors.New("boom")
	if _, err := p.Generate(context.Background(), providers.GenerateRequest{Model: "openai-community/gpt2"}); err == nil {
		t.Fatal("expected wrapped error")
	}

	snap := agg.Snapshot()
	if len(snap) != 1 || snap[0].ModelName != "openai-community/gpt2" {
		t.Fatalf("expected metrics keyed by request model, got %+v", snap)
	}
	stats := snap[0].OverallStats
	if stats.TotalRequests != 1 || stats.Failures != 1 || stats.OutputWords.Mean != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !stub.closed {
		t.Fatal("expected wrapped provider to be closed")
	}
}
