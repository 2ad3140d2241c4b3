// internal/metrics/provider.go
package metrics

import (
	"context"
	"strings"
	"time"

	"github.com/mwiater/storyqa/internal/appconfig"
	"github.com/mwiater/storyqa/internal/logging"
	"github.com/mwiater/storyqa/internal/providers"
)

// Provider is a decorator that wraps a TextProvider to record metrics.
type Provider struct {
	wrapped    providers.TextProvider
	aggregator *Aggregator
}

// NewProvider creates a new metrics-enabled provider that wraps an existing TextProvider.
func NewProvider(wrapped providers.TextProvider, aggregator *Aggregator) *Provider {
	logging.LogMetricsEvent("Wrapping provider with metrics provider")
	return &Provider{wrapped: wrapped, aggregator: aggregator}
}

// Generate times the wrapped call and records the result under the remote model name.
func (p *Provider) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, error) {
	start := time.Now()
	resp, err := p.wrapped.Generate(ctx, req)
	if p.aggregator == nil {
		return resp, err
	}
	if err != nil {
		p.aggregator.RecordFailure(req.Model)
		return resp, err
	}

	meta := resp.Metadata
	if meta.Model == "" {
		meta.Model = req.Model
	}
	p.aggregator.Record(Sample{
		Meta:        meta,
		Latency:     time.Since(start),
		OutputWords: len(strings.Fields(resp.Text)),
	})
	return resp, nil
}

// EnsureModelReady passes the call through to the wrapped provider.
func (p *Provider) EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error {
	return p.wrapped.EnsureModelReady(ctx, host, model)
}

// Close closes the wrapped provider and flushes the aggregator.
func (p *Provider) Close() error {
	err := p.wrapped.Close()
	if p.aggregator != nil {
		if saveErr := p.aggregator.Close(); saveErr != nil && err == nil {
			err = saveErr
		}
	}
	return err
}
