// internal/providers/multiplex/provider.go
// Package multiplex routes provider calls based on host type.
package multiplex

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/storyqa/internal/appconfig"
	"github.com/mwiater/storyqa/internal/providers"
)

// Provider delegates calls to an underlying provider based on host type.
type Provider struct {
	providers map[string]providers.TextProvider
}

// New constructs a Provider from a map of host type to provider implementation.
func New(providerMap map[string]providers.TextProvider) *Provider {
	normalized := make(map[string]providers.TextProvider, len(providerMap))
	for key, provider := range providerMap {
		normalized[NormalizeType(key)] = provider
	}
	return &Provider{providers: normalized}
}

// EnsureModelReady checks if a model is ready to be used and loads it if necessary.
func (p *Provider) EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error {
	provider, err := p.providerForHost(host)
	if err != nil {
		return err
	}
	return provider.EnsureModelReady(ctx, host, model)
}

// Generate forwards a generation call to the provider for the request's host.
func (p *Provider) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, error) {
	provider, err := p.providerForHost(req.Host)
	if err != nil {
		return providers.GenerateResponse{}, err
	}
	return provider.Generate(ctx, req)
}

// Close cleans up any resources used by the provider.
func (p *Provider) Close() error {
	var firstErr error
	seen := map[providers.TextProvider]struct{}{}
	for _, provider := range p.providers {
		if _, ok := seen[provider]; ok {
			continue
		}
		seen[provider] = struct{}{}
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Provider) providerForHost(host appconfig.Host) (providers.TextProvider, error) {
	if provider, ok := p.providers[NormalizeType(host.Type)]; ok {
		return provider, nil
	}
	return nil, fmt.Errorf("no provider registered for host type %q", host.Type)
}

// NormalizeType maps host type aliases onto the canonical provider keys.
// An empty type means the hosted Hugging Face API.
func NormalizeType(hostType string) string {
	normalized := strings.ToLower(strings.TrimSpace(hostType))
	switch normalized {
	case "", "hf", "huggingface":
		return "huggingface"
	case "llama.cpp", "llamacpp":
		return "llama.cpp"
	default:
		return normalized
	}
}
