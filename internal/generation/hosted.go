// internal/generation/hosted.go
package generation

import (
	"context"
	"fmt"

	"github.com/mwiater/storyqa/internal/appconfig"
	"github.com/mwiater/storyqa/internal/providers"
)

// NewHostedLoader returns a Loader that binds each profile to the host and
// remote model named in cfg.Backends and asks that host to make the model
// resident before the first call.
func NewHostedLoader(cfg *appconfig.Config, provider providers.TextProvider) Loader {
	return func(ctx context.Context, profile ModelProfile) (Backend, error) {
		binding, ok := cfg.BindingFor(profile.Name)
		if !ok {
			return nil, fmt.Errorf("no backend binding configured for %s", profile.Name)
		}
		host, ok := cfg.HostByName(binding.Host)
		if !ok {
			return nil, fmt.Errorf("backend %s references unknown host %q", profile.Name, binding.Host)
		}
		if err := provider.EnsureModelReady(ctx, host, binding.Model); err != nil {
			return nil, fmt.Errorf("load %s on %s: %w", binding.Model, providers.HostIdentifier(host, host.URL), err)
		}
		return &hostedBackend{
			provider: provider,
			host:     host,
			model:    binding.Model,
			task:     profile.Task,
		}, nil
	}
}

type hostedBackend struct {
	provider providers.TextProvider
	host     appconfig.Host
	model    string
	task     providers.Task
}

func (b *hostedBackend) Generate(ctx context.Context, inv Invocation) (string, error) {
	resp, err := b.provider.Generate(ctx, providers.GenerateRequest{
		Host:      b.host,
		Model:     b.model,
		Task:      b.task,
		Prompt:    inv.Prompt,
		MaxLength: inv.MaxLength,
		Sampling: providers.Sampling{
			Temperature: inv.Temperature,
			TopK:        inv.TopK,
			TopP:        inv.TopP,
			Seed:        inv.Seed,
		},
		Decoding: providers.Decoding{
			DoSample:      inv.Decoding != Greedy,
			NumBeams:      inv.NumBeams,
			EarlyStopping: inv.EarlyStopping,
		},
		EchoPrompt: inv.EchoPrompt,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
