// internal/commands/runtime.go
package storyqa

import (
	"github.com/mwiater/storyqa/internal/appconfig"
	"github.com/mwiater/storyqa/internal/generation"
	"github.com/mwiater/storyqa/internal/providerfactory"
	"github.com/mwiater/storyqa/internal/providers"
)

// runtime is the generation stack shared by commands that call models.
type runtime struct {
	provider   providers.TextProvider
	dispatcher *generation.Dispatcher
}

// newRuntime builds the provider and dispatcher for cfg. Tests replace it.
var newRuntime = func(cfg *appconfig.Config) (*runtime, error) {
	provider, err := providerfactory.NewTextProvider(cfg)
	if err != nil {
		return nil, err
	}
	registry := generation.NewRegistry(generation.NewHostedLoader(cfg, provider))
	return &runtime{provider: provider, dispatcher: generation.NewDispatcher(registry)}, nil
}

// Close releases the provider, flushing metrics when enabled.
func (r *runtime) Close() error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close()
}
