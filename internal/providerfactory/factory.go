// internal/providerfactory/factory.go
package providerfactory

import (
	"fmt"
	"sort"

	"github.com/mwiater/storyqa/internal/appconfig"
	"github.com/mwiater/storyqa/internal/logging"
	"github.com/mwiater/storyqa/internal/metrics"
	"github.com/mwiater/storyqa/internal/providers"
	"github.com/mwiater/storyqa/internal/providers/huggingface"
	"github.com/mwiater/storyqa/internal/providers/llamacpp"
	"github.com/mwiater/storyqa/internal/providers/multiplex"
	"github.com/mwiater/storyqa/internal/providers/ollama"
)

// NewTextProvider builds a provider for every host type named in the
// configuration. A single host type yields that provider directly; mixed
// types are routed through a multiplex provider. When metrics are enabled
// the result is wrapped with metrics collection.
func NewTextProvider(cfg *appconfig.Config) (providers.TextProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	hostTypes, err := collectHostTypes(cfg)
	if err != nil {
		return nil, err
	}

	built := make(map[string]providers.TextProvider, len(hostTypes))
	for hostType := range hostTypes {
		switch hostType {
		case "huggingface":
			built[hostType] = huggingface.New(cfg)
		case "ollama":
			built[hostType] = ollama.New(cfg)
		case "llama.cpp":
			built[hostType] = llamacpp.New(cfg)
		}
	}

	var provider providers.TextProvider
	if len(built) == 1 {
		for _, only := range built {
			provider = only
		}
	} else {
		provider = multiplex.New(built)
	}
	logging.LogEvent("provider factory: host types=%v", sortedKeys(hostTypes))

	if cfg.Metrics {
		aggregator := metrics.NewAggregator(cfg.MetricsFilePath())
		provider = metrics.NewProvider(provider, aggregator)
	}

	return provider, nil
}

func collectHostTypes(cfg *appconfig.Config) (map[string]bool, error) {
	types := map[string]bool{}
	for _, host := range cfg.Hosts {
		hostType := multiplex.NormalizeType(host.Type)
		switch hostType {
		case "huggingface", "ollama", "llama.cpp":
			types[hostType] = true
		default:
			return nil, fmt.Errorf("unsupported host type %q for host %q", host.Type, host.Name)
		}
	}
	if len(types) == 0 {
		types["huggingface"] = true
	}
	return types, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
