// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is the flat path used before configs moved under config/.
	legacyConfigPath = "config.json"
	// defaultRequestTimeout is the default timeout for HTTP requests.
	defaultRequestTimeout = 600 * time.Second
	// defaultHFURL is the Hugging Face Inference API base URL.
	defaultHFURL = "https://api-inference.huggingface.co"
	// defaultHostName names the host created when the config lists none.
	defaultHostName = "huggingface"
	// defaultTTSURL is the speech endpoint used by gTTS-style synthesis.
	defaultTTSURL = "https://translate.google.com/translate_tts"
	// defaultTTSCacheMinutes controls how long synthesized audio stays cached.
	defaultTTSCacheMinutes = 30
	// defaultAnswerMaxLength matches the QA generation budget.
	defaultAnswerMaxLength = 128
)

// Config represents the top-level application configuration.
type Config struct {
	Hosts          []Host             `json:"hosts" mapstructure:"hosts"`
	Backends       map[string]Binding `json:"backends,omitempty" mapstructure:"backends"`
	Generation     Generation         `json:"generation" mapstructure:"generation"`
	QA             QA                 `json:"qa" mapstructure:"qa"`
	Speech         Speech             `json:"speech" mapstructure:"speech"`
	Debug          bool               `json:"debug" mapstructure:"debug"`
	Metrics        bool               `json:"metrics" mapstructure:"metrics"`
	MetricsPath    string             `json:"metricsPath,omitempty" mapstructure:"metricsPath"`
	TimeoutSeconds int                `json:"timeout,omitempty" mapstructure:"timeout"`
	LogFile        string             `json:"logFile,omitempty" mapstructure:"logFile"`
	ConfigPath     string             `json:"-" mapstructure:"-"`
}

// Host represents a single inference server.
type Host struct {
	Name   string `json:"name" mapstructure:"name"`
	URL    string `json:"url" mapstructure:"url"`
	Type   string `json:"type" mapstructure:"type"`
	APIKey string `json:"apiKey,omitempty" mapstructure:"apiKey"`
}

// Binding ties a registered model name to a host and the model ID that host serves.
type Binding struct {
	Host  string `json:"host" mapstructure:"host"`
	Model string `json:"model" mapstructure:"model"`
}

// Generation holds story generation defaults.
type Generation struct {
	ParameterTemplate string     `json:"parameterTemplate,omitempty" mapstructure:"parameterTemplate"`
	Parameters        Parameters `json:"parameters" mapstructure:"parameters"`
}

// Parameters defines the sampling controls for a generation call. Nil means unset.
type Parameters struct {
	MaxLength   *int     `json:"max_length,omitempty" mapstructure:"max_length"`
	Temperature *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	TopK        *int     `json:"top_k,omitempty" mapstructure:"top_k"`
	TopP        *float64 `json:"top_p,omitempty" mapstructure:"top_p"`
	Seed        *int64   `json:"seed,omitempty" mapstructure:"seed"`
}

// QA holds multilingual question answering settings.
type QA struct {
	DocsDir         string     `json:"docsDir,omitempty" mapstructure:"docsDir"`
	AnswerModel     string     `json:"answerModel,omitempty" mapstructure:"answerModel"`
	AnswerMaxLength int        `json:"answerMaxLength,omitempty" mapstructure:"answerMaxLength"`
	Languages       []Language `json:"languages,omitempty" mapstructure:"languages"`
}

// Language configures one answering language.
type Language struct {
	Code     string `json:"code" mapstructure:"code"`
	Strategy string `json:"strategy,omitempty" mapstructure:"strategy"`
	Document string `json:"document,omitempty" mapstructure:"document"`
}

// Speech holds speech-to-text and text-to-speech endpoints.
type Speech struct {
	STTURL          string `json:"sttURL,omitempty" mapstructure:"sttURL"`
	STTModel        string `json:"sttModel,omitempty" mapstructure:"sttModel"`
	STTAPIKey       string `json:"sttAPIKey,omitempty" mapstructure:"sttAPIKey"`
	TTSURL          string `json:"ttsURL,omitempty" mapstructure:"ttsURL"`
	TTSCacheMinutes int    `json:"ttsCacheMinutes,omitempty" mapstructure:"ttsCacheMinutes"`
}

// DefaultBackends maps each registered model name to its Hugging Face repository.
func DefaultBackends() map[string]Binding {
	return map[string]Binding{
		"gpt2":    {Host: defaultHostName, Model: "openai-community/gpt2"},
		"flan-t5": {Host: defaultHostName, Model: "google/flan-t5-base"},
		"bart":    {Host: defaultHostName, Model: "facebook/bart-base"},
	}
}

// DefaultLanguages mirrors the original document set and answering strategies.
func DefaultLanguages() []Language {
	return []Language{
		{Code: "en", Strategy: "model", Document: "english solar.pdf"},
		{Code: "hi", Strategy: "rule", Document: "hindi solar.pdf"},
		{Code: "fr", Strategy: "rule", Document: "french solar.pdf"},
		{Code: "ml", Strategy: "rule", Document: "malayalam solar.pdf"},
	}
}

// Default returns a configuration with every default applied.
func Default() Config {
	var cfg Config
	_ = ApplyDefaults(&cfg)
	return cfg
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "storyqa.log"
}

// MetricsFilePath returns where generation metrics are persisted.
func (c Config) MetricsFilePath() string {
	if path := strings.TrimSpace(c.MetricsPath); path != "" {
		return path
	}
	return "reports/data/generation_metrics.json"
}

// TTSCacheTTL returns how long synthesized audio is kept in memory.
func (c Config) TTSCacheTTL() time.Duration {
	if c.Speech.TTSCacheMinutes <= 0 {
		return defaultTTSCacheMinutes * time.Minute
	}
	return time.Duration(c.Speech.TTSCacheMinutes) * time.Minute
}

// HostByName returns the configured host with the given name.
func (c Config) HostByName(name string) (Host, bool) {
	for _, host := range c.Hosts {
		if strings.EqualFold(strings.TrimSpace(host.Name), strings.TrimSpace(name)) {
			return host, true
		}
	}
	return Host{}, false
}

// BindingFor returns the binding for a registered model name.
func (c Config) BindingFor(model string) (Binding, bool) {
	binding, ok := c.Backends[model]
	return binding, ok
}

// ResolveHostAPIKey returns the bearer token for a host.
// Priority: $STORYQA_HF_TOKEN or $HF_TOKEN env (Hugging Face hosts) > config value.
func ResolveHostAPIKey(host Host) string {
	if isHuggingFace(host.Type) {
		if key := os.Getenv("STORYQA_HF_TOKEN"); key != "" {
			return key
		}
		if key := os.Getenv("HF_TOKEN"); key != "" {
			return key
		}
	}
	return host.APIKey
}

// ResolveSTTAPIKey returns the speech-to-text bearer token.
// Priority: $STORYQA_STT_API_KEY env > config value.
func ResolveSTTAPIKey(cfg *Config) string {
	if key := os.Getenv("STORYQA_STT_API_KEY"); key != "" {
		return key
	}
	if cfg != nil {
		return cfg.Speech.STTAPIKey
	}
	return ""
}

func isHuggingFace(hostType string) bool {
	switch strings.ToLower(strings.TrimSpace(hostType)) {
	case "", "hf", "huggingface":
		return true
	}
	return false
}

// ApplyDefaults fills in missing hosts, bindings, and QA/speech settings, then
// resolves the generation parameter template.
func ApplyDefaults(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if len(cfg.Hosts) == 0 {
		cfg.Hosts = []Host{{Name: defaultHostName, URL: defaultHFURL, Type: "huggingface"}}
	}
	if cfg.Backends == nil {
		cfg.Backends = map[string]Binding{}
	}
	for name, binding := range DefaultBackends() {
		current, ok := cfg.Backends[name]
		if !ok {
			current = binding
		}
		if strings.TrimSpace(current.Host) == "" {
			current.Host = cfg.Hosts[0].Name
		}
		if strings.TrimSpace(current.Model) == "" {
			current.Model = binding.Model
		}
		cfg.Backends[name] = current
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}
	if strings.TrimSpace(cfg.QA.DocsDir) == "" {
		cfg.QA.DocsDir = "sample_docs"
	}
	if strings.TrimSpace(cfg.QA.AnswerModel) == "" {
		cfg.QA.AnswerModel = "flan-t5"
	}
	if cfg.QA.AnswerMaxLength <= 0 {
		cfg.QA.AnswerMaxLength = defaultAnswerMaxLength
	}
	if len(cfg.QA.Languages) == 0 {
		cfg.QA.Languages = DefaultLanguages()
	}
	for i := range cfg.QA.Languages {
		if strings.TrimSpace(cfg.QA.Languages[i].Strategy) == "" {
			cfg.QA.Languages[i].Strategy = "rule"
		}
	}
	if strings.TrimSpace(cfg.Speech.TTSURL) == "" {
		cfg.Speech.TTSURL = defaultTTSURL
	}
	if strings.TrimSpace(cfg.Speech.STTModel) == "" {
		cfg.Speech.STTModel = "base"
	}
	return ApplyParameterTemplate(cfg)
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		config.ConfigPath = path
		return config, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				config.ConfigPath = legacyConfigPath
				return config, nil
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q)", DefaultConfigPath, legacyConfigPath)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath validates and decodes the configuration at a specific file path.
func loadFromPath(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := ValidateDocument(data); err != nil {
		return Config{}, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}
	if err := ApplyDefaults(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}
