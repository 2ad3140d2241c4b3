// internal/providers/provider.go

// Package providers defines the interface for reaching hosted text-generation
// models. It gives the generation dispatcher one abstraction for loading models
// and running single-shot generation, regardless of the inference server behind
// it (Hugging Face Inference API, Ollama, llama.cpp).
package providers

import (
	"context"
	"strings"
	"time"

	"github.com/mwiater/storyqa/internal/appconfig"
)

// Task names the pipeline a hosted model runs.
type Task string

const (
	// TaskTextGeneration continues the input text (decoder-only models).
	TaskTextGeneration Task = "text-generation"
	// TaskText2Text maps input text to new output text (encoder-decoder models).
	TaskText2Text Task = "text2text-generation"
)

// Sampling carries the stochastic decoding controls.
type Sampling struct {
	Temperature float64
	TopK        int
	TopP        float64
	Seed        *int64
}

// Decoding selects between pure sampling, greedy, and beam-assisted decoding.
type Decoding struct {
	DoSample      bool
	NumBeams      int
	EarlyStopping bool
}

// GenerateRequest encapsulates one generation call against a hosted model.
type GenerateRequest struct {
	Host      appconfig.Host
	Model     string
	Task      Task
	Prompt    string
	MaxLength int
	Sampling  Sampling
	Decoding  Decoding
	// EchoPrompt asks for the prompt to lead the returned text. Providers whose
	// servers return only the continuation prepend it themselves.
	EchoPrompt bool
}

// GenerationMetadata contains timing and token counts for a completed call.
type GenerationMetadata struct {
	Model              string
	CreatedAt          time.Time
	Done               bool
	TotalDuration      int64
	LoadDuration       int64
	PromptEvalCount    int
	PromptEvalDuration int64
	EvalCount          int
	EvalDuration       int64
}

// GenerateResponse is the raw decoded text plus call metadata.
type GenerateResponse struct {
	Text     string
	Metadata GenerationMetadata
}

// TextProvider is the interface that all inference providers must implement.
type TextProvider interface {
	// EnsureModelReady asks the host to make a model resident, loading it if necessary.
	EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error
	// Generate runs a single, non-streaming generation call.
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	// Close cleans up any resources used by the provider.
	Close() error
}

// HostIdentifier returns a string identifier for a host, preferring the name over the URL.
func HostIdentifier(host appconfig.Host, fallback string) string {
	if name := strings.TrimSpace(host.Name); name != "" {
		return name
	}
	if url := strings.TrimSpace(host.URL); url != "" {
		return url
	}
	return fallback
}

// WithEcho prepends the prompt to a continuation-only response when the
// request asked for an echo.
func WithEcho(req GenerateRequest, text string) string {
	if !req.EchoPrompt {
		return text
	}
	return req.Prompt + text
}
