// internal/generation/dispatcher.go
package generation

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mwiater/storyqa/internal/logging"
	"github.com/mwiater/storyqa/internal/util"
)

// Dispatcher routes generation requests to the backend for their model and
// normalizes the output.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher returns a dispatcher backed by registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Registry exposes the dispatcher's backend registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Generate formats the prompt for the requested model, runs it on the
// model's backend and returns the cleaned text. Unknown models and invalid
// parameters fail before any backend is loaded or called.
func (d *Dispatcher) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	profile, err := Profile(req.ModelName)
	if err != nil {
		return GenerationResult{}, err
	}
	if err := req.Validate(); err != nil {
		return GenerationResult{}, err
	}

	inv := Invocation{
		Prompt:        profile.FormatPrompt(req.Prompt),
		MaxLength:     req.MaxLength,
		Temperature:   req.Temperature,
		TopK:          req.TopK,
		TopP:          req.TopP,
		Seed:          req.Seed,
		Decoding:      profile.Decoding,
		NumBeams:      profile.NumBeams,
		EarlyStopping: profile.EarlyStopping,
		EchoPrompt:    profile.EchoesPrompt,
	}
	return d.run(ctx, profile, inv)
}

// GenerateStory is the positional form of Generate.
func (d *Dispatcher) GenerateStory(ctx context.Context, prompt, modelName string, maxLength int, temperature float64, topK int, topP float64) (string, error) {
	result, err := d.Generate(ctx, GenerationRequest{
		Prompt:      prompt,
		ModelName:   modelName,
		MaxLength:   maxLength,
		Temperature: temperature,
		TopK:        topK,
		TopP:        topP,
	})
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// Complete sends prompt to a registered backend without a template, using
// greedy decoding.
func (d *Dispatcher) Complete(ctx context.Context, modelName, prompt string, maxLength int) (string, error) {
	profile, err := Profile(modelName)
	if err != nil {
		return "", err
	}
	if err := validateMaxLength(maxLength); err != nil {
		return "", err
	}

	result, err := d.run(ctx, profile, Invocation{
		Prompt:     prompt,
		MaxLength:  maxLength,
		Decoding:   Greedy,
		NumBeams:   1,
		EchoPrompt: profile.EchoesPrompt,
	})
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

func (d *Dispatcher) run(ctx context.Context, profile ModelProfile, inv Invocation) (GenerationResult, error) {
	requestID := uuid.NewString()
	start := time.Now()
	logging.LogEvent("generate id=%s model=%s decoding=%s max_length=%d", requestID, profile.Name, inv.Decoding, inv.MaxLength)

	s, err := d.registry.acquire(ctx, profile.Name)
	if err != nil {
		return GenerationResult{}, &InferenceError{Backend: profile.Name, Err: err}
	}

	s.mu.Lock()
	raw, err := s.backend.Generate(ctx, inv)
	s.mu.Unlock()
	if err != nil {
		logging.LogEvent("generate id=%s model=%s failed: %v", requestID, profile.Name, err)
		return GenerationResult{}, &InferenceError{Backend: profile.Name, Err: err}
	}

	text := postProcess(profile, inv.Prompt, raw)
	elapsed := time.Since(start)
	words := util.WordCount(text)
	logging.LogEvent("generate id=%s model=%s words=%d elapsed=%s", requestID, profile.Name, words, elapsed)

	return GenerationResult{
		Text:      text,
		WordCount: words,
		ModelName: profile.Name,
		RequestID: requestID,
		Elapsed:   elapsed,
	}, nil
}

// postProcess removes special tokens, strips the echoed prompt by character
// offset for profiles that echo, and trims surrounding whitespace.
func postProcess(profile ModelProfile, formattedPrompt, raw string) string {
	text := raw
	for _, tok := range profile.SpecialTokens {
		text = strings.ReplaceAll(text, tok, "")
	}
	if profile.EchoesPrompt {
		text = dropRunes(text, utf8.RuneCountInString(formattedPrompt))
	}
	return strings.TrimSpace(text)
}

func dropRunes(text string, n int) string {
	for i := range text {
		if n == 0 {
			return text[i:]
		}
		n--
	}
	return ""
}
