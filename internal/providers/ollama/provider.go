// internal/providers/ollama/provider.go
// Package ollama provides a TextProvider backed by Ollama-compatible HTTP endpoints.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/storyqa/internal/appconfig"
	"github.com/mwiater/storyqa/internal/logging"
	"github.com/mwiater/storyqa/internal/providers"
)

// Provider implements the providers.TextProvider interface using Ollama HTTP APIs.
type Provider struct {
	client  *http.Client
	timeout time.Duration
	debug   bool
}

// New constructs a Provider configured with the application's request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
		debug:   cfg.Debug,
	}
}

type generateResponse struct {
	Model              string `json:"model"`
	Response           string `json:"response"`
	Done               bool   `json:"done"`
	TotalDuration      int64  `json:"total_duration"`
	LoadDuration       int64  `json:"load_duration"`
	PromptEvalCount    int    `json:"prompt_eval_count"`
	PromptEvalDuration int64  `json:"prompt_eval_duration"`
	EvalCount          int    `json:"eval_count"`
	EvalDuration       int64  `json:"eval_duration"`
	Error              string `json:"error,omitempty"`
}

// EnsureModelReady triggers a lightweight generate request to make sure the model is loaded.
func (p *Provider) EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error {
	payload := map[string]any{
		"model": model,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	logging.LogRequest("STORYQA->LLM", hostIdentifier(host), model, "", body)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host.URL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	logging.LogRequest("LLM->STORYQA", hostIdentifier(host), model, "", respBody)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: /api/generate returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	return nil
}

// Generate issues a raw, non-streaming /api/generate request. Ollama returns
// only the continuation, so echoed prompts are restored locally.
func (p *Provider) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, error) {
	if req.Decoding.NumBeams > 1 && p.debug {
		logging.LogEvent("ollama: beam search is not supported; num_beams=%d ignored, sampling only", req.Decoding.NumBeams)
	}

	payload := map[string]any{
		"model":   req.Model,
		"prompt":  req.Prompt,
		"raw":     true,
		"stream":  false,
		"options": buildOptions(req),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return providers.GenerateResponse{}, err
	}
	hostID := hostIdentifier(req.Host)
	logging.LogRequest("STORYQA->LLM", hostID, req.Model, string(req.Task), body)

	genCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(genCtx, http.MethodPost, req.Host.URL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return providers.GenerateResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.GenerateResponse{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.GenerateResponse{}, err
	}
	logging.LogRequest("LLM->STORYQA", hostID, req.Model, string(req.Task), respBody)

	if resp.StatusCode != http.StatusOK {
		return providers.GenerateResponse{}, fmt.Errorf("ollama: /api/generate returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return providers.GenerateResponse{}, err
	}
	if result.Error != "" {
		return providers.GenerateResponse{}, fmt.Errorf("ollama: %s", result.Error)
	}

	modelName := result.Model
	if modelName == "" {
		modelName = req.Model
	}
	return providers.GenerateResponse{
		Text: providers.WithEcho(req, result.Response),
		Metadata: providers.GenerationMetadata{
			Model:              modelName,
			CreatedAt:          time.Now(),
			Done:               result.Done,
			TotalDuration:      result.TotalDuration,
			LoadDuration:       result.LoadDuration,
			PromptEvalCount:    result.PromptEvalCount,
			PromptEvalDuration: result.PromptEvalDuration,
			EvalCount:          result.EvalCount,
			EvalDuration:       result.EvalDuration,
		},
	}, nil
}

func buildOptions(req providers.GenerateRequest) map[string]any {
	options := map[string]any{}
	if req.MaxLength > 0 {
		options["num_predict"] = req.MaxLength
	}
	if !req.Decoding.DoSample {
		// greedy: always take the most likely token
		options["temperature"] = 0
		options["top_k"] = 1
	} else {
		if req.Sampling.Temperature > 0 {
			options["temperature"] = req.Sampling.Temperature
		}
		if req.Sampling.TopK > 0 {
			options["top_k"] = req.Sampling.TopK
		}
		if req.Sampling.TopP > 0 {
			options["top_p"] = req.Sampling.TopP
		}
	}
	if req.Sampling.Seed != nil {
		options["seed"] = *req.Sampling.Seed
	}
	return options
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	return nil
}

func hostIdentifier(host appconfig.Host) string {
	return providers.HostIdentifier(host, "ollama-host")
}
