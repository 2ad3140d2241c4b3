// internal/providers/huggingface/provider.go
// Package huggingface provides a TextProvider backed by the Hugging Face Inference API.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mwiater/storyqa/internal/appconfig"
	"github.com/mwiater/storyqa/internal/logging"
	"github.com/mwiater/storyqa/internal/providers"
)

// Provider implements the providers.TextProvider interface using the hosted
// inference endpoints. It is the only provider that forwards beam settings.
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

type statusResponse struct {
	Loaded bool   `json:"loaded"`
	State  string `json:"state"`
	Error  string `json:"error"`
}

type generation struct {
	GeneratedText string `json:"generated_text"`
}

type errorResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// EnsureModelReady queries the model status endpoint. Hosts without the
// endpoint load on first request, so 404 and 405 are not errors.
func (p *Provider) EnsureModelReady(ctx context.Context, host appconfig.Host, model string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := strings.TrimRight(host.URL, "/") + "/status/" + escapeModel(model)
	logging.LogRequest("STORYQA->LLM", hostIdentifier(host), model, "", map[string]string{"method": http.MethodGet, "url": endpoint})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	setAuth(req, host)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	logging.LogRequest("LLM->STORYQA", hostIdentifier(host), model, "", body)

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusMethodNotAllowed {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("huggingface: /status returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var status statusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return err
	}
	if status.Error != "" {
		return fmt.Errorf("huggingface: %s", status.Error)
	}
	if strings.EqualFold(status.State, "TooBig") {
		return fmt.Errorf("huggingface: model %s is too large for the hosted inference API", model)
	}
	return nil
}

// Generate runs one inference call against /models/{model}.
func (p *Provider) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, error) {
	payload := map[string]any{
		"inputs":     req.Prompt,
		"parameters": buildParameters(req),
		"options": map[string]any{
			"wait_for_model": true,
			"use_cache":      false,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return providers.GenerateResponse{}, err
	}
	hostID := hostIdentifier(req.Host)
	logging.LogRequest("STORYQA->LLM", hostID, req.Model, string(req.Task), body)

	genCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := strings.TrimRight(req.Host.URL, "/") + "/models/" + escapeModel(req.Model)
	httpReq, err := http.NewRequestWithContext(genCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return providers.GenerateResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	setAuth(httpReq, req.Host)

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.GenerateResponse{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.GenerateResponse{}, err
	}
	elapsed := time.Since(start)
	logging.LogRequest("LLM->STORYQA", hostID, req.Model, string(req.Task), raw)

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return providers.GenerateResponse{}, fmt.Errorf("huggingface: %s returned %s: %s", req.Model, resp.Status, apiErr.Error)
		}
		return providers.GenerateResponse{}, fmt.Errorf("huggingface: %s returned %s: %s", req.Model, resp.Status, strings.TrimSpace(string(raw)))
	}

	text, err := parseGeneratedText(raw)
	if err != nil {
		return providers.GenerateResponse{}, err
	}

	return providers.GenerateResponse{
		Text: text,
		Metadata: providers.GenerationMetadata{
			Model:         req.Model,
			CreatedAt:     time.Now(),
			Done:          true,
			TotalDuration: elapsed.Nanoseconds(),
			EvalDuration:  elapsed.Nanoseconds(),
		},
	}, nil
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	return nil
}

func buildParameters(req providers.GenerateRequest) map[string]any {
	params := map[string]any{
		"do_sample": req.Decoding.DoSample,
	}
	if req.MaxLength > 0 {
		params["max_length"] = req.MaxLength
	}
	if req.Decoding.DoSample {
		if req.Sampling.Temperature > 0 {
			params["temperature"] = req.Sampling.Temperature
		}
		if req.Sampling.TopK > 0 {
			params["top_k"] = req.Sampling.TopK
		}
		if req.Sampling.TopP > 0 {
			params["top_p"] = req.Sampling.TopP
		}
	}
	if req.Decoding.NumBeams > 1 {
		params["num_beams"] = req.Decoding.NumBeams
		params["early_stopping"] = req.Decoding.EarlyStopping
	}
	if req.Task == providers.TaskTextGeneration {
		params["return_full_text"] = req.EchoPrompt
	}
	if req.Sampling.Seed != nil {
		params["seed"] = *req.Sampling.Seed
	}
	return params
}

// parseGeneratedText accepts both the list and single-object response shapes.
func parseGeneratedText(raw []byte) (string, error) {
	var list []generation
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return "", fmt.Errorf("huggingface: response contained no generations")
		}
		return list[0].GeneratedText, nil
	}

	var single struct {
		generation
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &single); err != nil {
		return "", fmt.Errorf("huggingface: unrecognized response: %w", err)
	}
	if single.Error != "" {
		return "", fmt.Errorf("huggingface: %s", single.Error)
	}
	return single.GeneratedText, nil
}

func setAuth(req *http.Request, host appconfig.Host) {
	if key := appconfig.ResolveHostAPIKey(host); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
}

// escapeModel keeps the org/name separator while escaping each segment.
func escapeModel(model string) string {
	parts := strings.Split(strings.TrimSpace(model), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func hostIdentifier(host appconfig.Host) string {
	return providers.HostIdentifier(host, "huggingface-host")
}
