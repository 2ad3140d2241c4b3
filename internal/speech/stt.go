// internal/speech/stt.go

// Package speech turns spoken questions into text and answers into audio.
// Transcription goes to an OpenAI-compatible Whisper server; synthesis uses the
// Google Translate TTS endpoint.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mwiater/storyqa/internal/appconfig"
	"github.com/mwiater/storyqa/internal/logging"
)

// Transcriber sends audio files to a Whisper-compatible transcription endpoint.
type Transcriber struct {
	URL    string
	Model  string
	APIKey string

	client  *http.Client
	timeout time.Duration
}

// NewTranscriber builds a Transcriber from the speech settings in cfg.
func NewTranscriber(cfg *appconfig.Config) *Transcriber {
	timeout := cfg.RequestTimeout()
	return &Transcriber{
		URL:     strings.TrimRight(cfg.Speech.STTURL, "/"),
		Model:   cfg.Speech.STTModel,
		APIKey:  appconfig.ResolveSTTAPIKey(cfg),
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

type transcriptionResponse struct {
	Text  string `json:"text"`
	Error any    `json:"error,omitempty"`
}

// Transcribe uploads audioPath and returns the recognized text.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if t.URL == "" {
		return "", errors.New("speech: no transcription URL configured (speech.sttURL)")
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("speech: open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("speech: read audio: %w", err)
	}
	if err := mw.WriteField("model", t.Model); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	logging.LogRequest("STORYQA->STT", t.URL, t.Model, "transcribe", filepath.Base(audioPath))

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if t.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.APIKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	logging.LogRequest("STT->STORYQA", t.URL, t.Model, "transcribe", respBody)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech: transcription returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var result transcriptionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("speech: decode transcription: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("speech: transcription error: %v", result.Error)
	}
	return strings.TrimSpace(result.Text), nil
}
