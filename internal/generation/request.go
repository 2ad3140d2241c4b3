// internal/generation/request.go
package generation

import "time"

// GenerationRequest is one story-generation call.
type GenerationRequest struct {
	Prompt      string
	ModelName   string
	MaxLength   int
	Temperature float64
	TopK        int
	TopP        float64
	// Seed makes sampling reproducible when set.
	Seed *int64
}

// GenerationResult is the cleaned output of a generation call.
type GenerationResult struct {
	Text      string
	WordCount int
	ModelName string
	RequestID string
	Elapsed   time.Duration
}

// Validate checks the sampling parameters. It does not look at the prompt.
func (r GenerationRequest) Validate() error {
	if r.Temperature <= 0 || r.Temperature > 1 {
		return &ValidationError{Field: "temperature", Value: r.Temperature, Reason: "must be in (0, 1]"}
	}
	if r.TopP <= 0 || r.TopP > 1 {
		return &ValidationError{Field: "top_p", Value: r.TopP, Reason: "must be in (0, 1]"}
	}
	if r.TopK < 1 {
		return &ValidationError{Field: "top_k", Value: r.TopK, Reason: "must be at least 1"}
	}
	return validateMaxLength(r.MaxLength)
}

func validateMaxLength(maxLength int) error {
	if maxLength < 1 {
		return &ValidationError{Field: "max_length", Value: maxLength, Reason: "must be at least 1"}
	}
	return nil
}
