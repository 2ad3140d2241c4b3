// internal/generation/backend.go
package generation

import "context"

// Invocation is the backend-facing form of a request: the prompt is already
// formatted and the decoding strategy already chosen.
type Invocation struct {
	Prompt        string
	MaxLength     int
	Temperature   float64
	TopK          int
	TopP          float64
	Seed          *int64
	Decoding      Decoding
	NumBeams      int
	EarlyStopping bool
	EchoPrompt    bool
}

// Backend is a loaded text-generation model.
type Backend interface {
	Generate(ctx context.Context, inv Invocation) (string, error)
}

// Loader turns a profile into a ready backend. It runs at most once per
// successful load.
type Loader func(ctx context.Context, profile ModelProfile) (Backend, error)
