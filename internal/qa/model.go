// internal/qa/model.go
package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/storyqa/internal/util"
)

const contextRunes = 1000

// Completer runs a prompt verbatim on a registered generation backend.
type Completer interface {
	Complete(ctx context.Context, model, prompt string, maxLength int) (string, error)
}

// ModelAnswerer asks a hosted model to answer from the document text.
type ModelAnswerer struct {
	Completer Completer
	Model     string
	MaxLength int
	// BaseContext is placed ahead of the document text when set.
	BaseContext string
}

// Answer implements Answerer.
func (a *ModelAnswerer) Answer(ctx context.Context, question, document string) (string, error) {
	if a.Completer == nil {
		return "", fmt.Errorf("model answerer has no completer")
	}
	answer, err := a.Completer.Complete(ctx, a.Model, BuildPrompt(question, a.combined(document)), a.MaxLength)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func (a *ModelAnswerer) combined(document string) string {
	base := strings.TrimSpace(a.BaseContext)
	doc := strings.TrimSpace(document)
	switch {
	case base == "":
		return document
	case doc == "":
		return base
	default:
		return base + "\n" + doc
	}
}

// BuildPrompt formats the QA prompt, keeping at most the first 1000 runes of context.
func BuildPrompt(question, context string) string {
	return fmt.Sprintf("Answer the question based on the context.\nContext: %s\nQuestion: %s", util.FirstRunes(context, contextRunes), question)
}
