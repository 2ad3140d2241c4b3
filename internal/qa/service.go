// internal/qa/service.go
package qa

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwiater/storyqa/internal/appconfig"
	"github.com/mwiater/storyqa/internal/logging"
	"github.com/mwiater/storyqa/internal/pdftext"
)

const (
	// StrategyRule answers from the embedded keyword table.
	StrategyRule = "rule"
	// StrategyModel answers by prompting a hosted model with the document text.
	StrategyModel = "model"
)

// ErrEmptyQuestion is returned when the question is blank.
var ErrEmptyQuestion = errors.New("please enter a question")

// Answerer produces an answer to question from a document's text.
type Answerer interface {
	Answer(ctx context.Context, question, document string) (string, error)
}

// Answer is one language's response. Err is set when that language failed.
type Answer struct {
	Language Language
	Text     string
	Strategy string
	Err      error
}

type languageSlot struct {
	lang     Language
	strategy string
	answerer Answerer
}

// Service answers a question in each configured language.
type Service struct {
	slots     []languageSlot
	documents map[string]string
}

// NewService builds one answerer per configured language. documents maps a
// language code to its extracted text; a missing code means no document.
func NewService(cfg appconfig.QA, completer Completer, documents map[string]string) (*Service, error) {
	svc := &Service{documents: documents}
	if svc.documents == nil {
		svc.documents = map[string]string{}
	}

	for _, lc := range cfg.Languages {
		lang, err := LookupLanguage(lc.Code)
		if err != nil {
			return nil, err
		}
		strategy := strings.ToLower(strings.TrimSpace(lc.Strategy))
		if strategy == "" {
			strategy = StrategyRule
		}

		var answerer Answerer
		switch strategy {
		case StrategyRule:
			kw, err := NewKeywordAnswerer(lang.Code)
			if err != nil {
				return nil, err
			}
			answerer = kw
		case StrategyModel:
			var base string
			if table, err := LoadTable(lang.Code); err == nil {
				base = table.BaseContext
			}
			answerer = &ModelAnswerer{
				Completer:   completer,
				Model:       cfg.AnswerModel,
				MaxLength:   cfg.AnswerMaxLength,
				BaseContext: base,
			}
		default:
			return nil, fmt.Errorf("language %s: unknown strategy %q", lang.Code, lc.Strategy)
		}
		svc.slots = append(svc.slots, languageSlot{lang: lang, strategy: strategy, answerer: answerer})
	}
	return svc, nil
}

// Languages returns the configured languages in answering order.
func (s *Service) Languages() []Language {
	out := make([]Language, 0, len(s.slots))
	for _, slot := range s.slots {
		out = append(out, slot.lang)
	}
	return out
}

// AskAll answers question in every configured language, or only in codes when
// any are given. Per-language failures are reported on Answer.Err.
func (s *Service) AskAll(ctx context.Context, question string, codes ...string) ([]Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	slots := s.slots
	if len(codes) > 0 {
		slots = nil
		for _, code := range codes {
			slot, err := s.slot(code)
			if err != nil {
				return nil, err
			}
			slots = append(slots, slot)
		}
	}

	answers := make([]Answer, 0, len(slots))
	for _, slot := range slots {
		answers = append(answers, s.answer(ctx, slot, question))
	}
	return answers, nil
}

// Ask answers question in a single language.
func (s *Service) Ask(ctx context.Context, code, question string) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, ErrEmptyQuestion
	}
	slot, err := s.slot(code)
	if err != nil {
		return Answer{}, err
	}
	return s.answer(ctx, slot, question), nil
}

func (s *Service) slot(code string) (languageSlot, error) {
	lang, err := LookupLanguage(code)
	if err != nil {
		return languageSlot{}, err
	}
	for _, slot := range s.slots {
		if slot.lang.Code == lang.Code {
			return slot, nil
		}
	}
	return languageSlot{}, fmt.Errorf("language %s is not configured", lang.Name)
}

func (s *Service) answer(ctx context.Context, slot languageSlot, question string) Answer {
	out := Answer{Language: slot.lang, Strategy: slot.strategy}

	doc, ok := s.documents[slot.lang.Code]
	if !ok || strings.TrimSpace(doc) == "" {
		out.Text = slot.lang.Name + " PDF not available"
		return out
	}

	text, err := slot.answerer.Answer(ctx, question, doc)
	if err != nil {
		logging.LogEvent("qa: %s answer failed: %v", slot.lang.Code, err)
		out.Err = err
		return out
	}
	out.Text = text
	return out
}

// LoadDocuments extracts the text of each language's document under docsDir.
// Languages whose file is missing are left out of the result.
func LoadDocuments(docsDir string, languages []appconfig.Language) map[string]string {
	docs := make(map[string]string, len(languages))
	for _, lc := range languages {
		if strings.TrimSpace(lc.Document) == "" {
			continue
		}
		path := lc.Document
		if !filepath.IsAbs(path) {
			path = filepath.Join(docsDir, path)
		}
		if _, err := os.Stat(path); err != nil {
			logging.LogEvent("qa: document for %s not found at %s", lc.Code, path)
			continue
		}
		docs[strings.ToLower(lc.Code)] = pdftext.Extract(path)
	}
	return docs
}
