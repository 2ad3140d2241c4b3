// internal/qa/keyword.go
package qa

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var tableFS embed.FS

// Entry is one topic in a keyword table.
type Entry struct {
	Topic    string   `yaml:"topic"`
	Keywords []string `yaml:"keywords"`
	Answer   string   `yaml:"answer"`
}

// Table is an ordered keyword to answer table. Earlier entries win.
type Table struct {
	Language    string  `yaml:"language"`
	Fallback    string  `yaml:"fallback"`
	BaseContext string  `yaml:"baseContext"`
	Entries     []Entry `yaml:"entries"`
}

// LoadTable reads the embedded table for a language code.
func LoadTable(code string) (Table, error) {
	data, err := tableFS.ReadFile("tables/" + code + ".yaml")
	if err != nil {
		return Table{}, fmt.Errorf("no keyword table for %q: %w", code, err)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates a YAML keyword table.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse keyword table: %w", err)
	}
	if len(t.Entries) == 0 {
		return Table{}, fmt.Errorf("keyword table %q has no entries", t.Language)
	}
	fallbackFound := false
	for i, e := range t.Entries {
		if strings.TrimSpace(e.Answer) == "" {
			return Table{}, fmt.Errorf("keyword table %q: entry %d (%s) has no answer", t.Language, i, e.Topic)
		}
		if len(e.Keywords) == 0 {
			return Table{}, fmt.Errorf("keyword table %q: entry %d (%s) has no keywords", t.Language, i, e.Topic)
		}
		for k := range e.Keywords {
			t.Entries[i].Keywords[k] = strings.ToLower(e.Keywords[k])
		}
		if e.Topic == t.Fallback {
			fallbackFound = true
		}
	}
	if !fallbackFound {
		return Table{}, fmt.Errorf("keyword table %q: fallback topic %q not found", t.Language, t.Fallback)
	}
	return t, nil
}

// Match returns the first entry with a keyword contained in the lowercased
// question, or the fallback entry.
func (t Table) Match(question string) Entry {
	q := strings.ToLower(question)
	for _, e := range t.Entries {
		for _, kw := range e.Keywords {
			if strings.Contains(q, kw) {
				return e
			}
		}
	}
	for _, e := range t.Entries {
		if e.Topic == t.Fallback {
			return e
		}
	}
	return Entry{}
}

// KeywordAnswerer answers from a keyword table and ignores the document text.
type KeywordAnswerer struct {
	Table Table
}

// NewKeywordAnswerer loads the embedded table for code.
func NewKeywordAnswerer(code string) (*KeywordAnswerer, error) {
	t, err := LoadTable(code)
	if err != nil {
		return nil, err
	}
	return &KeywordAnswerer{Table: t}, nil
}

// Answer implements Answerer.
func (a *KeywordAnswerer) Answer(ctx context.Context, question, document string) (string, error) {
	return a.Table.Match(question).Answer, nil
}
