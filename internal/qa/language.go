// internal/qa/language.go

// Package qa answers solar-system questions in several languages. Each
// language has an Answerer strategy: a keyword table lookup or a prompt sent
// to a hosted model.
package qa

import (
	"fmt"
	"strings"
)

// Language is one answering language.
type Language struct {
	Code string
	Name string
	// Voice is the TTS language code used when speaking the answer.
	Voice string
}

var languages = []Language{
	{Code: "en", Name: "English", Voice: "en"},
	{Code: "hi", Name: "Hindi", Voice: "hi"},
	{Code: "fr", Name: "French", Voice: "fr"},
	{Code: "ml", Name: "Malayalam", Voice: "ml"},
}

// Languages returns every supported language.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// LookupLanguage resolves a code or English name, case-insensitively.
func LookupLanguage(codeOrName string) (Language, error) {
	key := strings.ToLower(strings.TrimSpace(codeOrName))
	for _, l := range languages {
		if l.Code == key || strings.ToLower(l.Name) == key {
			return l, nil
		}
	}
	return Language{}, fmt.Errorf("unsupported language %q", codeOrName)
}
