// internal/util/util.go
package util

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// WriteFile writes data to a file with 0o644 permissions, creating parent
// directories as needed.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// TruncateRunes truncates a string to a maximum number of runes,
// appending an ellipsis if truncated.
func TruncateRunes(text string, maxRunes int) string {
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxRunes]) + "…"
}

// FirstRunes returns at most n runes from the start of text, without an ellipsis.
func FirstRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}

// WordCount counts whitespace-separated fields.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// WrapToWidth wraps the given text to a terminal display width, breaking
// long words. Widths are measured in cells so Devanagari and Malayalam
// text wraps the same as Latin text on screen.
func WrapToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			out = append(out, "")
			continue
		}
		var cur strings.Builder
		curWidth := 0
		words := strings.Fields(line)
		for wi, w := range words {
			space := 0
			if wi > 0 {
				space = 1
			}
			wWidth := runewidth.StringWidth(w)
			if curWidth+space+wWidth <= width {
				if wi > 0 && curWidth > 0 {
					cur.WriteByte(' ')
					curWidth++
				}
				cur.WriteString(w)
				curWidth += wWidth
				continue
			}
			if curWidth > 0 {
				out = append(out, cur.String())
				cur.Reset()
				curWidth = 0
			}
			if wWidth <= width {
				cur.WriteString(w)
				curWidth = wWidth
				continue
			}
			out = append(out, splitToWidth(w, width)...)
		}
		if cur.Len() > 0 {
			out = append(out, cur.String())
		} else if len(words) == 0 {
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}

// splitToWidth breaks a single word into chunks no wider than width cells.
func splitToWidth(word string, width int) []string {
	var (
		chunks []string
		cur    strings.Builder
		w      int
	)
	for _, r := range word {
		rw := runewidth.RuneWidth(r)
		if w+rw > width && cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			w = 0
		}
		cur.WriteRune(r)
		w += rw
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
