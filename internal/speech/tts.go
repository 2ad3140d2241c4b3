// internal/speech/tts.go
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jellydator/ttlcache/v3"

	"github.com/mwiater/storyqa/internal/appconfig"
	"github.com/mwiater/storyqa/internal/logging"
	"github.com/mwiater/storyqa/internal/util"
)

// maxChunkRunes is the longest text the TTS endpoint accepts per request.
const maxChunkRunes = 100

type cacheKey struct {
	lang string
	text string
}

// Synthesizer converts text to MP3 audio, caching recent results.
type Synthesizer struct {
	URL string

	client  *http.Client
	timeout time.Duration
	cache   *ttlcache.Cache[cacheKey, []byte]
}

// NewSynthesizer builds a Synthesizer whose cache keeps audio for cfg's TTS TTL.
func NewSynthesizer(cfg *appconfig.Config) *Synthesizer {
	timeout := cfg.RequestTimeout()
	return &Synthesizer{
		URL:     cfg.Speech.TTSURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		cache: ttlcache.New[cacheKey, []byte](
			ttlcache.WithTTL[cacheKey, []byte](cfg.TTSCacheTTL()),
			ttlcache.WithDisableTouchOnHit[cacheKey, []byte](),
		),
	}
}

// Synthesize returns MP3 audio for text spoken in lang.
func (s *Synthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	text = strings.TrimSpace(text)
	lang = strings.TrimSpace(lang)
	if text == "" {
		return nil, errors.New("speech: no text to speak")
	}
	if lang == "" {
		return nil, errors.New("speech: no language given")
	}

	key := cacheKey{lang: lang, text: text}
	if item := s.cache.Get(key); item != nil {
		return item.Value(), nil
	}

	chunks := splitChunks(text, maxChunkRunes)
	var audio bytes.Buffer
	for i, chunk := range chunks {
		data, err := s.fetchChunk(ctx, chunk, lang, i, len(chunks))
		if err != nil {
			return nil, err
		}
		audio.Write(data)
	}

	out := audio.Bytes()
	s.cache.Set(key, out, ttlcache.DefaultTTL)
	return out, nil
}

// Speak synthesizes text and writes the audio to filename.
func (s *Synthesizer) Speak(ctx context.Context, text, lang, filename string) (string, error) {
	audio, err := s.Synthesize(ctx, text, lang)
	if err != nil {
		return "", err
	}
	if err := util.WriteFile(filename, audio); err != nil {
		return "", fmt.Errorf("speech: write %s: %w", filename, err)
	}
	return filename, nil
}

// CacheLen reports how many syntheses are cached.
func (s *Synthesizer) CacheLen() int {
	return s.cache.Len()
}

func (s *Synthesizer) fetchChunk(ctx context.Context, chunk, lang string, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", chunk)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	logging.LogRequest("STORYQA->TTS", s.URL, lang, "synthesize", chunk)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech: tts chunk %d/%d returned %s", idx+1, total, resp.Status)
	}
	return data, nil
}

// splitChunks breaks text on whitespace into pieces of at most limit runes.
// Words longer than limit are split mid-word.
func splitChunks(text string, limit int) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		n := len(runes)
		if currentLen > 0 && currentLen+1+n > limit {
			flush()
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(string(runes))
		currentLen += n
	}
	flush()
	return chunks
}
