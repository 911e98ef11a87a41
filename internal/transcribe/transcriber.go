// Package transcribe implements the downstream cleaning and phonetic
// transcription stage: raw lyric text is normalized, tokenized, and
// mapped to ARPABET phoneme sequences via a CMU pronouncing
// dictionary, with statistics for the tokens that fail to map.
package transcribe

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ccampell/lyricscrawler/internal/archive"
)

// Config controls transcriber behavior.
type Config struct {
	// DictionaryPath points at a CMU-format pronouncing dictionary.
	DictionaryPath string `mapstructure:"dictionary_path"`
}

// Transcriber implements archive.Transcriber.
type Transcriber struct {
	dict   *Dictionary
	logger *zap.Logger
}

// New loads the dictionary and builds a Transcriber.
func New(cfg Config, logger *zap.Logger) (*Transcriber, error) {
	dict, err := LoadDictionary(cfg.DictionaryPath)
	if err != nil {
		return nil, fmt.Errorf("load pronouncing dictionary: %w", err)
	}
	return NewWithDictionary(dict, logger), nil
}

// NewWithDictionary builds a Transcriber around an existing dictionary.
func NewWithDictionary(dict *Dictionary, logger *zap.Logger) *Transcriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transcriber{dict: dict, logger: logger}
}

// annotationLine matches performance annotations like "[Verse 1]" or
// "[Chorus: x2]" that are not lyric content.
var annotationLine = regexp.MustCompile(`^\s*[\[(][^\])]*[\])]\s*$`)

// tokenSplit partitions lyric text on whitespace and commas, matching
// the tokenizer the transcription stage has always used.
var tokenSplit = regexp.MustCompile(`[\s,]+`)

// Transcribe cleans the raw text, tokenizes it, and looks every token
// up in the pronouncing dictionary. It never mutates its input; the
// raw text stays authoritative so the stage can re-run.
func (t *Transcriber) Transcribe(ctx context.Context, raw string) (archive.Transcription, error) {
	if err := ctx.Err(); err != nil {
		return archive.Transcription{}, fmt.Errorf("transcription canceled: %w", err)
	}

	clean := CleanText(raw)
	lines := TokenizeLines(clean)
	tokens := TokenizeWords(clean)

	graphones := make([]archive.Graphone, 0, len(tokens))
	var failed []string
	for _, token := range tokens {
		phonemes, ok := t.dict.Lookup(token)
		if !ok {
			failed = append(failed, token)
			continue
		}
		graphones = append(graphones, archive.Graphone{Word: token, Phonemes: phonemes})
	}

	stats := archive.TranscriptionStats{
		Lines:       len(lines),
		Tokens:      len(tokens),
		Transcribed: len(graphones),
		Failed:      len(failed),
	}
	if stats.Tokens > 0 {
		stats.Coverage = float64(stats.Transcribed) / float64(stats.Tokens)
	}

	t.logger.Debug("transcription complete",
		zap.Int("tokens", stats.Tokens),
		zap.Int("failed", stats.Failed),
		zap.Float64("coverage", stats.Coverage),
	)

	return archive.Transcription{
		CleanText: clean,
		Graphones: graphones,
		Failed:    failed,
		Stats:     stats,
	}, nil
}

// CleanText normalizes raw lyric text: line endings are unified,
// annotation-only lines are dropped, Unicode is decomposed, and
// combining marks are folded away so "café" tokenizes as "cafe".
func CleanText(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")

	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(folder, text); err == nil {
		text = folded
	}

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if annotationLine.MatchString(line) {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// TokenizeLines partitions cleaned text into its lines.
func TokenizeLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// TokenizeWords partitions cleaned text into lowercase word tokens,
// stripping surrounding punctuation but keeping inner apostrophes
// ("don't" stays one token).
func TokenizeWords(text string) []string {
	var tokens []string
	for _, part := range tokenSplit.Split(text, -1) {
		token := strings.ToLower(strings.TrimFunc(part, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
		}))
		token = strings.Trim(token, "'")
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
