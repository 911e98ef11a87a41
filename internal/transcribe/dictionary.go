package transcribe

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Dictionary maps words to ARPABET phoneme sequences, loaded from a
// CMU pronouncing dictionary file.
type Dictionary struct {
	entries map[string][]string
}

// LoadDictionary parses a CMU-format dictionary file. Lines look like
// "word  PH1 PH2 PH3"; comment lines start with ";;;" and alternate
// pronunciations carry a "(n)" suffix (only the first is kept).
func LoadDictionary(path string) (*Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary %s: %w", path, err)
	}
	defer file.Close()

	entries := make(map[string][]string)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";;;") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		word := strings.ToLower(fields[0])
		if idx := strings.IndexByte(word, '('); idx > 0 {
			// Alternate pronunciation; the primary one wins.
			continue
		}
		if _, exists := entries[word]; !exists {
			entries[word] = fields[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("dictionary %s contains no entries", path)
	}
	return &Dictionary{entries: entries}, nil
}

// NewDictionary builds a Dictionary from an in-memory table. Intended
// for tests.
func NewDictionary(entries map[string][]string) *Dictionary {
	lowered := make(map[string][]string, len(entries))
	for word, phonemes := range entries {
		lowered[strings.ToLower(word)] = phonemes
	}
	return &Dictionary{entries: lowered}
}

// Lookup returns the phoneme sequence for a lowercase token.
func (d *Dictionary) Lookup(token string) ([]string, bool) {
	phonemes, ok := d.entries[token]
	return phonemes, ok
}

// Len reports the number of dictionary entries.
func (d *Dictionary) Len() int {
	return len(d.entries)
}
