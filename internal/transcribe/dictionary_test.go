package transcribe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDict = `;;; CMU dictionary excerpt
;;; comment line
bass  B EY1 S
BASS(2)  B AE1 S
turn T ER1 N
up AH1 P

malformedline
`

func writeDict(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cmudict.dict")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDictionary(t *testing.T) {
	t.Run("parses entries", func(t *testing.T) {
		dict, err := LoadDictionary(writeDict(t, sampleDict))
		require.NoError(t, err)
		assert.Equal(t, 3, dict.Len())

		phonemes, ok := dict.Lookup("bass")
		require.True(t, ok)
		// The primary pronunciation wins over the "(2)" alternate.
		assert.Equal(t, []string{"B", "EY1", "S"}, phonemes)

		_, ok = dict.Lookup("malformedline")
		assert.False(t, ok)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDictionary(filepath.Join(t.TempDir(), "nope.dict"))
		require.Error(t, err)
	})

	t.Run("empty dictionary is rejected", func(t *testing.T) {
		_, err := LoadDictionary(writeDict(t, ";;; nothing here\n"))
		require.Error(t, err)
	})
}

func TestNewDictionaryLowercasesWords(t *testing.T) {
	dict := NewDictionary(map[string][]string{"BASS": {"B", "EY1", "S"}})
	_, ok := dict.Lookup("bass")
	assert.True(t, ok)
}

func TestNewUsesConfiguredPath(t *testing.T) {
	path := writeDict(t, sampleDict)
	tr, err := New(Config{DictionaryPath: path}, nil)
	require.NoError(t, err)
	require.NotNil(t, tr)

	_, err = New(Config{DictionaryPath: path + ".missing"}, nil)
	require.Error(t, err)
}
