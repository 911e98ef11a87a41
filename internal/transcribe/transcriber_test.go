package transcribe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDictionary() *Dictionary {
	return NewDictionary(map[string][]string{
		"turn":  {"T", "ER1", "N"},
		"up":    {"AH1", "P"},
		"the":   {"DH", "AH0"},
		"bass":  {"B", "EY1", "S"},
		"don't": {"D", "OW1", "N", "T"},
		"cafe":  {"K", "AH0", "F", "EY1"},
	})
}

func TestCleanText(t *testing.T) {
	t.Run("unifies line endings", func(t *testing.T) {
		assert.Equal(t, "one\ntwo", CleanText("one\r\ntwo\r\n"))
	})

	t.Run("drops annotation lines", func(t *testing.T) {
		raw := "[Verse 1]\nturn up the bass\n(Chorus x2)\nturn up the bass"
		assert.Equal(t, "turn up the bass\nturn up the bass", CleanText(raw))
	})

	t.Run("folds diacritics", func(t *testing.T) {
		assert.Equal(t, "cafe con leche", CleanText("café con leche"))
	})

	t.Run("trims trailing whitespace per line", func(t *testing.T) {
		assert.Equal(t, "one\ntwo", CleanText("one  \t\ntwo"))
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		assert.Equal(t, "", CleanText(""))
		assert.Equal(t, "", CleanText("[Intro]\n[Outro]"))
	})
}

func TestTokenizeWords(t *testing.T) {
	t.Run("lowercase with punctuation stripped", func(t *testing.T) {
		tokens := TokenizeWords("Turn UP, the bass!")
		assert.Equal(t, []string{"turn", "up", "the", "bass"}, tokens)
	})

	t.Run("inner apostrophes survive", func(t *testing.T) {
		tokens := TokenizeWords("don't stop")
		assert.Equal(t, []string{"don't", "stop"}, tokens)
	})

	t.Run("surrounding quotes do not", func(t *testing.T) {
		tokens := TokenizeWords("'hello'")
		assert.Equal(t, []string{"hello"}, tokens)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, TokenizeWords(""))
		assert.Nil(t, TokenizeWords("  ,, "))
	})
}

func TestTokenizeLines(t *testing.T) {
	assert.Nil(t, TokenizeLines(""))
	assert.Equal(t, []string{"one", "two"}, TokenizeLines("one\ntwo"))
}

func TestTranscribe(t *testing.T) {
	tr := NewWithDictionary(testDictionary(), nil)

	t.Run("full coverage", func(t *testing.T) {
		out, err := tr.Transcribe(context.Background(), "[Hook]\nTurn up the bass\n")
		require.NoError(t, err)

		assert.Equal(t, "Turn up the bass", out.CleanText)
		require.Len(t, out.Graphones, 4)
		assert.Equal(t, "turn", out.Graphones[0].Word)
		assert.Equal(t, []string{"T", "ER1", "N"}, out.Graphones[0].Phonemes)
		assert.Empty(t, out.Failed)
		assert.Equal(t, 1, out.Stats.Lines)
		assert.Equal(t, 4, out.Stats.Tokens)
		assert.InDelta(t, 1.0, out.Stats.Coverage, 1e-9)
	})

	t.Run("unknown tokens land in failed", func(t *testing.T) {
		out, err := tr.Transcribe(context.Background(), "turn up the wattage")
		require.NoError(t, err)

		assert.Equal(t, []string{"wattage"}, out.Failed)
		assert.Equal(t, 3, out.Stats.Transcribed)
		assert.Equal(t, 1, out.Stats.Failed)
		assert.InDelta(t, 0.75, out.Stats.Coverage, 1e-9)
	})

	t.Run("empty text yields zero stats", func(t *testing.T) {
		out, err := tr.Transcribe(context.Background(), "")
		require.NoError(t, err)
		assert.Zero(t, out.Stats.Tokens)
		assert.Zero(t, out.Stats.Coverage)
	})

	t.Run("respects cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := tr.Transcribe(ctx, "turn up")
		require.Error(t, err)
	})
}
