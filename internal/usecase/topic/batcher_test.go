package topic

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/speech-insights/internal/domain/entities"
)

func makeDocs(n int) []entities.Document {
	docs := make([]entities.Document, n)
	for i := range docs {
		docs[i] = entities.Document{FileName: fmt.Sprintf("f%d.wav", i), Transcription: "text"}
	}
	return docs
}

func TestSplitBatches_CountAndOrder(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 4, 7, 9, 10} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			docs := makeDocs(n)
			batches := SplitBatches(docs, 3, 500)

			assert.Len(t, batches, (n+2)/3)

			var names []string
			for i, b := range batches {
				assert.Equal(t, i+1, b.Number)
				assert.Equal(t, i*3, b.Offset)
				assert.LessOrEqual(t, b.Len(), 3)
				for _, d := range b.Documents {
					names = append(names, d.FileName)
				}
			}

			var want []string
			for _, d := range docs {
				want = append(want, d.FileName)
			}
			assert.Equal(t, want, names)
		})
	}
}

func TestSplitBatches_Truncation(t *testing.T) {
	long := strings.Repeat("a", 700)
	exact := strings.Repeat("b", 500)
	docs := []entities.Document{
		{FileName: "long.wav", Transcription: long},
		{FileName: "exact.wav", Transcription: exact},
		{FileName: "short.wav", Transcription: "hello"},
	}

	batches := SplitBatches(docs, 3, 500)
	require.Len(t, batches, 1)

	got := batches[0].Documents
	assert.Len(t, got[0].Transcription, 500)
	assert.Equal(t, long[:500], got[0].Transcription)
	assert.Equal(t, exact, got[1].Transcription)
	assert.Equal(t, "hello", got[2].Transcription)

	// input untouched
	assert.Len(t, docs[0].Transcription, 700)
}

func TestSplitBatches_DefaultsOnInvalidSizes(t *testing.T) {
	batches := SplitBatches(makeDocs(4), 0, -1)
	require.Len(t, batches, 2)
	assert.Equal(t, 3, batches[0].Len())
	assert.Equal(t, 1, batches[1].Len())
}

func TestTruncate_CountsRunes(t *testing.T) {
	s := strings.Repeat("é", 600)
	got := Truncate(s, 500)
	assert.Equal(t, 500, len([]rune(got)))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "abc", Truncate("abc", 10))
}
