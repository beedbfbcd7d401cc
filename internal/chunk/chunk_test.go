package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/faqbot/internal/extract"
)

func TestQASplitter_Template(t *testing.T) {
	chunks := QASplitter{}.Split(extract.Article{
		Question: "How do I export data?",
		Answer:   "Use the export button.\nChoose CSV.",
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, "Q: How do I export data?\nA: Use the export button.\nChoose CSV.", chunks[0].Text)
}

func TestPrepare_IndexesInOrder(t *testing.T) {
	articles := []extract.Article{
		{Question: "a", Answer: "1"},
		{Question: "b", Answer: "2"},
		{Question: "c", Answer: "3"},
	}

	chunks, err := Prepare(QASplitter{}, articles)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
	assert.Equal(t, "Q: b\nA: 2", chunks[1].Text)
}

func TestPrepare_Empty(t *testing.T) {
	_, err := Prepare(QASplitter{}, nil)
	assert.ErrorIs(t, err, ErrNoArticles)
}

type dropAllSplitter struct{}

func (dropAllSplitter) Split(extract.Article) []Chunk { return nil }

func TestPrepare_ZeroChunks(t *testing.T) {
	_, err := Prepare(dropAllSplitter{}, []extract.Article{{Question: "q", Answer: "a"}})
	assert.ErrorIs(t, err, ErrNoArticles)
}

func TestTexts(t *testing.T) {
	chunks := []Chunk{{Index: 0, Text: "x"}, {Index: 1, Text: "y"}}
	assert.Equal(t, []string{"x", "y"}, Texts(chunks))
}
