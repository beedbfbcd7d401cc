// Package chunk turns extracted articles into text chunks ready for
// embedding. Splitting is a strategy so that long answers can later be
// broken into multiple chunks without changing the pipeline contract.
package chunk

import (
	"errors"
	"fmt"

	"github.com/bull/faqbot/internal/extract"
)

// ErrNoArticles is returned when there is nothing to prepare.
var ErrNoArticles = errors.New("no articles to prepare")

// Chunk is one unit of text prepared for embedding and retrieval.
type Chunk struct {
	Index int    // position in the prepared sequence
	Text  string
}

// Splitter maps one article to its chunks.
type Splitter interface {
	Split(a extract.Article) []Chunk
}

// QASplitter renders each article as a single question/answer chunk.
type QASplitter struct{}

// Split formats the article with the fixed Q/A template.
func (QASplitter) Split(a extract.Article) []Chunk {
	return []Chunk{{Text: fmt.Sprintf("Q: %s\nA: %s", a.Question, a.Answer)}}
}

// Prepare runs the splitter over all articles in order. It fails with
// ErrNoArticles when the input is empty or yields zero chunks.
func Prepare(s Splitter, articles []extract.Article) ([]Chunk, error) {
	if len(articles) == 0 {
		return nil, ErrNoArticles
	}

	var chunks []Chunk
	for _, a := range articles {
		for _, c := range s.Split(a) {
			c.Index = len(chunks)
			chunks = append(chunks, c)
		}
	}
	if len(chunks) == 0 {
		return nil, ErrNoArticles
	}
	return chunks, nil
}

// Texts returns the chunk texts in order.
func Texts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
