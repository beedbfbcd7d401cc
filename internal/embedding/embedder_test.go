package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService records batches and returns one recognisable vector per text.
type fakeService struct {
	batches [][]string
	failOn  int // 1-based batch number to fail on, 0 = never
	short   bool
}

func (f *fakeService) embedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, texts)
	if f.failOn > 0 && len(f.batches) == f.failOn {
		return nil, errors.New("boom")
	}
	n := len(texts)
	if f.short {
		n--
	}
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		// Encode the text identity so order can be asserted.
		vectors[i] = []float32{float32(len(f.batches)), float32(i), float32(len(texts[i]))}
	}
	return vectors, nil
}

func TestEmbedTexts_OrderAcrossBatches(t *testing.T) {
	svc := &fakeService{}
	e := newEmbedder(svc, 3)

	texts := make([]string, 8)
	for i := range texts {
		texts[i] = fmt.Sprintf("%0*d", i+1, 0) // lengths 1..8
	}

	vectors, err := e.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 8)

	// Batches of 3, 3, 2, in order.
	require.Len(t, svc.batches, 3)
	assert.Len(t, svc.batches[0], 3)
	assert.Len(t, svc.batches[2], 2)

	// vectors[i] corresponds to texts[i]: third component is len(texts[i]).
	for i, v := range vectors {
		assert.Equal(t, float32(len(texts[i])), v[2], "vector %d out of order", i)
	}
}

func TestEmbedTexts_Empty(t *testing.T) {
	e := newEmbedder(&fakeService{}, 0)
	_, err := e.EmbedTexts(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoTexts)
}

func TestEmbedTexts_AbortsOnBatchFailure(t *testing.T) {
	svc := &fakeService{failOn: 2}
	e := newEmbedder(svc, 2)

	_, err := e.EmbedTexts(context.Background(), []string{"a", "b", "c", "d", "e"})
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
	// Failure on batch 2 means batch 3 was never attempted.
	assert.Len(t, svc.batches, 2)
}

func TestEmbedTexts_CountMismatch(t *testing.T) {
	e := newEmbedder(&fakeService{short: true}, 10)
	_, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestEmbedOne(t *testing.T) {
	e := newEmbedder(&fakeService{}, 0)
	v, err := e.EmbedOne(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, float32(5), v[2])
}

func TestNewEmbedder_DefaultBatchSize(t *testing.T) {
	e := newEmbedder(&fakeService{}, 0)
	assert.Equal(t, DefaultBatchSize, e.batchSize)
}
