package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// EmbeddingModel is the OpenAI model used for generating embeddings.
	EmbeddingModel = "text-embedding-3-small"

	// EmbeddingDimension is the vector dimension for text-embedding-3-small.
	EmbeddingDimension = 1536

	// DefaultBatchSize keeps individual requests small enough for the
	// remote request-size limit while amortising round trips.
	DefaultBatchSize = 20
)

var (
	// ErrNoTexts is returned when there is nothing to embed.
	ErrNoTexts = errors.New("no texts to embed")

	// ErrEmbeddingFailed wraps any remote failure. No partial results are
	// ever returned: downstream indexing assumes a complete, order-aligned
	// vector set.
	ErrEmbeddingFailed = errors.New("embedding service failed")
)

// batchService issues one remote embedding call for a batch of texts.
// *Client implements it; tests substitute a fake.
type batchService interface {
	embedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder generates embeddings in fixed-size batches, preserving input
// order. It retries rate-limited batches with exponential backoff; any
// other batch failure aborts the whole call.
type Embedder struct {
	service   batchService
	batchSize int
}

// NewEmbedder creates an Embedder with the given client and optional batch
// size. If batchSize is 0, DefaultBatchSize is used.
func NewEmbedder(client *Client, batchSize int) *Embedder {
	return newEmbedder(client, batchSize)
}

func newEmbedder(service batchService, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{service: service, batchSize: batchSize}
}

// EmbedTexts returns one vector per input text, in input order. It fails
// with ErrNoTexts on empty input and ErrEmbeddingFailed as soon as any
// batch fails.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrNoTexts
	}

	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		batchVectors, err := e.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d-%d: %v", ErrEmbeddingFailed, i, end, err)
		}
		if len(batchVectors) != len(batch) {
			return nil, fmt.Errorf("%w: batch %d-%d: got %d vectors for %d texts",
				ErrEmbeddingFailed, i, end, len(batchVectors), len(batch))
		}
		vectors = append(vectors, batchVectors...)
	}

	return vectors, nil
}

// EmbedOne embeds a single text (singleton batch). Used for queries.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// embedBatchWithRetry retries a batch with exponential backoff on rate
// limit errors. Other errors are permanent and fail immediately.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		result, err := e.service.embedBatch(ctx, texts)
		if err != nil {
			if isRateLimitError(err) {
				return err // retried with backoff
			}
			return backoff.Permanent(err)
		}
		vectors = result
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return vectors, err
}

// embedBatch issues one remote call for the batch. The response preserves
// request order.
func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: EmbeddingModel,
	})
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = toFloat32(data.Embedding)
	}
	return vectors, nil
}

// isRateLimitError checks for HTTP 429 from the OpenAI API.
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts []float64 to []float32. The API returns float64 but
// the vector store works in float32.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
