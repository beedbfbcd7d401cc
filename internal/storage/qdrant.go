// Package storage owns the per-team vector collections in Qdrant.
//
// Each team's records live in a generation collection named
// "team_{id}_{nanos}" behind the stable alias "team_{id}". Ingest creates a
// fresh generation, fills it, repoints the alias, then drops the previous
// generation: readers resolving the alias see either the fully-old or the
// fully-new contents, never a half-filled collection.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// upsertBatchSize bounds points per upsert request.
const upsertBatchSize = 100

// Store wraps the Qdrant client with the per-team collection lifecycle.
type Store struct {
	client *qdrant.Client
	logger *slog.Logger
}

// NewStore creates a Qdrant client and verifies connectivity with retry,
// failing fast if the server stays unreachable.
func NewStore(host string, port int, logger *slog.Logger) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{client: client, logger: logger}

	if err := s.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}
	return s, nil
}

// healthCheckWithRetry performs health checks with exponential backoff.
func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check against Qdrant.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// Close closes the Qdrant client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// CollectionAlias is the stable per-team collection name.
func CollectionAlias(teamID string) string {
	return "team_" + teamID
}

// generationName mints a fresh collection name behind the team alias.
func generationName(teamID string) string {
	return CollectionAlias(teamID) + "_" + strconv.FormatInt(time.Now().UnixNano(), 10)
}

// Replace discards any previous contents for the team and indexes the given
// vectors with their payload texts. Records get sequential integer ids
// 0..n-1 in input order. The collection is sized to the first vector's
// dimension with cosine distance.
func (s *Store) Replace(ctx context.Context, teamID string, vectors [][]float32, texts []string) error {
	if len(vectors) == 0 || len(texts) == 0 || len(vectors) != len(texts) {
		return fmt.Errorf("%w: %d vectors, %d texts", ErrInvalidIngest, len(vectors), len(texts))
	}
	dimension := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dimension {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(v), dimension)
		}
	}

	alias := CollectionAlias(teamID)
	generation := generationName(teamID)

	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: generation,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", generation, err)
	}

	if err := s.upsertAll(ctx, generation, vectors, texts); err != nil {
		// Abandon the half-filled generation; the alias never saw it.
		if delErr := s.client.DeleteCollection(ctx, generation); delErr != nil {
			s.logger.Warn("failed to clean up abandoned generation",
				"collection", generation, "error", delErr)
		}
		return err
	}

	previous, err := s.generations(ctx, teamID, generation)
	if err != nil {
		return err
	}

	// Repoint the alias. DeleteAlias fails when the alias does not exist
	// yet (first ingest); that is fine.
	if err := s.client.DeleteAlias(ctx, alias); err != nil {
		s.logger.Debug("no previous alias to delete", "alias", alias, "error", err)
	}
	if err := s.client.CreateAlias(ctx, alias, generation); err != nil {
		return fmt.Errorf("failed to point alias %s at %s: %w", alias, generation, err)
	}

	for _, old := range previous {
		if err := s.client.DeleteCollection(ctx, old); err != nil {
			s.logger.Warn("failed to drop previous generation", "collection", old, "error", err)
		}
	}

	s.logger.Info("replaced collection", "team", teamID, "records", len(vectors), "dimension", dimension)
	return nil
}

// upsertAll writes all points in batches with retry.
func (s *Store) upsertAll(ctx context.Context, collection string, vectors [][]float32, texts []string) error {
	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(vectors))

		points := make([]*qdrant.PointStruct, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(uint64(i)),
				Vectors: qdrant.NewVectors(vectors[i]...),
				Payload: qdrant.NewValueMap(map[string]any{"text": texts[i]}),
			})
		}

		if err := s.upsertWithRetry(ctx, collection, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// upsertWithRetry performs one upsert with exponential backoff.
func (s *Store) upsertWithRetry(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Search returns the payload texts of the team's most similar records,
// ordered by decreasing similarity, at most limit of them. It fails with
// ErrCollectionNotFound when the team has nothing indexed.
func (s *Store) Search(ctx context.Context, teamID string, vector []float32, limit int) ([]string, error) {
	collection, ok, err := s.resolve(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: team %s", ErrCollectionNotFound, teamID)
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %s: %w", collection, err)
	}

	texts := make([]string, 0, len(results))
	for _, result := range results {
		if text := result.Payload["text"].GetStringValue(); text != "" {
			texts = append(texts, text)
		}
	}
	return texts, nil
}

// Drop removes the team's alias and all its generation collections. It
// reports whether anything existed; an absent collection is not an error.
func (s *Store) Drop(ctx context.Context, teamID string) (bool, error) {
	alias := CollectionAlias(teamID)

	_, hasAlias, err := s.resolve(ctx, teamID)
	if err != nil {
		return false, err
	}
	generations, err := s.generations(ctx, teamID, "")
	if err != nil {
		return false, err
	}
	if !hasAlias && len(generations) == 0 {
		return false, nil
	}

	if hasAlias {
		if err := s.client.DeleteAlias(ctx, alias); err != nil {
			return true, fmt.Errorf("failed to delete alias %s: %w", alias, err)
		}
	}
	for _, generation := range generations {
		if err := s.client.DeleteCollection(ctx, generation); err != nil {
			return true, fmt.Errorf("failed to delete collection %s: %w", generation, err)
		}
	}

	s.logger.Info("dropped collection", "team", teamID, "generations", len(generations))
	return true, nil
}

// resolve maps the team alias to its current generation collection.
func (s *Store) resolve(ctx context.Context, teamID string) (string, bool, error) {
	alias := CollectionAlias(teamID)

	aliases, err := s.client.ListAliases(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to list aliases: %w", err)
	}
	for _, a := range aliases {
		if a.GetAliasName() == alias {
			return a.GetCollectionName(), true, nil
		}
	}
	return "", false, nil
}

// generations lists the team's generation collections, excluding exclude.
func (s *Store) generations(ctx context.Context, teamID, exclude string) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	prefix := CollectionAlias(teamID) + "_"
	var matches []string
	for _, name := range names {
		if name == exclude || !strings.HasPrefix(name, prefix) {
			continue
		}
		// The generation suffix is purely numeric; anything else belongs
		// to a different team whose id shares this prefix.
		if _, err := strconv.ParseInt(strings.TrimPrefix(name, prefix), 10, 64); err != nil {
			continue
		}
		matches = append(matches, name)
	}
	return matches, nil
}
