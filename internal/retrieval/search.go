// Package retrieval ranks reference documents against a query by embedding
// similarity. Collections are small enough to score in memory.
package retrieval

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/model"
	"github.com/sells-group/underwriting-cli/internal/store"
	"github.com/sells-group/underwriting-cli/pkg/jina"
)

// Searcher finds the reference documents most similar to a query.
type Searcher interface {
	Search(ctx context.Context, collection, query string, k int) ([]model.Document, error)
}

// StoreSearcher implements Searcher over store-backed collections, embedding
// queries with Jina and caching collection contents per instance.
type StoreSearcher struct {
	store    store.Store
	embedder jina.Client

	mu    sync.Mutex
	cache map[string][]model.Document
}

// NewStoreSearcher creates a Searcher over the given store and embedder.
func NewStoreSearcher(st store.Store, embedder jina.Client) *StoreSearcher {
	return &StoreSearcher{
		store:    st,
		embedder: embedder,
		cache:    make(map[string][]model.Document),
	}
}

func (s *StoreSearcher) Search(ctx context.Context, collection, query string, k int) ([]model.Document, error) {
	if k <= 0 {
		k = 5
	}

	docs, err := s.collectionDocs(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		zap.L().Warn("empty reference collection", zap.String("collection", collection))
		return nil, nil
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, eris.Wrapf(err, "retrieval: embed query for %s", collection)
	}
	queryVec := vecs[0]

	scored := make([]model.Document, 0, len(docs))
	for _, doc := range docs {
		doc.Score = CosineSimilarity(queryVec, doc.Embedding)
		scored = append(scored, doc)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (s *StoreSearcher) collectionDocs(ctx context.Context, collection string) ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if docs, ok := s.cache[collection]; ok {
		return docs, nil
	}
	docs, err := s.store.ListDocuments(ctx, collection)
	if err != nil {
		return nil, eris.Wrapf(err, "retrieval: load collection %s", collection)
	}
	s.cache[collection] = docs
	return docs, nil
}

// CosineSimilarity returns the cosine of the angle between two vectors, or 0
// when either vector is empty, zero-length, or the dimensions differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// FormatContext renders retrieved documents as a numbered context block for
// inclusion in a model prompt.
func FormatContext(docs []model.Document) string {
	if len(docs) == 0 {
		return "No reference material available."
	}
	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		name := strings.TrimSpace(doc.Name)
		if name == "" {
			name = doc.ID
		}
		sb.WriteString("[")
		sb.WriteString(name)
		sb.WriteString("]\n")
		sb.WriteString(strings.TrimSpace(doc.Content))
	}
	return sb.String()
}

// CountingSearcher wraps a Searcher and counts searches and documents
// returned. Safe for concurrent use.
type CountingSearcher struct {
	Inner Searcher

	searches  atomic.Int64
	retrieved atomic.Int64
}

func (c *CountingSearcher) Search(ctx context.Context, collection, query string, k int) ([]model.Document, error) {
	c.searches.Add(1)
	docs, err := c.Inner.Search(ctx, collection, query, k)
	c.retrieved.Add(int64(len(docs)))
	return docs, err
}

// Searches returns the number of Search invocations so far.
func (c *CountingSearcher) Searches() int64 {
	return c.searches.Load()
}

// Retrieved returns the total number of documents returned so far.
func (c *CountingSearcher) Retrieved() int64 {
	return c.retrieved.Load()
}
