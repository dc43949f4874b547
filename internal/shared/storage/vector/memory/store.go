package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"ledgerlens-backend/internal/shared/storage/vector"
)

// Store is an in-memory vector.Store used in tests and local development.
type Store struct {
	mu      sync.RWMutex
	records map[string]vector.Record
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{records: make(map[string]vector.Record)}
}

// Upsert stores or replaces records by ID.
func (s *Store) Upsert(ctx context.Context, records []vector.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.records[rec.ID] = rec
	}
	return nil
}

// Query ranks stored records by cosine similarity against values.
func (s *Store) Query(ctx context.Context, values []float32, topK int, filter vector.Filter) ([]vector.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]vector.Match, 0, topK)
	for _, rec := range s.records {
		if !matchesFilter(rec.Metadata, filter) {
			continue
		}
		text := rec.Metadata["text"]
		if text == "" {
			continue
		}
		matches = append(matches, vector.Match{
			Content:  text,
			Score:    cosineSimilarity(values, rec.Values),
			Metadata: rec.Metadata,
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Delete removes all records matching the filter.
func (s *Store) Delete(ctx context.Context, filter vector.Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.records {
		if matchesFilter(rec.Metadata, filter) {
			delete(s.records, id)
		}
	}
	return nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func matchesFilter(metadata map[string]string, filter vector.Filter) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ vector.Store = (*Store)(nil)
