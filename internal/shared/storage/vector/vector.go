package vector

import "context"

// Record is a single embedded chunk to be indexed.
type Record struct {
	ID       string
	Values   []float32
	Metadata map[string]string
}

// Match is the fixed shape of one retrieval result. The adapter at the
// store boundary populates every field so callers never guard against
// missing attributes.
type Match struct {
	Content  string
	Score    float64
	Metadata map[string]string
}

// Filter restricts queries and deletes to matching metadata values.
type Filter map[string]string

// Store abstracts a nearest-neighbor vector index.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, values []float32, topK int, filter Filter) ([]Match, error)
	Delete(ctx context.Context, filter Filter) error
}
