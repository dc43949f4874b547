// Package embed provides query and document embedding generation.
package embed

import "context"

// Embedder generates vector embeddings from text. When EmbedBatch
// returns nil error, the result has the same length as the input with
// result[i] corresponding to texts[i].
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
