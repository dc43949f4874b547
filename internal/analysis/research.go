package analysis

import (
	"context"
	"fmt"
	"strings"

	"ledgerlens-backend/internal/embed"
	"ledgerlens-backend/internal/geopolitical"
	"ledgerlens-backend/internal/shared/storage/vector"
	"ledgerlens-backend/internal/shared/telemetry"
)

const defaultTopK = 8

// Researcher retrieves scoped context for a question and optionally
// enriches it with supplemental geopolitical risk data.
type Researcher struct {
	Vector   vector.Store
	Embedder embed.Embedder
	Enricher *geopolitical.Enricher
	TopK     int
}

// Research embeds the question and queries the vector store. The
// document/user scope filter is mandatory: retrieval without it could
// leak another user's filings, so a missing scope fails the run.
// An empty result set is not an error; generation handles it.
func (r *Researcher) Research(ctx context.Context, state *State) error {
	if strings.TrimSpace(state.DocumentID) == "" || strings.TrimSpace(state.UserID) == "" {
		return ErrScope
	}

	queryVec, err := r.Embedder.Embed(ctx, state.Question)
	if err != nil {
		return fmt.Errorf("embed question: %w", err)
	}

	topK := r.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	matches, err := r.Vector.Query(ctx, queryVec, topK, vector.Filter{
		"document_id": state.DocumentID,
		"user_id":     state.UserID,
	})
	if err != nil {
		return fmt.Errorf("vector query: %w", err)
	}

	contexts := make([]string, 0, len(matches))
	scores := make([]float64, 0, len(matches))
	for _, m := range matches {
		contexts = append(contexts, m.Content)
		scores = append(scores, m.Score)
	}
	state.Contexts = contexts
	state.RetrievalScores = scores
	state.ResearchAttempts++

	if len(matches) == 0 {
		telemetry.Info("research.empty", map[string]any{
			"document_id": state.DocumentID,
			"attempt":     state.ResearchAttempts,
		})
		return nil
	}

	if r.Enricher != nil {
		state.GeoContext = r.Enricher.Enrich(ctx, strings.Join(contexts, "\n"))
	}
	return nil
}
