package llm

import (
	"context"
)

// Client abstracts text-completion providers.
type Client interface {
	Complete(ctx context.Context, req CompleteRequest) (Completion, error)
}

// CompleteRequest captures one completion call.
type CompleteRequest struct {
	System       string
	Prompt       string
	JSONOutput   bool
	WantLogProbs bool
}

// Completion is the provider response. TokenLogProbs is best-effort:
// providers that do not expose per-token log-probabilities return an
// empty slice, which downstream confidence math treats as unknown.
type Completion struct {
	Text          string
	TokenLogProbs []float64
}

type extraSystemKey struct{}

// WithExtraSystemMessage returns a context carrying an additional system
// message, used for schema-repair retries.
func WithExtraSystemMessage(ctx context.Context, msg string) context.Context {
	return context.WithValue(ctx, extraSystemKey{}, msg)
}

// ExtraSystemMessageFromContext returns the extra system message, if any.
func ExtraSystemMessageFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(extraSystemKey{})
	msg, ok := val.(string)
	return msg, ok
}
