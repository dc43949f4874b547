package analysis

import (
	"context"
	"fmt"
	"strings"

	"ledgerlens-backend/internal/llm"
)

// CannotAnswer is the refusal string the generator emits when retrieval
// produced no usable context. Pollers and tests match on it.
const CannotAnswer = "I cannot answer this question based on the provided documents."

const generationSystemPrompt = `You are a financial document analyst.
Answer the question using ONLY the numbered context chunks provided.
Cite the chunk number for every claim, like [chunk 2].
If the context does not contain the answer, reply exactly: "` + CannotAnswer + `"
Never invent figures that do not appear in the context.`

// Generator produces the cited answer for one run.
type Generator struct {
	LLM llm.Client
}

// Generate answers the question from state.Contexts. With no retrieved
// context there is nothing to cite, so it short-circuits to the refusal
// string without calling the model.
func (g *Generator) Generate(ctx context.Context, state *State) error {
	if len(state.Contexts) == 0 {
		state.Answer = CannotAnswer
		state.GenerationLogProbs = nil
		return nil
	}

	completion, err := g.LLM.Complete(ctx, llm.CompleteRequest{
		System:       generationSystemPrompt,
		Prompt:       buildGenerationPrompt(state),
		WantLogProbs: true,
	})
	if err != nil {
		return fmt.Errorf("llm generate: %w", err)
	}
	state.Answer = strings.TrimSpace(completion.Text)
	state.GenerationLogProbs = completion.TokenLogProbs
	return nil
}

func buildGenerationPrompt(state *State) string {
	var b strings.Builder
	b.WriteString("Context chunks:\n")
	for i, chunk := range state.Contexts {
		fmt.Fprintf(&b, "[chunk %d] %s\n\n", i+1, chunk)
	}
	if state.GeoContext != "" {
		b.WriteString(state.GeoContext)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Question: %s\n", state.Question)
	return b.String()
}
