package analysis

import (
	"context"
	"fmt"
	"strings"

	"ledgerlens-backend/internal/llm"
)

const validationSystemPrompt = `You are a fact-checking auditor.
Given a context and an answer, decide whether every figure and claim in
the answer is supported by the context. The answer FAILS if it contains
any number absent from the context, or claims information is missing
when the context contains it.
Reply with exactly one word: PASS or FAIL.`

// Validator checks answer faithfulness against the retrieved context.
type Validator struct {
	LLM llm.Client
}

// Validate sets state.IsValid. Anything other than a clear PASS verdict
// counts as failure, including unexpected model chatter.
func (v *Validator) Validate(ctx context.Context, state *State) error {
	// With nothing retrieved the refusal is the only faithful answer.
	// A refusal over real context still gets checked: claiming the
	// information is missing when the context holds it is a FAIL.
	if state.Answer == CannotAnswer && len(state.Contexts) == 0 {
		state.IsValid = true
		return nil
	}

	prompt := fmt.Sprintf("Context:\n%s\n\nAnswer:\n%s\n\nVerdict:",
		state.fullContext(), state.Answer)
	completion, err := v.LLM.Complete(ctx, llm.CompleteRequest{
		System: validationSystemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return fmt.Errorf("llm validate: %w", err)
	}

	verdict := strings.ToUpper(strings.TrimSpace(completion.Text))
	state.IsValid = verdict == "PASS"
	return nil
}
