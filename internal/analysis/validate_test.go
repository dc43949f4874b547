package analysis

import (
	"context"
	"strings"
	"testing"

	"ledgerlens-backend/internal/llm"
)

func TestValidatePromptCarriesGeoAppendix(t *testing.T) {
	client := &scriptedLLM{responses: []llm.Completion{{Text: "PASS"}}}
	v := &Validator{LLM: client}
	state := &State{
		Contexts:   []string{"Revenue was $130.5 billion, up 114% YoY"},
		GeoContext: "Jurisdiction: Taiwan\n[HIGH] Political Stability: score -1.2",
		Answer:     "Revenue grew 114% [chunk 1]; political stability scored -1.2.",
	}

	if err := v.Validate(context.Background(), state); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 LLM call, got %d", client.calls)
	}
	prompt := client.requests[0].Prompt
	if !strings.Contains(prompt, "score -1.2") {
		t.Fatalf("geo appendix missing from validation context:\n%s", prompt)
	}
	if !strings.Contains(prompt, "$130.5 billion") {
		t.Fatalf("retrieved chunk missing from validation context:\n%s", prompt)
	}
	if !state.IsValid {
		t.Fatal("expected PASS verdict to mark the answer valid")
	}
}

func TestValidateChecksRefusalAgainstContext(t *testing.T) {
	client := &scriptedLLM{responses: []llm.Completion{{Text: "FAIL"}}}
	v := &Validator{LLM: client}
	state := &State{
		Contexts: []string{"Revenue was $130.5 billion, up 114% YoY"},
		Answer:   CannotAnswer,
	}

	if err := v.Validate(context.Background(), state); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("refusal over real context must be checked, got %d LLM calls", client.calls)
	}
	if state.IsValid {
		t.Fatal("expected FAIL verdict to mark the refusal invalid")
	}
}

func TestValidateRefusalWithoutContextSkipsLLM(t *testing.T) {
	client := &scriptedLLM{responses: []llm.Completion{{Text: "FAIL"}}}
	v := &Validator{LLM: client}
	state := &State{Answer: CannotAnswer}

	if err := v.Validate(context.Background(), state); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("expected no LLM call for a refusal with no context, got %d", client.calls)
	}
	if !state.IsValid {
		t.Fatal("refusal with no context is the faithful answer")
	}
}

func TestValidateFailsClosedOnChatter(t *testing.T) {
	client := &scriptedLLM{responses: []llm.Completion{{Text: "The answer looks fine to me."}}}
	v := &Validator{LLM: client}
	state := &State{
		Contexts: []string{"Revenue was $130.5 billion"},
		Answer:   "Revenue was $130.5 billion [chunk 1].",
	}

	if err := v.Validate(context.Background(), state); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if state.IsValid {
		t.Fatal("non-verdict chatter must count as failure")
	}
}
