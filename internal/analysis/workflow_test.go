package analysis

import (
	"context"
	"strings"
	"testing"

	"ledgerlens-backend/internal/llm"
	"ledgerlens-backend/internal/shared/storage/vector"
	"ledgerlens-backend/internal/shared/storage/vector/memory"
)

// routedLLM dispatches on request shape: JSON output means extraction,
// logprob requests mean generation, everything else is validation.
type routedLLM struct {
	genText     string
	genLogProbs []float64
	verdicts    []string
	hubJSON     string

	genCalls      int
	validateCalls int
	extractCalls  int
}

func (r *routedLLM) Complete(ctx context.Context, req llm.CompleteRequest) (llm.Completion, error) {
	switch {
	case req.JSONOutput:
		r.extractCalls++
		return llm.Completion{Text: r.hubJSON}, nil
	case req.WantLogProbs:
		r.genCalls++
		return llm.Completion{Text: r.genText, TokenLogProbs: r.genLogProbs}, nil
	default:
		verdict := "PASS"
		if r.validateCalls < len(r.verdicts) {
			verdict = r.verdicts[r.validateCalls]
		}
		r.validateCalls++
		return llm.Completion{Text: verdict}, nil
	}
}

type fixedEmbedder struct{ vec []float32 }

func (f fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, nil
}

func (f fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

func seededVectorStore(t *testing.T, text string) *memory.Store {
	t.Helper()
	store := memory.New()
	err := store.Upsert(context.Background(), []vector.Record{{
		ID:     "doc1-0",
		Values: []float32{1, 0},
		Metadata: map[string]string{
			"document_id": "doc1",
			"user_id":     "alice",
			"text":        text,
		},
	}})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func newTestRunner(client llm.Client, store *memory.Store, maxAttempts int) *Runner {
	return &Runner{
		Researcher: &Researcher{
			Vector:   store,
			Embedder: fixedEmbedder{vec: []float32{1, 0}},
		},
		Generator:           &Generator{LLM: client},
		Validator:           &Validator{LLM: client},
		Extractor:           &Extractor{LLM: client},
		MaxResearchAttempts: maxAttempts,
	}
}

func TestRunEndToEnd(t *testing.T) {
	client := &routedLLM{
		genText:     "Revenue was $130.5 billion, up 114% YoY [chunk 1].",
		genLogProbs: []float64{-0.1, -0.3},
		hubJSON:     validHubJSON,
	}
	store := seededVectorStore(t, "Revenue was $130.5 billion, up 114% YoY")
	runner := newTestRunner(client, store, 3)

	state := &State{RunID: "r1", Question: "What was total revenue?", DocumentID: "doc1", UserID: "alice"}
	if err := runner.Run(context.Background(), state); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !state.IsValid {
		t.Fatal("expected valid answer")
	}
	if !strings.Contains(state.Answer, "$130.5 billion") {
		t.Fatalf("answer missing cited figure: %q", state.Answer)
	}
	if state.Hub == nil || state.Hub.KeyHighlights[0].MetricValue != "114%" {
		t.Fatalf("expected highlight with metric_value 114%%, got %+v", state.Hub)
	}
	if state.Confidence == nil || state.Confidence.SourceMatch.Ratio < 0.99 {
		t.Fatalf("expected near-1.0 source match, got %+v", state.Confidence)
	}
	if client.genCalls != 1 || client.validateCalls != 1 || client.extractCalls != 1 {
		t.Fatalf("unexpected call counts: gen=%d validate=%d extract=%d",
			client.genCalls, client.validateCalls, client.extractCalls)
	}
}

func TestValidationFailRoutesBackToResearch(t *testing.T) {
	client := &routedLLM{
		genText:     "Revenue was $999B.",
		genLogProbs: []float64{-0.2},
		verdicts:    []string{"FAIL", "PASS"},
		hubJSON:     validHubJSON,
	}
	store := seededVectorStore(t, "Revenue was $130.5 billion, up 114% YoY")
	runner := newTestRunner(client, store, 3)

	state := &State{RunID: "r2", Question: "What was total revenue?", DocumentID: "doc1", UserID: "alice"}
	if err := runner.Run(context.Background(), state); err != nil {
		t.Fatalf("run: %v", err)
	}
	if state.ResearchAttempts != 2 {
		t.Fatalf("expected 2 research attempts, got %d", state.ResearchAttempts)
	}
	if client.extractCalls != 1 {
		t.Fatalf("extraction must run exactly once, after the retry; got %d calls", client.extractCalls)
	}
	if client.genCalls != 2 {
		t.Fatalf("expected regeneration after failed validation, got %d gen calls", client.genCalls)
	}
}

func TestRetryGuardTerminatesAfterMaxAttempts(t *testing.T) {
	client := &routedLLM{
		genText:     "Revenue was $999B.",
		genLogProbs: []float64{-0.2},
		verdicts:    []string{"FAIL", "FAIL", "FAIL"},
		hubJSON:     validHubJSON,
	}
	store := seededVectorStore(t, "Revenue was $130.5 billion, up 114% YoY")
	runner := newTestRunner(client, store, 3)

	state := &State{RunID: "r3", Question: "What was total revenue?", DocumentID: "doc1", UserID: "alice"}
	err := runner.Run(context.Background(), state)
	if err == nil {
		t.Fatal("expected terminal failure after exhausting retries")
	}
	if state.IsValid {
		t.Fatal("expected is_valid=false on terminal failure")
	}
	if state.ResearchAttempts != 3 {
		t.Fatalf("expected 3 research attempts, got %d", state.ResearchAttempts)
	}
	if state.Answer == "" {
		t.Fatal("last answer must be surfaced on terminal failure")
	}
	if client.extractCalls != 0 {
		t.Fatal("extraction must not run for an invalid answer")
	}
	if code, retryable := classifyFailure(err); code != ErrorCodeValidation || retryable {
		t.Fatalf("expected non-retryable %s, got %s retryable=%v", ErrorCodeValidation, code, retryable)
	}
}

func TestEmptyRetrievalShortCircuitsGeneration(t *testing.T) {
	client := &routedLLM{
		genText: "should never be used",
		hubJSON: validHubJSON,
	}
	runner := newTestRunner(client, memory.New(), 3)

	state := &State{RunID: "r4", Question: "What was total revenue?", DocumentID: "doc1", UserID: "alice"}
	if err := runner.Run(context.Background(), state); err != nil {
		t.Fatalf("run: %v", err)
	}
	if state.Answer != CannotAnswer {
		t.Fatalf("expected refusal answer, got %q", state.Answer)
	}
	if client.genCalls != 0 {
		t.Fatalf("generation must not call the model with empty context, got %d calls", client.genCalls)
	}
	if client.validateCalls != 0 {
		t.Fatalf("refusal with no context skips the validation model call, got %d calls", client.validateCalls)
	}
	if state.Confidence == nil || state.Confidence.SourceMatch.Ratio != 0.0 {
		t.Fatalf("expected zero source match, got %+v", state.Confidence)
	}
}

func TestResearchRequiresScope(t *testing.T) {
	r := &Researcher{Vector: memory.New(), Embedder: fixedEmbedder{vec: []float32{1}}}
	state := &State{Question: "q", UserID: "alice"}
	if err := r.Research(context.Background(), state); err != ErrScope {
		t.Fatalf("expected ErrScope, got %v", err)
	}
	state = &State{Question: "q", DocumentID: "doc1"}
	if err := r.Research(context.Background(), state); err != ErrScope {
		t.Fatalf("expected ErrScope, got %v", err)
	}
}

func TestNextTransitionTable(t *testing.T) {
	cases := []struct {
		stage    Stage
		isValid  bool
		attempts int
		want     Stage
	}{
		{StageResearch, false, 1, StageAnalyze},
		{StageAnalyze, false, 1, StageValidate},
		{StageValidate, true, 1, StageExtract},
		{StageValidate, false, 1, StageResearch},
		{StageValidate, false, 3, StageFailed},
		{StageExtract, true, 1, StageDone},
	}
	for _, tc := range cases {
		state := &State{IsValid: tc.isValid, ResearchAttempts: tc.attempts}
		if got := next(tc.stage, state, 3); got != tc.want {
			t.Errorf("next(%s, valid=%v, attempts=%d) = %s, want %s",
				tc.stage, tc.isValid, tc.attempts, got, tc.want)
		}
	}
}
