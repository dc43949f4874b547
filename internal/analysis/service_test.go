package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledgerlens-backend/internal/shared/storage/object/local"
)

func TestStartValidation(t *testing.T) {
	svc := &Service{}
	if _, err := svc.Start(context.Background(), "", "doc1", "alice"); err == nil {
		t.Fatal("expected error for empty question")
	}
	if _, err := svc.Start(context.Background(), "q", "", "alice"); !errors.Is(err, ErrScope) {
		t.Fatalf("expected ErrScope, got %v", err)
	}
	if _, err := svc.Start(context.Background(), "q", "doc1", ""); !errors.Is(err, ErrScope) {
		t.Fatalf("expected ErrScope, got %v", err)
	}
}

func TestStartRunsToCompletion(t *testing.T) {
	client := &routedLLM{
		genText:     "Revenue was $130.5 billion, up 114% YoY [chunk 1].",
		genLogProbs: []float64{-0.1, -0.3},
		hubJSON:     validHubJSON,
	}
	store := seededVectorStore(t, "Revenue was $130.5 billion, up 114% YoY")
	svc := &Service{
		Vector:   store,
		Embedder: fixedEmbedder{vec: []float32{1, 0}},
		LLM:      client,
		Store:    local.New(t.TempDir()),
	}

	ctx := context.Background()
	runID, err := svc.Start(ctx, "What was total revenue?", "doc1", "alice")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if runID == "" {
		t.Fatal("expected run id")
	}

	deadline := time.Now().Add(5 * time.Second)
	var snap ProgressSnapshot
	for {
		snap, err = svc.GetProgress(ctx, "alice", "doc1")
		if err == nil && (snap.Status == StatusCompleted || snap.Status == StatusFailed) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run did not finish, last snapshot: %+v err=%v", snap, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %+v", snap)
	}
	if snap.StageIndex != 3 || snap.TotalStages != 4 {
		t.Fatalf("final snapshot indexes wrong: %+v", snap)
	}

	result, err := svc.GetResult(ctx, "alice", "doc1")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if !result.IsValid || result.Hub == nil || result.Confidence == nil {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestGetProgressNotFound(t *testing.T) {
	svc := &Service{Store: local.New(t.TempDir())}
	if _, err := svc.GetProgress(context.Background(), "alice", "never-ran"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		err       error
		code      string
		retryable bool
	}{
		{ErrScope, ErrorCodeScope, false},
		{context.DeadlineExceeded, ErrorCodeLLMTimeout, true},
		{errors.New("openai request timeout: deadline"), ErrorCodeLLMTimeout, true},
		{errors.New("schema: key_highlights must have 3-5 items, got 2"), ErrorCodeLLMSchemaMismatch, false},
		{errors.New("validation failed after 3 research attempts"), ErrorCodeValidation, false},
		{errors.New("vector query: connection refused"), ErrorCodeRetrieval, true},
		{errors.New("persist result: disk full"), ErrorCodeStorage, true},
		{errors.New("something else"), ErrorCodeInternal, false},
	}
	for _, tc := range cases {
		code, retryable := classifyFailure(tc.err)
		if code != tc.code || retryable != tc.retryable {
			t.Errorf("classifyFailure(%v) = (%s, %v), want (%s, %v)",
				tc.err, code, retryable, tc.code, tc.retryable)
		}
	}
}
