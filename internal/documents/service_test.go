package documents

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestServiceUploadValidation(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil, nil)
	_, err := svc.Upload(context.Background(), UploadRequest{UserID: "alice", FileName: "x.pdf", Data: []byte("x")})
	if err == nil {
		t.Fatal("expected error when ingestor is missing")
	}
}

func TestServiceRecordAnalysis(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo}
	ctx := context.Background()

	doc := Document{ID: "doc1", UserID: "alice", FileName: "10k.pdf", CreatedAt: time.Now().UTC()}
	if err := repo.Insert(ctx, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := svc.RecordAnalysis(ctx, "alice", "doc1", false, 72.0, "positive", "Low", "Solid results."); err != nil {
		t.Fatalf("RecordAnalysis: %v", err)
	}
	got, err := repo.GetByID(ctx, "alice", "doc1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AnalysisStatus != StatusAnalyzed || got.SentimentScore != 72.0 {
		t.Fatalf("unexpected document: %+v", got)
	}

	if err := svc.RecordAnalysis(ctx, "alice", "doc1", true, 50.0, "neutral", "Moderate", ""); err != nil {
		t.Fatalf("RecordAnalysis failed run: %v", err)
	}
	got, _ = repo.GetByID(ctx, "alice", "doc1")
	if got.AnalysisStatus != StatusFailed {
		t.Fatalf("expected failed status, got %q", got.AnalysisStatus)
	}
}

func TestServiceGetScopedToUser(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo}
	ctx := context.Background()

	if err := repo.Insert(ctx, Document{ID: "doc1", UserID: "alice"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := svc.Get(ctx, "bob", "doc1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong user, got %v", err)
	}
}

func TestMemoryRepoStats(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	docs := []Document{
		{ID: "a", UserID: "alice", AnalysisStatus: StatusAnalyzed, SentimentScore: 80, RiskLevel: "High"},
		{ID: "b", UserID: "alice", AnalysisStatus: StatusAnalyzed, SentimentScore: 40},
		{ID: "c", UserID: "alice", AnalysisStatus: StatusPending},
		{ID: "d", UserID: "bob", AnalysisStatus: StatusAnalyzed, SentimentScore: 99},
	}
	for _, d := range docs {
		if err := repo.Insert(ctx, d); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	stats, err := repo.Stats(ctx, "alice")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalDocuments != 3 || stats.AnalyzedCount != 2 || stats.AvgSentiment != 60 || stats.HighRiskCount != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
