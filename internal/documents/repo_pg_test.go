package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

var docColumns = []string{
	"id", "user_id", "file_name", "ticker", "storage_key", "num_chunks", "num_pages",
	"analysis_status", "sentiment_score", "sentiment_label", "risk_level", "summary", "created_at",
}

func TestPGRepoGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Now().UTC()
	mock.ExpectQuery("SELECT id, user_id, file_name").
		WithArgs("doc1", "alice").
		WillReturnRows(sqlmock.NewRows(docColumns).AddRow(
			"doc1", "alice", "10k.pdf", "NVDA", "alice/doc1/10k.pdf", 42, 90,
			"analyzed", 78.0, "positive", "Moderate", "Strong quarter.", created,
		))

	repo := &PGRepo{DB: db}
	doc, err := repo.GetByID(context.Background(), "alice", "doc1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.Ticker != "NVDA" || doc.NumChunks != 42 || doc.SentimentScore != 78.0 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, user_id, file_name").
		WithArgs("missing", "alice").
		WillReturnRows(sqlmock.NewRows(docColumns))

	repo := &PGRepo{DB: db}
	_, err = repo.GetByID(context.Background(), "alice", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateAnalysisNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc1", "bob", "analyzed", 78.0, "positive", "Low", "ok").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	err = repo.UpdateAnalysis(context.Background(), "bob", "doc1", "analyzed", 78.0, "positive", "Low", "ok")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user's document, got %v", err)
	}
}

func TestPGRepoStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT count").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"count", "analyzed", "avg", "high"}).
			AddRow(5, 3, 64.5, 1))

	repo := &PGRepo{DB: db}
	stats, err := repo.Stats(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalDocuments != 5 || stats.AnalyzedCount != 3 || stats.AvgSentiment != 64.5 || stats.HighRiskCount != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
