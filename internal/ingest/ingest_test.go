package ingest

import (
	"context"
	"testing"

	"ledgerlens-backend/internal/shared/storage/vector"
	"ledgerlens-backend/internal/shared/storage/vector/memory"
)

func TestDeleteDocumentScopesToOwner(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	err := store.Upsert(ctx, []vector.Record{
		{ID: "doc1-0", Values: []float32{1, 0}, Metadata: map[string]string{
			"document_id": "doc1", "user_id": "alice", "text": "a",
		}},
		{ID: "doc1-1", Values: []float32{0, 1}, Metadata: map[string]string{
			"document_id": "doc1", "user_id": "alice", "text": "b",
		}},
		{ID: "doc2-0", Values: []float32{1, 1}, Metadata: map[string]string{
			"document_id": "doc2", "user_id": "bob", "text": "c",
		}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	in := &Ingestor{Vector: store}
	if err := in.DeleteDocument(ctx, "alice", "doc1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 record left, got %d", store.Len())
	}
}

func TestIngestRequiresScope(t *testing.T) {
	in := &Ingestor{}
	if _, err := in.Ingest(context.Background(), Request{FileName: "10k.pdf"}); err == nil {
		t.Fatal("expected error for missing user_id/document_id")
	}
}
