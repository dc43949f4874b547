package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"ledgerlens-backend/internal/embed"
	"ledgerlens-backend/internal/extract"
	"ledgerlens-backend/internal/shared/storage/object"
	"ledgerlens-backend/internal/shared/storage/vector"
	"ledgerlens-backend/internal/shared/telemetry"
)

// Request describes one filing to ingest.
type Request struct {
	UserID     string
	DocumentID string
	FileName   string
	Ticker     string
	MimeType   string
	Data       []byte
}

// Result reports what was ingested.
type Result struct {
	StorageKey string
	NumChunks  int
	NumPages   int
}

// Ingestor stores the raw filing, extracts and chunks its text, embeds
// every chunk, and upserts scoped vectors.
type Ingestor struct {
	Store    object.ObjectStore
	Vector   vector.Store
	Embedder embed.Embedder
}

func New(store object.ObjectStore, vec vector.Store, embedder embed.Embedder) *Ingestor {
	return &Ingestor{Store: store, Vector: vec, Embedder: embedder}
}

// Ingest runs the full pipeline for one document. The raw PDF is kept at
// {user_id}/{document_id}/{file_name} so later deletes can find it.
func (in *Ingestor) Ingest(ctx context.Context, req Request) (Result, error) {
	if req.UserID == "" || req.DocumentID == "" {
		return Result{}, fmt.Errorf("ingest: user_id and document_id are required")
	}

	storageKey := fmt.Sprintf("%s/%s/%s", req.UserID, req.DocumentID, req.FileName)
	if err := in.Store.Put(ctx, storageKey, req.MimeType, bytes.NewReader(req.Data)); err != nil {
		return Result{}, fmt.Errorf("ingest: store pdf: %w", err)
	}

	extracted, err := extract.ExtractTextFromBytes(ctx, req.Data, req.MimeType, req.FileName)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: extract: %w", err)
	}

	chunks := ChunkText(extracted.Text)
	if len(chunks) == 0 {
		return Result{}, fmt.Errorf("ingest: no text extracted from %s", req.FileName)
	}

	vectors, err := in.Embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: embed: %w", err)
	}

	records := make([]vector.Record, 0, len(chunks))
	for i, chunk := range chunks {
		records = append(records, vector.Record{
			ID:     fmt.Sprintf("%s-%d", req.DocumentID, i),
			Values: vectors[i],
			Metadata: map[string]string{
				"document_id": req.DocumentID,
				"user_id":     req.UserID,
				"text":        chunk,
				"source":      req.FileName,
				"ticker":      req.Ticker,
				"chunk_index": strconv.Itoa(i),
			},
		})
	}
	if err := in.Vector.Upsert(ctx, records); err != nil {
		return Result{}, fmt.Errorf("ingest: upsert vectors: %w", err)
	}

	telemetry.Info("document ingested", map[string]any{
		"document_id": req.DocumentID,
		"user_id":     req.UserID,
		"chunks":      len(chunks),
		"pages":       extracted.NumPages,
	})

	return Result{StorageKey: storageKey, NumChunks: len(chunks), NumPages: extracted.NumPages}, nil
}

// DeleteDocument removes every vector scoped to the document.
func (in *Ingestor) DeleteDocument(ctx context.Context, userID, documentID string) error {
	return in.Vector.Delete(ctx, vector.Filter{
		"document_id": documentID,
		"user_id":     userID,
	})
}
