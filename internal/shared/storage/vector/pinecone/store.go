package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ledgerlens-backend/internal/shared/storage/vector"
)

const upsertBatchSize = 100

// Store implements vector.Store against the Pinecone index REST API.
type Store struct {
	apiKey     string
	host       string
	httpClient *http.Client
}

// New constructs a Pinecone-backed vector store. Host is the index
// endpoint, e.g. "https://my-index-abc123.svc.us-east-1.pinecone.io".
func New(apiKey, host string) (*Store, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("PINECONE_API_KEY is required")
	}
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("PINECONE_HOST is required")
	}
	return &Store{
		apiKey: apiKey,
		host:   strings.TrimRight(host, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type upsertRequest struct {
	Vectors []upsertVector `json:"vectors"`
}

type upsertVector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type queryRequest struct {
	Vector          []float32         `json:"vector"`
	TopK            int               `json:"topK"`
	Filter          map[string]string `json:"filter,omitempty"`
	IncludeMetadata bool              `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string            `json:"id"`
		Score    float64           `json:"score"`
		Metadata map[string]string `json:"metadata"`
	} `json:"matches"`
}

type deleteRequest struct {
	Filter map[string]string `json:"filter"`
}

type apiError struct {
	Message string `json:"message"`
}

// Upsert indexes records in batches.
func (s *Store) Upsert(ctx context.Context, records []vector.Record) error {
	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := make([]upsertVector, 0, end-start)
		for _, rec := range records[start:end] {
			batch = append(batch, upsertVector{ID: rec.ID, Values: rec.Values, Metadata: rec.Metadata})
		}
		if err := s.do(ctx, "/vectors/upsert", upsertRequest{Vectors: batch}, nil); err != nil {
			return fmt.Errorf("pinecone upsert: %w", err)
		}
	}
	return nil
}

// Query returns the topK nearest matches. Matches without chunk text in
// their metadata are dropped here so callers see fully populated results.
func (s *Store) Query(ctx context.Context, values []float32, topK int, filter vector.Filter) ([]vector.Match, error) {
	req := queryRequest{
		Vector:          values,
		TopK:            topK,
		Filter:          filter,
		IncludeMetadata: true,
	}
	var resp queryResponse
	if err := s.do(ctx, "/query", req, &resp); err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}

	matches := make([]vector.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		text, ok := m.Metadata["text"]
		if !ok || text == "" {
			continue
		}
		matches = append(matches, vector.Match{
			Content:  text,
			Score:    m.Score,
			Metadata: m.Metadata,
		})
	}
	return matches, nil
}

// Delete removes all vectors matching the filter.
func (s *Store) Delete(ctx context.Context, filter vector.Filter) error {
	if len(filter) == 0 {
		return fmt.Errorf("pinecone delete: filter is required")
	}
	if err := s.do(ctx, "/vectors/delete", deleteRequest{Filter: filter}, nil); err != nil {
		return fmt.Errorf("pinecone delete: %w", err)
	}
	return nil
}

func (s *Store) do(ctx context.Context, path string, reqBody any, out any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("http status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("http status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("response parse: %w", err)
	}
	return nil
}

var _ vector.Store = (*Store)(nil)
