package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ledgerlens-backend/internal/ingest"
	"ledgerlens-backend/internal/shared/metrics"
	"ledgerlens-backend/internal/shared/storage/object"
	"ledgerlens-backend/internal/shared/telemetry"
)

// UploadRequest carries one filing from the HTTP layer.
type UploadRequest struct {
	UserID   string
	FileName string
	Ticker   string
	MimeType string
	Data     []byte
}

type Service struct {
	Repo     Repo
	Ingestor *ingest.Ingestor
	Store    object.ObjectStore
}

func NewService(repo Repo, ingestor *ingest.Ingestor, store object.ObjectStore) *Service {
	return &Service{Repo: repo, Ingestor: ingestor, Store: store}
}

// Upload ingests a filing end to end and records it for the dashboard.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (Document, error) {
	if s == nil || s.Repo == nil || s.Ingestor == nil {
		return Document{}, errors.New("documents service not configured")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return Document{}, errors.New("user id is required")
	}
	if strings.TrimSpace(req.FileName) == "" {
		return Document{}, errors.New("file name is required")
	}
	if len(req.Data) == 0 {
		return Document{}, errors.New("file is empty")
	}

	documentID := uuid.NewString()
	res, err := s.Ingestor.Ingest(ctx, ingest.Request{
		UserID:     req.UserID,
		DocumentID: documentID,
		FileName:   req.FileName,
		Ticker:     strings.ToUpper(strings.TrimSpace(req.Ticker)),
		MimeType:   req.MimeType,
		Data:       req.Data,
	})
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:             documentID,
		UserID:         req.UserID,
		FileName:       req.FileName,
		Ticker:         strings.ToUpper(strings.TrimSpace(req.Ticker)),
		StorageKey:     res.StorageKey,
		NumChunks:      res.NumChunks,
		NumPages:       res.NumPages,
		AnalysisStatus: StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.Repo.Insert(ctx, doc); err != nil {
		return Document{}, fmt.Errorf("record document: %w", err)
	}
	metrics.IncDocumentIngested()
	return doc, nil
}

func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	if s == nil || s.Repo == nil {
		return Document{}, errors.New("documents service not configured")
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}

func (s *Service) List(ctx context.Context, userID string) ([]Document, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("documents service not configured")
	}
	return s.Repo.ListByUser(ctx, userID)
}

func (s *Service) Stats(ctx context.Context, userID string) (DashboardStats, error) {
	if s == nil || s.Repo == nil {
		return DashboardStats{}, errors.New("documents service not configured")
	}
	return s.Repo.Stats(ctx, userID)
}

// RecordAnalysis updates the dashboard row after an analysis run lands.
func (s *Service) RecordAnalysis(ctx context.Context, userID, documentID string, failed bool, sentimentScore float64, sentimentLabel, riskLevel, summary string) error {
	if s == nil || s.Repo == nil {
		return errors.New("documents service not configured")
	}
	status := StatusAnalyzed
	if failed {
		status = StatusFailed
	}
	return s.Repo.UpdateAnalysis(ctx, userID, documentID, status, sentimentScore, sentimentLabel, riskLevel, summary)
}

// Delete removes the document record, its vectors, and its stored
// objects. Vector and object cleanup are best-effort once the record is
// gone; failures are logged, not surfaced.
func (s *Service) Delete(ctx context.Context, userID, documentID string) error {
	if s == nil || s.Repo == nil {
		return errors.New("documents service not configured")
	}
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if err := s.Repo.SoftDelete(ctx, userID, documentID); err != nil {
		return err
	}

	if s.Ingestor != nil {
		if err := s.Ingestor.DeleteDocument(ctx, userID, documentID); err != nil {
			telemetry.Warn("vector cleanup failed", map[string]any{
				"document_id": documentID, "error": err.Error(),
			})
		}
	}
	if s.Store != nil {
		for _, key := range []string{
			doc.StorageKey,
			fmt.Sprintf("%s/%s/status.json", userID, documentID),
			fmt.Sprintf("%s/%s/analysis.json", userID, documentID),
		} {
			if err := s.Store.Delete(ctx, key); err != nil && !errors.Is(err, object.ErrNotFound) {
				telemetry.Warn("object cleanup failed", map[string]any{
					"key": key, "error": err.Error(),
				})
			}
		}
	}
	return nil
}
