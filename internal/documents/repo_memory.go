package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string]Document)}
}

func (r *MemoryRepo) Insert(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if doc.AnalysisStatus == "" {
		doc.AnalysisStatus = StatusPending
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.UserID != userID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var docs []Document
	for _, doc := range r.docs {
		if doc.UserID == userID {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

func (r *MemoryRepo) UpdateAnalysis(ctx context.Context, userID, documentID string, status string, sentimentScore float64, sentimentLabel, riskLevel, summary string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.UserID != userID {
		return ErrNotFound
	}
	doc.AnalysisStatus = status
	doc.SentimentScore = sentimentScore
	doc.SentimentLabel = sentimentLabel
	doc.RiskLevel = riskLevel
	doc.Summary = summary
	r.docs[documentID] = doc
	return nil
}

func (r *MemoryRepo) SoftDelete(ctx context.Context, userID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.UserID != userID {
		return ErrNotFound
	}
	delete(r.docs, documentID)
	return nil
}

func (r *MemoryRepo) Stats(ctx context.Context, userID string) (DashboardStats, error) {
	if err := ctx.Err(); err != nil {
		return DashboardStats{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats DashboardStats
	var sentimentSum float64
	for _, doc := range r.docs {
		if doc.UserID != userID {
			continue
		}
		stats.TotalDocuments++
		if doc.AnalysisStatus == StatusAnalyzed {
			stats.AnalyzedCount++
			sentimentSum += doc.SentimentScore
		}
		if doc.RiskLevel == "High" {
			stats.HighRiskCount++
		}
	}
	if stats.AnalyzedCount > 0 {
		stats.AvgSentiment = sentimentSum / float64(stats.AnalyzedCount)
	}
	return stats, nil
}

var _ Repo = (*MemoryRepo)(nil)
