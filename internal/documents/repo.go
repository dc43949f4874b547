package documents

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "document not found" }

type Repo interface {
	Insert(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	ListByUser(ctx context.Context, userID string) ([]Document, error)
	UpdateAnalysis(ctx context.Context, userID, documentID string, status string, sentimentScore float64, sentimentLabel, riskLevel, summary string) error
	SoftDelete(ctx context.Context, userID, documentID string) error
	Stats(ctx context.Context, userID string) (DashboardStats, error)
}
