package documents

import "time"

// Analysis status values for the dashboard listing.
const (
	StatusPending  = "pending"
	StatusAnalyzed = "analyzed"
	StatusFailed   = "failed"
)

type Document struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	FileName       string    `json:"fileName"`
	Ticker         string    `json:"ticker"`
	StorageKey     string    `json:"storageKey"`
	NumChunks      int       `json:"numChunks"`
	NumPages       int       `json:"numPages"`
	AnalysisStatus string    `json:"analysisStatus"`
	SentimentScore float64   `json:"sentimentScore"`
	SentimentLabel string    `json:"sentimentLabel"`
	RiskLevel      string    `json:"riskLevel"`
	Summary        string    `json:"summary"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DashboardStats aggregates the user's library for the overview panel.
type DashboardStats struct {
	TotalDocuments int     `json:"totalDocuments"`
	AnalyzedCount  int     `json:"analyzedCount"`
	AvgSentiment   float64 `json:"avgSentiment"`
	HighRiskCount  int     `json:"highRiskCount"`
}
