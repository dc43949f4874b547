package analysis

import (
	"strings"
	"time"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// State is the shared blackboard one analysis run reads and writes as it
// moves through the pipeline. Fields accumulate; stages never clear what
// earlier stages produced except where re-research replaces the context.
type State struct {
	RunID      string `json:"runId"`
	Question   string `json:"question"`
	DocumentID string `json:"documentId"`
	UserID     string `json:"userId"`

	Contexts        []string  `json:"contexts"`
	RetrievalScores []float64 `json:"retrievalScores"`
	GeoContext      string    `json:"geopoliticalContext,omitempty"`

	Answer             string    `json:"answer"`
	GenerationLogProbs []float64 `json:"-"`
	IsValid            bool      `json:"isValid"`
	ResearchAttempts   int       `json:"researchAttempts"`

	Hub        *HubReport        `json:"intelligenceHubData,omitempty"`
	Confidence *ConfidenceReport `json:"confidenceMetrics,omitempty"`
}

// fullContext is the context the downstream LLM stages judge against:
// the retrieved chunks plus the geopolitical appendix the generator was
// given. Leaving the appendix out would make its figures look invented.
func (s *State) fullContext() string {
	joined := strings.Join(s.Contexts, "\n\n")
	if s.GeoContext == "" {
		return joined
	}
	if joined == "" {
		return s.GeoContext
	}
	return joined + "\n\n" + s.GeoContext
}

// ProgressSnapshot is what pollers see. It is written best-effort at
// every stage transition; a stale snapshot is preferable to a failed run.
type ProgressSnapshot struct {
	Status        string    `json:"status"`
	CurrentStage  string    `json:"currentStage"`
	StageIndex    int       `json:"stageIndex"`
	TotalStages   int       `json:"totalStages"`
	StatusMessage string    `json:"statusMessage"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Result is the persisted analysis payload at {user}/{doc}/analysis.json.
type Result struct {
	RunID       string            `json:"runId"`
	Question    string            `json:"question"`
	Answer      string            `json:"answer"`
	IsValid     bool              `json:"isValid"`
	Hub         *HubReport        `json:"intelligenceHubData,omitempty"`
	Confidence  *ConfidenceReport `json:"confidenceMetrics,omitempty"`
	GeoContext  string            `json:"geopoliticalContext,omitempty"`
	ErrorCode   string            `json:"errorCode,omitempty"`
	Error       string            `json:"error,omitempty"`
	CompletedAt time.Time         `json:"completedAt"`
}
