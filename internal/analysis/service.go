package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ledgerlens-backend/internal/documents"
	"ledgerlens-backend/internal/embed"
	"ledgerlens-backend/internal/geopolitical"
	"ledgerlens-backend/internal/llm"
	"ledgerlens-backend/internal/shared/metrics"
	"ledgerlens-backend/internal/shared/storage/object"
	"ledgerlens-backend/internal/shared/storage/vector"
	"ledgerlens-backend/internal/shared/telemetry"
)

// Service wires the pipeline stages to external dependencies and owns
// the fire-and-forget run lifecycle.
type Service struct {
	Vector   vector.Store
	Embedder embed.Embedder
	Enricher *geopolitical.Enricher
	LLM      llm.Client
	Store    object.ObjectStore
	Docs     *documents.Service

	TopK                int
	MaxResearchAttempts int
}

// Start validates the request, writes the queued snapshot, and launches
// the run in the background. Callers poll GetProgress for completion.
func (s *Service) Start(ctx context.Context, question, documentID, userID string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", errors.New("question is required")
	}
	if strings.TrimSpace(documentID) == "" || strings.TrimSpace(userID) == "" {
		return "", ErrScope
	}
	if s.LLM == nil || s.Vector == nil || s.Embedder == nil || s.Store == nil {
		return "", errors.New("analysis service not configured")
	}

	runID := uuid.NewString()
	progress := &ProgressStore{Store: s.Store}
	progress.WriteSnapshot(ctx, userID, documentID, ProgressSnapshot{
		Status:        StatusQueued,
		CurrentStage:  StageResearch.String(),
		StageIndex:    0,
		TotalStages:   totalStages,
		StatusMessage: "queued",
		UpdatedAt:     time.Now().UTC(),
	})

	go s.runAsync(backgroundWithRequestID(ctx), runID, question, documentID, userID)
	return runID, nil
}

// Run executes one analysis synchronously and returns the final state.
func (s *Service) Run(ctx context.Context, runID, question, documentID, userID string) (*State, error) {
	requestID := requestIDFromContext(ctx)
	client := newRetryingLLM(s.LLM, runID, requestID)
	progress := &ProgressStore{Store: s.Store}

	runner := &Runner{
		Researcher: &Researcher{
			Vector:   s.Vector,
			Embedder: s.Embedder,
			Enricher: s.Enricher,
			TopK:     s.TopK,
		},
		Generator:           &Generator{LLM: client},
		Validator:           &Validator{LLM: client},
		Extractor:           &Extractor{LLM: client},
		Progress:            progress,
		MaxResearchAttempts: s.MaxResearchAttempts,
	}

	state := &State{
		RunID:      runID,
		Question:   question,
		DocumentID: documentID,
		UserID:     userID,
	}
	err := runner.Run(ctx, state)
	return state, err
}

func (s *Service) runAsync(ctx context.Context, runID, question, documentID, userID string) {
	startedAt := time.Now().UTC()
	defer func() {
		if r := recover(); r != nil {
			s.failRun(ctx, runID, documentID, userID, nil, fmt.Errorf("panic: %v", r), startedAt)
		}
	}()

	metrics.IncRunStarted()
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"run_id":            runID,
		"user_id":           userID,
		"document_id":       documentID,
		"status":            StatusProcessing,
		"status_transition": "queued->processing",
	})

	state, err := s.Run(ctx, runID, question, documentID, userID)
	if err != nil {
		s.failRun(ctx, runID, documentID, userID, state, err, startedAt)
		return
	}

	progress := &ProgressStore{Store: s.Store}
	result := Result{
		RunID:       runID,
		Question:    question,
		Answer:      state.Answer,
		IsValid:     state.IsValid,
		Hub:         state.Hub,
		Confidence:  state.Confidence,
		GeoContext:  state.GeoContext,
		CompletedAt: time.Now().UTC(),
	}
	if err := progress.WriteResult(ctx, userID, documentID, result); err != nil {
		s.failRun(ctx, runID, documentID, userID, state, err, startedAt)
		return
	}
	s.recordDashboard(ctx, state, false)

	completedAt := time.Now().UTC()
	metrics.IncRunCompleted()
	metrics.ObserveRunDurationMs(float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0)
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"run_id":            runID,
		"user_id":           userID,
		"document_id":       documentID,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"is_valid":          state.IsValid,
		"duration_ms":       float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0,
	})
}

// failRun terminates a run: terminal snapshot, best-effort result with
// the last answer surfaced, metrics, and the status log line.
func (s *Service) failRun(ctx context.Context, runID, documentID, userID string, state *State, err error, startedAt time.Time) {
	code, retryable := classifyFailure(err)
	msg := sanitizeError(err)
	progress := &ProgressStore{Store: s.Store}

	progress.WriteSnapshot(ctx, userID, documentID, ProgressSnapshot{
		Status:        StatusFailed,
		CurrentStage:  StageFailed.String(),
		StageIndex:    StageFailed.index(),
		TotalStages:   totalStages,
		StatusMessage: msg,
		UpdatedAt:     time.Now().UTC(),
	})

	result := Result{
		RunID:       runID,
		ErrorCode:   code,
		Error:       msg,
		CompletedAt: time.Now().UTC(),
	}
	if state != nil {
		result.Question = state.Question
		result.Answer = state.Answer
		result.IsValid = state.IsValid
		result.Confidence = state.Confidence
		result.GeoContext = state.GeoContext
	}
	if werr := progress.WriteResult(ctx, userID, documentID, result); werr != nil {
		telemetry.Error("failed-run result write failed", map[string]any{
			"run_id": runID, "error": werr.Error(),
		})
	}
	if state != nil {
		s.recordDashboard(ctx, state, true)
	}

	completedAt := time.Now().UTC()
	metrics.IncRunFailed()
	metrics.ObserveRunDurationMs(float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0)
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"run_id":            runID,
		"user_id":           userID,
		"document_id":       documentID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"retryable":         retryable,
		"error":             msg,
	})
}

// recordDashboard folds the run outcome into the documents row.
// Dashboard staleness is tolerable, so failures only log.
func (s *Service) recordDashboard(ctx context.Context, state *State, failed bool) {
	if s.Docs == nil {
		return
	}
	score := 50.0
	label := "neutral"
	riskLevel := "Moderate"
	summary := ""
	if state.Hub != nil {
		score = float64(state.Hub.Sentiment.Score)
		label = state.Hub.SentimentLabel()
		riskLevel = state.Hub.Risk.Level
		summary = state.Hub.Sentiment.Description
	}
	err := s.Docs.RecordAnalysis(ctx, state.UserID, state.DocumentID, failed, score, label, riskLevel, summary)
	if err != nil && !errors.Is(err, documents.ErrNotFound) {
		telemetry.Warn("dashboard update failed", map[string]any{
			"document_id": state.DocumentID,
			"error":       err.Error(),
		})
	}
}

// GetProgress returns the latest snapshot for polling clients.
func (s *Service) GetProgress(ctx context.Context, userID, documentID string) (ProgressSnapshot, error) {
	if strings.TrimSpace(documentID) == "" || strings.TrimSpace(userID) == "" {
		return ProgressSnapshot{}, ErrScope
	}
	progress := &ProgressStore{Store: s.Store}
	return progress.ReadSnapshot(ctx, userID, documentID)
}

// GetResult returns the persisted final analysis, if the run finished.
func (s *Service) GetResult(ctx context.Context, userID, documentID string) (Result, error) {
	if strings.TrimSpace(documentID) == "" || strings.TrimSpace(userID) == "" {
		return Result{}, ErrScope
	}
	progress := &ProgressStore{Store: s.Store}
	return progress.ReadResult(ctx, userID, documentID)
}
