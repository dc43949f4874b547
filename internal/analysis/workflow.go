package analysis

import (
	"context"
	"fmt"
	"time"

	"ledgerlens-backend/internal/shared/metrics"
)

// Stage is the orchestrator's position in the pipeline. Indexes are
// 0-based against a 4-stage display.
type Stage int

const (
	StageResearch Stage = iota
	StageAnalyze
	StageValidate
	StageExtract
	StageDone
	StageFailed
)

const totalStages = 4

const defaultMaxResearchAttempts = 3

func (s Stage) String() string {
	switch s {
	case StageResearch:
		return "research"
	case StageAnalyze:
		return "analyze"
	case StageValidate:
		return "validate"
	case StageExtract:
		return "extract"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s Stage) index() int {
	switch s {
	case StageResearch:
		return 0
	case StageAnalyze:
		return 1
	case StageValidate:
		return 2
	case StageExtract, StageDone, StageFailed:
		return 3
	default:
		return 0
	}
}

func (s Stage) message() string {
	switch s {
	case StageResearch:
		return "retrieving documents"
	case StageAnalyze:
		return "generating answer"
	case StageValidate:
		return "validating answer"
	case StageExtract:
		return "building intelligence report"
	case StageDone:
		return "analysis complete"
	case StageFailed:
		return "analysis failed"
	default:
		return ""
	}
}

// next is the pure transition function. Validation failure routes back
// to research until the attempt budget is spent, then terminates with
// the last answer surfaced and is_valid=false.
func next(stage Stage, state *State, maxAttempts int) Stage {
	switch stage {
	case StageResearch:
		return StageAnalyze
	case StageAnalyze:
		return StageValidate
	case StageValidate:
		if state.IsValid {
			return StageExtract
		}
		if state.ResearchAttempts >= maxAttempts {
			return StageFailed
		}
		return StageResearch
	case StageExtract:
		return StageDone
	default:
		return StageDone
	}
}

// Runner executes the pipeline for one run. A Runner is stateless across
// runs; each run owns its State exclusively.
type Runner struct {
	Researcher *Researcher
	Generator  *Generator
	Validator  *Validator
	Extractor  *Extractor
	Progress   *ProgressStore

	MaxResearchAttempts int
}

// Run drives the state machine to DONE or FAILED. It returns an error
// only for hard failures (scope, external services); a spent retry
// budget is a normal termination whose result carries is_valid=false.
func (r *Runner) Run(ctx context.Context, state *State) error {
	maxAttempts := r.MaxResearchAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxResearchAttempts
	}

	stage := StageResearch
	for {
		r.snapshot(ctx, state, stage, StatusProcessing)

		switch stage {
		case StageResearch:
			if err := r.Researcher.Research(ctx, state); err != nil {
				return err
			}
		case StageAnalyze:
			if err := r.Generator.Generate(ctx, state); err != nil {
				return err
			}
		case StageValidate:
			if err := r.Validator.Validate(ctx, state); err != nil {
				return err
			}
			if !state.IsValid && state.ResearchAttempts < maxAttempts {
				metrics.IncValidationRetry()
			}
		case StageExtract:
			state.Hub = r.Extractor.Extract(ctx, state)
		case StageDone:
			conf := AggregateConfidence(state.RetrievalScores, state.GenerationLogProbs)
			state.Confidence = &conf
			r.snapshot(ctx, state, StageExtract, StatusCompleted)
			return nil
		case StageFailed:
			conf := AggregateConfidence(state.RetrievalScores, state.GenerationLogProbs)
			state.Confidence = &conf
			return fmt.Errorf("validation failed after %d research attempts", state.ResearchAttempts)
		}

		stage = next(stage, state, maxAttempts)
	}
}

func (r *Runner) snapshot(ctx context.Context, state *State, stage Stage, status string) {
	if r.Progress == nil {
		return
	}
	msg := stage.message()
	if status == StatusCompleted {
		msg = StageDone.message()
	}
	r.Progress.WriteSnapshot(ctx, state.UserID, state.DocumentID, ProgressSnapshot{
		Status:        status,
		CurrentStage:  stage.String(),
		StageIndex:    stage.index(),
		TotalStages:   totalStages,
		StatusMessage: msg,
		UpdatedAt:     time.Now().UTC(),
	})
}
