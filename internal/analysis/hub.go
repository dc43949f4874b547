package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"ledgerlens-backend/internal/llm"
	"ledgerlens-backend/internal/shared/telemetry"
)

const extractionSystemPrompt = `You are a financial intelligence analyst.
Convert the question, context, and answer into a JSON report with EXACTLY
this shape:
{
  "key_highlights": [3 to 5 of {"icon": one of trending-up|trending-down|dollar-sign|alert-triangle|info, "text": string, "metric_value": optional string}],
  "sentiment": {"score": integer 0-100, "change": optional string, "description": string},
  "risk": {"level": one of Low|Moderate|High, "description": string},
  "risk_factors": [2 to 4 of {"icon": one of shield|alert-triangle|globe|trending-down|scale, "name": string, "severity": one of LOW|MED|HIGH}],
  "suggested_questions": [exactly 3 strings]
}
Use only figures present in the context or answer. Output JSON only.`

const hubRepairSystemMessage = "Fix the JSON to satisfy all schema constraints: 3-5 key_highlights, 2-4 risk_factors, exactly 3 suggested_questions, allowed icon and severity values only. Keep content the same. Output JSON only."

// Extractor converts (question, context, answer) into a HubReport.
type Extractor struct {
	LLM llm.Client
}

// Extract enforces the report schema with a single repair retry. On any
// remaining parse or schema failure it returns the fixed degraded report
// instead of an error; extraction never fails a run.
func (e *Extractor) Extract(ctx context.Context, state *State) *HubReport {
	report, err := e.extractOnce(ctx, state)
	if err == nil {
		return report
	}
	telemetry.Warn("hub extraction attempt failed", map[string]any{
		"document_id": state.DocumentID,
		"error":       sanitizeError(err),
	})

	ctxRetry := llm.WithExtraSystemMessage(ctx, hubRepairSystemMessage)
	report, err = e.extractOnce(ctxRetry, state)
	if err == nil {
		return report
	}
	telemetry.Warn("hub extraction degraded", map[string]any{
		"document_id": state.DocumentID,
		"error":       sanitizeError(err),
	})
	return degradedReport()
}

func (e *Extractor) extractOnce(ctx context.Context, state *State) (*HubReport, error) {
	prompt := fmt.Sprintf("Question: %s\n\nContext:\n%s\n\nAnswer:\n%s\n",
		state.Question, state.fullContext(), state.Answer)
	completion, err := e.LLM.Complete(ctx, llm.CompleteRequest{
		System:     extractionSystemPrompt,
		Prompt:     prompt,
		JSONOutput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("llm extract: %w", err)
	}

	var report HubReport
	if err := json.Unmarshal([]byte(completion.Text), &report); err != nil {
		return nil, fmt.Errorf("llm output invalid: %w", err)
	}
	if err := report.Validate(); err != nil {
		return nil, err
	}
	return &report, nil
}

// degradedReport is the fixed fallback payload. It keeps the report
// shape pollable while making the failure unmistakable.
func degradedReport() *HubReport {
	return &HubReport{
		KeyHighlights: []Highlight{
			{Icon: "info", Text: "Insufficient data to extract highlights."},
			{Icon: "info", Text: "The analysis output could not be parsed."},
			{Icon: "alert-triangle", Text: "Re-run the analysis or try a narrower question."},
		},
		Sentiment: Sentiment{
			Score:       50,
			Description: "Insufficient data to assess sentiment.",
		},
		Risk: RiskSummary{
			Level:       "Moderate",
			Description: "Insufficient data to assess risk.",
		},
		RiskFactors: []RiskFactor{
			{Icon: "alert-triangle", Name: "Analysis Error", Severity: "MED"},
		},
		SuggestedQuestions: []string{
			"What was the total revenue for the period?",
			"What are the main risk factors disclosed?",
			"How did operating margins change year over year?",
		},
		Degraded: true,
	}
}
