package analysis

import (
	"context"
	"strings"
	"testing"

	"ledgerlens-backend/internal/llm"
)

// scriptedLLM returns canned completions in order, repeating the last.
type scriptedLLM struct {
	responses []llm.Completion
	errs      []error
	calls     int
	requests  []llm.CompleteRequest
}

func (s *scriptedLLM) Complete(ctx context.Context, req llm.CompleteRequest) (llm.Completion, error) {
	s.requests = append(s.requests, req)
	i := s.calls
	s.calls++
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.responses[i], err
}

const validHubJSON = `{
  "key_highlights": [
    {"icon": "trending-up", "text": "Revenue was $130.5 billion, up 114% YoY", "metric_value": "114%"},
    {"icon": "dollar-sign", "text": "Data center revenue led growth"},
    {"icon": "info", "text": "Guidance raised for next quarter"}
  ],
  "sentiment": {"score": 78, "change": "+6", "description": "Strongly positive tone around growth"},
  "risk": {"level": "Moderate", "description": "Concentration in a single segment"},
  "risk_factors": [
    {"icon": "globe", "name": "Export Controls", "severity": "HIGH"},
    {"icon": "alert-triangle", "name": "Customer Concentration", "severity": "MED"}
  ],
  "suggested_questions": ["How is gross margin trending?", "What drives data center demand?", "What are supply constraints?"]
}`

func TestExtractParsesValidReport(t *testing.T) {
	client := &scriptedLLM{responses: []llm.Completion{{Text: validHubJSON}}}
	ex := &Extractor{LLM: client}
	state := &State{Question: "What was total revenue?", Contexts: []string{"Revenue was $130.5 billion, up 114% YoY"}, Answer: "Revenue was $130.5 billion [chunk 1]."}

	report := ex.Extract(context.Background(), state)
	if report.Degraded {
		t.Fatal("expected non-degraded report")
	}
	if report.KeyHighlights[0].MetricValue != "114%" {
		t.Fatalf("expected metric_value 114%%, got %q", report.KeyHighlights[0].MetricValue)
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 llm call, got %d", client.calls)
	}
}

func TestExtractPromptCarriesGeoAppendix(t *testing.T) {
	client := &scriptedLLM{responses: []llm.Completion{{Text: validHubJSON}}}
	ex := &Extractor{LLM: client}
	state := &State{
		Question:   "What are the key risks?",
		Contexts:   []string{"Revenue was $130.5 billion"},
		GeoContext: "Jurisdiction: Taiwan\n[HIGH] Political Stability: score -1.2",
		Answer:     "Growth is strong but political stability scored -1.2.",
	}

	ex.Extract(context.Background(), state)
	prompt := client.requests[0].Prompt
	if !strings.Contains(prompt, "score -1.2") {
		t.Fatalf("geo appendix missing from extraction context:\n%s", prompt)
	}
}

func TestExtractRepairRetryThenSuccess(t *testing.T) {
	client := &scriptedLLM{responses: []llm.Completion{
		{Text: `{"key_highlights": []}`},
		{Text: validHubJSON},
	}}
	ex := &Extractor{LLM: client}
	state := &State{Question: "q", Contexts: []string{"ctx"}, Answer: "a"}

	report := ex.Extract(context.Background(), state)
	if report.Degraded {
		t.Fatal("expected repaired report, got degraded")
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 llm calls, got %d", client.calls)
	}
}

func TestExtractMalformedOutputFallsBackToDegraded(t *testing.T) {
	client := &scriptedLLM{responses: []llm.Completion{{Text: "not json at all"}}}
	ex := &Extractor{LLM: client}
	state := &State{Question: "q", Contexts: []string{"ctx"}, Answer: "a"}

	report := ex.Extract(context.Background(), state)
	if !report.Degraded {
		t.Fatal("expected degraded report")
	}
	if report.Sentiment.Score != 50 {
		t.Fatalf("degraded sentiment score = %d, want 50", report.Sentiment.Score)
	}
	if len(report.RiskFactors) != 1 || report.RiskFactors[0].Name != "Analysis Error" || report.RiskFactors[0].Severity != "MED" {
		t.Fatalf("unexpected degraded risk factors: %+v", report.RiskFactors)
	}
	if len(report.SuggestedQuestions) != 3 {
		t.Fatalf("degraded report must keep 3 suggested questions, got %d", len(report.SuggestedQuestions))
	}
}

func TestHubReportValidateArity(t *testing.T) {
	base := func() *HubReport {
		var r HubReport
		r.KeyHighlights = []Highlight{
			{Icon: "info", Text: "a"}, {Icon: "info", Text: "b"}, {Icon: "info", Text: "c"},
		}
		r.Sentiment = Sentiment{Score: 60, Description: "ok"}
		r.Risk = RiskSummary{Level: "Low", Description: "ok"}
		r.RiskFactors = []RiskFactor{
			{Icon: "shield", Name: "x", Severity: "LOW"},
			{Icon: "globe", Name: "y", Severity: "HIGH"},
		}
		r.SuggestedQuestions = []string{"a?", "b?", "c?"}
		return &r
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid report rejected: %v", err)
	}

	r := base()
	r.KeyHighlights = r.KeyHighlights[:2]
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for 2 highlights")
	}

	r = base()
	r.RiskFactors = append(r.RiskFactors, RiskFactor{Icon: "scale", Name: "z", Severity: "LOW"},
		RiskFactor{Icon: "shield", Name: "w", Severity: "LOW"}, RiskFactor{Icon: "globe", Name: "v", Severity: "MED"})
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for 5 risk factors")
	}

	r = base()
	r.SuggestedQuestions = r.SuggestedQuestions[:2]
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for 2 suggested questions")
	}

	r = base()
	r.Sentiment.Score = 120
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for out-of-range sentiment score")
	}

	r = base()
	r.Risk.Level = "Severe"
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for unknown risk level")
	}

	r = base()
	r.RiskFactors[0].Severity = "CRITICAL"
	if err := r.Validate(); err == nil || !strings.Contains(err.Error(), "severity") {
		t.Fatalf("expected severity error, got %v", err)
	}
}
