package analysis

import (
	"fmt"
	"strings"
)

// Icon enums the dashboard can render. Extraction output outside these
// sets is a schema violation.
var (
	highlightIcons = map[string]struct{}{
		"trending-up":    {},
		"trending-down":  {},
		"dollar-sign":    {},
		"alert-triangle": {},
		"info":           {},
	}
	riskFactorIcons = map[string]struct{}{
		"shield":         {},
		"alert-triangle": {},
		"globe":          {},
		"trending-down":  {},
		"scale":          {},
	}
)

var riskLevels = map[string]struct{}{
	"Low":      {},
	"Moderate": {},
	"High":     {},
}

var severities = map[string]struct{}{
	"LOW":  {},
	"MED":  {},
	"HIGH": {},
}

type Highlight struct {
	Icon        string `json:"icon"`
	Text        string `json:"text"`
	MetricValue string `json:"metric_value,omitempty"`
}

type Sentiment struct {
	Score       int    `json:"score"`
	Change      string `json:"change,omitempty"`
	Description string `json:"description"`
}

type RiskSummary struct {
	Level       string `json:"level"`
	Description string `json:"description"`
}

type RiskFactor struct {
	Icon     string `json:"icon"`
	Name     string `json:"name"`
	Severity string `json:"severity"`
}

// HubReport is the structured extraction output. Once produced it is
// immutable; degraded fallbacks are flagged, never silently substituted.
type HubReport struct {
	KeyHighlights      []Highlight  `json:"key_highlights"`
	Sentiment          Sentiment    `json:"sentiment"`
	Risk               RiskSummary  `json:"risk"`
	RiskFactors        []RiskFactor `json:"risk_factors"`
	SuggestedQuestions []string     `json:"suggested_questions"`
	Degraded           bool         `json:"degraded,omitempty"`
}

// Validate enforces the report schema: arity bounds, enum membership,
// and required text fields.
func (r *HubReport) Validate() error {
	if n := len(r.KeyHighlights); n < 3 || n > 5 {
		return fmt.Errorf("schema: key_highlights must have 3-5 items, got %d", n)
	}
	for i, h := range r.KeyHighlights {
		if _, ok := highlightIcons[h.Icon]; !ok {
			return fmt.Errorf("schema: key_highlights[%d] icon %q not allowed", i, h.Icon)
		}
		if strings.TrimSpace(h.Text) == "" {
			return fmt.Errorf("schema: key_highlights[%d] text is empty", i)
		}
	}

	if r.Sentiment.Score < 0 || r.Sentiment.Score > 100 {
		return fmt.Errorf("schema: sentiment.score %d out of range 0-100", r.Sentiment.Score)
	}
	if strings.TrimSpace(r.Sentiment.Description) == "" {
		return fmt.Errorf("schema: sentiment.description is empty")
	}

	if _, ok := riskLevels[r.Risk.Level]; !ok {
		return fmt.Errorf("schema: risk.level %q not in {Low, Moderate, High}", r.Risk.Level)
	}
	if strings.TrimSpace(r.Risk.Description) == "" {
		return fmt.Errorf("schema: risk.description is empty")
	}

	if n := len(r.RiskFactors); n < 2 || n > 4 {
		return fmt.Errorf("schema: risk_factors must have 2-4 items, got %d", n)
	}
	for i, f := range r.RiskFactors {
		if _, ok := riskFactorIcons[f.Icon]; !ok {
			return fmt.Errorf("schema: risk_factors[%d] icon %q not allowed", i, f.Icon)
		}
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("schema: risk_factors[%d] name is empty", i)
		}
		if _, ok := severities[f.Severity]; !ok {
			return fmt.Errorf("schema: risk_factors[%d] severity %q not in {LOW, MED, HIGH}", i, f.Severity)
		}
	}

	if len(r.SuggestedQuestions) != 3 {
		return fmt.Errorf("schema: suggested_questions must have exactly 3 items, got %d", len(r.SuggestedQuestions))
	}
	for i, q := range r.SuggestedQuestions {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("schema: suggested_questions[%d] is empty", i)
		}
	}
	return nil
}

// SentimentLabel buckets the 0-100 score for the dashboard row.
func (r *HubReport) SentimentLabel() string {
	switch {
	case r.Sentiment.Score >= 65:
		return "positive"
	case r.Sentiment.Score <= 35:
		return "negative"
	default:
		return "neutral"
	}
}
