package analysis

import (
	"fmt"
	"math"
)

// Confidence levels shown to the user.
const (
	ConfidenceHigh     = "high"
	ConfidenceModerate = "moderate"
	ConfidenceLow      = "low"
)

const densityThreshold = 0.75

// ConfidenceMetric is one gauge on the answer card.
type ConfidenceMetric struct {
	Label string  `json:"label"`
	Value string  `json:"value"`
	Ratio float64 `json:"ratio"`
}

// ConfidenceReport aggregates retrieval and generation signals into the
// three gauges plus an overall level.
type ConfidenceReport struct {
	OverallLevel   string           `json:"overallLevel"`
	SourceMatch    ConfidenceMetric `json:"sourceMatch"`
	ContextDensity ConfidenceMetric `json:"contextDensity"`
	AICertainty    ConfidenceMetric `json:"aiCertainty"`
}

// AggregateConfidence is pure: it derives every metric from the run's
// retrieval scores and generation log-probabilities. Missing signals
// degrade to 0.0 rather than erroring.
func AggregateConfidence(retrievalScores []float64, logProbs []float64) ConfidenceReport {
	sourceMatch := mean(retrievalScores)

	aiCertainty := 0.0
	if len(logProbs) > 0 {
		aiCertainty = math.Exp(mean(logProbs))
	}

	dense := 0
	for _, s := range retrievalScores {
		if s > densityThreshold {
			dense++
		}
	}
	densityRatio := 0.0
	if len(retrievalScores) > 0 {
		densityRatio = float64(dense) / float64(len(retrievalScores))
	}

	return ConfidenceReport{
		OverallLevel: overallLevel(sourceMatch, aiCertainty),
		SourceMatch: ConfidenceMetric{
			Label: "Source Match",
			Value: fmt.Sprintf("%.0f%%", sourceMatch*100),
			Ratio: sourceMatch,
		},
		ContextDensity: ConfidenceMetric{
			Label: "Context Density",
			Value: fmt.Sprintf("%d/%d chunks > 0.75", dense, len(retrievalScores)),
			Ratio: densityRatio,
		},
		AICertainty: ConfidenceMetric{
			Label: "AI Certainty",
			Value: fmt.Sprintf("%.0f%%", aiCertainty*100),
			Ratio: aiCertainty,
		},
	}
}

// overallLevel requires BOTH signals to clear a band: a strong source
// match cannot mask an uncertain generation, and vice versa.
func overallLevel(sourceMatch, aiCertainty float64) string {
	switch {
	case sourceMatch > 0.8 && aiCertainty > 0.8:
		return ConfidenceHigh
	case sourceMatch > 0.7 && aiCertainty > 0.6:
		return ConfidenceModerate
	default:
		return ConfidenceLow
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
