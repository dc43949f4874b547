package geopolitical

import (
	"context"
	"sort"
)

// Severity levels for risk annotations, ordered LOW < MED < HIGH.
const (
	SeverityLow  = "LOW"
	SeverityMed  = "MED"
	SeverityHigh = "HIGH"
)

// Risk is one annotation from an external feed.
type Risk struct {
	Name        string `json:"name"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Date        string `json:"date"`
}

// Feed fetches risk annotations for a country. Implementations are
// best-effort: an empty list or an error both degrade to no enrichment.
type Feed interface {
	GetCountryRisks(ctx context.Context, country string) ([]Risk, error)
}

const maxRisks = 4

// ConsolidateRisks deduplicates risks by name keeping the highest
// severity, orders them HIGH to LOW, and caps the list at four entries.
func ConsolidateRisks(risks []Risk) []Risk {
	if len(risks) == 0 {
		return nil
	}

	byName := make(map[string]Risk, len(risks))
	order := make([]string, 0, len(risks))
	for _, r := range risks {
		existing, ok := byName[r.Name]
		if !ok {
			byName[r.Name] = r
			order = append(order, r.Name)
			continue
		}
		if severityRank(r.Severity) > severityRank(existing.Severity) {
			byName[r.Name] = r
		}
	}

	out := make([]Risk, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return severityRank(out[i].Severity) > severityRank(out[j].Severity)
	})
	if len(out) > maxRisks {
		out = out[:maxRisks]
	}
	return out
}

func severityRank(severity string) int {
	switch severity {
	case SeverityHigh:
		return 3
	case SeverityMed:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}
