package geopolitical

import (
	"context"
	"fmt"
	"strings"

	"ledgerlens-backend/internal/shared/telemetry"
)

// Enricher produces a supplemental risk appendix for retrieved filing
// text. Every failure path returns an empty string: enrichment is
// strictly additive and must never fail an analysis run.
type Enricher struct {
	feed Feed
}

func NewEnricher(feed Feed) *Enricher {
	return &Enricher{feed: feed}
}

// Enrich detects the dominant jurisdiction in the supplied text, fetches
// consolidated risk annotations for it, and renders a labeled appendix
// block. Returns "" when nothing useful can be produced.
func (e *Enricher) Enrich(ctx context.Context, text string) string {
	if e == nil || e.feed == nil || strings.TrimSpace(text) == "" {
		return ""
	}

	country := DetectJurisdiction(text)
	if country == "" {
		return ""
	}

	risks, err := e.feed.GetCountryRisks(ctx, country)
	if err != nil {
		telemetry.Warn("geopolitical enrichment skipped", map[string]any{
			"country": country,
			"error":   err.Error(),
		})
		return ""
	}
	risks = ConsolidateRisks(risks)
	if len(risks) == 0 {
		return ""
	}
	return FormatAppendix(country, risks)
}

// FormatAppendix renders risks as a clearly labeled supplemental block so
// downstream prompts can distinguish it from document content.
func FormatAppendix(country string, risks []Risk) string {
	var b strings.Builder
	b.WriteString("--- Geopolitical Risk Context (supplemental, not from the document) ---\n")
	fmt.Fprintf(&b, "Jurisdiction: %s\n", country)
	for _, r := range risks {
		fmt.Fprintf(&b, "[%s] %s: %s", r.Severity, r.Name, r.Description)
		if r.Source != "" {
			fmt.Fprintf(&b, " (source: %s", r.Source)
			if r.Date != "" {
				fmt.Fprintf(&b, ", %s", r.Date)
			}
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// jurisdictionKeywords maps a canonical jurisdiction name to the phrases
// that count toward it. Matching is case-insensitive and frequency-based.
var jurisdictionKeywords = map[string][]string{
	"united states":  {"united states", "u.s.", "usa", "american", "federal reserve", "sec filing"},
	"china":          {"china", "chinese", "prc", "beijing", "shanghai"},
	"taiwan":         {"taiwan", "taiwanese", "tsmc", "taipei"},
	"japan":          {"japan", "japanese", "tokyo", "yen"},
	"south korea":    {"south korea", "korean", "seoul", "won-denominated"},
	"india":          {"india", "indian", "rupee", "mumbai"},
	"germany":        {"germany", "german", "frankfurt", "bundesbank"},
	"france":         {"france", "french", "paris"},
	"united kingdom": {"united kingdom", "u.k.", "british", "london", "sterling"},
	"brazil":         {"brazil", "brazilian", "real-denominated", "sao paulo"},
	"mexico":         {"mexico", "mexican", "peso"},
	"russia":         {"russia", "russian", "moscow", "ruble"},
	"indonesia":      {"indonesia", "indonesian", "jakarta", "rupiah"},
	"vietnam":        {"vietnam", "vietnamese", "hanoi"},
	"israel":         {"israel", "israeli", "tel aviv", "shekel"},
	"saudi arabia":   {"saudi arabia", "saudi", "riyadh", "riyal"},
	"netherlands":    {"netherlands", "dutch", "amsterdam"},
	"ireland":        {"ireland", "irish", "dublin"},
	"singapore":      {"singapore", "singaporean"},
	"canada":         {"canada", "canadian", "toronto", "ottawa"},
}

// DetectJurisdiction picks the jurisdiction whose keywords occur most
// often in the text. Ties break toward the lexicographically smaller
// name so detection is deterministic. Returns "" on no hits.
func DetectJurisdiction(text string) string {
	lower := strings.ToLower(text)

	best := ""
	bestCount := 0
	for country, keywords := range jurisdictionKeywords {
		count := 0
		for _, kw := range keywords {
			count += strings.Count(lower, kw)
		}
		if count > bestCount || (count == bestCount && count > 0 && country < best) {
			best = country
			bestCount = count
		}
	}
	if bestCount == 0 {
		return ""
	}
	return best
}
