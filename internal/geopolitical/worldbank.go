package geopolitical

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const worldBankBaseURL = "https://api.worldbank.org/v2"

// Governance indicators polled per country. Values are estimates on a
// roughly -2.5..2.5 scale where lower is worse.
var worldBankIndicators = map[string]string{
	"PV.EST": "Political Stability",
	"RQ.EST": "Regulatory Quality",
	"RL.EST": "Rule of Law",
	"CC.EST": "Control of Corruption",
}

// WorldBankFeed reads governance indicators from the public World Bank
// API. The API is keyless; responses are cached per country for the
// lifetime of a single enrichment call by the caller, not here.
type WorldBankFeed struct {
	baseURL    string
	httpClient *http.Client
}

func NewWorldBankFeed() *WorldBankFeed {
	return &WorldBankFeed{
		baseURL:    worldBankBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetCountryRisks fetches the latest value for each governance indicator
// and converts sufficiently negative estimates into risk annotations.
func (f *WorldBankFeed) GetCountryRisks(ctx context.Context, country string) ([]Risk, error) {
	code, ok := countryISO3[strings.ToLower(country)]
	if !ok {
		return nil, fmt.Errorf("worldbank: unknown country %q", country)
	}

	var risks []Risk
	for indicator, label := range worldBankIndicators {
		value, date, err := f.latestIndicator(ctx, code, indicator)
		if err != nil {
			// One failed indicator should not sink the rest.
			continue
		}
		severity := indicatorSeverity(value)
		if severity == "" {
			continue
		}
		risks = append(risks, Risk{
			Name:        label,
			Severity:    severity,
			Description: fmt.Sprintf("%s estimate for %s is %.2f (scale -2.5 to 2.5, lower is worse)", label, country, value),
			Source:      "World Bank Worldwide Governance Indicators",
			Date:        date,
		})
	}
	return risks, nil
}

func indicatorSeverity(value float64) string {
	switch {
	case value < -1.0:
		return SeverityHigh
	case value < 0:
		return SeverityMed
	default:
		return ""
	}
}

func (f *WorldBankFeed) latestIndicator(ctx context.Context, countryCode, indicator string) (float64, string, error) {
	u := fmt.Sprintf("%s/country/%s/indicator/%s?format=json&per_page=5&mrv=5",
		f.baseURL, url.PathEscape(countryCode), url.PathEscape(indicator))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, "", err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<12))
		return 0, "", fmt.Errorf("worldbank: status %d for %s/%s", resp.StatusCode, countryCode, indicator)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, "", err
	}

	// Response shape is [metadata, [points...]].
	var envelope []json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0, "", fmt.Errorf("worldbank: decode envelope: %w", err)
	}
	if len(envelope) < 2 {
		return 0, "", fmt.Errorf("worldbank: short envelope for %s/%s", countryCode, indicator)
	}

	var points []struct {
		Date  string   `json:"date"`
		Value *float64 `json:"value"`
	}
	if err := json.Unmarshal(envelope[1], &points); err != nil {
		return 0, "", fmt.Errorf("worldbank: decode points: %w", err)
	}
	for _, p := range points {
		if p.Value != nil {
			return *p.Value, p.Date, nil
		}
	}
	return 0, "", fmt.Errorf("worldbank: no data for %s/%s", countryCode, indicator)
}

// countryISO3 maps detectable jurisdiction names to World Bank country
// codes. Only jurisdictions the detector can emit need entries here.
var countryISO3 = map[string]string{
	"united states":  "USA",
	"china":          "CHN",
	"taiwan":         "TWN",
	"japan":          "JPN",
	"south korea":    "KOR",
	"india":          "IND",
	"germany":        "DEU",
	"france":         "FRA",
	"united kingdom": "GBR",
	"brazil":         "BRA",
	"mexico":         "MEX",
	"russia":         "RUS",
	"indonesia":      "IDN",
	"vietnam":        "VNM",
	"israel":         "ISR",
	"saudi arabia":   "SAU",
	"netherlands":    "NLD",
	"ireland":        "IRL",
	"singapore":      "SGP",
	"canada":         "CAN",
}
