package reports

import (
	"fmt"
	"net/url"
	"strings"
)

// Dataset keys each report type must carry for its dashboard.
const (
	DatasetRadarChart            = "radar_chart"
	DatasetMarketComparison      = "market_comparison"
	DatasetGrowthPotential       = "growth_potential"
	DatasetSWOTSummary           = "swot_summary"
	DatasetRevenueProjection     = "revenue_projection"
	DatasetStrategyCanvas        = "strategy_canvas"
	DatasetERRCActions           = "errc_actions"
	DatasetPerformanceProjection = "performance_projection"
	DatasetKeywordPerformance    = "keyword_performance"
	DatasetTrafficSources        = "traffic_sources"
	DatasetOptimizationMatrix    = "optimization_matrix"
	DatasetOverallScore          = "overall_score"
)

type Definition struct {
	Type             ReportType `json:"type"`
	DisplayName      string     `json:"display_name"`
	Description      string     `json:"description"`
	RequiredFields   []string   `json:"required_fields"`
	OptionalFields   []string   `json:"optional_fields"`
	Datasets         []string   `json:"datasets"`
	OptionalDatasets []string   `json:"optional_datasets,omitempty"` // present only when the input supports them
	urlFields        []string
}

var catalog = []Definition{
	{
		Type:             TypeBusinessMap,
		DisplayName:      "Business Map",
		Description:      "SWOT analysis, category radar, market comparison and growth outlook.",
		RequiredFields:   []string{"business_name", "main_products", "target_audience"},
		OptionalFields:   []string{"industry", "business_model", "monthly_revenue", "employees", "competitors", "marketing_channels", "growth_stage"},
		Datasets:         []string{DatasetRadarChart, DatasetMarketComparison, DatasetGrowthPotential, DatasetSWOTSummary},
		OptionalDatasets: []string{DatasetRevenueProjection},
	},
	{
		Type:           TypeBlueOcean,
		DisplayName:    "Xperience Report (Blue Ocean)",
		Description:    "Eliminate-reduce-raise-create grid, strategy canvas and five-year projection.",
		RequiredFields: []string{"business_name", "products_services", "target_customers"},
		OptionalFields: []string{"competitors", "differentials", "challenges", "goals", "strengths", "limitations"},
		Datasets:       []string{DatasetStrategyCanvas, DatasetERRCActions, DatasetPerformanceProjection},
	},
	{
		Type:           TypeSEO,
		DisplayName:    "SEO Report",
		Description:    "Keyword positions, traffic mix and ranked optimization opportunities.",
		RequiredFields: []string{"business_name", "website_url", "keywords"},
		OptionalFields: []string{"competitors", "digital_channels", "site_age", "goals", "target_audience"},
		Datasets:       []string{DatasetKeywordPerformance, DatasetTrafficSources, DatasetOptimizationMatrix, DatasetOverallScore},
		urlFields:      []string{"website_url"},
	},
}

// Types returns the catalog in display order.
func Types() []Definition {
	out := make([]Definition, len(catalog))
	for i, d := range catalog {
		out[i] = d.clone()
	}
	return out
}

func Lookup(t ReportType) (Definition, error) {
	for _, d := range catalog {
		if d.Type == t {
			return d.clone(), nil
		}
	}
	return Definition{}, fmt.Errorf("%w: %q", ErrUnknownReportType, string(t))
}

func ParseReportType(s string) (ReportType, error) {
	t := ReportType(strings.ToLower(strings.TrimSpace(s)))
	if _, err := Lookup(t); err != nil {
		return "", err
	}
	return t, nil
}

func RequiredFields(t ReportType) ([]string, error) {
	d, err := Lookup(t)
	if err != nil {
		return nil, err
	}
	return d.RequiredFields, nil
}

func IsValid(t ReportType, input FormInput) bool {
	return Validate(t, input) == nil
}

// Validate checks that every required field is present and non-blank and that
// URL fields hold an absolute http(s) URL. It has no side effects.
func Validate(t ReportType, input FormInput) error {
	d, err := Lookup(t)
	if err != nil {
		return err
	}
	verr := &InvalidInputError{Type: t}
	for _, field := range d.RequiredFields {
		if !present(input[field]) {
			verr.Missing = append(verr.Missing, field)
		}
	}
	for _, field := range d.urlFields {
		if present(input[field]) && !validURL(input.String(field)) {
			verr.Invalid = append(verr.Invalid, field)
		}
	}
	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return verr
	}
	return nil
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []string:
		return len(trimmedNonEmpty(t)) > 0
	case []any:
		return len(FormInput{"v": t}.List("v")) > 0
	default:
		return true
	}
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (d Definition) clone() Definition {
	out := d
	out.RequiredFields = append([]string(nil), d.RequiredFields...)
	out.OptionalFields = append([]string(nil), d.OptionalFields...)
	out.Datasets = append([]string(nil), d.Datasets...)
	out.OptionalDatasets = append([]string(nil), d.OptionalDatasets...)
	return out
}
