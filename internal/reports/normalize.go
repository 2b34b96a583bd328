package reports

import (
	"fmt"
	"math"
	"sort"
)

// Normalize turns any backend payload into canonical data for t. It never
// fails for a known type: every absent, mistyped or out-of-range field is
// replaced by its default. A nil payload yields the pure fallback.
func Normalize(t ReportType, raw map[string]any, input FormInput) (Analysis, error) {
	switch t {
	case TypeBusinessMap:
		bm := normalizeBusinessMap(raw, input)
		return Analysis{BusinessMap: &bm}, nil
	case TypeBlueOcean:
		bo := normalizeBlueOcean(raw, input)
		return Analysis{BlueOcean: &bo}, nil
	case TypeSEO:
		s := normalizeSEO(raw, input)
		return Analysis{SEO: &s}, nil
	}
	return Analysis{}, fmt.Errorf("%w: %q", ErrUnknownReportType, string(t))
}

// Fallback derives canonical data from the form input alone. The same input
// always yields the same analysis.
func Fallback(t ReportType, input FormInput) (Analysis, error) {
	return Normalize(t, nil, input)
}

func normalizeBusinessMap(raw map[string]any, input FormInput) BusinessMapAnalysis {
	def := defaultBusinessMap(input)
	out := BusinessMapAnalysis{
		Strengths:       textListOr(raw["strengths"], def.Strengths),
		Weaknesses:      textListOr(raw["weaknesses"], def.Weaknesses),
		Opportunities:   textListOr(raw["opportunities"], def.Opportunities),
		Threats:         textListOr(raw["threats"], def.Threats),
		Recommendations: normalizeRecommendations(raw["recommendations"], def.Recommendations),
	}

	// The radar always has exactly six axes.
	n := len(defaultCategories)
	categories, _ := textList(raw["categories"])
	out.Categories = fitTexts(categories, n, func(i int) string { return defaultCategories[i] })
	out.Values = numbersAt(raw["values"], n, 0, 10, cycle(defaultCategoryValues))

	out.MarketData = normalizeMarketData(raw["market_data"])
	out.GrowthData = normalizeGrowthData(raw["growth_data"])
	out.MonthlyRevenue, out.Employees = businessFigures(input)
	return out
}

// businessFigures reads the optional revenue and headcount from the form.
// Negative values are ignored.
func businessFigures(input FormInput) (*float64, *int) {
	var revenue *float64
	var employees *int
	if f, ok := input.Number("monthly_revenue"); ok && f >= 0 {
		revenue = &f
	}
	if f, ok := input.Number("employees"); ok && f >= 0 {
		n := int(math.Round(f))
		employees = &n
	}
	return revenue, employees
}

// normalizeMarketData keeps up to five valid entries ordered by label and pads
// from the defaults.
func normalizeMarketData(v any) []LabeledValue {
	m, ok := asMap(v)
	if !ok {
		return append([]LabeledValue(nil), defaultMarketData...)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]LabeledValue, 0, marketDataSize)
	seen := map[string]bool{}
	for _, k := range keys {
		if len(out) == marketDataSize {
			break
		}
		label, ok := asText(k)
		if !ok {
			continue
		}
		if f, ok := inRange(m[k], 0, 10); ok {
			out = append(out, LabeledValue{Label: label, Value: f})
			seen[label] = true
		}
	}
	for _, d := range defaultMarketData {
		if len(out) == marketDataSize {
			break
		}
		if !seen[d.Label] {
			out = append(out, d)
		}
	}
	return out
}

// normalizeGrowthData keeps any finite quarter value; a negative one is a
// forecast decline.
func normalizeGrowthData(v any) []LabeledValue {
	m, _ := asMap(v)
	out := make([]LabeledValue, len(defaultGrowthData))
	for i, d := range defaultGrowthData {
		out[i] = d
		if f, ok := asNumber(m[d.Label]); ok {
			out[i].Value = f
		}
	}
	return out
}

func normalizeBlueOcean(raw map[string]any, input FormInput) BlueOceanAnalysis {
	def := defaultBlueOcean(input)
	out := BlueOceanAnalysis{
		Eliminate:       textListOr(raw["eliminate"], def.Eliminate),
		Reduce:          textListOr(raw["reduce"], def.Reduce),
		Raise:           textListOr(raw["raise"], def.Raise),
		Create:          textListOr(raw["create"], def.Create),
		Recommendations: normalizeRecommendations(raw["recommendations"], def.Recommendations),
	}

	// canvas_factors drives the length of both value series.
	factors := textListOr(raw["canvas_factors"], def.CanvasFactors)
	if len(factors) > maxCanvasFactors {
		factors = factors[:maxCanvasFactors]
	}
	out.CanvasFactors = factors
	out.YourValues = numbersAt(raw["your_values"], len(factors), 0, 10, cycle(defaultYourValues))
	out.IndustryValues = numbersAt(raw["industry_values"], len(factors), 0, 10, cycle(defaultIndustryValues))
	return out
}

func normalizeSEO(raw map[string]any, input FormInput) SEOAnalysis {
	def := defaultSEO(input)
	out := SEOAnalysis{
		OverallScore:    def.OverallScore,
		Recommendations: normalizeRecommendations(raw["recommendations"], def.Recommendations),
	}
	if f, ok := inRange(raw["overall_score"], 0, 100); ok {
		out.OverallScore = f
	}

	kd, _ := asMap(raw["keywords_data"])
	keywords := textListOr(kd["keywords"], def.KeywordsData.Keywords)
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	n := len(keywords)
	out.KeywordsData = KeywordData{
		Keywords:      keywords,
		Positions:     intsAt(kd["positions"], n, 1, 100, cycleInts(defaultPositions)),
		SearchVolumes: intsAt(kd["search_volumes"], n, 0, 1e12, cycleInts(defaultSearchVolumes)),
		Competition:   numbersAt(kd["competition"], n, 0, 1, cycle(defaultCompetition)),
	}

	out.TrafficSources = normalizeTraffic(raw["traffic_sources"], def.TrafficSources)
	out.OptimizationOpportunities = normalizeOpportunities(raw["optimization_opportunities"])
	return out
}

func normalizeTraffic(v any, def TrafficSources) TrafficSources {
	m, _ := asMap(v)
	sources, ok := textList(m["sources"])
	if !ok {
		return def
	}
	if len(sources) > maxTrafficSource {
		sources = sources[:maxTrafficSource]
	}
	weights := numbersAt(m["percentages"], len(sources), 0, 100, cycle(defaultTrafficShares))
	pct, ok := normalizePercentages(weights)
	if !ok {
		return def
	}
	return TrafficSources{Sources: sources, Percentages: pct}
}

func normalizeOpportunities(v any) []OptimizationArea {
	items, ok := asList(v)
	if !ok {
		return defaultOptimizationAreas()
	}
	defaults := defaultOptimizationAreas()
	out := make([]OptimizationArea, 0, len(items))
	for _, item := range items {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		slot := defaults[len(out)%len(defaults)]
		area, ok := asText(m["area"])
		if !ok {
			area = fmt.Sprintf("Area %d", len(out)+1)
		}
		o := OptimizationArea{
			Area:            area,
			Impact:          slot.Impact,
			Difficulty:      slot.Difficulty,
			Recommendations: textListOr(m["recommendations"], []string{fmt.Sprintf("Review %s performance", area)}),
		}
		if f, ok := inRange(m["impact"], 0, 100); ok {
			o.Impact = f
		}
		if f, ok := inRange(m["difficulty"], 0, 100); ok {
			o.Difficulty = f
		}
		out = append(out, o)
	}
	if len(out) == 0 {
		return defaults
	}
	return out
}

// normalizeRecommendations drops non-object items and fills blank titles and
// descriptions. An empty result is replaced by def.
func normalizeRecommendations(v any, def []Recommendation) []Recommendation {
	items, _ := asList(v)
	out := make([]Recommendation, 0, len(items))
	for _, item := range items {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		title, hasTitle := asText(m["title"])
		desc, hasDesc := asText(m["description"])
		if !hasTitle && !hasDesc {
			continue
		}
		if !hasTitle {
			title = fmt.Sprintf("Recommendation %d", len(out)+1)
		}
		if !hasDesc {
			desc = fmt.Sprintf("Put %s on the roadmap for the next planning cycle.", title)
		}
		actions, _ := textList(m["action_items"])
		if actions == nil {
			actions = []string{}
		}
		out = append(out, Recommendation{Title: title, Description: desc, ActionItems: actions})
	}
	if len(out) == 0 {
		return cloneRecommendations(def)
	}
	return out
}
