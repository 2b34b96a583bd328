package reports

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type ReportType string

const (
	TypeBusinessMap ReportType = "business_map"
	TypeBlueOcean   ReportType = "blue_ocean"
	TypeSEO         ReportType = "seo"
)

// GenerationPath records which branch produced a report's canonical data.
type GenerationPath string

const (
	PathBackend  GenerationPath = "backend"
	PathFallback GenerationPath = "fallback"
)

// FormInput maps a field name to a scalar or list value as submitted by the caller.
type FormInput map[string]any

// String returns the field as trimmed text. Lists are joined with ", ".
func (f FormInput) String(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []string:
		return strings.Join(trimmedNonEmpty(t), ", ")
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			items = append(items, FormInput{"v": item}.String("v"))
		}
		return strings.Join(trimmedNonEmpty(items), ", ")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// List returns the field as a list of trimmed, non-empty strings. A scalar
// string is split on commas.
func (f FormInput) List(key string) []string {
	v, ok := f[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		return trimmedNonEmpty(strings.Split(t, ","))
	case []string:
		return trimmedNonEmpty(t)
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			items = append(items, FormInput{"v": item}.String("v"))
		}
		return trimmedNonEmpty(items)
	default:
		s := f.String(key)
		if s == "" {
			return nil
		}
		return []string{s}
	}
}

// StringOr returns the field text or def when the field is blank.
func (f FormInput) StringOr(key, def string) string {
	if s := f.String(key); s != "" {
		return s
	}
	return def
}

// Number parses a numeric field. Strings may carry a currency prefix and
// comma thousands separators ("$12,500.50").
func (f FormInput) Number(key string) (float64, bool) {
	v := f[key]
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		s = strings.TrimLeft(s, "R$€£ ")
		v = strings.ReplaceAll(s, ",", "")
	}
	return asNumber(v)
}

// Clone returns a deep copy so the caller's map can change without touching
// a stored snapshot.
func (f FormInput) Clone() FormInput {
	if f == nil {
		return FormInput{}
	}
	out := make(FormInput, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[k] = cloneValue(item)
		}
		return m
	case FormInput:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, item := range t {
			s[i] = cloneValue(item)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	case []float64:
		return append([]float64(nil), t...)
	case []int:
		return append([]int(nil), t...)
	default:
		return v
	}
}

func trimmedNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type Recommendation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ActionItems []string `json:"action_items"`
}

// Dataset is a visualization-ready series set sharing one label axis.
type Dataset struct {
	Labels []string             `json:"labels"`
	Series map[string][]float64 `json:"series"`
}

type LabeledValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// BusinessMapAnalysis carries MonthlyRevenue and Employees from the form
// input, never from the backend; they are nil when the input has no usable
// figure.
type BusinessMapAnalysis struct {
	Strengths       []string         `json:"strengths"`
	Weaknesses      []string         `json:"weaknesses"`
	Opportunities   []string         `json:"opportunities"`
	Threats         []string         `json:"threats"`
	Recommendations []Recommendation `json:"recommendations"`
	Categories      []string         `json:"categories"`
	Values          []float64        `json:"values"`
	MarketData      []LabeledValue   `json:"market_data"`
	GrowthData      []LabeledValue   `json:"growth_data"`
	MonthlyRevenue  *float64         `json:"monthly_revenue,omitempty"`
	Employees       *int             `json:"employees,omitempty"`
}

type BlueOceanAnalysis struct {
	Eliminate       []string         `json:"eliminate"`
	Reduce          []string         `json:"reduce"`
	Raise           []string         `json:"raise"`
	Create          []string         `json:"create"`
	CanvasFactors   []string         `json:"canvas_factors"`
	YourValues      []float64        `json:"your_values"`
	IndustryValues  []float64        `json:"industry_values"`
	Recommendations []Recommendation `json:"recommendations"`
}

type KeywordData struct {
	Keywords      []string  `json:"keywords"`
	Positions     []int     `json:"positions"`
	SearchVolumes []int     `json:"search_volumes"`
	Competition   []float64 `json:"competition"`
}

type TrafficSources struct {
	Sources     []string `json:"sources"`
	Percentages []int    `json:"percentages"`
}

type OptimizationArea struct {
	Area            string   `json:"area"`
	Impact          float64  `json:"impact"`
	Difficulty      float64  `json:"difficulty"`
	Recommendations []string `json:"recommendations"`
}

type SEOAnalysis struct {
	OverallScore              float64            `json:"overall_score"`
	KeywordsData              KeywordData        `json:"keywords_data"`
	TrafficSources            TrafficSources     `json:"traffic_sources"`
	OptimizationOpportunities []OptimizationArea `json:"optimization_opportunities"`
	Recommendations           []Recommendation   `json:"recommendations"`
}

// Analysis holds the canonical data for exactly one report type.
type Analysis struct {
	BusinessMap *BusinessMapAnalysis `json:"business_map,omitempty"`
	BlueOcean   *BlueOceanAnalysis   `json:"blue_ocean,omitempty"`
	SEO         *SEOAnalysis         `json:"seo,omitempty"`
}

func (a Analysis) Recommendations() []Recommendation {
	switch {
	case a.BusinessMap != nil:
		return a.BusinessMap.Recommendations
	case a.BlueOcean != nil:
		return a.BlueOcean.Recommendations
	case a.SEO != nil:
		return a.SEO.Recommendations
	}
	return nil
}

type Report struct {
	ID               string             `json:"id"`
	Type             ReportType         `json:"type"`
	DisplayName      string             `json:"display_name"`
	Title            string             `json:"title"`
	GeneratedAt      time.Time          `json:"generated_at"`
	Input            FormInput          `json:"input"`
	ExecutiveSummary string             `json:"executive_summary"`
	Recommendations  []Recommendation   `json:"recommendations"`
	Conclusion       string             `json:"conclusion"`
	DerivedDatasets  map[string]Dataset `json:"derived_datasets"`
	Analysis         Analysis           `json:"analysis"`
	Source           GenerationPath     `json:"source"`
	FallbackReason   string             `json:"fallback_reason,omitempty"`
}

// Clone returns a copy that shares no mutable state with r.
func (r Report) Clone() Report {
	out := r
	out.Input = r.Input.Clone()
	out.Recommendations = cloneRecommendations(r.Recommendations)
	out.DerivedDatasets = make(map[string]Dataset, len(r.DerivedDatasets))
	for name, ds := range r.DerivedDatasets {
		out.DerivedDatasets[name] = ds.clone()
	}
	out.Analysis = r.Analysis.clone()
	return out
}

func (d Dataset) clone() Dataset {
	out := Dataset{Labels: append([]string(nil), d.Labels...), Series: make(map[string][]float64, len(d.Series))}
	for k, v := range d.Series {
		out.Series[k] = append([]float64(nil), v...)
	}
	return out
}

func (a Analysis) clone() Analysis {
	var out Analysis
	if a.BusinessMap != nil {
		bm := *a.BusinessMap
		bm.Strengths = append([]string(nil), bm.Strengths...)
		bm.Weaknesses = append([]string(nil), bm.Weaknesses...)
		bm.Opportunities = append([]string(nil), bm.Opportunities...)
		bm.Threats = append([]string(nil), bm.Threats...)
		bm.Recommendations = cloneRecommendations(bm.Recommendations)
		bm.Categories = append([]string(nil), bm.Categories...)
		bm.Values = append([]float64(nil), bm.Values...)
		bm.MarketData = append([]LabeledValue(nil), bm.MarketData...)
		bm.GrowthData = append([]LabeledValue(nil), bm.GrowthData...)
		if bm.MonthlyRevenue != nil {
			v := *bm.MonthlyRevenue
			bm.MonthlyRevenue = &v
		}
		if bm.Employees != nil {
			v := *bm.Employees
			bm.Employees = &v
		}
		out.BusinessMap = &bm
	}
	if a.BlueOcean != nil {
		bo := *a.BlueOcean
		bo.Eliminate = append([]string(nil), bo.Eliminate...)
		bo.Reduce = append([]string(nil), bo.Reduce...)
		bo.Raise = append([]string(nil), bo.Raise...)
		bo.Create = append([]string(nil), bo.Create...)
		bo.CanvasFactors = append([]string(nil), bo.CanvasFactors...)
		bo.YourValues = append([]float64(nil), bo.YourValues...)
		bo.IndustryValues = append([]float64(nil), bo.IndustryValues...)
		bo.Recommendations = cloneRecommendations(bo.Recommendations)
		out.BlueOcean = &bo
	}
	if a.SEO != nil {
		s := *a.SEO
		s.KeywordsData = KeywordData{
			Keywords:      append([]string(nil), s.KeywordsData.Keywords...),
			Positions:     append([]int(nil), s.KeywordsData.Positions...),
			SearchVolumes: append([]int(nil), s.KeywordsData.SearchVolumes...),
			Competition:   append([]float64(nil), s.KeywordsData.Competition...),
		}
		s.TrafficSources = TrafficSources{
			Sources:     append([]string(nil), s.TrafficSources.Sources...),
			Percentages: append([]int(nil), s.TrafficSources.Percentages...),
		}
		opps := make([]OptimizationArea, len(s.OptimizationOpportunities))
		for i, o := range s.OptimizationOpportunities {
			o.Recommendations = append([]string(nil), o.Recommendations...)
			opps[i] = o
		}
		s.OptimizationOpportunities = opps
		s.Recommendations = cloneRecommendations(s.Recommendations)
		out.SEO = &s
	}
	return out
}

func cloneRecommendations(in []Recommendation) []Recommendation {
	out := make([]Recommendation, len(in))
	for i, r := range in {
		r.ActionItems = append([]string{}, r.ActionItems...)
		out[i] = r
	}
	return out
}
