package reports

import (
	"fmt"
	"math"
)

const projectionYears = 5

// Revenue projection: six months of linear growth on the stated monthly
// revenue, month i at revenue * (1 + i*monthlyRevenueGrowth).
const (
	revenueMonths        = 6
	monthlyRevenueGrowth = 0.05
)

// Yearly growth assumed for a differentiated (blue ocean) position versus a
// contested (red ocean) one, indexed to 100 in year one.
const (
	blueOceanGrowth = 0.50
	redOceanGrowth  = 0.10
)

// DeriveDatasets computes the visualization datasets for a from canonical data
// only. Identical analyses always yield identical datasets.
func DeriveDatasets(t ReportType, a Analysis) (map[string]Dataset, error) {
	switch {
	case t == TypeBusinessMap && a.BusinessMap != nil:
		return businessMapDatasets(*a.BusinessMap), nil
	case t == TypeBlueOcean && a.BlueOcean != nil:
		return blueOceanDatasets(*a.BlueOcean), nil
	case t == TypeSEO && a.SEO != nil:
		return seoDatasets(*a.SEO), nil
	}
	if _, err := Lookup(t); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("analysis does not carry %s data", t)
}

func businessMapDatasets(bm BusinessMapAnalysis) map[string]Dataset {
	marketLabels, marketValues := splitLabeled(bm.MarketData)
	growthLabels, growthValues := splitLabeled(bm.GrowthData)
	growthRate := make([]float64, len(growthValues))
	for i := 1; i < len(growthValues); i++ {
		if prev := growthValues[i-1]; prev > 0 {
			growthRate[i] = round2((growthValues[i] - prev) / prev * 100)
		}
	}
	out := map[string]Dataset{
		DatasetRadarChart: {
			Labels: append([]string(nil), bm.Categories...),
			Series: map[string][]float64{"score": append([]float64(nil), bm.Values...)},
		},
		DatasetMarketComparison: {
			Labels: marketLabels,
			Series: map[string][]float64{"score": marketValues},
		},
		DatasetGrowthPotential: {
			Labels: growthLabels,
			Series: map[string][]float64{"value": growthValues, "growth_pct": growthRate},
		},
		DatasetSWOTSummary: {
			Labels: []string{"Strengths", "Weaknesses", "Opportunities", "Threats"},
			Series: map[string][]float64{"count": {
				float64(len(bm.Strengths)), float64(len(bm.Weaknesses)),
				float64(len(bm.Opportunities)), float64(len(bm.Threats)),
			}},
		},
	}
	if bm.MonthlyRevenue != nil {
		out[DatasetRevenueProjection] = revenueProjection(*bm.MonthlyRevenue)
	}
	return out
}

func revenueProjection(revenue float64) Dataset {
	labels := make([]string, revenueMonths)
	projected := make([]float64, revenueMonths)
	for i := range labels {
		labels[i] = fmt.Sprintf("Month %d", i+1)
		projected[i] = round2(revenue * (1 + float64(i+1)*monthlyRevenueGrowth))
	}
	return Dataset{Labels: labels, Series: map[string][]float64{"projected_revenue": projected}}
}

func blueOceanDatasets(bo BlueOceanAnalysis) map[string]Dataset {
	years := make([]string, projectionYears)
	blue := make([]float64, projectionYears)
	red := make([]float64, projectionYears)
	for i := range years {
		years[i] = fmt.Sprintf("Year %d", i+1)
		blue[i] = math.Round(100 * math.Pow(1+blueOceanGrowth, float64(i)))
		red[i] = math.Round(100 * math.Pow(1+redOceanGrowth, float64(i)))
	}
	gap := make([]float64, len(bo.CanvasFactors))
	for i := range gap {
		gap[i] = round2(bo.YourValues[i] - bo.IndustryValues[i])
	}
	return map[string]Dataset{
		DatasetStrategyCanvas: {
			Labels: append([]string(nil), bo.CanvasFactors...),
			Series: map[string][]float64{
				"your_values":     append([]float64(nil), bo.YourValues...),
				"industry_values": append([]float64(nil), bo.IndustryValues...),
				"gap":             gap,
			},
		},
		DatasetERRCActions: {
			Labels: []string{"Eliminate", "Reduce", "Raise", "Create"},
			Series: map[string][]float64{"count": {
				float64(len(bo.Eliminate)), float64(len(bo.Reduce)),
				float64(len(bo.Raise)), float64(len(bo.Create)),
			}},
		},
		DatasetPerformanceProjection: {
			Labels: years,
			Series: map[string][]float64{"blue_ocean": blue, "red_ocean": red},
		},
	}
}

func seoDatasets(s SEOAnalysis) map[string]Dataset {
	kd := s.KeywordsData
	positions := make([]float64, len(kd.Positions))
	for i, p := range kd.Positions {
		positions[i] = float64(p)
	}
	volumes := make([]float64, len(kd.SearchVolumes))
	for i, v := range kd.SearchVolumes {
		volumes[i] = float64(v)
	}
	shares := make([]float64, len(s.TrafficSources.Percentages))
	for i, p := range s.TrafficSources.Percentages {
		shares[i] = float64(p)
	}
	areas := make([]string, len(s.OptimizationOpportunities))
	impact := make([]float64, len(areas))
	difficulty := make([]float64, len(areas))
	for i, o := range s.OptimizationOpportunities {
		areas[i] = o.Area
		impact[i] = o.Impact
		difficulty[i] = o.Difficulty
	}
	return map[string]Dataset{
		DatasetKeywordPerformance: {
			Labels: append([]string(nil), kd.Keywords...),
			Series: map[string][]float64{
				"position":      positions,
				"search_volume": volumes,
				"competition":   append([]float64(nil), kd.Competition...),
			},
		},
		DatasetTrafficSources: {
			Labels: append([]string(nil), s.TrafficSources.Sources...),
			Series: map[string][]float64{"percentage": shares},
		},
		DatasetOptimizationMatrix: {
			Labels: areas,
			Series: map[string][]float64{"impact": impact, "difficulty": difficulty},
		},
		DatasetOverallScore: {
			Labels: []string{"score", "remaining"},
			Series: map[string][]float64{"value": {s.OverallScore, 100 - s.OverallScore}},
		},
	}
}

func splitLabeled(in []LabeledValue) ([]string, []float64) {
	labels := make([]string, len(in))
	values := make([]float64, len(in))
	for i, lv := range in {
		labels[i] = lv.Label
		values[i] = lv.Value
	}
	return labels, values
}
