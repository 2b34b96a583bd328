package reports

import (
	"fmt"
	"strings"
)

// Narrative text is templated from the form input and canonical data so the
// same pair always produces the same wording.

func buildNarrative(t ReportType, input FormInput, a Analysis) (summary, conclusion string) {
	switch {
	case t == TypeBusinessMap && a.BusinessMap != nil:
		return businessMapNarrative(input, *a.BusinessMap)
	case t == TypeBlueOcean && a.BlueOcean != nil:
		return blueOceanNarrative(input, *a.BlueOcean)
	case t == TypeSEO && a.SEO != nil:
		return seoNarrative(input, *a.SEO)
	}
	return "", ""
}

func businessMapNarrative(input FormInput, bm BusinessMapAnalysis) (string, string) {
	name := input.StringOr("business_name", "The company")
	hi, lo := 0, 0
	for i, v := range bm.Values {
		if v > bm.Values[hi] {
			hi = i
		}
		if v < bm.Values[lo] {
			lo = i
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s offers %s to %s. ", name,
		input.StringOr("main_products", "its products"), input.StringOr("target_audience", "its market"))
	fmt.Fprintf(&b, "The analysis lists %d strengths, %d weaknesses, %d opportunities and %d threats. ",
		len(bm.Strengths), len(bm.Weaknesses), len(bm.Opportunities), len(bm.Threats))
	fmt.Fprintf(&b, "%s is the strongest area (%.1f/10) and %s the weakest (%.1f/10).",
		bm.Categories[hi], bm.Values[hi], bm.Categories[lo], bm.Values[lo])

	first, last := bm.GrowthData[0], bm.GrowthData[len(bm.GrowthData)-1]
	conclusion := fmt.Sprintf("Start with %q and shore up %s. ", bm.Recommendations[0].Title, strings.ToLower(bm.Categories[lo]))
	if first.Value > 0 {
		conclusion += fmt.Sprintf("The growth outlook moves from %s to %s by %.0f%%, ", first.Label, last.Label, (last.Value-first.Value)/first.Value*100)
	} else {
		conclusion += fmt.Sprintf("The growth outlook ends %s at %.0f, ", last.Label, last.Value)
	}
	conclusion += fmt.Sprintf("so %s should work through the %d recommendations in order.", name, len(bm.Recommendations))
	return b.String(), conclusion
}

func blueOceanNarrative(input FormInput, bo BlueOceanAnalysis) (string, string) {
	name := input.StringOr("business_name", "The company")
	leads := 0
	widest := 0
	for i := range bo.CanvasFactors {
		gap := bo.YourValues[i] - bo.IndustryValues[i]
		if gap > 0 {
			leads++
		}
		if gap > bo.YourValues[widest]-bo.IndustryValues[widest] {
			widest = i
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s competes with %s for %s. ", name,
		input.StringOr("products_services", "its offering"), input.StringOr("target_customers", "its customers"))
	fmt.Fprintf(&b, "The strategy canvas compares %d factors and %s leads the industry on %d of them. ",
		len(bo.CanvasFactors), name, leads)
	fmt.Fprintf(&b, "The widest gap is %s (%.1f against %.1f).",
		bo.CanvasFactors[widest], bo.YourValues[widest], bo.IndustryValues[widest])

	conclusion := fmt.Sprintf("The action grid proposes %d items to eliminate, %d to reduce, %d to raise and %d to create. ",
		len(bo.Eliminate), len(bo.Reduce), len(bo.Raise), len(bo.Create))
	conclusion += fmt.Sprintf("Begin with %q to move %s away from head-to-head competition.", bo.Recommendations[0].Title, name)
	return b.String(), conclusion
}

func seoNarrative(input FormInput, s SEOAnalysis) (string, string) {
	site := input.StringOr("website_url", "The website")
	kd := s.KeywordsData
	best := 0
	for i, p := range kd.Positions {
		if p < kd.Positions[best] {
			best = i
		}
	}
	topSource := 0
	for i, p := range s.TrafficSources.Percentages {
		if p > s.TrafficSources.Percentages[topSource] {
			topSource = i
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s scores %.0f/100 for search visibility. ", site, s.OverallScore)
	fmt.Fprintf(&b, "Across %d tracked keywords the best position is #%d for %q. ", len(kd.Keywords), kd.Positions[best], kd.Keywords[best])
	fmt.Fprintf(&b, "%s brings %d%% of traffic.", s.TrafficSources.Sources[topSource], s.TrafficSources.Percentages[topSource])

	// Best opportunity: highest impact, ties broken by lower difficulty.
	pick := 0
	for i, o := range s.OptimizationOpportunities {
		p := s.OptimizationOpportunities[pick]
		if o.Impact > p.Impact || (o.Impact == p.Impact && o.Difficulty < p.Difficulty) {
			pick = i
		}
	}
	o := s.OptimizationOpportunities[pick]
	conclusion := fmt.Sprintf("%s is the highest-impact area (impact %.0f, difficulty %.0f). ", o.Area, o.Impact, o.Difficulty)
	conclusion += fmt.Sprintf("%s should start with %q and track keyword positions monthly.",
		input.StringOr("business_name", "The business"), s.Recommendations[0].Title)
	return b.String(), conclusion
}
