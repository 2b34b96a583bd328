package reports

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const Disclaimer = "This is an automated strategic assessment generated from the information provided. " +
	"Treat it as a starting point for discussion, not as professional advice."

// BuildMarkdown renders a finished report as markdown. It reads the report
// and never changes it.
func BuildMarkdown(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", sanitize(r.Title))
	fmt.Fprintf(&b, "- Report ID: %s\n", r.ID)
	fmt.Fprintf(&b, "- Type: %s\n", r.DisplayName)
	fmt.Fprintf(&b, "- Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Source: %s\n\n", r.Source)
	if r.Source == PathFallback {
		fmt.Fprintf(&b, "> The analysis service was unavailable (`%s`). This report was built from standard benchmarks and the data you provided.\n\n", r.FallbackReason)
	}
	fmt.Fprintf(&b, "%s\n\n", Disclaimer)

	fmt.Fprintf(&b, "## Executive Summary\n\n%s\n\n", sanitize(r.ExecutiveSummary))

	switch {
	case r.Analysis.BusinessMap != nil:
		writeBusinessMap(&b, *r.Analysis.BusinessMap)
	case r.Analysis.BlueOcean != nil:
		writeBlueOcean(&b, *r.Analysis.BlueOcean)
	case r.Analysis.SEO != nil:
		writeSEO(&b, *r.Analysis.SEO)
	}

	fmt.Fprintf(&b, "## Recommendations\n\n")
	for i, rec := range r.Recommendations {
		fmt.Fprintf(&b, "### %d. %s\n\n%s\n\n", i+1, sanitize(rec.Title), sanitize(rec.Description))
		for _, item := range rec.ActionItems {
			fmt.Fprintf(&b, "- %s\n", sanitize(item))
		}
		if len(rec.ActionItems) > 0 {
			fmt.Fprintf(&b, "\n")
		}
	}

	fmt.Fprintf(&b, "## Chart Data\n\n")
	names := make([]string, 0, len(r.DerivedDatasets))
	for name := range r.DerivedDatasets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		writeDataset(&b, name, r.DerivedDatasets[name])
	}

	fmt.Fprintf(&b, "## Conclusion\n\n%s\n", sanitize(r.Conclusion))
	return b.String()
}

func writeBusinessMap(b *strings.Builder, bm BusinessMapAnalysis) {
	if bm.MonthlyRevenue != nil || bm.Employees != nil {
		fmt.Fprintf(b, "## Business Profile\n\n")
		if bm.MonthlyRevenue != nil {
			fmt.Fprintf(b, "- Monthly revenue: %s\n", humanize.FormatFloat("#,###.##", *bm.MonthlyRevenue))
		}
		if bm.Employees != nil {
			fmt.Fprintf(b, "- Team size: %d\n", *bm.Employees)
		}
		fmt.Fprintf(b, "\n")
	}
	fmt.Fprintf(b, "## SWOT Analysis\n\n")
	writeList(b, "Strengths", bm.Strengths)
	writeList(b, "Weaknesses", bm.Weaknesses)
	writeList(b, "Opportunities", bm.Opportunities)
	writeList(b, "Threats", bm.Threats)

	fmt.Fprintf(b, "## Category Scores\n\n| Category | Score |\n|----------|-------|\n")
	for i, c := range bm.Categories {
		fmt.Fprintf(b, "| %s | %s/10 |\n", sanitizeCell(c), fmtNum(bm.Values[i]))
	}
	fmt.Fprintf(b, "\n")
}

func writeBlueOcean(b *strings.Builder, bo BlueOceanAnalysis) {
	fmt.Fprintf(b, "## ERRC Grid\n\n")
	writeList(b, "Eliminate", bo.Eliminate)
	writeList(b, "Reduce", bo.Reduce)
	writeList(b, "Raise", bo.Raise)
	writeList(b, "Create", bo.Create)

	fmt.Fprintf(b, "## Strategy Canvas\n\n| Factor | You | Industry |\n|--------|-----|----------|\n")
	for i, f := range bo.CanvasFactors {
		fmt.Fprintf(b, "| %s | %s | %s |\n", sanitizeCell(f), fmtNum(bo.YourValues[i]), fmtNum(bo.IndustryValues[i]))
	}
	fmt.Fprintf(b, "\n")
}

func writeSEO(b *strings.Builder, s SEOAnalysis) {
	fmt.Fprintf(b, "## Search Visibility\n\n- Overall score: %s/100\n\n", fmtNum(s.OverallScore))

	kd := s.KeywordsData
	fmt.Fprintf(b, "| Keyword | Position | Monthly Searches | Competition |\n|---------|----------|------------------|-------------|\n")
	for i, kw := range kd.Keywords {
		fmt.Fprintf(b, "| %s | %d | %d | %s |\n", sanitizeCell(kw), kd.Positions[i], kd.SearchVolumes[i], fmtNum(kd.Competition[i]))
	}
	fmt.Fprintf(b, "\n| Traffic Source | Share |\n|----------------|-------|\n")
	for i, src := range s.TrafficSources.Sources {
		fmt.Fprintf(b, "| %s | %d%% |\n", sanitizeCell(src), s.TrafficSources.Percentages[i])
	}
	fmt.Fprintf(b, "\n## Optimization Opportunities\n\n")
	for _, o := range s.OptimizationOpportunities {
		fmt.Fprintf(b, "**%s** (impact %s, difficulty %s)\n\n", sanitize(o.Area), fmtNum(o.Impact), fmtNum(o.Difficulty))
		for _, rec := range o.Recommendations {
			fmt.Fprintf(b, "- %s\n", sanitize(rec))
		}
		fmt.Fprintf(b, "\n")
	}
}

func writeList(b *strings.Builder, heading string, items []string) {
	fmt.Fprintf(b, "### %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", sanitize(item))
	}
	fmt.Fprintf(b, "\n")
}

func writeDataset(b *strings.Builder, name string, ds Dataset) {
	series := make([]string, 0, len(ds.Series))
	for s := range ds.Series {
		series = append(series, s)
	}
	sort.Strings(series)

	fmt.Fprintf(b, "### %s\n\n| Label | %s |\n|-------|%s\n", name, strings.Join(series, " | "), strings.Repeat("---|", len(series)))
	for i, label := range ds.Labels {
		cells := make([]string, len(series))
		for j, s := range series {
			if vals := ds.Series[s]; i < len(vals) {
				cells[j] = fmtNum(vals[i])
			}
		}
		fmt.Fprintf(b, "| %s | %s |\n", sanitizeCell(label), strings.Join(cells, " | "))
	}
	fmt.Fprintf(b, "\n")
}

func sanitize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

func sanitizeCell(s string) string {
	return strings.ReplaceAll(sanitize(s), "|", "\\|")
}

func fmtNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
