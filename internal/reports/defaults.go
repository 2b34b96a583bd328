package reports

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Built-in defaults. Text defaults interpolate the caller's FormInput so the
// fallback report still reads as written for that business.

var (
	defaultCategories     = []string{"Product", "Marketing", "Operations", "Finance", "Innovation", "People"}
	defaultCategoryValues = []float64{7.5, 6.8, 7.2, 6.5, 8.1, 6.9}
	defaultMarketData     = []LabeledValue{
		{Label: "Quality", Value: 8},
		{Label: "Price", Value: 7},
		{Label: "Service", Value: 9},
		{Label: "Innovation", Value: 8},
		{Label: "Reach", Value: 6},
	}
	defaultGrowthData = []LabeledValue{
		{Label: "Q1", Value: 100},
		{Label: "Q2", Value: 120},
		{Label: "Q3", Value: 150},
		{Label: "Q4", Value: 200},
	}

	defaultCanvasFactors  = []string{"Price", "Ease of use", "Personalization", "Support", "Integration", "Innovation"}
	defaultYourValues     = []float64{6, 9, 10, 8, 9, 10}
	defaultIndustryValues = []float64{8, 5, 4, 6, 5, 6}

	defaultSEOScore       = 65.0
	defaultPositions      = []int{4, 12, 18, 7, 22}
	defaultSearchVolumes  = []int{2400, 1300, 880, 3200, 590}
	defaultCompetition    = []float64{0.75, 0.45, 0.3, 0.8, 0.25}
	defaultTrafficSources = []string{"Organic", "Direct", "Social", "Referral", "Paid"}
	defaultTrafficShares  = []float64{35, 25, 20, 15, 5}
)

const (
	marketDataSize   = 5
	seoKeywordCount  = 5
	maxCanvasFactors = 12
	maxKeywords      = 10
	maxTrafficSource = 10
)

func defaultBusinessMap(input FormInput) BusinessMapAnalysis {
	name := input.StringOr("business_name", "the company")
	industry := input.StringOr("industry", "its sector")
	products := input.StringOr("main_products", "its core offering")
	newEntrants := "New entrants with disruptive models"
	if competitors := input.String("competitors"); competitors != "" {
		newEntrants = fmt.Sprintf("Competitive pressure from %s and new entrants", competitors)
	}
	return BusinessMapAnalysis{
		Strengths: []string{
			fmt.Sprintf("Distinct positioning in the %s market", industry),
			"Committed team",
			fmt.Sprintf("Clear differentiators in %s", products),
		},
		Weaknesses: []string{
			"Internal processes that can be streamlined",
			"Reliance on a small number of acquisition channels",
			"Limited scalability in the current model",
		},
		Opportunities: []string{
			"Expansion into adjacent markets",
			"New product and service lines",
			fmt.Sprintf("Strategic partnerships with other %s players", industry),
		},
		Threats: []string{
			newEntrants,
			"Regulatory change in the sector",
			"Downward pressure on prices",
		},
		Recommendations: []Recommendation{
			{
				Title:       "Process optimization",
				Description: fmt.Sprintf("Improve internal processes at %s to raise operational efficiency.", name),
				ActionItems: []string{"Map current processes and find bottlenecks", "Adopt automation tooling", "Train the team on the new methods"},
			},
			{
				Title:       "Channel diversification",
				Description: fmt.Sprintf("Broaden the acquisition channels of %s to reduce dependency and extend reach.", name),
				ActionItems: []string{"Test new marketing channels", "Build a partner program", "Run a content strategy"},
			},
			{
				Title:       "Product innovation",
				Description: fmt.Sprintf("Develop offerings that complement the current portfolio of %s.", name),
				ActionItems: []string{"Interview customers", "Ship MVPs to test concepts", "Set up a continuous innovation process"},
			},
			{
				Title:       "Sustainable growth",
				Description: growthDescription(name, input),
				ActionItems: []string{"Draft a hiring plan tied to revenue milestones", "Track growth KPIs every month", "Review the cost structure for efficiencies"},
			},
		},
		Categories: append([]string(nil), defaultCategories...),
		Values:     append([]float64(nil), defaultCategoryValues...),
		MarketData: append([]LabeledValue(nil), defaultMarketData...),
		GrowthData: append([]LabeledValue(nil), defaultGrowthData...),
	}
}

func defaultBlueOcean(input FormInput) BlueOceanAnalysis {
	name := input.StringOr("business_name", "the company")
	offering := input.StringOr("products_services", "the current offering")
	return BlueOceanAnalysis{
		Eliminate: []string{
			"Complex features that are rarely used",
			"Bureaucratic steps that delay delivery",
			"Dependence on intermediaries in the value chain",
		},
		Reduce: []string{
			"Operating costs through automation",
			"Implementation and delivery time",
			"Adoption barriers for new customers",
		},
		Raise: []string{
			"User experience and ease of use",
			"Transparency and communication with customers",
			fmt.Sprintf("Perceived value of %s", offering),
		},
		Create: []string{
			"Outcome-based pricing",
			"A user community built around co-creation",
			"Seamless integration with the customer's ecosystem",
		},
		CanvasFactors:  append([]string(nil), defaultCanvasFactors...),
		YourValues:     append([]float64(nil), defaultYourValues...),
		IndustryValues: append([]float64(nil), defaultIndustryValues...),
		Recommendations: []Recommendation{
			{
				Title:       "Redefine the value proposition",
				Description: fmt.Sprintf("Draw a new value curve for %s around factors customers prize but the market neglects.", name),
				ActionItems: []string{"List the factors that can be eliminated", "Pick the factors to raise above the industry standard", "Design factors the industry has never offered"},
			},
			{
				Title:       "Focus on non-customers",
				Description: fmt.Sprintf("Grow demand by targeting people and companies that do not use %s today.", offering),
				ActionItems: []string{"Identify the three tiers of non-customers", "Understand current adoption barriers", "Shape an offer for this audience"},
			},
			{
				Title:       "Strategic execution",
				Description: "Roll out the strategy with focus, divergence and a clear message.",
				ActionItems: []string{"Align the organization with the new strategy", "Remove organizational hurdles", "Build execution into the strategy from the start"},
			},
		},
	}
}

func defaultSEO(input FormInput) SEOAnalysis {
	site := input.StringOr("website_url", "the website")
	return SEOAnalysis{
		OverallScore: defaultSEOScore,
		KeywordsData: KeywordData{
			Keywords:      fallbackKeywords(input),
			Positions:     append([]int(nil), defaultPositions...),
			SearchVolumes: append([]int(nil), defaultSearchVolumes...),
			Competition:   append([]float64(nil), defaultCompetition...),
		},
		TrafficSources: TrafficSources{
			Sources:     append([]string(nil), defaultTrafficSources...),
			Percentages: []int{35, 25, 20, 15, 5},
		},
		OptimizationOpportunities: defaultOptimizationAreas(),
		Recommendations: []Recommendation{
			{
				Title:       "Content optimization",
				Description: fmt.Sprintf("Create and tune content for the main keywords identified for %s.", site),
				ActionItems: []string{"Plan content around the five main keywords", "Optimize metadata on existing pages", "Improve internal linking"},
			},
			{
				Title:       "Technical improvements",
				Description: "Fix the technical issues that hold back search performance.",
				ActionItems: []string{"Speed up page loads", "Fix mobile usability issues", "Add schema markup"},
			},
			{
				Title:       "Backlink strategy",
				Description: "Earn quality links to grow domain authority.",
				ActionItems: []string{"Publish linkable assets such as studies and infographics", "Form industry partnerships", "Monitor the backlink profile regularly"},
			},
		},
	}
}

func defaultOptimizationAreas() []OptimizationArea {
	return []OptimizationArea{
		{Area: "Content", Impact: 85, Difficulty: 40, Recommendations: []string{"Create in-depth content targeting main keywords", "Optimize meta titles and descriptions", "Improve internal linking structure"}},
		{Area: "Technical", Impact: 65, Difficulty: 70, Recommendations: []string{"Improve page loading speed", "Fix mobile usability issues", "Implement schema markup"}},
		{Area: "Backlinks", Impact: 75, Difficulty: 80, Recommendations: []string{"Develop a link building strategy", "Create linkable assets (infographics, studies)", "Establish industry partnerships"}},
		{Area: "Local SEO", Impact: 55, Difficulty: 30, Recommendations: []string{"Optimize Google Business Profile", "Ensure NAP consistency", "Generate local reviews"}},
		{Area: "Mobile", Impact: 80, Difficulty: 50, Recommendations: []string{"Improve mobile page speed", "Ensure responsive design", "Optimize for mobile-first indexing"}},
	}
}

// fallbackKeywords takes the submitted keywords, keeps the first five and pads
// with keywordN placeholders.
func fallbackKeywords(input FormInput) []string {
	kws := input.List("keywords")
	if len(kws) > seoKeywordCount {
		kws = kws[:seoKeywordCount]
	}
	return fitTexts(kws, seoKeywordCount, func(i int) string { return fmt.Sprintf("keyword%d", i+1) })
}

// growthDescription grounds the growth recommendation in the revenue and
// headcount the form supplied, when it supplied them.
func growthDescription(name string, input FormInput) string {
	revenue, employees := businessFigures(input)
	var basis string
	switch {
	case revenue != nil && employees != nil:
		basis = fmt.Sprintf("With monthly revenue of %s and a team of %d, ", humanize.FormatFloat("#,###.##", *revenue), *employees)
	case revenue != nil:
		basis = fmt.Sprintf("With monthly revenue of %s, ", humanize.FormatFloat("#,###.##", *revenue))
	case employees != nil:
		basis = fmt.Sprintf("With a team of %d, ", *employees)
	default:
		return fmt.Sprintf("Grow %s in stages that keep quality steady while operations expand.", name)
	}
	return basis + fmt.Sprintf("%s should grow in stages that keep quality steady while operations expand.", name)
}
