package reports

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a senior business strategy consultant. Analyze the company data you are given and respond with strict JSON only, matching the requested schema exactly."

const businessMapSchema = `{
  "strengths": ["string"],
  "weaknesses": ["string"],
  "opportunities": ["string"],
  "threats": ["string"],
  "recommendations": [{"title": "string", "description": "string", "action_items": ["string"]}],
  "categories": ["Product", "Marketing", "Operations", "Finance", "Innovation", "People"],
  "values": [0-10 for each of the 6 categories],
  "market_data": {"Quality": 0-10, "Price": 0-10, "Service": 0-10, "Innovation": 0-10, "Reach": 0-10},
  "growth_data": {"Q1": number, "Q2": number, "Q3": number, "Q4": number}
}`

const blueOceanSchema = `{
  "eliminate": ["string"],
  "reduce": ["string"],
  "raise": ["string"],
  "create": ["string"],
  "canvas_factors": ["string"],
  "your_values": [0-10 per canvas factor],
  "industry_values": [0-10 per canvas factor],
  "recommendations": [{"title": "string", "description": "string", "action_items": ["string"]}]
}`

const seoSchema = `{
  "overall_score": 0-100,
  "keywords_data": {
    "keywords": ["string"],
    "positions": [1-100 per keyword],
    "search_volumes": [integer per keyword],
    "competition": [0-1 per keyword]
  },
  "traffic_sources": {"sources": ["string"], "percentages": [integers summing to 100]},
  "optimization_opportunities": [{"area": "string", "impact": 0-100, "difficulty": 0-100, "recommendations": ["string"]}],
  "recommendations": [{"title": "string", "description": "string", "action_items": ["string"]}]
}`

// Prompt returns the system and user prompts sent to the backend for t.
func Prompt(t ReportType, input FormInput) (system, user string, err error) {
	d, err := Lookup(t)
	if err != nil {
		return "", "", err
	}
	var b strings.Builder
	switch t {
	case TypeBusinessMap:
		fmt.Fprintf(&b, "Produce a business map (SWOT, category scores, market comparison and quarterly growth outlook) for the company below.\n\n")
	case TypeBlueOcean:
		fmt.Fprintf(&b, "Produce a Blue Ocean strategy (eliminate-reduce-raise-create grid and strategy canvas against the industry) for the company below.\n\n")
	case TypeSEO:
		fmt.Fprintf(&b, "Produce an SEO assessment (keyword positions, traffic mix and optimization opportunities) for the website below.\n\n")
	}
	fmt.Fprintf(&b, "COMPANY DATA:\n")
	for _, field := range append(d.RequiredFields, d.OptionalFields...) {
		fmt.Fprintf(&b, "- %s: %s\n", fieldLabel(field), input.StringOr(field, "not provided"))
	}
	fmt.Fprintf(&b, "\nRespond with JSON in exactly this shape:\n%s\n", schemaFor(t))
	fmt.Fprintf(&b, "\nGive at least 3 items per list and at least 3 recommendations, each with concrete action items.")
	return systemPrompt, b.String(), nil
}

func schemaFor(t ReportType) string {
	switch t {
	case TypeBusinessMap:
		return businessMapSchema
	case TypeBlueOcean:
		return blueOceanSchema
	default:
		return seoSchema
	}
}

func fieldLabel(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		switch w {
		case "url":
			words[i] = "URL"
		default:
			if i == 0 && w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
	}
	return strings.Join(words, " ")
}
