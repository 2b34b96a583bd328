package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joelkehle/xperience-reports/internal/backend"
)

// Fallback reasons recorded on a report produced without the backend.
const (
	ReasonBackendUnavailable = "backend_unavailable"
	ReasonBackendTimeout     = "backend_timeout"
	ReasonBackendMalformed   = "backend_malformed_response"
)

// Backend produces a raw JSON object for a prompt pair.
type Backend interface {
	Invoke(ctx context.Context, systemPrompt, userPrompt string) (map[string]any, error)
}

type Assembler struct {
	backend Backend
	now     func() time.Time
	newID   func() string
}

type AssemblerOption func(*Assembler)

func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) { a.now = now }
}

func WithIDGenerator(newID func() string) AssemblerOption {
	return func(a *Assembler) { a.newID = newID }
}

// NewAssembler builds an assembler. A nil backend makes every generation take
// the fallback path.
func NewAssembler(b Backend, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		backend: b,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Generate asks the backend for content and falls back to deterministic data
// on any backend error. Backend failures are logged, never returned; the only
// error is an unknown report type.
func (a *Assembler) Generate(ctx context.Context, t ReportType, input FormInput) (Report, error) {
	system, user, err := Prompt(t, input)
	if err != nil {
		return Report{}, err
	}
	log := zerolog.Ctx(ctx)

	var raw map[string]any
	path, reason := PathBackend, ""
	if a.backend == nil {
		path, reason = PathFallback, ReasonBackendUnavailable
	} else if raw, err = a.backend.Invoke(ctx, system, user); err != nil {
		path, reason = PathFallback, fallbackReason(err)
		raw = nil
		log.Warn().Err(err).Str("report_type", string(t)).Str("reason", reason).Msg("backend failed, using fallback")
	}

	analysis, err := Normalize(t, raw, input)
	if err != nil {
		return Report{}, err
	}
	r, err := a.Assemble(t, input, analysis)
	if err != nil {
		return Report{}, err
	}
	r.Source = path
	r.FallbackReason = reason
	log.Debug().Str("report_type", string(t)).Str("report_id", r.ID).Str("source", string(path)).Msg("report assembled")
	return r, nil
}

// Assemble builds a report from canonical data: datasets first, then the
// narrative. Apart from the id and timestamp it is a pure transform.
func (a *Assembler) Assemble(t ReportType, input FormInput, analysis Analysis) (Report, error) {
	d, err := Lookup(t)
	if err != nil {
		return Report{}, err
	}
	if err := checkCanonical(t, analysis); err != nil {
		return Report{}, err
	}
	datasets, err := DeriveDatasets(t, analysis)
	if err != nil {
		return Report{}, err
	}
	snapshot := input.Clone()
	summary, conclusion := buildNarrative(t, snapshot, analysis)
	return Report{
		ID:               a.newID(),
		Type:             t,
		DisplayName:      d.DisplayName,
		Title:            fmt.Sprintf("%s: %s", d.DisplayName, snapshot.StringOr("business_name", "Untitled")),
		GeneratedAt:      a.now(),
		Input:            snapshot,
		ExecutiveSummary: summary,
		Recommendations:  cloneRecommendations(analysis.Recommendations()),
		Conclusion:       conclusion,
		DerivedDatasets:  datasets,
		Analysis:         analysis.clone(),
		Source:           PathBackend,
	}, nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, backend.ErrBackendTimeout):
		return ReasonBackendTimeout
	case errors.Is(err, backend.ErrBackendMalformedResponse):
		return ReasonBackendMalformed
	default:
		return ReasonBackendUnavailable
	}
}

// checkCanonical rejects analyses that did not come out of Normalize.
func checkCanonical(t ReportType, a Analysis) error {
	bad := func(what string) error { return fmt.Errorf("non-canonical %s analysis: %s", t, what) }
	if len(a.Recommendations()) == 0 {
		return bad("no recommendations")
	}
	switch t {
	case TypeBusinessMap:
		bm := a.BusinessMap
		if bm == nil {
			return bad("missing data")
		}
		if len(bm.Categories) != len(defaultCategories) || len(bm.Values) != len(bm.Categories) {
			return bad("categories and values")
		}
		if len(bm.GrowthData) == 0 || len(bm.MarketData) == 0 {
			return bad("market or growth data")
		}
	case TypeBlueOcean:
		bo := a.BlueOcean
		if bo == nil {
			return bad("missing data")
		}
		if len(bo.CanvasFactors) == 0 || len(bo.YourValues) != len(bo.CanvasFactors) || len(bo.IndustryValues) != len(bo.CanvasFactors) {
			return bad("canvas arrays")
		}
	case TypeSEO:
		s := a.SEO
		if s == nil {
			return bad("missing data")
		}
		kd := s.KeywordsData
		n := len(kd.Keywords)
		if n == 0 || len(kd.Positions) != n || len(kd.SearchVolumes) != n || len(kd.Competition) != n {
			return bad("keyword arrays")
		}
		if len(s.TrafficSources.Sources) == 0 || len(s.TrafficSources.Percentages) != len(s.TrafficSources.Sources) {
			return bad("traffic sources")
		}
		if len(s.OptimizationOpportunities) == 0 {
			return bad("optimization opportunities")
		}
	}
	return nil
}
