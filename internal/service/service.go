// Package service is the single entry point for report generation. It
// validates input, charges one token, produces the report and records it in
// the session history.
package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joelkehle/xperience-reports/internal/ledger"
	"github.com/joelkehle/xperience-reports/internal/reports"
	"github.com/joelkehle/xperience-reports/internal/session"
)

const (
	tracerName    = "github.com/joelkehle/xperience-reports/internal/service"
	costPerReport = 1
)

// Generator produces a complete report for validated input. It must not fail
// for a known report type.
type Generator interface {
	Generate(ctx context.Context, t reports.ReportType, input reports.FormInput) (reports.Report, error)
}

// SessionSaver persists a session after each completed generation.
type SessionSaver interface {
	Save(ctx context.Context, sess *session.Session) error
}

type Service struct {
	generator Generator
	saver     SessionSaver
	tracer    trace.Tracer
}

type Option func(*Service)

func WithSessionSaver(s SessionSaver) Option {
	return func(svc *Service) { svc.saver = s }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(svc *Service) { svc.tracer = tp.Tracer(tracerName) }
}

func New(g Generator, opts ...Option) *Service {
	s := &Service{generator: g, tracer: otel.Tracer(tracerName)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate runs one generation for sess. The only errors are
// reports.ErrUnknownReportType, reports.ErrInvalidFormInput and
// ledger.ErrInsufficientBalance; none of them touches the ledger or history.
// Once a token is reserved the request runs to completion, even if ctx is
// cancelled.
func (s *Service) Generate(ctx context.Context, sess *session.Session, t reports.ReportType, input reports.FormInput) (reports.Report, error) {
	ctx, span := s.tracer.Start(ctx, "report.generate", trace.WithAttributes(
		attribute.String("report.type", string(t)),
		attribute.String("session.id", sess.ID),
	))
	defer span.End()
	log := zerolog.Ctx(ctx).With().Str("session_id", sess.ID).Str("report_type", string(t)).Logger()

	var report reports.Report
	err := sess.Do(func() error {
		if err := reports.Validate(t, input); err != nil {
			return err
		}
		snapshot := input.Clone()

		reservation, err := sess.Ledger.Reserve(costPerReport)
		if err != nil {
			return err
		}

		// Generation can no longer be cancelled; the backend call still has
		// its own timeout.
		genCtx := log.WithContext(context.WithoutCancel(ctx))
		report, err = s.generator.Generate(genCtx, t, snapshot)
		if err != nil {
			// Unreachable for a validated type; give the token back.
			if rerr := sess.Ledger.Release(reservation); rerr != nil {
				log.Error().Err(rerr).Msg("release reservation")
			}
			return err
		}
		if err := sess.Ledger.Commit(reservation); err != nil {
			log.Error().Err(err).Msg("commit reservation")
		}
		sess.History.Append(report)

		if s.saver != nil {
			if err := s.saver.Save(genCtx, sess); err != nil {
				log.Warn().Err(err).Msg("persist session")
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("report.outcome", outcome(err)))
		log.Info().Err(err).Msg("generation rejected")
		return reports.Report{}, err
	}

	span.SetAttributes(
		attribute.String("report.id", report.ID),
		attribute.String("report.source", string(report.Source)),
		attribute.String("report.outcome", "committed"),
	)
	log.Info().
		Str("report_id", report.ID).
		Str("source", string(report.Source)).
		Int("balance", sess.Ledger.Balance()).
		Msg("report generated")
	return report, nil
}

// History returns the session's reports, oldest first.
func (s *Service) History(sess *session.Session) []reports.Report {
	return sess.History.All()
}

func (s *Service) Report(sess *session.Session, id string) (reports.Report, bool) {
	return sess.History.Get(id)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, reports.ErrUnknownReportType):
		return "rejected_unknown_type"
	case errors.Is(err, reports.ErrInvalidFormInput):
		return "rejected_invalid_input"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "rejected_insufficient_balance"
	default:
		return "failed"
	}
}
