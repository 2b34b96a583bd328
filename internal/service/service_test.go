package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/joelkehle/xperience-reports/internal/backend"
	"github.com/joelkehle/xperience-reports/internal/ledger"
	"github.com/joelkehle/xperience-reports/internal/reports"
	"github.com/joelkehle/xperience-reports/internal/session"
)

type mockSaver struct {
	mock.Mock
}

func (m *mockSaver) Save(ctx context.Context, sess *session.Session) error {
	return m.Called(ctx, sess).Error(0)
}

type backendFunc func(ctx context.Context, system, user string) (map[string]any, error)

func (f backendFunc) Invoke(ctx context.Context, system, user string) (map[string]any, error) {
	return f(ctx, system, user)
}

func seoInput() reports.FormInput {
	return reports.FormInput{
		"business_name": "Acme",
		"website_url":   "https://acme.example",
		"keywords":      "crm, sales automation",
	}
}

func newSession(balance int) *session.Session {
	return session.New("sess-1", "0xabc", "metamask", balance, time.Now())
}

func TestGenerateWithUnavailableBackend(t *testing.T) {
	svc := New(reports.NewAssembler(backend.NewClient(backend.ProviderAnthropic, nil)))
	sess := newSession(5)

	r, err := svc.Generate(context.Background(), sess, reports.TypeSEO, seoInput())
	require.NoError(t, err)
	assert.Equal(t, 4, sess.Ledger.Balance())
	assert.Equal(t, 1, sess.History.Len())

	assert.Equal(t, reports.PathFallback, r.Source)
	kd := r.Analysis.SEO.KeywordsData
	assert.Len(t, kd.Keywords, 5)
	assert.Equal(t, "crm", kd.Keywords[0])
	total := 0
	for _, p := range r.Analysis.SEO.TrafficSources.Percentages {
		total += p
	}
	assert.Equal(t, 100, total)
	assert.True(t, r.Analysis.SEO.OverallScore >= 0 && r.Analysis.SEO.OverallScore <= 100)
}

func TestGenerateInsufficientBalance(t *testing.T) {
	svc := New(reports.NewAssembler(nil))
	sess := newSession(0)

	_, err := svc.Generate(context.Background(), sess, reports.TypeSEO, seoInput())
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	assert.Equal(t, 0, sess.Ledger.Balance())
	assert.Equal(t, 0, sess.History.Len())
}

func TestGenerateInvalidInputLeavesLedger(t *testing.T) {
	calls := 0
	b := backendFunc(func(context.Context, string, string) (map[string]any, error) {
		calls++
		return nil, nil
	})
	svc := New(reports.NewAssembler(b))
	sess := newSession(3)

	in := seoInput()
	delete(in, "keywords")
	_, err := svc.Generate(context.Background(), sess, reports.TypeSEO, in)
	assert.ErrorIs(t, err, reports.ErrInvalidFormInput)

	_, err = svc.Generate(context.Background(), sess, "market_report", in)
	assert.ErrorIs(t, err, reports.ErrUnknownReportType)

	assert.Equal(t, 3, sess.Ledger.Balance())
	assert.Equal(t, 0, sess.History.Len())
	assert.Zero(t, calls)
}

func TestBackendFailureStillCharges(t *testing.T) {
	b := backendFunc(func(context.Context, string, string) (map[string]any, error) {
		return nil, backend.ErrBackendTimeout
	})
	svc := New(reports.NewAssembler(b))
	sess := newSession(2)

	r, err := svc.Generate(context.Background(), sess, reports.TypeBlueOcean, reports.FormInput{
		"business_name": "Acme", "products_services": "consulting", "target_customers": "SMBs",
	})
	require.NoError(t, err)
	assert.Equal(t, reports.ReasonBackendTimeout, r.FallbackReason)
	assert.Equal(t, 1, sess.Ledger.Balance())
}

func TestHistoryKeepsInsertionOrder(t *testing.T) {
	svc := New(reports.NewAssembler(nil))
	sess := newSession(5)
	inputs := map[reports.ReportType]reports.FormInput{
		reports.TypeBusinessMap: {"business_name": "Acme", "main_products": "CRM", "target_audience": "SMBs"},
		reports.TypeBlueOcean:   {"business_name": "Acme", "products_services": "CRM", "target_customers": "SMBs"},
		reports.TypeSEO:         seoInput(),
	}
	order := []reports.ReportType{reports.TypeSEO, reports.TypeBusinessMap, reports.TypeBlueOcean}
	var ids []string
	for _, typ := range order {
		r, err := svc.Generate(context.Background(), sess, typ, inputs[typ])
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	history := svc.History(sess)
	require.Len(t, history, 3)
	for i, r := range history {
		assert.Equal(t, order[i], r.Type)
		assert.Equal(t, ids[i], r.ID)
	}
	got, ok := svc.Report(sess, ids[1])
	require.True(t, ok)
	assert.Equal(t, reports.TypeBusinessMap, got.Type)
	assert.Equal(t, 2, sess.Ledger.Balance())
}

func TestGenerateSnapshotsInput(t *testing.T) {
	svc := New(reports.NewAssembler(nil))
	sess := newSession(1)
	in := seoInput()
	r, err := svc.Generate(context.Background(), sess, reports.TypeSEO, in)
	require.NoError(t, err)
	in["business_name"] = "Changed"
	assert.Equal(t, "Acme", r.Input["business_name"])
	stored, _ := svc.Report(sess, r.ID)
	assert.Equal(t, "Acme", stored.Input["business_name"])
}

func TestSaveFailureDoesNotFailRequest(t *testing.T) {
	saver := &mockSaver{}
	saver.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	var logs bytes.Buffer
	ctx := zerolog.New(&logs).WithContext(context.Background())
	svc := New(reports.NewAssembler(nil), WithSessionSaver(saver))
	sess := newSession(1)

	_, err := svc.Generate(ctx, sess, reports.TypeSEO, seoInput())
	require.NoError(t, err)
	assert.Equal(t, 0, sess.Ledger.Balance())
	assert.Equal(t, 1, sess.History.Len())
	assert.Contains(t, logs.String(), "persist session")
	saver.AssertExpectations(t)
}

func TestCancelledContextAfterReserveCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := backendFunc(func(ctx context.Context, _, _ string) (map[string]any, error) {
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return map[string]any{"overall_score": 80.0}, nil
	})
	svc := New(reports.NewAssembler(b))
	sess := newSession(1)

	r, err := svc.Generate(ctx, sess, reports.TypeSEO, seoInput())
	require.NoError(t, err)
	assert.Equal(t, reports.PathBackend, r.Source)
	assert.Equal(t, 80.0, r.Analysis.SEO.OverallScore)
	assert.Equal(t, 0, sess.Ledger.Balance())
}

func TestConcurrentRequestsOnOneSession(t *testing.T) {
	svc := New(reports.NewAssembler(nil))
	sess := newSession(3)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Generate(context.Background(), sess, reports.TypeSEO, seoInput())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok, rejected := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ledger.ErrInsufficientBalance):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 3, ok)
	assert.Equal(t, 7, rejected)
	assert.Equal(t, 0, sess.Ledger.Balance())
	assert.Equal(t, 3, sess.History.Len())
}

func TestGenerateSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	svc := New(reports.NewAssembler(nil), WithTracerProvider(tp))

	_, err := svc.Generate(context.Background(), newSession(0), reports.TypeSEO, seoInput())
	require.Error(t, err)
	_, err = svc.Generate(context.Background(), newSession(1), reports.TypeSEO, seoInput())
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "report.generate", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("report.outcome", "rejected_insufficient_balance"))
	assert.Contains(t, spans[1].Attributes(), attribute.String("report.outcome", "committed"))
	assert.Contains(t, spans[1].Attributes(), attribute.String("report.source", "fallback"))
}
