// Package app wires configuration into the running components shared by the
// binaries.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/joelkehle/xperience-reports/internal/backend"
	"github.com/joelkehle/xperience-reports/internal/config"
	"github.com/joelkehle/xperience-reports/internal/render"
	"github.com/joelkehle/xperience-reports/internal/session"
)

// NewBackend builds the configured provider client. Without an API key the
// client has no caller and every generation takes the offline path.
func NewBackend(ctx context.Context, cfg *config.Config, tp trace.TracerProvider) (*backend.Client, error) {
	opts := []backend.Option{backend.WithTimeout(cfg.Backend.Timeout)}
	if tp != nil {
		opts = append(opts, backend.WithTracerProvider(tp))
	}

	key := cfg.APIKey()
	if key == "" {
		zerolog.Ctx(ctx).Warn().Str("provider", cfg.Backend.Provider).Msg("no backend API key configured; reports use offline analysis")
		return backend.NewClient(cfg.Backend.Provider, nil, opts...), nil
	}

	var caller backend.Caller
	switch cfg.Backend.Provider {
	case backend.ProviderGemini:
		c, err := backend.NewGeminiCaller(ctx, key, cfg.Backend.Model, int32(cfg.Backend.MaxTokens))
		if err != nil {
			return nil, fmt.Errorf("gemini caller: %w", err)
		}
		caller = c
	default:
		c, err := backend.NewAnthropicCaller(key, cfg.Backend.Model, int64(cfg.Backend.MaxTokens))
		if err != nil {
			return nil, fmt.Errorf("anthropic caller: %w", err)
		}
		caller = c
	}
	return backend.NewClient(cfg.Backend.Provider, caller, opts...), nil
}

// OpenStore returns the configured session store and a closer for it.
func OpenStore(cfg *config.Config) (session.StateStore, io.Closer, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		s, err := session.OpenSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return session.NewMemoryStore(), nopCloser{}, nil
	}
}

// NewPDFRenderer applies the render.* settings to a Chromium renderer.
func NewPDFRenderer(cfg *config.Config) (*render.ChromiumPDFRenderer, error) {
	paper, err := render.ParsePaperSize(cfg.Render.PaperSize)
	if err != nil {
		return nil, err
	}
	opts := []render.PDFOption{render.WithPaperSize(paper), render.WithPDFTimeout(cfg.Render.Timeout)}
	if !cfg.Render.PageNumbers {
		opts = append(opts, render.WithFooter(""))
	}
	return render.NewChromiumPDFRenderer(cfg.Render.ChromePath, opts...), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
