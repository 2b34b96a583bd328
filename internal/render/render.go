// Package render turns a finished report into HTML or PDF. Renderers only
// read the report.
package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/joelkehle/xperience-reports/internal/reports"
)

const pdfTimeout = 30 * time.Second

const printCSS = `
:root{--ink:#1c1917;--muted:#57534e;--accent:#0e7490;--rule:#a8a29e;}
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
body{font-family:Georgia,"Times New Roman",serif;color:var(--ink);background:#fff;margin:0;padding:0.6rem;line-height:1.45;}
.pdf-wrap{max-width:1000px;margin:0 auto;}
.report-header{border-bottom:3px solid var(--accent);margin-bottom:1rem;padding-bottom:0.5rem;}
.report-meta{color:var(--muted);font-size:0.85rem;}
.report-badge{display:inline-block;background:#cffafe;color:#164e63;border:1px solid #67e8f9;border-radius:4px;padding:0.1rem 0.45rem;font-size:0.75rem;margin-right:0.3rem;}
.report-badge.fallback{background:#fef3c7;color:#78350f;border-color:#fcd34d;}
.report-html h1{font-size:1.6rem;margin:0.2rem 0 0.8rem;}
.report-html h2{color:var(--accent);border-bottom:1px solid var(--rule);padding-bottom:0.2rem;}
.report-html table{width:100%;border-collapse:collapse;border:1px solid var(--rule);font-size:0.8rem;margin-bottom:1rem;}
.report-html th,.report-html td{border:1px solid var(--rule);padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
.report-html thead th{background:#f1f5f9;font-weight:700;}
h2[data-page-break-before="true"]{break-before:page;page-break-before:always;}
@media print{body{padding:0;} .pdf-wrap{max-width:none;}}
`

var chartDataHeading = regexp.MustCompile(`(?i)<h2([^>]*)>\s*Chart Data\s*</h2>`)

// HTML renders the report markdown into a standalone HTML document.
func HTML(r reports.Report) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(reports.BuildMarkdown(r)), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	// Chart tables start on a fresh page when printed.
	body := chartDataHeading.ReplaceAllString(content.String(), `<h2$1 data-page-break-before="true">Chart Data</h2>`)

	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(r.Title) + "</title>" +
		"<style>" + printCSS + "</style></head><body>" +
		"<div class='pdf-wrap'><div class='report-header'>" +
		"<div class='report-meta'>" + metaHTML(r) + "</div>" +
		"<div class='report-badges'>" + badgeHTML(r) + "</div>" +
		"</div><div class='report-html'>" + body + "</div></div>" +
		"</body></html>", nil
}

func metaHTML(r reports.Report) string {
	var out strings.Builder
	if name := r.Input.String("business_name"); name != "" {
		out.WriteString("<div><strong>Business:</strong> " + html.EscapeString(name) + "</div>")
	}
	out.WriteString("<div><strong>Report:</strong> " + html.EscapeString(r.DisplayName) + "</div>")
	if !r.GeneratedAt.IsZero() {
		out.WriteString("<div><strong>Date:</strong> " + html.EscapeString(r.GeneratedAt.Format("January 2, 2006 at 3:04 PM MST")) + "</div>")
	}
	return out.String()
}

func badgeHTML(r reports.Report) string {
	if r.Source == reports.PathFallback {
		return "<span class='report-badge fallback'>Offline analysis</span>"
	}
	return "<span class='report-badge'>AI analysis</span>"
}

// PaperSize is a page size in inches.
type PaperSize struct {
	Name          string
	Width, Height float64
}

var (
	PaperA4     = PaperSize{Name: "a4", Width: 8.27, Height: 11.69}
	PaperLetter = PaperSize{Name: "letter", Width: 8.5, Height: 11}
	PaperLegal  = PaperSize{Name: "legal", Width: 8.5, Height: 14}
)

// ParsePaperSize resolves a configured paper name. Empty means A4.
func ParsePaperSize(name string) (PaperSize, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PaperA4.Name:
		return PaperA4, nil
	case PaperLetter.Name:
		return PaperLetter, nil
	case PaperLegal.Name:
		return PaperLegal, nil
	}
	return PaperSize{}, fmt.Errorf("unknown paper size %q", name)
}

// Margins are page margins in inches.
type Margins struct {
	Top, Bottom, Left, Right float64
}

// PageNumberFooter centres "Page N of M" at the bottom of every page.
const PageNumberFooter = `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
	`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`

// ChromiumPDFRenderer prints the HTML rendering through headless Chromium.
type ChromiumPDFRenderer struct {
	chromePath string
	paper      PaperSize
	margins    Margins
	footer     string
	timeout    time.Duration
}

type PDFOption func(*ChromiumPDFRenderer)

func WithPaperSize(p PaperSize) PDFOption {
	return func(r *ChromiumPDFRenderer) { r.paper = p }
}

func WithMargins(m Margins) PDFOption {
	return func(r *ChromiumPDFRenderer) { r.margins = m }
}

// WithFooter sets the Chromium footer template. An empty template prints no
// header or footer at all.
func WithFooter(template string) PDFOption {
	return func(r *ChromiumPDFRenderer) { r.footer = template }
}

func WithPDFTimeout(d time.Duration) PDFOption {
	return func(r *ChromiumPDFRenderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewChromiumPDFRenderer uses chromePath when set, otherwise the first
// Chromium found on the usual system paths. Defaults: A4, page numbers in the
// footer.
func NewChromiumPDFRenderer(chromePath string, opts ...PDFOption) *ChromiumPDFRenderer {
	if chromePath == "" {
		chromePath = detectChromePath()
	}
	r := &ChromiumPDFRenderer{
		chromePath: chromePath,
		paper:      PaperA4,
		margins:    Margins{Top: 0.5, Bottom: 0.75, Left: 0.45, Right: 0.45},
		footer:     PageNumberFooter,
		timeout:    pdfTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (p *ChromiumPDFRenderer) Paper() PaperSize { return p.paper }

func (p *ChromiumPDFRenderer) printParams() *page.PrintToPDFParams {
	params := page.PrintToPDF().
		WithPrintBackground(true).
		WithPaperWidth(p.paper.Width).
		WithPaperHeight(p.paper.Height).
		WithMarginTop(p.margins.Top).
		WithMarginBottom(p.margins.Bottom).
		WithMarginLeft(p.margins.Left).
		WithMarginRight(p.margins.Right)
	if p.footer != "" {
		params = params.
			WithDisplayHeaderFooter(true).
			WithHeaderTemplate(`<div></div>`).
			WithFooterTemplate(p.footer)
	}
	return params
}

func (p *ChromiumPDFRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if p.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(p.chromePath))
	}
	return opts
}

func (p *ChromiumPDFRenderer) Render(ctx context.Context, r reports.Report) ([]byte, error) {
	doc, err := HTML(r)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, p.allocatorOptions()...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var pdf []byte
	printPDF := chromedp.ActionFunc(func(ctx context.Context) (err error) {
		pdf, _, err = p.printParams().Do(ctx)
		return err
	})
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(doc))
	if err := chromedp.Run(browserCtx, chromedp.Navigate(dataURL), chromedp.WaitReady("body", chromedp.ByQuery), printPDF); err != nil {
		return nil, fmt.Errorf("print %s pdf for report %s: %w", p.paper.Name, r.ID, err)
	}
	return pdf, nil
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
