package render

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joelkehle/xperience-reports/internal/reports"
)

func sampleReport(t *testing.T) reports.Report {
	t.Helper()
	a := reports.NewAssembler(nil,
		reports.WithClock(func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }),
		reports.WithIDGenerator(func() string { return "rep-1" }),
	)
	r, err := a.Generate(context.Background(), reports.TypeBlueOcean, reports.FormInput{
		"business_name":     "Acme <Labs>",
		"products_services": "consulting",
		"target_customers":  "SMBs",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return r
}

func TestHTMLRendersTablesAndMeta(t *testing.T) {
	out, err := HTML(sampleReport(t))
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	for _, want := range []string{
		"<title>Xperience Report (Blue Ocean): Acme &lt;Labs&gt;</title>",
		"<strong>Business:</strong> Acme &lt;Labs&gt;",
		"<table>",
		"<h2>Strategy Canvas</h2>",
		`<h2 data-page-break-before="true">Chart Data</h2>`,
		"Offline analysis",
		"May 4, 2026",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in html output", want)
		}
	}
}

func TestHTMLDoesNotMutateReport(t *testing.T) {
	r := sampleReport(t)
	before := reports.BuildMarkdown(r)
	if _, err := HTML(r); err != nil {
		t.Fatalf("html: %v", err)
	}
	if after := reports.BuildMarkdown(r); after != before {
		t.Fatal("rendering changed the report")
	}
}

func TestChromiumPDFRenderer(t *testing.T) {
	if os.Getenv("XPERIENCE_PDF_TESTS") == "" {
		t.Skip("set XPERIENCE_PDF_TESTS=1 to run against a local Chromium")
	}
	pdf, err := NewChromiumPDFRenderer("").Render(context.Background(), sampleReport(t))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("expected a PDF document, got %q", pdf[:min(len(pdf), 16)])
	}
}

func TestPrintParamsDefaults(t *testing.T) {
	params := NewChromiumPDFRenderer("/usr/bin/chromium").printParams()
	if params.PaperWidth != PaperA4.Width || params.PaperHeight != PaperA4.Height {
		t.Fatalf("paper=%vx%v want A4", params.PaperWidth, params.PaperHeight)
	}
	if !params.PrintBackground || !params.DisplayHeaderFooter {
		t.Fatalf("expected background and footer: %+v", params)
	}
	if !strings.Contains(params.FooterTemplate, "pageNumber") {
		t.Fatalf("footer=%q", params.FooterTemplate)
	}
}

func TestPrintParamsOptions(t *testing.T) {
	r := NewChromiumPDFRenderer("/usr/bin/chromium",
		WithPaperSize(PaperLetter),
		WithMargins(Margins{Top: 1, Bottom: 1, Left: 0.25, Right: 0.25}),
		WithFooter(""),
		WithPDFTimeout(0),
	)
	params := r.printParams()
	if params.PaperWidth != 8.5 || params.PaperHeight != 11 {
		t.Fatalf("paper=%vx%v want letter", params.PaperWidth, params.PaperHeight)
	}
	if params.MarginTop != 1 || params.MarginLeft != 0.25 {
		t.Fatalf("margins top=%v left=%v", params.MarginTop, params.MarginLeft)
	}
	if params.DisplayHeaderFooter || params.FooterTemplate != "" {
		t.Fatal("empty footer template must disable header and footer")
	}
	if r.timeout != pdfTimeout {
		t.Fatalf("zero timeout must keep the default, got %v", r.timeout)
	}
}

func TestParsePaperSize(t *testing.T) {
	cases := map[string]string{"": "a4", "A4": "a4", " letter ": "letter", "LEGAL": "legal"}
	for in, want := range cases {
		got, err := ParsePaperSize(in)
		if err != nil || got.Name != want {
			t.Fatalf("ParsePaperSize(%q)=%v,%v want %s", in, got, err, want)
		}
	}
	if _, err := ParsePaperSize("tabloid"); err == nil {
		t.Fatal("expected error for unknown paper")
	}
}
