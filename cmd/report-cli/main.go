package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joelkehle/xperience-reports/internal/app"
	"github.com/joelkehle/xperience-reports/internal/config"
	"github.com/joelkehle/xperience-reports/internal/logging"
	"github.com/joelkehle/xperience-reports/internal/render"
	"github.com/joelkehle/xperience-reports/internal/reports"
	"github.com/joelkehle/xperience-reports/internal/service"
	"github.com/joelkehle/xperience-reports/internal/session"
	"github.com/joelkehle/xperience-reports/internal/wallet"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "report-cli",
		Short:         "Generate business analysis reports from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTypesCmd(), newGenerateCmd())
	return root
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List report types and their required fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tNAME\tREQUIRED")
			for _, d := range reports.Types() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Type, d.DisplayName, strings.Join(d.RequiredFields, ", "))
			}
			return tw.Flush()
		},
	}
}

type generateOptions struct {
	configPath string
	reportType string
	inputPath  string
	format     string
	pdfPath    string
	balance    int
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one report from a JSON form input file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load(opts.configPath, nil)
			if err != nil {
				return err
			}
			return runGenerate(cmd, cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to a config file")
	cmd.Flags().StringVar(&opts.reportType, "type", "", "report type: business_map, blue_ocean or seo")
	cmd.Flags().StringVar(&opts.inputPath, "input", "", "JSON file with the form input, or - for stdin")
	cmd.Flags().StringVar(&opts.format, "format", "json", "output format: json, yaml, markdown or html")
	cmd.Flags().StringVar(&opts.pdfPath, "pdf", "", "also write a PDF to this path")
	cmd.Flags().IntVar(&opts.balance, "balance", wallet.DefaultInitialBalance, "token balance of the one-off session")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runGenerate(cmd *cobra.Command, cfg *config.Config, opts generateOptions) error {
	logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogPretty)
	ctx := logger.WithContext(cmd.Context())

	t, err := reports.ParseReportType(opts.reportType)
	if err != nil {
		return err
	}
	input, err := readInput(cmd.InOrStdin(), opts.inputPath)
	if err != nil {
		return err
	}

	client, err := app.NewBackend(ctx, cfg, nil)
	if err != nil {
		return err
	}
	svc := service.New(reports.NewAssembler(client))
	sess := session.New("cli", wallet.SimulatedAddress, wallet.TypeMetaMask, opts.balance, time.Now().UTC())

	report, err := svc.Generate(ctx, sess, t, input)
	if err != nil {
		return err
	}
	if err := writeReport(cmd.OutOrStdout(), report, opts.format); err != nil {
		return err
	}

	if opts.pdfPath != "" {
		renderer, err := app.NewPDFRenderer(cfg)
		if err != nil {
			return err
		}
		pdf, err := renderer.Render(ctx, report)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.pdfPath, pdf, 0o644); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
	}
	logger.Info().Str("report_id", report.ID).Str("source", string(report.Source)).Int("balance", sess.Ledger.Balance()).Msg("report generated")
	return nil
}

func readInput(stdin io.Reader, path string) (reports.FormInput, error) {
	var blob []byte
	var err error
	if path == "-" {
		blob, err = io.ReadAll(stdin)
	} else {
		blob, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var input reports.FormInput
	if err := json.Unmarshal(blob, &input); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	if input == nil {
		return nil, errors.New("input must be a JSON object")
	}
	return input, nil
}

func writeReport(w io.Writer, r reports.Report, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml", "yml":
		// Round trip through JSON so YAML keys match the API field names.
		blob, err := json.Marshal(r)
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := json.Unmarshal(blob, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "markdown", "md":
		_, err := io.WriteString(w, reports.BuildMarkdown(r))
		return err
	case "html":
		doc, err := render.HTML(r)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, doc)
		return err
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
