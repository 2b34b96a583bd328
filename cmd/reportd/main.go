package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joelkehle/xperience-reports/internal/app"
	"github.com/joelkehle/xperience-reports/internal/config"
	"github.com/joelkehle/xperience-reports/internal/httpapi"
	"github.com/joelkehle/xperience-reports/internal/logging"
	"github.com/joelkehle/xperience-reports/internal/reports"
	"github.com/joelkehle/xperience-reports/internal/service"
	"github.com/joelkehle/xperience-reports/internal/session"
	"github.com/joelkehle/xperience-reports/internal/telemetry"
	"github.com/joelkehle/xperience-reports/internal/wallet"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reportd",
		Short:         "Business analysis report service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", cfg.ListenAddr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, ln)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a config file")
	cmd.Flags().String("listen_addr", ":8080", "HTTP listen address")
	cmd.Flags().String("log_level", "info", "log level")
	cmd.Flags().Bool("log_pretty", false, "human readable logs")
	return cmd
}

// serve runs the API on ln until ctx is cancelled, then drains in-flight
// requests and flushes traces. It owns ln.
func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	defer ln.Close()

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	logging.Install(logger)
	ctx = logger.WithContext(ctx)

	pdf, err := app.NewPDFRenderer(cfg)
	if err != nil {
		return err
	}
	tp, shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return err
	}

	store, closer, err := app.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	client, err := app.NewBackend(ctx, cfg, tp)
	if err != nil {
		return err
	}

	manager := session.NewManager(store, wallet.NewSimulated(cfg.Wallet.InitialBalance))
	svc := service.New(reports.NewAssembler(client),
		service.WithSessionSaver(manager),
		service.WithTracerProvider(tp),
	)
	handler := httpapi.NewServer(manager, svc,
		httpapi.WithPDFRenderer(pdf),
		httpapi.WithBackendStatus(client),
		httpapi.WithLogger(logger),
	)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", ln.Addr().String()).
			Str("provider", client.Provider()).
			Bool("backend_available", client.Available()).
			Str("store", cfg.Store.Driver).
			Msg("reportd listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("http shutdown")
		}
		return shutdownTracing(shutdownCtx)
	})
	return g.Wait()
}
