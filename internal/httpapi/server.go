package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/joelkehle/xperience-reports/internal/reports"
	"github.com/joelkehle/xperience-reports/internal/render"
	"github.com/joelkehle/xperience-reports/internal/session"
)

const maxBodyBytes = 1 << 20

// Sessions is the session lifecycle the API drives.
type Sessions interface {
	Connect(ctx context.Context, walletType string) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Disconnect(ctx context.Context, id string) error
}

// Generator runs one charged report generation for a session.
type Generator interface {
	Generate(ctx context.Context, sess *session.Session, t reports.ReportType, input reports.FormInput) (reports.Report, error)
	History(sess *session.Session) []reports.Report
	Report(sess *session.Session, id string) (reports.Report, bool)
}

// PDFRenderer prints a finished report.
type PDFRenderer interface {
	Render(ctx context.Context, r reports.Report) ([]byte, error)
}

// BackendStatus reports whether a generative backend is configured.
type BackendStatus interface {
	Available() bool
	Provider() string
}

type Server struct {
	sessions  Sessions
	generator Generator
	pdf       PDFRenderer
	backend   BackendStatus
	logger    zerolog.Logger
}

type Option func(*Server)

func WithPDFRenderer(p PDFRenderer) Option {
	return func(s *Server) { s.pdf = p }
}

func WithBackendStatus(b BackendStatus) Option {
	return func(s *Server) { s.backend = b }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func NewServer(sessions Sessions, generator Generator, opts ...Option) http.Handler {
	s := &Server{
		sessions:  sessions,
		generator: generator,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/report-types", s.handleReportTypes)
		r.Post("/sessions", s.handleConnect)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleSession)
			r.Delete("/", s.handleDisconnect)
			r.Get("/balance", s.handleBalance)
			r.Post("/reports", s.handleGenerate)
			r.Get("/reports", s.handleHistory)
			r.Get("/reports/{reportID}", s.handleReport)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, newError(CodeNotFound, "no route for "+r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"ok":    false,
			"error": &Error{Code: CodeValidation, Message: r.Method + " not allowed on " + r.URL.Path},
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := toAPIError(err)
	if ae.Status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	}
	writeJSON(w, ae.Status, map[string]any{"ok": false, "error": ae})
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return newError(CodeValidation, "request body is required")
	}
	blob, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return newValidationJSONError(err)
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		return newValidationJSONError(err)
	}
	return nil
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{"ok": true, "backend_available": false}
	if s.backend != nil {
		payload["backend_available"] = s.backend.Available()
		payload["backend_provider"] = s.backend.Provider()
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleReportTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"report_types": reports.Types()})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletType string `json:"wallet_type"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.WalletType) == "" {
		writeError(w, r, newError(CodeValidation, "wallet_type is required"))
		return
	}
	sess, err := s.sessions.Connect(r.Context(), req.WalletType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Summary())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Summary())
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Disconnect(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sess.ID, "balance": sess.Ledger.Balance()})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		ReportType string            `json:"report_type"`
		FormInput  reports.FormInput `json:"form_input"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := reports.ParseReportType(req.ReportType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.FormInput == nil {
		req.FormInput = reports.FormInput{}
	}
	report, err := s.generator.Generate(r.Context(), sess, t, req.FormInput)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": s.generator.History(sess)})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	report, found := s.generator.Report(sess, chi.URLParam(r, "reportID"))
	if !found {
		writeError(w, r, newError(CodeNotFound, "report not found"))
		return
	}

	switch format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))); format {
	case "", "json":
		writeJSON(w, http.StatusOK, report)
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, reports.BuildMarkdown(report))
	case "html":
		doc, err := render.HTML(report)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, doc)
	case "pdf":
		if s.pdf == nil {
			writeError(w, r, newError(CodeValidation, "pdf export is not configured"))
			return
		}
		pdf, err := s.pdf.Render(r.Context(), report)
		if err != nil {
			writeError(w, r, fmt.Errorf("render pdf: %w", err))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="`+report.ID+`.pdf"`)
		_, _ = w.Write(pdf)
	default:
		writeError(w, r, newError(CodeValidation, "format must be json, markdown, html or pdf"))
	}
}
