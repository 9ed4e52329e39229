// Package api provides the read-only HTTP API server for mfkit.
//
// It exposes scheme codes, quotes, NAV history, balance values, one-day
// changes, category performance reports, AMC profiles and average AUM as
// JSON, plus a WebSocket stream of performance reports.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/mfkit/internal/config"
	"github.com/seenimoa/mfkit/internal/constants"
	"github.com/seenimoa/mfkit/pkg/models"
	"github.com/seenimoa/mfkit/pkg/utils"
	"github.com/seenimoa/mfkit/web"
)

// Service is the operation surface the server exposes. *client.Client
// implements it.
type Service interface {
	Table() *constants.Table
	ListSchemeCodes() map[string]string
	IsValidCode(code string) bool
	SnapshotInfo() (int, time.Time)
	ReportDate() string
	GetQuote(ctx context.Context, code string) (*models.SchemeQuote, error)
	GetDetail(ctx context.Context, code string) (*models.SchemeDetail, error)
	GetHistory(ctx context.Context, code string) (*models.SchemeHistory, error)
	GetHistoryForYear(ctx context.Context, code string, year int) (*models.SchemeHistory, error)
	GetHistoryForRange(ctx context.Context, code, start, end string) (*models.SchemeHistory, error)
	GetBalanceValue(ctx context.Context, code, units string) (*models.SchemeQuote, error)
	GetOneDayChange(ctx context.Context, code string) (decimal.Decimal, error)
	GetCategoryPerformance(ctx context.Context, group string) ([]models.CategoryPerformance, error)
	GetSubCategoryPerformance(ctx context.Context, group, category string) (*models.CategoryPerformance, error)
	GetAllAmcProfiles(ctx context.Context) ([]models.AmcProfile, error)
	GetAverageAum(ctx context.Context, quarter string) (*models.AverageAum, error)
}

// Request budgets. Multi-page scrapes get the longest.
const (
	schemeTimeout  = 30 * time.Second
	scrapeTimeout  = 2 * time.Minute
	requestTimeout = 3 * time.Minute
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	svc     Service
	version string
	logger  zerolog.Logger
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, svc Service, version string, logger zerolog.Logger) *Server {
	srv := &Server{
		cfg:     cfg,
		svc:     svc,
		version: version,
		logger:  logger,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until SIGINT/SIGTERM,
// then shuts down gracefully.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: requestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("api server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}
	s.logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if s.cfg != nil && len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// Landing page
	r.Handle("/*", http.FileServerFS(web.StaticFS()))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/config", s.handleGetConfig)

		// WebSocket stream, outside the request timeout.
		r.Get("/performance/{group}/stream", s.handlePerformanceStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			// Schemes
			r.Get("/schemes", s.handleListSchemes)
			r.Get("/schemes/{code}", s.handleSchemeCode)
			r.Get("/schemes/{code}/quote", s.handleQuote)
			r.Get("/schemes/{code}/details", s.handleDetails)
			r.Get("/schemes/{code}/history", s.handleHistory)
			r.Get("/schemes/{code}/balance", s.handleBalance)
			r.Get("/schemes/{code}/change", s.handleChange)

			// Reports
			r.Get("/performance", s.handleListGroups)
			r.Get("/performance/{group}", s.handlePerformance)
			r.Get("/amc/profiles", s.handleAmcProfiles)
			r.Get("/aum", s.handleAverageAum)
		})
	})

	return r
}

// requestLogger logs one line per request at debug, or warn for 5xx.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		ev := s.logger.Debug()
		if ww.Status() >= http.StatusInternalServerError {
			ev = s.logger.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SchemeEntry is one code of the scheme list.
type SchemeEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SchemeCodeStatus is the body of GET /api/v1/schemes/{code}.
type SchemeCodeStatus struct {
	Code  string `json:"code"`
	Valid bool   `json:"valid"`
	Name  string `json:"name,omitempty"`
}

// OneDayChange is the body of GET /api/v1/schemes/{code}/change.
type OneDayChange struct {
	SchemeCode string      `json:"scheme_code"`
	Change     json.Number `json:"change"` // exact decimal, encoded as a JSON number
}

// GroupInfo describes one performance category group.
type GroupInfo struct {
	Name       string   `json:"name"`
	Prefix     string   `json:"prefix"`
	Categories []string `json:"categories"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"status":   "ok",
		"version":  s.version,
		"time_ist": utils.FormatDateTimeIST(utils.NowIST()),
	}
	if s.svc != nil {
		n, at := s.svc.SnapshotInfo()
		data["schemes"] = n
		data["snapshot_at"] = utils.FormatDateTimeIST(at)
		data["report_date"] = s.svc.ReportDate()
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func (s *Server) handleListSchemes(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	codes := s.svc.ListSchemeCodes()
	out := make([]SchemeEntry, 0, len(codes))
	for code, name := range codes {
		if q != "" && !strings.Contains(strings.ToLower(name), q) && !strings.HasPrefix(code, q) {
			continue
		}
		out = append(out, SchemeEntry{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func (s *Server) handleSchemeCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	st := SchemeCodeStatus{Code: code, Valid: s.svc.IsValidCode(code)}
	if st.Valid {
		st.Name = s.svc.ListSchemeCodes()[code]
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: st})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), schemeTimeout)
	defer cancel()

	quote, err := s.svc.GetQuote(ctx, chi.URLParam(r, "code"))
	respond(w, quote, err)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), schemeTimeout)
	defer cancel()

	det, err := s.svc.GetDetail(ctx, chi.URLParam(r, "code"))
	respond(w, det, err)
}

// handleHistory serves the full series, ?year=YYYY, or ?from=DD-MM-YYYY&to=DD-MM-YYYY.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	q := r.URL.Query()
	year, from, to := q.Get("year"), q.Get("from"), q.Get("to")

	ctx, cancel := context.WithTimeout(r.Context(), schemeTimeout)
	defer cancel()

	switch {
	case year != "" && (from != "" || to != ""):
		writeError(w, http.StatusBadRequest, "use either year or from/to, not both")
	case year != "":
		y, err := strconv.Atoi(year)
		if err != nil {
			writeError(w, http.StatusBadRequest, "year must be a number")
			return
		}
		h, err := s.svc.GetHistoryForYear(ctx, code, y)
		respond(w, h, err)
	case from != "" || to != "":
		h, err := s.svc.GetHistoryForRange(ctx, code, from, to)
		respond(w, h, err)
	default:
		h, err := s.svc.GetHistory(ctx, code)
		respond(w, h, err)
	}
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	units := r.URL.Query().Get("units")
	if units == "" {
		writeError(w, http.StatusBadRequest, "units is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), schemeTimeout)
	defer cancel()

	q, err := s.svc.GetBalanceValue(ctx, chi.URLParam(r, "code"), units)
	respond(w, q, err)
}

func (s *Server) handleChange(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	ctx, cancel := context.WithTimeout(r.Context(), schemeTimeout)
	defer cancel()

	d, err := s.svc.GetOneDayChange(ctx, code)
	if err != nil {
		respond(w, nil, err)
		return
	}
	respond(w, OneDayChange{SchemeCode: code, Change: json.Number(d.String())}, nil)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	t := s.svc.Table()
	out := make([]GroupInfo, 0, len(t.Groups))
	for _, g := range t.Groups {
		gi := GroupInfo{Name: g.Name, Prefix: g.Prefix}
		for _, c := range g.Categories {
			gi.Categories = append(gi.Categories, c.Name)
		}
		out = append(out, gi)
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

// handlePerformance serves a whole group, or one sub-category with ?category=.
func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "group")
	category := r.URL.Query().Get("category")

	ctx, cancel := context.WithTimeout(r.Context(), scrapeTimeout)
	defer cancel()

	if category != "" {
		p, err := s.svc.GetSubCategoryPerformance(ctx, group, category)
		respond(w, p, err)
		return
	}
	perf, err := s.svc.GetCategoryPerformance(ctx, group)
	respond(w, perf, err)
}

func (s *Server) handleAmcProfiles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), scrapeTimeout)
	defer cancel()

	profiles, err := s.svc.GetAllAmcProfiles(ctx)
	respond(w, profiles, err)
}

func (s *Server) handleAverageAum(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), schemeTimeout)
	defer cancel()

	aum, err := s.svc.GetAverageAum(ctx, r.URL.Query().Get("quarter"))
	respond(w, aum, err)
}

// ============================================================
// Helpers
// ============================================================

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidCode), errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValueConversion), errors.Is(err, models.ErrUnknownGroup),
		errors.Is(err, models.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func respond(w http.ResponseWriter, data interface{}, err error) {
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
