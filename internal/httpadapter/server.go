package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/qwed-ai/responseguard/internal/verify"
)

// Server exposes verification as a service: clients POST responses or
// proposed tool calls and receive the full verification result.
type Server struct {
	router   *chi.Mux
	verifier *verify.Verifier
	logger   *zap.Logger
	metrics  *Metrics
	history  *History
	opts     Options
}

// NewServer builds the verification service. A nil registry keeps metrics
// local; History defaults to an in-memory ring.
func NewServer(v *verify.Verifier, reg *prometheus.Registry, opts Options) *Server {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(reg)
	}
	if opts.History == nil {
		opts.History = NewHistory(0)
	}

	s := &Server{
		router:   chi.NewRouter(),
		verifier: v,
		logger:   opts.logger().Named("verify-api"),
		metrics:  opts.Metrics,
		history:  opts.History,
		opts:     opts,
	}

	s.routes(reg)
	return s
}

func (s *Server) routes(reg *prometheus.Registry) {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/verify", s.handleVerify)
		r.Post("/verify/tool-call", s.handleVerifyToolCall)
		r.Get("/summary", s.handleSummary)
		r.Get("/history", s.handleHistory)
	})
}

// ServeHTTP lets the Server act as a standard http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type verifyRequest struct {
	Response any            `json:"response"`
	Context  map[string]any `json:"context"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{
			Error: "invalid request body", Code: "bad_request",
		})
		return
	}

	result := s.record(func() verify.Result {
		return s.verifier.Verify(req.Response, req.Context)
	})
	writeJSON(w, http.StatusOK, result)
}

type toolCallRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Context   map[string]any `json:"context"`
}

func (s *Server) handleVerifyToolCall(w http.ResponseWriter, r *http.Request) {
	var req toolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{
			Error: "invalid request body", Code: "bad_request",
		})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{
			Error: "tool call name is required", Code: "bad_request",
		})
		return
	}

	result := s.record(func() verify.Result {
		return s.verifier.VerifyToolCall(req.Name, req.Arguments, req.Context)
	})
	writeJSON(w, http.StatusOK, result)
}

// record runs one verification, feeding metrics, history, and the verbose
// log on the way out.
func (s *Server) record(run func() verify.Result) verify.Result {
	start := time.Now()
	result := run()
	elapsed := time.Since(start)

	s.metrics.observe(result, elapsed.Seconds())
	s.history.Add(result)
	if s.opts.Verbose {
		s.logger.Info("verification",
			zap.String("verification_id", result.ID),
			zap.Bool("verified", result.Verified),
			zap.Bool("blocked", result.Blocked),
			zap.Int("guards_failed", result.GuardsFailed))
	}
	return result
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.history.Summarize())
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	records := s.history.Recent(50)
	if records == nil {
		records = []Record{}
	}
	writeJSON(w, http.StatusOK, records)
}
