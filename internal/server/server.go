package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"raspguard/internal/alert"
	"raspguard/internal/detection"
	"raspguard/internal/interceptor"
	"raspguard/internal/metrics"
	"raspguard/internal/policy"
	"raspguard/internal/threat"
)

const (
	httpLayer       = "http"
	maxRequestBytes = 1 << 20
	defaultRecent   = 50
)

// Deps are the collaborators a Server routes requests to. Engine is
// required; the rest may be nil.
type Deps struct {
	Engine  detection.Engine
	Policy  *policy.Engine
	Metrics *metrics.Recorder
	Bus     *alert.Bus
	Store   *threat.MemoryStore
	Logger  *slog.Logger
}

// Server wraps HTTP and gRPC servers
type Server struct {
	deps    Deps
	cfg     *Config
	router  *mux.Router
	handler http.Handler
	grpcSrv *grpc.Server
}

func New(deps Deps, cfg *Config) *Server {
	if deps.Policy == nil {
		deps.Policy = policy.NewEngine(cfg.Policy())
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{deps: deps, cfg: cfg, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/inspect", s.handleInspect).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/alerts", s.handleAlerts).Methods(http.MethodGet)
	// Wrapping the router, not router.Use, so unmatched routes are inspected too.
	s.handler = SecurityHeaders(s.cfg)(s.InspectQuery(s.router))
}

func (s *Server) Router() http.Handler { return s.handler }

// StartMetrics serves the Prometheus registry gatherer on addr in the
// background and returns the server so it can be shut down.
func (s *Server) StartMetrics(addr string, gatherer prometheus.Gatherer) *http.Server {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: m, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.deps.Logger.Error("metrics server error", "err", err)
		}
	}()
	return srv
}

// GRPCServer returns a gRPC server guarded by the inspection interceptor and
// exposing the standard health service. Application services register on it
// before StartGRPC.
func (s *Server) GRPCServer() *grpc.Server {
	if s.grpcSrv != nil {
		return s.grpcSrv
	}
	s.grpcSrv = grpc.NewServer(grpc.ChainUnaryInterceptor(interceptor.UnaryServerInterceptor(interceptor.Options{
		Engine:       s.deps.Engine,
		Policy:       s.deps.Policy,
		Metrics:      s.deps.Metrics,
		Bus:          s.deps.Bus,
		Logger:       s.deps.Logger,
		MaxScanChars: s.cfg.MaxScanChars,
	})))
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s.grpcSrv, hs)
	return s.grpcSrv
}

func (s *Server) StartGRPC(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.GRPCServer().Serve(ln)
}

// StopGRPC gracefully stops the gRPC server if it was started.
func (s *Server) StopGRPC() {
	if s.grpcSrv != nil {
		s.grpcSrv.GracefulStop()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

type inspectRequest struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

type inspectResponse struct {
	detection.Result
	Action policy.ActionType `json:"action"`
	Reason string            `json:"reason"`
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	var req inspectRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Context == "" {
		req.Context = r.Method + " " + r.URL.Path
	}

	start := time.Now()
	res := s.deps.Engine.Inspect(req.Text, req.Context)
	s.deps.Metrics.RecordInspection(httpLayer, time.Since(start))

	decision := s.deps.Policy.Evaluate(res)
	if res.IsThreat {
		s.report(res, req.Text, req.Context, decision)
	}
	writeJSON(w, http.StatusOK, inspectResponse{Result: res, Action: decision.Action, Reason: decision.Reason})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeJSON(w, http.StatusOK, []threat.AlertRecord{})
		return
	}
	n := defaultRecent
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	writeJSON(w, http.StatusOK, s.deps.Store.Recent(n))
}

// InspectQuery inspects every query parameter value before the request
// reaches next. A blocking decision answers 403.
func (s *Server) InspectQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if len(query) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		for name, values := range query {
			for _, v := range values {
				context := r.Method + " " + r.URL.Path + " ?" + name
				res := s.deps.Engine.Inspect(v, context)
				if !res.IsThreat {
					continue
				}
				s.deps.Metrics.RecordInspection(httpLayer, time.Since(start))
				decision := s.deps.Policy.Evaluate(res)
				s.report(res, v, context, decision)
				if decision.Blocked() {
					writeJSON(w, http.StatusForbidden, map[string]string{"error": "RASP Security Alert: " + res.Description})
					return
				}
				next.ServeHTTP(w, r)
				return
			}
		}
		s.deps.Metrics.RecordInspection(httpLayer, time.Since(start))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) report(res detection.Result, payload, context string, decision policy.Decision) {
	s.deps.Metrics.ReportThreat(httpLayer, string(res.ThreatType), decision.Blocked())
	if s.deps.Bus != nil {
		s.deps.Bus.Push(string(res.ThreatType), alert.Snippet(payload), context)
	}
	s.deps.Logger.Warn("rasp detected threat", "context", context, "action", decision.Action, "reason", decision.Reason)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
