package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"raspguard/internal/alert"
	"raspguard/internal/detection"
	"raspguard/internal/metrics"
	"raspguard/internal/threat"
)

func newTestServer(t *testing.T, cfg *Config) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec, err := metrics.NewRecorder(prometheus.NewRegistry())
	require.NoError(t, err)
	engine, err := detection.New(detection.ModeComposite, logger)
	require.NoError(t, err)
	return New(Deps{
		Engine:  engine,
		Metrics: rec,
		Bus:     alert.NewBus(),
		Store:   threat.NewMemoryStore(10),
		Logger:  logger,
	}, cfg)
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	s.Router().ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	rec := do(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestInspectEndpoint(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := do(s, http.MethodPost, "/v1/inspect", `{"text":"<script>alert(1)</script>","context":"unit"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, true, got["is_threat"])
	assert.Equal(t, "XSS", got["threat_type"])
	assert.Equal(t, "Signature Match (Raw)", got["description"])
	assert.Equal(t, "critical", got["severity"])
	assert.Equal(t, "block", got["action"])
	assert.Equal(t, 1, s.deps.Bus.Len())

	rec = do(s, http.MethodPost, "/v1/inspect", `{"text":"Hello World"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, false, got["is_threat"])
	assert.Equal(t, "allow", got["action"])
}

func TestInspectEndpointRejectsBadBody(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	rec := do(s, http.MethodPost, "/v1/inspect", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodGet, "/v1/inspect", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestInspectQueryBlocks(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	rec := do(s, http.MethodGet, "/healthz?q=admin'%20OR%20'1'='1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "RASP Security Alert: SQL Injection Patterns Detected")

	s.deps.Bus.Close()
	for a := range s.deps.Bus.Alerts(context.Background()) {
		assert.Equal(t, "GET /healthz ?q", a.Context)
	}
}

func TestInspectQueryMonitorMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlockOnDetection = false
	s := newTestServer(t, cfg)
	rec := do(s, http.MethodGet, "/healthz?q=%3Cscript%3E", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, s.deps.Bus.Len())
}

func TestInspectQueryAllowsSafeParams(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	rec := do(s, http.MethodGet, "/healthz?name=O'Reilly&page=2", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, s.deps.Bus.Len())
}

func TestInspectQueryCoversUnmatchedRoutes(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	rec := do(s, http.MethodGet, "/missing?q=%3Cscript%3E", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	cfg := DefaultConfig()
	cfg.BlockOnDetection = false
	s = newTestServer(t, cfg)
	rec = do(s, http.MethodDelete, "/healthz?q=%3Cscript%3E", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, 1, s.deps.Bus.Len())

	rec = do(s, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy-Report-Only"))
}

func TestAlertsEndpoint(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	require.NoError(t, s.deps.Store.Save(context.Background(), threat.AlertRecord{ID: "1", ThreatType: "XSS"}))
	require.NoError(t, s.deps.Store.Save(context.Background(), threat.AlertRecord{ID: "2", ThreatType: "DoS"}))

	rec := do(s, http.MethodGet, "/v1/alerts?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []threat.AlertRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestGRPCServerGuardsCalls(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	ln := bufconn.Listen(1 << 20)
	go func() { _ = s.GRPCServer().Serve(ln) }()
	t.Cleanup(s.StopGRPC)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return ln.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	_, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "<script>alert(1)</script>"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}
