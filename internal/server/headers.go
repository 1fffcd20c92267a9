package server

import (
	"net/http"
	"strings"
)

const baseCSP = "default-src 'self'; object-src 'none'; frame-ancestors 'none'; upgrade-insecure-requests; block-all-mixed-content;"

// SecurityHeaders adds anti-sniffing, framing and content-security-policy
// headers to every response. Headers are applied as the response starts, so
// values set by the wrapped handler take precedence.
func SecurityHeaders(cfg *Config) func(http.Handler) http.Handler {
	cspHeader := "Content-Security-Policy"
	if cfg.CSPReportOnly {
		cspHeader = "Content-Security-Policy-Report-Only"
	}
	var b strings.Builder
	b.WriteString(baseCSP)
	if cfg.CSPReportURI != "" {
		b.WriteString(" report-uri ")
		b.WriteString(cfg.CSPReportURI)
		b.WriteString(";")
	}
	csp := b.String()

	apply := func(h http.Header) {
		setIfAbsent(h, "X-Content-Type-Options", "nosniff")
		setIfAbsent(h, "X-Frame-Options", "SAMEORIGIN")
		setIfAbsent(h, cspHeader, csp)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hw := &headerWriter{ResponseWriter: w, apply: apply}
			next.ServeHTTP(hw, r)
			hw.start()
		})
	}
}

func setIfAbsent(h http.Header, key, value string) {
	if _, ok := h[http.CanonicalHeaderKey(key)]; !ok {
		h.Set(key, value)
	}
}

// headerWriter runs apply once, right before the response headers are sent.
type headerWriter struct {
	http.ResponseWriter
	apply   func(http.Header)
	started bool
}

func (w *headerWriter) start() {
	if !w.started {
		w.started = true
		w.apply(w.Header())
	}
}

func (w *headerWriter) WriteHeader(code int) {
	w.start()
	w.ResponseWriter.WriteHeader(code)
}

func (w *headerWriter) Write(p []byte) (int, error) {
	w.start()
	return w.ResponseWriter.Write(p)
}

func (w *headerWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
