// Package server maps the flat telemetry URL space onto a telemetry.Service.
package server

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/AdrianChallinorOsiris/monitor/internal/audit"
	"github.com/AdrianChallinorOsiris/monitor/internal/telemetry"
)

// Options configures NewHandler.
type Options struct {
	// Workers bounds how many telemetry requests run at once.
	Workers int
	// MCP is mounted at MCPPath when non-nil.
	MCP     http.Handler
	MCPPath string
	Audit   *audit.Logger
	Logger  *slog.Logger
}

// NewHandler returns the HTTP handler serving every telemetry endpoint.
// Unrouted paths get a 404 with a fixed body.
func NewHandler(svc *telemetry.Service, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	limit := NewLimitMiddleware(int64(opts.Workers))

	probes := http.NewServeMux()
	probes.HandleFunc("GET /status", text(func(r *http.Request) string { return svc.Status() }))
	probes.HandleFunc("GET /name", text(func(r *http.Request) string { return svc.Name() }))
	probes.HandleFunc("GET /os/{field}", func(w http.ResponseWriter, r *http.Request) {
		key, ok := telemetry.OSKeys[r.PathValue("field")]
		if !ok {
			notFound(w, r)
			return
		}
		writeText(w, http.StatusOK, svc.OSField(key))
	})
	probes.HandleFunc("GET /temp/{id}", text(func(r *http.Request) string { return svc.Temp(r.PathValue("id")) }))
	probes.HandleFunc("GET /sensors/{chip}/{param}", text(func(r *http.Request) string {
		return svc.Sensor(r.Context(), r.PathValue("chip"), r.PathValue("param"))
	}))
	probes.HandleFunc("GET /uptime", text(func(r *http.Request) string { return svc.Uptime(r.Context()) }))
	probes.HandleFunc("GET /aptcheck", text(func(r *http.Request) string { return svc.AptCheck(r.Context()) }))
	probes.HandleFunc("GET /aptcheckbrief", text(func(r *http.Request) string { return svc.AptCheckBrief(r.Context()) }))
	probes.HandleFunc("GET /reboot", text(func(r *http.Request) string { return svc.Reboot() }))
	probes.HandleFunc("GET /disk/{mount}/{param}", text(func(r *http.Request) string {
		return svc.Disk(r.PathValue("mount"), r.PathValue("param"))
	}))
	probes.HandleFunc("GET /loadavg", text(func(r *http.Request) string { return svc.LoadAvg(r.Context()) }))
	probes.HandleFunc("GET /cpuload", text(func(r *http.Request) string { return svc.CPULoad(r.Context()) }))
	probes.HandleFunc("GET /cpu", text(func(r *http.Request) string { return svc.CPU(r.Context()) }))
	probes.HandleFunc("GET /boot", text(func(r *http.Request) string { return svc.Boot(r.Context()) }))
	probes.HandleFunc("GET /uname/{param}", text(func(r *http.Request) string { return svc.Uname(r.PathValue("param")) }))
	probes.HandleFunc("GET /memory", text(func(r *http.Request) string { return svc.Memory(r.Context()) }))
	probes.HandleFunc("GET /ip", text(func(r *http.Request) string { return svc.IP() }))
	probes.HandleFunc("GET /port/{n}", func(w http.ResponseWriter, r *http.Request) {
		port, err := strconv.ParseUint(r.PathValue("n"), 10, 16)
		if err != nil {
			notFound(w, r)
			return
		}
		writeText(w, http.StatusOK, svc.Port(r.Context(), uint16(port)))
	})
	probes.HandleFunc("/", notFound)

	mux := http.NewServeMux()
	mux.Handle("/", limit(probes))
	if opts.MCP != nil && opts.MCPPath != "" {
		// Tool calls arrive as POSTs and share the worker pool; the GET
		// event stream does not hold a slot.
		limitedMCP := limit(opts.MCP)
		mux.HandleFunc(opts.MCPPath, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				limitedMCP.ServeHTTP(w, r)
				return
			}
			opts.MCP.ServeHTTP(w, r)
		})
	}

	return NewAuditMiddleware(opts.Audit, opts.Logger)(mux)
}

// NewHTTPServer wraps h in an http.Server listening on addr.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func text(fn func(r *http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, fn(r))
	}
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusNotFound, telemetry.NotFoundText)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
