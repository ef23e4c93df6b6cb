package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/bdobrica/selene/common/version"
)

// HealthServer exposes /health and /status.
// It is optional; Selene runs without it when HTTPAddr is empty.
type HealthServer struct {
	addr      string
	stats     statsProvider
	startedAt time.Time
	server    *http.Server
	mux       *http.ServeMux
}

// statsProvider is the minimal interface the health server needs from the
// pipeline.
type statsProvider interface {
	Stats() (processed, failed int64)
}

// healthResponse is returned by GET /health.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// statusResponse is returned by GET /status.
type statusResponse struct {
	Status     string    `json:"status"`
	Version    string    `json:"version"`
	Commit     string    `json:"commit"`
	BuildTime  string    `json:"build_time"`
	StartedAt  time.Time `json:"started_at"`
	UptimeSecs float64   `json:"uptime_seconds"`
	Processed  int64     `json:"messages_processed"`
	Failed     int64     `json:"messages_failed"`
}

// NewHealthServer creates and configures the HTTP server (does not start it).
func NewHealthServer(addr string, sp statsProvider) *HealthServer {
	mux := http.NewServeMux()
	hs := &HealthServer{
		addr:      addr,
		stats:     sp,
		startedAt: time.Now(),
		mux:       mux,
	}
	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/status", hs.handleStatus)
	return hs
}

// Start begins serving in a background goroutine.
func (hs *HealthServer) Start() error {
	ln, err := net.Listen("tcp", hs.addr)
	if err != nil {
		return fmt.Errorf("health server listen on %s: %w", hs.addr, err)
	}

	hs.server = &http.Server{
		Handler:           hs.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := hs.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("health server stopped", "err", err)
		}
	}()

	slog.Info("health server listening", "addr", hs.addr)
	return nil
}

// Shutdown stops the server gracefully.
func (hs *HealthServer) Shutdown(ctx context.Context) {
	if hs.server == nil {
		return
	}
	if err := hs.server.Shutdown(ctx); err != nil {
		slog.Warn("health server shutdown", "err", err)
	}
}

func (hs *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Version,
		Commit:  version.GitCommit,
	})
}

func (hs *HealthServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	processed, failed := hs.stats.Stats()
	writeJSON(w, http.StatusOK, statusResponse{
		Status:     "ok",
		Version:    version.Version,
		Commit:     version.GitCommit,
		BuildTime:  version.BuildTime,
		StartedAt:  hs.startedAt,
		UptimeSecs: time.Since(hs.startedAt).Seconds(),
		Processed:  processed,
		Failed:     failed,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "err", err)
	}
}
