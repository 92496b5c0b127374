package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tenantService "github.com/reshetovitsme/telegram-leave-guard/internal/modules/tenant/service"
	"github.com/reshetovitsme/telegram-leave-guard/internal/shared/config"
	sloghttp "github.com/samber/slog-http"
)

// Server exposes operational endpoints for deployment platforms
type Server struct {
	cfg     *config.Config
	tenants *tenantService.Service
	logger  *slog.Logger
}

// New creates a new HTTP server
func New(cfg *config.Config, tenants *tenantService.Service) *Server {
	return &Server{
		cfg:     cfg,
		tenants: tenants,
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", s.handleHealth)

	// Tenant counts for dashboards
	mux.HandleFunc("GET /status", s.handleStatus)

	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("HTTP server starting", "addr", addr)

	// Use slog-http middleware with recovery
	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	channels, groups, err := s.tenants.Counts()
	if err != nil {
		s.logger.Error("Error counting tenants", "error", err)
		http.Error(w, "Failed to read tenant registry", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":          "ok",
		"channel_tenants": channels,
		"group_tenants":   groups,
		"app_env":         s.cfg.AppEnv,
	})
}
