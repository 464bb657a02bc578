package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/seatsync/seatsync/internal/auth"
	"github.com/seatsync/seatsync/internal/logger"
	"github.com/seatsync/seatsync/internal/metrics"
	"github.com/seatsync/seatsync/internal/tokencache"
)

// Server hosts the tool registry and the HTTP transport. One Server
// serves all accounts; everything account-specific lives in the
// per-request Session.
type Server struct {
	registry    *Registry
	cache       *tokencache.Store
	upstreamURL string
	version     string
}

// NewServer creates a server with all tools registered.
func NewServer(upstreamURL string, cache *tokencache.Store, version string) *Server {
	s := &Server{
		registry:    NewRegistry(),
		cache:       cache,
		upstreamURL: upstreamURL,
		version:     version,
	}
	s.registerAllTools(s.registry)
	return s
}

// GetRegistry returns the tool registry for external access
func (s *Server) GetRegistry() *Registry {
	return s.registry
}

// Handler builds the full HTTP handler: health endpoints without auth,
// the MCP endpoint behind credential and metrics middleware.
func (s *Server) Handler() http.Handler {
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), logger.ContextKeyRequestID, requestID)
		r = r.WithContext(ctx)

		logger.Info("HTTP %s %s from %s [request_id=%s]", r.Method, r.URL.Path, r.RemoteAddr, requestID)
		s.handleMCP(w, r, requestID)
	})

	authedHandler := auth.Middleware()(mcpHandler)

	mainMux := http.NewServeMux()

	// Health endpoints - no authentication required
	mainMux.HandleFunc("/health", s.handleHealthCheck)
	mainMux.HandleFunc("/ready", s.handleReadinessCheck)

	// Metrics endpoint - no authentication required (Prometheus scraping)
	mainMux.Handle("/metrics", metrics.Handler())

	mainMux.Handle("/mcp", metrics.Middleware(authedHandler))

	return mainMux
}

// Serve starts the HTTP server
func (s *Server) Serve(addr string) error {
	logger.Info("SeatSync MCP server listening on %s", addr)
	logger.Info("Health check: http://localhost%s/health", addr)
	logger.Info("Metrics: http://localhost%s/metrics", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleMCP processes one JSON-RPC exchange. Credentials were already
// verified present by the auth middleware.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request, requestID string) {
	w.Header().Set("Content-Type", "application/json")

	creds, ok := auth.FromContext(r.Context())
	if !ok {
		// middleware guarantees credentials; this is a wiring bug
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(errorResponse(nil, &JSONRPCError{
			Code:    CodeInternalError,
			Message: "credentials missing from request context",
		}))
		return
	}

	var resp *JSONRPCResponse
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Panic handling request [request_id=%s]: %v", requestID, rec)
			resp = errorResponse(nil, &JSONRPCError{
				Code:    CodeInternalError,
				Message: "internal server error",
			})
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("Failed to write response [request_id=%s]: %v", requestID, err)
		}
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		resp = errorResponse(nil, &JSONRPCError{
			Code:    CodeParseError,
			Message: "Parse error: " + err.Error(),
		})
		return
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		resp = errorResponse(nil, &JSONRPCError{
			Code:    CodeParseError,
			Message: "Parse error: " + err.Error(),
		})
		return
	}

	sess := NewSession(s.upstreamURL, creds, s.cache, requestID)
	resp = s.processRequest(r.Context(), sess, &req)
}

// handleHealthCheck is a basic liveness check
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleReadinessCheck verifies the token cache database is reachable
func (s *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := s.cache.Ping(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready","reason":"token cache unavailable"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
