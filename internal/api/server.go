package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"atxcontrol/internal/events"
	"atxcontrol/internal/shadowstate"
	"atxcontrol/pkg/atx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// eventBuffer is the per-connection backlog before events are dropped
	eventBuffer = 16

	wsWriteTimeout = 10 * time.Second
)

// Controller is the part of the ATX controller the API drives
type Controller interface {
	State(ctx context.Context) atx.State
	Do(ctx context.Context, action atx.Action) error
	CurrentStateEvent(ctx context.Context) events.StateChanged
}

// Server provides HTTP API endpoints for ATX power control
type Server struct {
	controller Controller
	bus        *events.Bus
	shadow     *shadowstate.Tracker
	devDir     string
	logger     *zap.Logger
	server     *http.Server
	upgrader   websocket.Upgrader

	// closed on Stop; hijacked websocket connections outlive Shutdown
	stopping chan struct{}
	stopOnce sync.Once
}

// NewServer creates a new API server. devDir is scanned for GPIO chips and
// hidraw devices, normally /dev.
func NewServer(controller Controller, bus *events.Bus, shadow *shadowstate.Tracker, devDir string, logger *zap.Logger, port int) *Server {
	s := &Server{
		controller: controller,
		bus:        bus,
		shadow:     shadow,
		devDir:     devDir,
		logger:     logger.Named("api"),
		stopping:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Handler(),
		// actions may wait out the smart-plug command timeout
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the request router
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleSitemap)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/atx/state", s.handleGetState)
	mux.HandleFunc("/api/atx/power", s.handlePower)
	mux.HandleFunc("/api/atx/devices", s.handleDevices)
	mux.HandleFunc("/api/atx/shadow", s.handleGetShadow)
	mux.HandleFunc("/api/atx/events", s.handleEvents)
	return mux
}

// PowerRequest is the body of POST /api/atx/power
type PowerRequest struct {
	Action atx.Action `json:"action"`
}

// ErrorResponse is returned with every non-2xx status
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleGetState returns a fresh snapshot. With ?publish=1 the snapshot is
// also published on the event bus.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var state atx.State
	if r.URL.Query().Get("publish") == "1" {
		event := s.controller.CurrentStateEvent(r.Context())
		s.bus.Publish(event)
		state = event.State
	} else {
		state = s.controller.State(r.Context())
	}
	s.shadow.UpdateCurrentInputs(state)

	s.writeJSON(w, http.StatusOK, state)
	s.logger.Debug("State request served",
		zap.String("remote_addr", r.RemoteAddr),
		zap.Stringer("power_status", state.PowerStatus))
}

// handlePower runs one button action
func (s *Server) handlePower(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PowerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if !req.Action.Valid() {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("%s: %q", atx.ErrInvalidAction, req.Action)})
		return
	}

	s.logger.Info("Power action requested",
		zap.String("action", string(req.Action)),
		zap.String("remote_addr", r.RemoteAddr))

	err := s.controller.Do(r.Context(), req.Action)
	s.shadow.RecordAction(req.Action, r.RemoteAddr, err)
	if err != nil {
		status := statusForError(err)
		s.logger.Warn("Power action failed",
			zap.String("action", string(req.Action)),
			zap.Int("status", status),
			zap.Error(err))
		s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
		return
	}

	event := s.controller.CurrentStateEvent(r.Context())
	s.bus.Publish(event)
	s.shadow.UpdateCurrentInputs(event.State)
	s.writeJSON(w, http.StatusOK, event.State)
}

// handleGetShadow returns the recorded actions and the snapshots around them
func (s *Server) handleGetShadow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.shadow.GetState())
}

// statusForError maps controller errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, atx.ErrInvalidAction):
		return http.StatusBadRequest
	case errors.Is(err, atx.ErrNotConfigured):
		return http.StatusConflict
	case errors.Is(err, atx.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, atx.ErrCommandFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleDevices lists the GPIO chips and USB HID devices on the host
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, atx.DiscoverDevices(s.devDir))
}

// handleEvents streams state-changed events over a websocket. The current
// state is sent first so a client never starts blind.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	ch, unsubscribe := s.bus.Subscribe(eventBuffer)
	defer unsubscribe()

	s.logger.Debug("Event stream opened", zap.String("remote_addr", r.RemoteAddr))

	// the reader only exists to notice the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.writeEvent(conn, s.controller.CurrentStateEvent(r.Context())); err != nil {
		return
	}

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := s.writeEvent(conn, event); err != nil {
				s.logger.Debug("Event stream write failed", zap.Error(err))
				return
			}
		case <-closed:
			s.logger.Debug("Event stream closed", zap.String("remote_addr", r.RemoteAddr))
			return
		case <-s.stopping:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		}
	}
}

func (s *Server) writeEvent(conn *websocket.Conn, event events.StateChanged) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(event)
}

// handleHealth returns a simple health check response
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Endpoint represents an API endpoint with its documentation
type Endpoint struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

var endpoints = []Endpoint{
	{Path: "/", Method: "GET", Description: "This sitemap"},
	{Path: "/health", Method: "GET", Description: "Health check, returns {\"status\": \"ok\"}"},
	{Path: "/api/atx/state", Method: "GET", Description: "ATX state snapshot; ?publish=1 also publishes it as an event"},
	{Path: "/api/atx/power", Method: "POST", Description: "Press a button: {\"action\": \"short|long|reset\"}"},
	{Path: "/api/atx/devices", Method: "GET", Description: "GPIO chips and USB HID devices on this host"},
	{Path: "/api/atx/shadow", Method: "GET", Description: "Recent actions and the state observed around them"},
	{Path: "/api/atx/events", Method: "GET", Description: "WebSocket stream of state-changed events"},
}

// handleSitemap lists the available endpoints as plain text
func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	// 404 for automation compatibility, with a helpful body
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, "ATX Power Control API\n")
	fmt.Fprintf(w, "=====================\n\n")
	for _, ep := range endpoints {
		fmt.Fprintf(w, "  %-6s %-20s %s\n", ep.Method, ep.Path, ep.Description)
	}
	fmt.Fprintf(w, "\nExample:\n\n")
	fmt.Fprintf(w, "  curl -X POST -d '{\"action\":\"short\"}' http://localhost:8088/api/atx/power\n")
}

// Serve blocks serving HTTP requests until Stop is called
func (s *Server) Serve() error {
	s.logger.Info("Starting HTTP API server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Start serves in the background, logging a listener failure
func (s *Server) Start() error {
	go func() {
		if err := s.Serve(); err != nil {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop() error {
	s.logger.Info("Stopping HTTP API server")
	s.stopOnce.Do(func() { close(s.stopping) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	return nil
}
