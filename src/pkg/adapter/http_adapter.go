package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"entropy/local-app/src/pkg/data"
	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/session"
	"entropy/local-app/src/pkg/storage"
	"entropy/local-app/src/pkg/store"
)

const (
	metricsNamespace = "entropy"
	shutdownTimeout  = 5 * time.Second
)

// httpMetrics holds the Prometheus metrics of the HTTP adapter.
type httpMetrics struct {
	// RequestsTotal counts requests by method, route and status code.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration measures request latency by method and route.
	RequestDuration *prometheus.HistogramVec
	// CommandsTotal counts session commands by scope, operation and result.
	CommandsTotal *prometheus.CounterVec
}

func newHTTPMetrics(reg prometheus.Registerer, activeSessions func() float64) *httpMetrics {
	factory := promauto.With(reg)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "active_sessions",
		Help:      "Number of sessions opened over HTTP",
	}, activeSessions)

	return &httpMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "route"},
		),
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "session",
				Name:      "commands_total",
				Help:      "Total session commands by scope, operation and result",
			},
			[]string{"scope", "operation", "result"},
		),
	}
}

// HTTPAdapter serves session commands as a JSON API.
type HTTPAdapter struct {
	addr           string
	engine         *gin.Engine
	server         *http.Server
	registry       *prometheus.Registry
	metrics        *httpMetrics
	adapterManager *AdapterManager
	fileRoot       string
	logger         *log.Logger

	mu       sync.Mutex
	sessions map[string]struct{}
	listener net.Listener
}

// NewHTTPAdapter creates the router. The server starts with AdapterStart.
// Mindmap export and import of HTTP sessions are confined to fileRoot.
func NewHTTPAdapter(am *AdapterManager, addr, fileRoot string, logger *log.Logger) (*HTTPAdapter, error) {
	logger.Info(context.Background(), "Creating new HTTP adapter", log.Fields{"addr": addr, "fileRoot": fileRoot})
	if fileRoot == "" {
		fileRoot = "."
	}

	h := &HTTPAdapter{
		addr:           addr,
		registry:       prometheus.NewRegistry(),
		adapterManager: am,
		fileRoot:       fileRoot,
		logger:         logger,
		sessions:       make(map[string]struct{}),
	}
	h.metrics = newHTTPMetrics(h.registry, func() float64 {
		h.mu.Lock()
		defer h.mu.Unlock()
		return float64(len(h.sessions))
	})

	h.engine = gin.New()
	h.engine.Use(gin.Recovery(), h.requestMiddleware())
	h.routes()
	return h, nil
}

// HTTPFactory is the AdapterFactory of the HTTP adapter
func HTTPFactory(addr, fileRoot string, logger *log.Logger) AdapterFactory {
	return func(am *AdapterManager) (AdapterInstance, error) {
		return NewHTTPAdapter(am, addr, fileRoot, logger)
	}
}

func (h *HTTPAdapter) routes() {
	h.engine.GET("/health", h.handleHealth)
	h.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})))

	v1 := h.engine.Group("/api/v1")
	v1.GET("/health", h.handleHealth)
	v1.GET("/sessions", h.handleSessionList)
	v1.POST("/sessions", h.handleSessionCreate)
	v1.DELETE("/sessions/:sessionId", h.handleSessionDelete)
	v1.POST("/sessions/:sessionId/commands", h.handleCommand)
	v1.GET("/sessions/:sessionId/mindmap", h.handleMindmap)
}

// GetType returns "http"
func (h *HTTPAdapter) GetType() string {
	return "http"
}

// Handler exposes the router.
func (h *HTTPAdapter) Handler() http.Handler {
	return h.engine
}

// Addr returns the bound address once the adapter is started.
func (h *HTTPAdapter) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return h.addr
	}
	return h.listener.Addr().String()
}

// AdapterStart binds the address and serves in the background
func (h *HTTPAdapter) AdapterStart() error {
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.addr, err)
	}

	h.mu.Lock()
	h.listener = ln
	h.server = &http.Server{Handler: h.engine, ReadHeaderTimeout: 10 * time.Second}
	server := h.server
	h.mu.Unlock()

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error(context.Background(), "HTTP server failed", log.Fields{"error": err})
		}
	}()
	h.logger.Info(context.Background(), "HTTP adapter started", log.Fields{"addr": ln.Addr().String()})
	return nil
}

// AdapterStop shuts the server down and closes its sessions
func (h *HTTPAdapter) AdapterStop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	h.mu.Lock()
	server := h.server
	h.server = nil
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.sessions = make(map[string]struct{})
	h.mu.Unlock()

	for _, id := range ids {
		h.adapterManager.SessionDelete(id)
	}
	if server == nil {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	h.logger.Info(ctx, "HTTP adapter stopped", nil)
	return nil
}

// requestMiddleware records metrics and logs each request
func (h *HTTPAdapter) requestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		h.metrics.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		h.metrics.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		h.logger.Debug(c.Request.Context(), "HTTP request", log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   status,
			"duration": time.Since(start).String(),
		})
	}
}

func (h *HTTPAdapter) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPAdapter) handleSessionCreate(c *gin.Context) {
	sessionID, err := h.adapterManager.SessionAdd(session.WithFileRoot(h.fileRoot))
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to add session", log.Fields{"error": err})
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.mu.Lock()
	h.sessions[sessionID] = struct{}{}
	h.mu.Unlock()
	c.JSON(http.StatusCreated, gin.H{"sessionId": sessionID})
}

// handleSessionList lists the sessions opened over HTTP
func (h *HTTPAdapter) handleSessionList(c *gin.Context) {
	h.mu.Lock()
	owned := make(map[string]struct{}, len(h.sessions))
	for id := range h.sessions {
		owned[id] = struct{}{}
	}
	h.mu.Unlock()

	infos := []model.SessionInfo{}
	for _, info := range h.adapterManager.SessionList() {
		if _, ok := owned[info.ID]; ok {
			infos = append(infos, info)
		}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": infos})
}

func (h *HTTPAdapter) handleSessionDelete(c *gin.Context) {
	if !h.sessionDelete(c.Param("sessionId")) {
		c.JSON(http.StatusNotFound, gin.H{"error": session.ErrSessionNotFound.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPAdapter) sessionDelete(sessionID string) bool {
	h.mu.Lock()
	delete(h.sessions, sessionID)
	h.mu.Unlock()
	return h.adapterManager.SessionDelete(sessionID)
}

// handleCommand runs a JSON encoded command in the session
func (h *HTTPAdapter) handleCommand(c *gin.Context) {
	sessionID := c.Param("sessionId")
	var cmd model.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid command body: %v", err)})
		return
	}
	if cmd.Args == nil {
		cmd.Args = []string{}
	}

	result, err := h.adapterManager.CommandRun(c.Request.Context(), sessionID, cmd)
	if err != nil {
		h.metrics.CommandsTotal.WithLabelValues(cmd.Scope, cmd.Operation, "error").Inc()
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	h.metrics.CommandsTotal.WithLabelValues(cmd.Scope, cmd.Operation, "ok").Inc()

	if _, ok := result.(session.Exit); ok {
		h.sessionDelete(sessionID)
		c.JSON(http.StatusOK, gin.H{"result": "session closed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// handleMindmap returns the mindmap seen by the session
func (h *HTTPAdapter) handleMindmap(c *gin.Context) {
	sess, ok := h.adapterManager.SessionGet(c.Param("sessionId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": session.ErrSessionNotFound.Error()})
		return
	}
	snapshot, err := sess.DataManager.Store.Snapshot()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mindmap": snapshot, "ui": sess.DataManager.Store.UI()})
}

// statusFor maps command errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrSessionClosed),
		errors.Is(err, store.ErrThreadNotFound),
		errors.Is(err, store.ErrMessageNotFound),
		errors.Is(err, store.ErrStickyNotFound),
		errors.Is(err, storage.ErrMindmapNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidCommand),
		errors.Is(err, model.ErrInvalidMindmap),
		errors.Is(err, store.ErrInvalidTheme),
		errors.Is(err, store.ErrInvalidView),
		errors.Is(err, store.ErrInvalidStack),
		errors.Is(err, store.ErrInvalidSize),
		errors.Is(err, store.ErrInvalidPosition),
		errors.Is(err, store.ErrEmptyMessage),
		errors.Is(err, store.ErrEmptyTitle):
		return http.StatusBadRequest
	case errors.Is(err, data.ErrMindmapOpen),
		errors.Is(err, store.ErrNothingToUndo),
		errors.Is(err, store.ErrNothingToRedo):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
