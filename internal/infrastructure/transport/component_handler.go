package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"uigen/app/usecase"
	"uigen/internal/domain/entity"
	"uigen/internal/infrastructure/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	maxMountBody    = 1 << 20
	wsReadLimit     = 64 << 10
	wsWriteTimeout  = 10 * time.Second
)

type ctxKey struct{}

type ComponentHandler struct {
	generator usecase.GenerateUsecase
	host      usecase.MountUsecase
	shell     http.Handler
	logger    *slog.Logger
	upgrader  websocket.Upgrader

	// метрики
	reqDuration *prometheus.HistogramVec
	reqCount    *prometheus.CounterVec
	errCount    *prometheus.CounterVec
}

func NewComponentHandler(
	generator usecase.GenerateUsecase,
	host usecase.MountUsecase,
	shell http.Handler,
	reg prometheus.Registerer,
	logger *slog.Logger,
) *ComponentHandler {

	reqDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	reqCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path"},
	)

	errCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP request errors.",
		},
		[]string{"method", "path", "status"},
	)

	reg.MustRegister(reqDuration, reqCount, errCount)

	return &ComponentHandler{
		generator: generator,
		host:      host,
		shell:     shell,
		logger:    logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		reqDuration: reqDuration,
		reqCount:    reqCount,
		errCount:    errCount,
	}
}

// Middleware для метрик
func (h *ComponentHandler) withMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		method := r.Method

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		duration := time.Since(start).Seconds()
		statusStr := strconv.Itoa(rw.status)

		h.reqCount.WithLabelValues(method, path).Inc()
		h.reqDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		if rw.status >= 400 {
			h.errCount.WithLabelValues(method, path, statusStr).Inc()
		}
	}
}

// withRequestID keeps a caller supplied X-Request-ID or assigns a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (h *ComponentHandler) log(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", requestID(r.Context()))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (h *ComponentHandler) RegisterRoutes(r *mux.Router) {
	r.Use(withRequestID)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/generate", h.withMetrics(h.handleGenerate)).Methods(http.MethodGet)
	api.HandleFunc("/components/mount", h.withMetrics(h.handleMount)).Methods(http.MethodPost)
	api.HandleFunc("/schema", h.withMetrics(h.handleSchema)).Methods(http.MethodGet)
	api.HandleFunc("/health", h.withMetrics(h.handleHealth)).Methods(http.MethodGet)
	api.HandleFunc("/ws", h.withMetrics(h.handleWS)).Methods(http.MethodGet)

	// Prometheus
	r.Handle("/metrics", promhttp.Handler())

	if h.shell != nil {
		r.Handle("/", h.shell).Methods(http.MethodGet)
	}
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{StatusCode: code, Message: err.Error()})
}

// statusFor maps pipeline errors onto the two client-visible classes.
func statusFor(err error) int {
	if errors.Is(err, usecase.ErrInvalidPrompt) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// GET /api/v1/generate?prompt=...
func (h *ComponentHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	values, ok := r.URL.Query()["prompt"]
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("prompt query parameter is required"))
		return
	}
	if len(values) != 1 {
		writeError(w, http.StatusBadRequest, errors.New("prompt must be a single string"))
		return
	}

	component, err := h.generator.Generate(r.Context(), values[0])
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			h.log(r).Error("generate failed", "err", err)
		}
		writeError(w, code, err)
		return
	}
	writeJSON(w, http.StatusOK, component)
}

// POST /api/v1/components/mount
func (h *ComponentHandler) handleMount(w http.ResponseWriter, r *http.Request) {
	var component entity.GeneratedComponent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMountBody))
	if err := dec.Decode(&component); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
		return
	}

	def := h.host.Mount(r.Context(), component)
	if def.LoadError != "" {
		h.log(r).Warn("component mounted with load error", "err", def.LoadError)
	}
	writeJSON(w, http.StatusOK, def)
}

// GET /api/v1/schema
func (h *ComponentHandler) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.generator.Schema())
}

// GET /api/v1/health
func (h *ComponentHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"ok": true,
		"ts": time.Now().UTC(),
	}
	writeJSON(w, http.StatusOK, status)
}

type wsRequest struct {
	Prompt string `json:"prompt"`
	Mount  bool   `json:"mount"`
}

type wsMessage struct {
	Type       string                      `json:"type"` // component | definition | error
	Component  *entity.GeneratedComponent  `json:"component,omitempty"`
	Definition *entity.ComponentDefinition `json:"definition,omitempty"`
	StatusCode int                         `json:"statusCode,omitempty"`
	Message    string                      `json:"message,omitempty"`
}

// GET /api/v1/ws
// Each text frame {"prompt": "...", "mount": bool} runs one generation. With
// mount set, the definition follows in a separate frame once it is ready.
func (h *ComponentHandler) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, http.Header{requestIDHeader: {requestID(r.Context())}})
	if err != nil {
		h.log(r).Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	metrics.IncWSConnections()
	defer metrics.DecWSConnections()

	var (
		mu      sync.Mutex
		pending sync.WaitGroup
	)
	defer pending.Wait()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	log := h.log(r)

	send := func(msg wsMessage) {
		mu.Lock()
		defer mu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			log.Debug("websocket write failed", "err", err)
		}
	}

	conn.SetReadLimit(wsReadLimit)
	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket read ended", "err", err)
			}
			return
		}

		component, err := h.generator.Generate(ctx, req.Prompt)
		if err != nil {
			code := statusFor(err)
			if code == http.StatusInternalServerError {
				log.Error("generate failed", "err", err)
			}
			send(wsMessage{Type: "error", StatusCode: code, Message: err.Error()})
			continue
		}
		send(wsMessage{Type: "component", Component: &component})

		if req.Mount {
			lazy := h.host.Lazy(component)
			pending.Add(1)
			go func() {
				defer pending.Done()
				def := <-lazy.Load(ctx)
				send(wsMessage{Type: "definition", Definition: &def})
			}()
		}
	}
}
