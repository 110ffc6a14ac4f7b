package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"autoscripter/internal/session"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	rcron "github.com/robfig/cron/v3"
)

const (
	DefaultIdleTimeout  = 30 * time.Minute
	DefaultReapSchedule = "@every 1m"

	writeTimeout   = 10 * time.Second
	maxActionBytes = 1 << 20
)

type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type nopLogger struct{}

func (nopLogger) Info(string, map[string]any)  {}
func (nopLogger) Error(string, map[string]any) {}

type Config struct {
	IdleTimeout  time.Duration
	ReapSchedule string
	// CheckOrigin defaults to same-origin checks done by gorilla.
	CheckOrigin func(r *http.Request) bool
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.ReapSchedule == "" {
		c.ReapSchedule = DefaultReapSchedule
	}
	return c
}

// Host exposes sessions over HTTP and streams their events over websockets.
type Host struct {
	cfg      Config
	router   chi.Router
	sessions *Registry
	metrics  *Metrics
	logger   Logger
	upgrader websocket.Upgrader
	cron     *rcron.Cron
}

func NewHost(cfg Config, sessions *Registry, logger Logger) *Host {
	if logger == nil {
		logger = nopLogger{}
	}
	cfg = cfg.withDefaults()
	h := &Host{
		cfg:      cfg,
		sessions: sessions,
		metrics:  NewMetrics(),
		logger:   logger,
		upgrader: websocket.Upgrader{CheckOrigin: cfg.CheckOrigin},
	}
	h.router = h.routes()
	return h
}

func (h *Host) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "sessions": h.sessions.Len()})
	})
	r.Handle("/metrics", h.metrics.Handler())

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleDelete)
			r.Post("/actions", h.handleAction)
			r.Get("/events", h.handleEvents)
		})
	})
	return r
}

func (h *Host) Handler() http.Handler { return h.router }

func (h *Host) Metrics() *Metrics { return h.metrics }

// Start schedules the idle reaper.
func (h *Host) Start() error {
	h.cron = rcron.New()
	if _, err := h.cron.AddFunc(h.cfg.ReapSchedule, h.reap); err != nil {
		return fmt.Errorf("schedule reaper %q: %w", h.cfg.ReapSchedule, err)
	}
	h.cron.Start()
	return nil
}

func (h *Host) Stop() {
	if h.cron != nil {
		stopCtx := h.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
			h.logger.Error("web.reaper_stop_timeout", nil)
		}
	}
	h.sessions.CloseAll()
	h.metrics.SetSessionsActive(0)
}

// Serve runs the HTTP server until ctx is cancelled.
func (h *Host) Serve(ctx context.Context, addr string) error {
	if err := h.Start(); err != nil {
		return err
	}
	defer h.Stop()

	srv := &http.Server{Addr: addr, Handler: h.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	h.logger.Info("web.listening", map[string]any{"addr": addr})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (h *Host) reap() {
	ids := h.sessions.ReapIdle(h.cfg.IdleTimeout)
	if len(ids) == 0 {
		return
	}
	h.metrics.RecordReaped(len(ids))
	h.metrics.SetSessionsActive(h.sessions.Len())
	h.logger.Info("web.sessions_reaped", map[string]any{"count": len(ids), "ids": ids})
}

func (h *Host) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.metrics.RecordHTTPRequest(r.Method, route, status, time.Since(start))
	})
}

func (h *Host) handleCreate(w http.ResponseWriter, _ *http.Request) {
	ctrl := h.sessions.Create()
	h.metrics.SetSessionsActive(h.sessions.Len())
	h.logger.Info("web.session_created", map[string]any{"session_id": ctrl.ID()})
	writeJSON(w, http.StatusCreated, ctrl.Snapshot())
}

func (h *Host) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": h.sessions.IDs()})
}

func (h *Host) handleGet(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Host) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.sessions.Delete(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	h.metrics.SetSessionsActive(h.sessions.Len())
	h.logger.Info("web.session_deleted", map[string]any{"session_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Host) handleAction(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var action session.Action
	if err := json.NewDecoder(io.LimitReader(r.Body, maxActionBytes)).Decode(&action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid action: "+err.Error())
		return
	}
	snap, err := ctrl.Dispatch(action)
	h.metrics.RecordAction(action.Type, err)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type wsError struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// handleEvents streams session events. Clients may also send action
// envelopes on the same connection.
func (h *Host) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("web.ws_upgrade_failed", map[string]any{"error": err.Error()})
		return
	}
	defer conn.Close()
	h.metrics.WSConnected()
	defer h.metrics.WSDisconnected()

	events, cancel := ctrl.Subscribe(0)
	defer cancel()

	snap := ctrl.Snapshot()
	initial := session.Event{Kind: session.EventState, SessionID: snap.SessionID, Version: snap.Version, Snapshot: &snap}
	if err := h.write(conn, initial); err != nil {
		return
	}

	failures := make(chan string, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var action session.Action
			if err := conn.ReadJSON(&action); err != nil {
				return
			}
			h.sessions.Touch(ctrl.ID())
			_, err := ctrl.Dispatch(action)
			h.metrics.RecordAction(action.Type, err)
			if err != nil {
				select {
				case failures <- err.Error():
				default:
				}
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(conn, ev); err != nil {
				return
			}
			h.metrics.RecordEvent(string(ev.Kind))
		case msg := <-failures:
			if err := h.write(conn, wsError{Kind: "error", Error: msg}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Host) write(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

func (h *Host) lookup(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	ctrl, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return ctrl, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
