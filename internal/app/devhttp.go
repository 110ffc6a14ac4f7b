package app

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

func (a *App) devRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/__dev/ready", func(w http.ResponseWriter, r *http.Request) {
		writeDevJSON(w, http.StatusOK, a.getDevState())
	})
	r.Get("/__dev/snapshot", func(w http.ResponseWriter, r *http.Request) {
		writeDevJSON(w, http.StatusOK, a.ctrl.Snapshot())
	})
	r.Post("/__dev/demo", a.handleDevDemo)
	return r
}

func (a *App) handleDevDemo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Demo string `json:"demo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDevJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid json"})
		return
	}
	req.Demo = strings.TrimSpace(req.Demo)
	if req.Demo == "" {
		writeDevJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "demo is required"})
		return
	}
	a.logger.Info("dev.demo.request", map[string]any{"demo": req.Demo})

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	resolved, err := a.runDemoScenario(ctx, req.Demo)
	if err != nil {
		a.logger.Error("dev.demo.apply_failed", map[string]any{"demo": req.Demo, "resolved": resolved, "error": err.Error()})
		writeDevJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error(), "state": resolved})
		return
	}
	writeDevJSON(w, http.StatusOK, map[string]any{"ok": true, "state": resolved, "requested": req.Demo})
}

func (a *App) startDevHTTP() error {
	srv := &http.Server{Addr: a.cfg.DevHTTP, Handler: a.devRoutes(), ReadHeaderTimeout: 5 * time.Second}
	a.devMu.Lock()
	a.devServer = srv
	a.devMu.Unlock()
	a.setDevState("fresh", a.ctrl.Snapshot().Version, nil)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("dev_http.listen_failed", map[string]any{"error": err.Error(), "addr": a.cfg.DevHTTP})
		}
	}()
	return nil
}

func writeDevJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
