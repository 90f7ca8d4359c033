package net

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	nethttp "net/http"
	"time"

	server "gridhold/server"
	"gridhold/server/internal/net/ws"
	"gridhold/server/internal/observability"
)

type HTTPHandlerConfig struct {
	Logger        *log.Logger
	Metrics       nethttp.Handler
	Observability observability.Config
}

type joinRequest struct {
	Name string `json:"name"`
}

func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string   `json:"status"`
			ServerTime int64    `json:"serverTime"`
			Tick       uint64   `json:"tick"`
			TickMillis int64    `json:"tickMillis"`
			Instances  []string `json:"instances"`
			Players    any      `json:"players"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Tick:       hub.Tick(),
			TickMillis: hub.TickInterval().Milliseconds(),
			Instances:  hub.InstanceNames(),
			Players:    hub.DiagnosticsSnapshot(),
		}
		writeJSON(w, nethttp.StatusOK, payload)
	})

	mux.HandleFunc("/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		var req joinRequest
		if r.Body != nil {
			defer r.Body.Close()
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
				httpError(w, "invalid payload", nethttp.StatusBadRequest)
				return
			}
		}

		join, err := hub.Join(req.Name)
		switch {
		case errors.Is(err, server.ErrInvalidName):
			httpError(w, err.Error(), nethttp.StatusBadRequest)
			return
		case errors.Is(err, server.ErrWorldFull):
			httpError(w, err.Error(), nethttp.StatusServiceUnavailable)
			return
		case err != nil:
			logger.Printf("join failed: %v", err)
			httpError(w, "join failed", nethttp.StatusInternalServerError)
			return
		}
		writeJSON(w, nethttp.StatusOK, join)
	})

	handler := ws.NewHandler(hub, ws.HandlerConfig{Logger: logger})
	mux.HandleFunc("/ws", handler.Handle)

	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}
	cfg.Observability.RegisterPprof(mux)

	return mux
}

func writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
