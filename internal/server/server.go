package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"beast/internal/domain"
)

// Controller is the assistant surface exposed over HTTP.
type Controller interface {
	Handle(text string) string
	StartListening() error
	StopListening()
	StopSpeaking()
	Status() domain.Status
}

type commandRequest struct {
	Text string `json:"text"`
}

type commandResponse struct {
	Intent string `json:"intent"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler routes the control API, the presentation websocket and the
// metrics endpoint.
func NewHandler(ctrl Controller, ws http.Handler, metrics http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/command", func(w http.ResponseWriter, r *http.Request) {
		var body commandRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if strings.TrimSpace(body.Text) == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
			return
		}

		writeJSON(w, http.StatusOK, commandResponse{Intent: ctrl.Handle(body.Text)})
	})

	r.Post("/listen", func(w http.ResponseWriter, r *http.Request) {
		err := ctrl.StartListening()
		switch {
		case err == nil:
			w.WriteHeader(http.StatusAccepted)
		case errors.Is(err, domain.ErrBusy):
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		case errors.Is(err, domain.ErrUnsupported):
			writeJSON(w, http.StatusNotImplemented, errorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
	})

	r.Post("/stop", func(w http.ResponseWriter, r *http.Request) {
		ctrl.StopListening()
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/hush", func(w http.ResponseWriter, r *http.Request) {
		ctrl.StopSpeaking()
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.Status())
	})

	if ws != nil {
		r.Handle("/ws", ws)
	}
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "err", err)
	}
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
