// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package server exposes the current board frame, a health check and the metrics over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/vorlif/humanize"

	"github.com/wneessen/flapboard/internal/board"
	"github.com/wneessen/flapboard/internal/logger"
	"github.com/wneessen/flapboard/internal/observability"
	"github.com/wneessen/flapboard/internal/render"
)

const (
	RequestIDHeader = "X-Request-ID"

	readTimeout     = 10 * time.Second
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// FrameSource returns the last rendered frame.
type FrameSource interface {
	Frame() (render.Frame, bool)
}

// StateSource returns the current display state.
type StateSource interface {
	Snapshot() board.Snapshot
}

// BoardResponse is the body of GET /board.
type BoardResponse struct {
	Session          string        `json:"session"`
	Stop             string        `json:"stop"`
	Frame            *render.Frame `json:"frame"`
	TimetableUpdated string        `json:"timetableUpdated,omitempty"`
	WeatherUpdated   string        `json:"weatherUpdated,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
	Online bool   `json:"online"`
}

type Server struct {
	router    *mux.Router
	frames    FrameSource
	state     StateSource
	online    func() bool
	session   string
	humanizer *humanize.Humanizer
	logger    *logger.Logger
}

// New returns a Server. online may be nil when no connectivity sensor is in use.
func New(frames FrameSource, state StateSource, online func() bool, session string,
	humanizer *humanize.Humanizer, log *logger.Logger,
) (*Server, error) {
	if frames == nil || state == nil {
		return nil, fmt.Errorf("frame and state sources are required")
	}
	if humanizer == nil {
		return nil, fmt.Errorf("humanizer is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	s := &Server{
		frames:    frames,
		state:     state,
		online:    online,
		session:   session,
		humanizer: humanizer,
		logger:    log,
	}

	router := mux.NewRouter()
	router.Use(s.requestIDMiddleware)
	router.Use(metricsMiddleware)
	router.HandleFunc("/board", s.getBoard).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.getHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	s.router = router
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until the context is cancelled and then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until the context is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", slog.String("addr", listener.Addr().String()))
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return <-errCh
}

func (s *Server) getBoard(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()
	resp := BoardResponse{
		Session:          s.session,
		Stop:             snap.Stop.String(),
		TimetableUpdated: s.humanizeTime(snap.TimetableUpdated),
		WeatherUpdated:   s.humanizeTime(snap.WeatherUpdated),
	}
	if frame, ok := s.frames.Frame(); ok {
		resp.Frame = &frame
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	online := true
	if s.online != nil {
		online = s.online()
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Online: online})
}

func (s *Server) humanizeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return s.humanizer.NaturalTime(t)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", logger.Err(err))
	}
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		s.logger.Debug("http request", slog.String("method", r.Method), slog.String("path", r.URL.Path),
			slog.String("request_id", id))
		next.ServeHTTP(w, r)
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		observability.HTTPRequestsTotal.WithLabelValues(r.Method, route,
			strconv.Itoa(recorder.statusCode/100)+"xx").Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
