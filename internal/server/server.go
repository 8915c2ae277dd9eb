package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type Action string

type Method string

const (
	Api     Action = "api"
	Metrics Action = "metrics"

	GET  Method = "GET"
	POST Method = "POST"
)

const shutdownTimeout = 10 * time.Second

// MaxBodyBytes limits the size of a json request body.
const MaxBodyBytes = 1 << 20

// Handler processes a request and returns the payload of the data envelope.
type Handler func(r *http.Request) (interface{}, error)

type Route struct {
	Action Action
	Path   string
	Method Method
	Exec   Handler
}

type Server struct {
	name     string
	port     int
	debug    bool
	routes   []Route
	handlers map[string]http.Handler
}

func NewServer(name string, port int) *Server {
	return &Server{
		name:     name,
		port:     port,
		routes:   make([]Route, 0),
		handlers: make(map[string]http.Handler),
	}
}

// Debug sets the server to debug mode
func (s *Server) Debug() *Server {
	s.debug = true
	return s
}

// AddRoute adds the given route to the server
func (s *Server) AddRoute(method Method, action Action, path string, exec Handler) *Server {
	s.routes = append(s.routes, Route{
		Action: action,
		Path:   path,
		Method: method,
		Exec:   exec,
	})
	return s
}

// Add adds the given routes to the server
func (s *Server) Add(route ...Route) *Server {
	s.routes = append(s.routes, route...)
	return s
}

// Handle mounts a plain http handler under the given action.
func (s *Server) Handle(action Action, handler http.Handler) *Server {
	s.handlers[fmt.Sprintf("/%s", action)] = handler
	return s
}

func (s *Server) handle(route Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if Method(r.Method) != route.Method {
			s.error(w, r, fmt.Errorf("method %s not allowed: %w", r.Method, ErrValidation), http.StatusMethodNotAllowed)
			return
		}
		data, err := route.Exec(r)
		if err != nil {
			s.error(w, r, err, 0)
			return
		}
		s.respond(w, http.StatusOK, Envelope{Data: data})
		if s.debug {
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("query", r.URL.RawQuery).
				Float64("duration", time.Since(start).Seconds()).
				Msg("served request")
		}
	}
}

// Mux builds the request multiplexer of all registered routes.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	for _, route := range s.routes {
		if route.Path != "" {
			mux.HandleFunc(fmt.Sprintf("/%s/%s", route.Action, route.Path), s.handle(route))
		} else {
			mux.HandleFunc(fmt.Sprintf("/%s", route.Action), s.handle(route))
		}
	}
	for path, handler := range s.handlers {
		mux.Handle(path, handler)
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, http.StatusNotFound, ErrorEnvelope{Error: ErrorBody{
			Code:    NotFound,
			Message: "not found",
		}})
	})
	return mux
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Warn().Str("server", s.name).Int("port", s.port).Msg("starting server")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not start server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Warn().Str("server", s.name).Msg("stopping server")
		shutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

func (s *Server) respond(w http.ResponseWriter, code int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("could not encode response")
		code = http.StatusInternalServerError
		b = []byte(`{"error":{"code":"SERVER_ERROR","message":"could not encode response"}}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(b); err != nil {
		log.Error().Err(err).Msg("could not write response")
	}
}

// error writes the error envelope, status overrides the status derived from the error.
func (s *Server) error(w http.ResponseWriter, r *http.Request, err error, status int) {
	code, derived, message := classify(err)
	if status == 0 {
		status = derived
	}
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("error for http request")
	s.respond(w, status, ErrorEnvelope{Error: ErrorBody{
		Code:    code,
		Message: message,
	}})
}

// Live is the health check route.
func Live() Route {
	return Route{
		Action: Api,
		Path:   "health",
		Method: GET,
		Exec: func(r *http.Request) (interface{}, error) {
			return map[string]string{"status": "ok"}, nil
		},
	}
}

// JsonRead decodes the request body into v.
// An empty body leaves v untouched.
func JsonRead(r *http.Request, debug bool, v interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	if err != nil {
		return fmt.Errorf("could not read body: %v: %w", err, ErrValidation)
	}
	if debug {
		log.Info().
			Str("url", fmt.Sprintf("%+v", r.URL)).
			Str("remote-address", r.RemoteAddr).
			Str("method", r.Method).
			Int("size", len(body)).
			Msg("received payload")
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("could not decode body: %v: %w", err, ErrValidation)
		}
	}
	return nil
}
