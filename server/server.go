// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes a [handler.TaskAwareHandler] over HTTP: JSON-RPC on
// [a2a.RPCPath], server-sent events on [a2a.StreamPath], and the agent card,
// health and metrics endpoints.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-json-experiment/json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/go-a2a/a2a"
	"github.com/go-a2a/a2a/auth"
	"github.com/go-a2a/a2a/internal/telemetry"
	"github.com/go-a2a/a2a/server/handler"
)

// Defaults for a [Server].
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second

	maxRequestSize = 8 << 20
)

// Server implements the A2A protocol server.
type Server struct {
	handler    *handler.TaskAwareHandler
	dispatcher *handler.Dispatcher
	router     chi.Router

	addr            string
	logger          *slog.Logger
	tracer          trace.Tracer
	keepAlive       time.Duration
	streamMethod    string
	metrics         http.Handler
	shutdownTimeout time.Duration
	verifier        auth.Verifier
}

// New returns a server for h.
func New(h *handler.TaskAwareHandler, opts ...Option) *Server {
	if h == nil {
		panic("server: handler cannot be nil")
	}
	s := &Server{
		handler:         h,
		addr:            DefaultAddr,
		logger:          slog.Default(),
		keepAlive:       a2a.DefaultKeepAliveInterval,
		streamMethod:    http.MethodPost,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(telemetry.ScopeName)
	}

	s.dispatcher = handler.NewDispatcher(s.logger, s.tracer)
	h.Register(s.dispatcher)
	s.router = s.routes()
	return s
}

// Handler returns the server's routes as an [http.Handler].
func (s *Server) Handler() http.Handler { return s.router }

// Dispatcher returns the dispatcher behind the RPC endpoint. Extra methods
// registered on it are served alongside the A2A ones.
func (s *Server) Dispatcher() *handler.Dispatcher { return s.dispatcher }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get(a2a.AgentCardWellKnownPath, s.handleAgentCard)
	r.Get(a2a.AgentCardPath, s.handleAgentCard)
	r.Get(a2a.HealthPath, s.handleHealth)
	if s.metrics != nil {
		r.Handle(a2a.MetricsPath, s.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.callContext)
		r.Post(a2a.RPCPath, s.handleRPC)
		if s.streamMethod == http.MethodGet {
			r.Get(a2a.StreamPath, s.handleStreamQuery)
		} else {
			r.Post(a2a.StreamPath, s.handleStream)
		}
	})
	return r
}

// callContext verifies the caller, when a verifier is configured, and
// attaches a [CallContext] to the request.
func (s *Server) callContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var user auth.User = auth.UnauthenticatedUser{}
		if s.verifier != nil {
			u, err := s.verifier.Verify(ctx, r.Header)
			if err != nil {
				s.logger.InfoContext(ctx, "rejected request", slog.String("path", r.URL.Path), slog.Any("error", err))
				if a2a.KindOf(err) != a2a.KindAuthentication {
					err = a2a.Wrap(a2a.KindAuthentication, err, "authentication failed")
				}
				s.writeError(w, r, a2a.NullID(), err)
				return
			}
			user = u
		}
		cc := NewCallContext(user, middleware.GetReqID(ctx), r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(WithCallContext(ctx, cc)))
	})
}

// readBody returns the request body after checking its content type.
func readBody(r *http.Request) ([]byte, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != a2a.ContentTypeJSON {
			return nil, &a2a.Error{
				Kind:    a2a.KindContentTypeNotSupported,
				Code:    a2a.CodeParseError,
				Message: "content type must be " + a2a.ContentTypeJSON,
			}
		}
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize+1))
	if err != nil {
		return nil, &a2a.Error{Kind: a2a.KindProtocolViolation, Code: a2a.CodeParseError, Message: "read request body", Err: err}
	}
	if len(body) > maxRequestSize {
		return nil, &a2a.Error{Kind: a2a.KindProtocolViolation, Code: a2a.CodeParseError, Message: "request body too large"}
	}
	return body, nil
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, a2a.NullID(), err)
		return
	}

	res := s.dispatcher.Dispatch(r.Context(), body)
	if !res.HasReply() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	reply, err := res.Marshal()
	if err != nil {
		s.writeError(w, r, a2a.NullID(), a2a.Wrap(a2a.KindInternal, err, "encode reply"))
		return
	}
	s.writeBytes(w, r, res.Status(), reply)
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.handler.AgentCard(r.Context(), "")
	if err != nil {
		s.writeError(w, r, a2a.NullID(), err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.handler.HealthCheck())
}

// writeError replies with a JSON-RPC error envelope and the status mapped from err.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, id a2a.ID, err error) {
	s.writeJSON(w, r, a2a.HTTPStatusOf(err), a2a.NewErrorResponse(id, err))
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "encode response", slog.Any("error", err))
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	s.writeBytes(w, r, status, b)
}

func (s *Server) writeBytes(w http.ResponseWriter, r *http.Request, status int, b []byte) {
	w.Header().Set("Content-Type", a2a.ContentTypeJSON)
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		s.logger.DebugContext(r.Context(), "write response", slog.Any("error", err))
	}
}

// Run serves on the configured address until ctx is done, then shuts down
// gracefully. The task store janitor and the webhook notifier run alongside
// the listener and stop with it.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return a2a.Wrap(a2a.KindConfiguration, err, "listen on "+s.addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is like [Server.Run] on an existing listener, which it closes.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           h2c.NewHandler(s.router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.InfoContext(gctx, "a2a server listening", slog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.handler.Close()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), s.shutdownTimeout)
		defer cancel()
		s.logger.InfoContext(shutdownCtx, "a2a server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if janitor, ok := s.handler.Store().(interface{ Run(context.Context) error }); ok {
		g.Go(func() error { return janitor.Run(gctx) })
	}
	if n := s.handler.Notifier(); n != nil {
		g.Go(func() error { return n.Run(gctx) })
	}
	return g.Wait()
}
