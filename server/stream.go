// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/go-a2a/a2a"
	"github.com/go-a2a/a2a/internal/telemetry"
	"github.com/go-a2a/a2a/server/event"
	"github.com/go-a2a/a2a/server/handler"
)

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, a2a.NullID(), err)
		return
	}
	var req a2a.Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, a2a.NullID(), &a2a.Error{Kind: a2a.KindProtocolViolation, Code: a2a.CodeParseError, Message: "parse error", Err: err})
		return
	}
	s.serveStream(w, r, &req)
}

// handleStreamQuery serves the stream endpoint over GET. The request is
// taken from the method, id, taskId and params query parameters.
func (s *Server) handleStreamQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := &a2a.Request{
		JSONRPC: a2a.JSONRPCVersion,
		Method:  q.Get("method"),
		ID:      a2a.StringID(q.Get("id")),
	}
	if req.Method == "" {
		req.Method = a2a.MethodTaskResubscribe
	}
	if q.Get("id") == "" {
		req.ID = a2a.StringID(uuid.NewString())
	}
	switch {
	case q.Get("params") != "":
		req.Params = []byte(q.Get("params"))
	case q.Get("taskId") != "":
		b, err := json.Marshal(a2a.TaskIDParams{TaskID: q.Get("taskId")})
		if err != nil {
			s.writeError(w, r, req.ID, a2a.Wrap(a2a.KindInternal, err, "encode params"))
			return
		}
		req.Params = b
	}
	s.serveStream(w, r, req)
}

func (s *Server) serveStream(w http.ResponseWriter, r *http.Request, req *a2a.Request) {
	ctx := r.Context()
	if err := req.Validate(); err != nil {
		s.writeError(w, r, req.ID, &a2a.Error{Kind: a2a.KindValidation, Code: a2a.CodeInvalidRequest, Message: "invalid request", Err: err})
		return
	}

	sub, err := s.subscribe(ctx, req)
	if err != nil {
		s.logger.DebugContext(ctx, "stream rejected", slog.String("method", req.Method), slog.Any("error", err))
		s.writeError(w, r, req.ID, err)
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	ew := event.NewWriter(w)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ew.KeepAlive(gctx, s.keepAlive)
	})
	g.Go(func() error {
		defer cancel()
		return s.pump(gctx, ew, sub)
	})
	if err := g.Wait(); err != nil {
		s.logger.DebugContext(r.Context(), "stream ended", slog.String("method", req.Method), slog.Any("error", err))
	}
}

func (s *Server) subscribe(ctx context.Context, req *a2a.Request) (*handler.Subscription, error) {
	switch req.Method {
	case a2a.MethodMessageStream:
		var p a2a.MessageSendParams
		if err := req.DecodeParams(&p); err != nil {
			return nil, err
		}
		return s.handler.StreamMessage(ctx, &p)
	case a2a.MethodTaskResubscribe:
		var p a2a.TaskIDParams
		if err := req.DecodeParams(&p); err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return s.handler.Resubscribe(ctx, p.TaskID)
	default:
		return nil, &a2a.Error{
			Kind:    a2a.KindProtocolViolation,
			Code:    a2a.CodeMethodNotFound,
			Message: "method " + req.Method + " does not stream",
		}
	}
}

// pump writes events until the task's final event, the end of the
// broadcast, or the client going away.
func (s *Server) pump(ctx context.Context, ew *event.Writer, sub *handler.Subscription) error {
	for ev, err := range sub.Events(ctx) {
		var lag *event.LagError
		switch {
		case errors.As(err, &lag):
			telemetry.RecordLag(ctx, lag.Skipped)
			s.logger.WarnContext(ctx, "stream subscriber lagged", slog.Uint64("skipped", lag.Skipped))
			continue
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			if werr := ew.WriteError(err); werr != nil {
				return werr
			}
			return err
		}
		if err := ew.Write(ev); err != nil {
			return err
		}
		if event.IsFinal(ev) {
			return nil
		}
	}
	return nil
}
