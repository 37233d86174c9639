// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package handler serves A2A requests on top of an [Agent]: it routes
// JSON-RPC methods, runs tasks through their lifecycle and publishes task
// events to stream subscribers and webhooks.
package handler

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a"
	"github.com/go-a2a/a2a/internal/telemetry"
	"github.com/go-a2a/a2a/server/event"
	"github.com/go-a2a/a2a/server/push"
	"github.com/go-a2a/a2a/server/task"
)

// Subscription is a stream of task events.
type Subscription = event.Subscription[a2a.StreamEvent]

// TaskAwareHandler runs agent requests either immediately or as tasks.
//
// Each task is processed by one goroutine which moves it through its
// lifecycle. Cancellation is cooperative: [TaskAwareHandler.CancelTask] only
// writes the canceled state, and processing notices it at its next
// checkpoint.
type TaskAwareHandler struct {
	agent     Agent
	store     task.Store
	streams   *event.Manager
	notifier  *push.Notifier
	caps      *a2a.Capabilities
	immediate bool
	capacity  int
	logger    *slog.Logger
	tracer    trace.Tracer

	wg sync.WaitGroup

	mu   sync.Mutex
	runs map[string]*sync.Mutex // per task publish order, while processing
}

// Option configures a [TaskAwareHandler].
type Option func(*TaskAwareHandler)

// WithCapabilities overrides the capabilities advertised in the agent card.
// Streaming and push operations are refused when their flag is off.
func WithCapabilities(caps a2a.Capabilities) Option {
	return func(h *TaskAwareHandler) {
		h.caps = &caps
	}
}

// WithBroadcastCapacity sets the per task event buffer size.
func WithBroadcastCapacity(n int) Option {
	return func(h *TaskAwareHandler) {
		h.capacity = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *TaskAwareHandler) {
		h.logger = logger
	}
}

// WithTracer sets the tracer used for task processing spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(h *TaskAwareHandler) {
		h.tracer = tracer
	}
}

// WithPushNotifier enables webhook delivery and the push config methods.
func WithPushNotifier(n *push.Notifier) Option {
	return func(h *TaskAwareHandler) {
		h.notifier = n
	}
}

// WithImmediate sets the default mode of message/send. In immediate mode the
// agent's reply is returned directly instead of a task.
func WithImmediate(immediate bool) Option {
	return func(h *TaskAwareHandler) {
		h.immediate = immediate
	}
}

// NewTaskAwareHandler returns a handler serving agent. A nil store selects
// a [task.MemoryStore].
func NewTaskAwareHandler(agent Agent, store task.Store, opts ...Option) *TaskAwareHandler {
	if agent == nil {
		panic("handler: agent cannot be nil")
	}
	h := &TaskAwareHandler{
		agent: agent,
		store: store,
		runs:  make(map[string]*sync.Mutex),
	}
	for _, o := range opts {
		o(h)
	}
	if h.store == nil {
		h.store = task.NewMemoryStore(task.WithLogger(h.logger))
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.tracer == nil {
		h.tracer = otel.Tracer(telemetry.ScopeName)
	}
	if h.caps == nil {
		h.caps = &a2a.Capabilities{
			AgentCapabilities: a2a.AgentCapabilities{
				Streaming:              true,
				PushNotifications:      h.notifier != nil,
				StateTransitionHistory: true,
			},
		}
	}
	h.streams = event.NewManager(h.capacity)
	return h
}

// Store returns the task store.
func (h *TaskAwareHandler) Store() task.Store { return h.store }

// Streams returns the registry of live task broadcasters.
func (h *TaskAwareHandler) Streams() *event.Manager { return h.streams }

// Notifier returns the webhook notifier, or nil.
func (h *TaskAwareHandler) Notifier() *push.Notifier { return h.notifier }

// Wait blocks until every processing goroutine has returned.
func (h *TaskAwareHandler) Wait() { h.wg.Wait() }

// Close ends every live stream. Tasks keep processing.
func (h *TaskAwareHandler) Close() { h.streams.CloseAll() }

func validateSend(params *a2a.MessageSendParams) (*a2a.Message, error) {
	if params == nil || params.Message == nil {
		return nil, a2a.NewError(a2a.KindValidation, "message is required")
	}
	msg := params.Message
	if len(msg.Parts) == 0 {
		return nil, a2a.NewError(a2a.KindValidation, "message must have at least one part")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	msg = msg.Clone()
	if msg.MessageID == "" {
		msg.MessageID = a2a.NewMessageID()
	}
	return msg, nil
}

// SendMessage serves message/send.
//
// In immediate mode it returns the agent's reply. Otherwise it stores a
// submitted task, starts processing it in the background and returns the
// submitted snapshot without waiting.
func (h *TaskAwareHandler) SendMessage(ctx context.Context, params *a2a.MessageSendParams) (a2a.SendResponse, error) {
	msg, err := validateSend(params)
	if err != nil {
		return nil, err
	}

	immediate := h.immediate
	if params.Immediate != nil {
		immediate = *params.Immediate
	}
	if immediate {
		reply, err := h.agent.ProcessMessage(ctx, msg.Clone())
		if err != nil {
			return nil, agentError(err)
		}
		if reply == nil {
			return nil, a2a.NewError(a2a.KindInvalidAgentResponse, "agent returned no reply")
		}
		return normalizeReply(reply, msg), nil
	}

	t, _, err := h.start(ctx, msg, false)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// StreamMessage serves message/stream. The returned subscription sees every
// change of the new task, ending with its terminal snapshot.
func (h *TaskAwareHandler) StreamMessage(ctx context.Context, params *a2a.MessageSendParams) (*Subscription, error) {
	if !h.caps.Streaming {
		return nil, a2a.NewError(a2a.KindUnsupportedOperation, "streaming is not supported")
	}
	msg, err := validateSend(params)
	if err != nil {
		return nil, err
	}
	_, sub, err := h.start(ctx, msg, true)
	return sub, err
}

// start stores a submitted task for msg and launches its processing.
func (h *TaskAwareHandler) start(ctx context.Context, msg *a2a.Message, subscribe bool) (*a2a.Task, *Subscription, error) {
	t := a2a.NewTask(msg)
	msg.TaskID = t.ID
	msg.ContextID = t.ContextID

	// the run lock exists before the task is visible to CancelTask
	h.mu.Lock()
	if _, ok := h.runs[t.ID]; ok {
		h.mu.Unlock()
		return nil, nil, a2a.Errorf(a2a.KindValidation, "task %s already exists", t.ID)
	}
	h.runs[t.ID] = new(sync.Mutex)
	h.mu.Unlock()

	if err := h.store.Create(ctx, t); err != nil {
		h.mu.Lock()
		delete(h.runs, t.ID)
		h.mu.Unlock()
		return nil, nil, err
	}

	var sub *Subscription
	if subscribe {
		sub = h.streams.CreateOrTap(t.ID)
	}

	h.logger.DebugContext(ctx, "task submitted", slog.String("task_id", t.ID), slog.String("context_id", t.ContextID))

	h.wg.Add(1)
	go h.process(context.WithoutCancel(ctx), t.ID, msg.Clone())
	return t.Clone(), sub, nil
}

// lockTask serializes store writes and event publication for one task while
// it is being processed.
func (h *TaskAwareHandler) lockTask(taskID string) func() {
	h.mu.Lock()
	l, ok := h.runs[taskID]
	h.mu.Unlock()
	if !ok {
		return func() {}
	}
	l.Lock()
	return l.Unlock
}

func (h *TaskAwareHandler) process(ctx context.Context, taskID string, msg *a2a.Message) {
	defer h.wg.Done()
	defer func() {
		h.streams.Close(taskID)
		h.mu.Lock()
		delete(h.runs, taskID)
		h.mu.Unlock()
	}()

	ctx, span := h.tracer.Start(ctx, "a2a.task/process", trace.WithAttributes(attribute.String("a2a.task_id", taskID)))
	defer span.End()

	reply, err := h.runAgent(ctx, taskID, msg)
	switch {
	case errors.Is(err, ErrTaskCanceled):
		h.logger.DebugContext(ctx, "task processing stopped", slog.String("task_id", taskID))
		return
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.logger.WarnContext(ctx, "task failed", slog.String("task_id", taskID), slog.Any("error", err))
		failure := a2a.NewAgentTextMessage(err.Error())
		failure.TaskID = taskID
		failure.ContextID = msg.ContextID
		err = h.finish(ctx, taskID, a2a.TaskStateFailed, failure)
	default:
		err = h.finish(ctx, taskID, a2a.TaskStateCompleted, normalizeReply(reply, msg))
	}
	if err != nil && !errors.Is(err, ErrTaskCanceled) {
		h.logger.ErrorContext(ctx, "finish task", slog.String("task_id", taskID), slog.Any("error", err))
	}
}

// runAgent calls the agent for one task. Agent panics become errors.
func (h *TaskAwareHandler) runAgent(ctx context.Context, taskID string, msg *a2a.Message) (reply *a2a.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.ErrorContext(ctx, "agent panicked", slog.String("task_id", taskID), slog.Any("panic", r))
			reply, err = nil, a2a.Errorf(a2a.KindInternal, "agent panicked: %v", r)
		}
	}()

	if sa, ok := h.agent.(StreamingAgent); ok {
		reply, err = sa.ProcessStream(ctx, msg, &taskUpdates{h: h, ctx: ctx, taskID: taskID})
	} else {
		if _, err := h.transition(ctx, taskID, a2a.TaskStateWorking, nil); err != nil {
			return nil, err
		}
		reply, err = h.agent.ProcessMessage(ctx, msg)
	}
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, a2a.NewError(a2a.KindInvalidAgentResponse, "agent returned no reply")
	}
	return reply, nil
}

// checkLive is the cancellation checkpoint run under the task's lock.
func checkLive(t *a2a.Task) error {
	if t.Status.State == a2a.TaskStateCanceled {
		return ErrTaskCanceled
	}
	if t.Status.State.IsTerminal() {
		return a2a.Errorf(a2a.KindValidation, "task %s is already %s", t.ID, t.Status.State)
	}
	return nil
}

// transition moves a live task to a non-terminal state and publishes the change.
func (h *TaskAwareHandler) transition(ctx context.Context, taskID string, state a2a.TaskState, msg *a2a.Message) (*a2a.Task, error) {
	unlock := h.lockTask(taskID)
	defer unlock()

	var prev a2a.TaskState
	t, err := h.store.Update(ctx, taskID, func(t *a2a.Task) error {
		if err := checkLive(t); err != nil {
			return err
		}
		prev = t.Status.State
		m := statusMessage(t, msg)
		if err := t.Transition(state, m); err != nil {
			return err
		}
		if m != nil {
			t.History = append(t.History, m.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.publish(ctx, taskID, a2a.NewStatusUpdate(t, prev))
	h.notify(ctx, a2a.PushEventStatusChanged, t)
	return t, nil
}

// addArtifact appends a to a live task and publishes it.
func (h *TaskAwareHandler) addArtifact(ctx context.Context, taskID string, a a2a.Artifact) error {
	unlock := h.lockTask(taskID)
	defer unlock()

	t, err := h.store.Update(ctx, taskID, func(t *a2a.Task) error {
		if err := checkLive(t); err != nil {
			return err
		}
		t.AddArtifact(a.Clone())
		return nil
	})
	if err != nil {
		return err
	}

	h.publish(ctx, taskID, a2a.NewArtifactUpdate(taskID, a, false))
	h.notify(ctx, a2a.PushEventArtifactAdded, t)
	return nil
}

// finish moves a live task to a terminal state and publishes the final snapshot.
func (h *TaskAwareHandler) finish(ctx context.Context, taskID string, state a2a.TaskState, msg *a2a.Message) error {
	unlock := h.lockTask(taskID)
	defer unlock()

	t, err := h.store.Update(ctx, taskID, func(t *a2a.Task) error {
		if err := checkLive(t); err != nil {
			return err
		}
		m := statusMessage(t, msg)
		if err := t.Transition(state, m); err != nil {
			return err
		}
		if m != nil {
			t.History = append(t.History, m.Clone())
		}
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.DebugContext(ctx, "task finished", slog.String("task_id", taskID), slog.String("state", string(state)))
	h.publish(ctx, taskID, t)
	h.notify(ctx, a2a.PushEventForState(state), t)
	return nil
}

func (h *TaskAwareHandler) publish(ctx context.Context, taskID string, ev a2a.StreamEvent) {
	if err := h.streams.Publish(taskID, ev); err != nil {
		h.logger.DebugContext(ctx, "publish event", slog.String("task_id", taskID), slog.String("kind", string(ev.Kind())), slog.Any("error", err))
	}
}

func (h *TaskAwareHandler) notify(ctx context.Context, ev a2a.PushEvent, t *a2a.Task) {
	if h.notifier != nil {
		h.notifier.Notify(ctx, ev, t)
	}
}

// GetTask serves task/get.
func (h *TaskAwareHandler) GetTask(ctx context.Context, taskID string) (*a2a.Task, error) {
	if taskID == "" {
		return nil, a2a.NewError(a2a.KindValidation, "taskId is required")
	}
	return h.store.Get(ctx, taskID)
}

// TaskStatus serves task/status. It returns the whole task.
func (h *TaskAwareHandler) TaskStatus(ctx context.Context, taskID string) (*a2a.Task, error) {
	return h.GetTask(ctx, taskID)
}

// CancelTask serves task/cancel. A terminal task is left unchanged and
// reported as not cancelable.
func (h *TaskAwareHandler) CancelTask(ctx context.Context, taskID string) (*a2a.Task, error) {
	if taskID == "" {
		return nil, a2a.NewError(a2a.KindValidation, "taskId is required")
	}

	unlock := h.lockTask(taskID)
	t, err := h.store.Update(ctx, taskID, func(t *a2a.Task) error {
		if t.Status.State.IsTerminal() {
			return a2a.TaskNotCancelable(t.ID, t.Status.State)
		}
		return t.Transition(a2a.TaskStateCanceled, nil)
	})
	if err != nil {
		unlock()
		return nil, err
	}
	h.publish(ctx, taskID, t)
	unlock()

	h.streams.Close(taskID)
	h.notify(ctx, a2a.PushEventCanceled, t)
	h.logger.InfoContext(ctx, "task canceled", slog.String("task_id", taskID))
	return t, nil
}

// Resubscribe serves task/resubscribe. The subscription sees only events
// published after it was made.
func (h *TaskAwareHandler) Resubscribe(ctx context.Context, taskID string) (*Subscription, error) {
	if !h.caps.Streaming {
		return nil, a2a.NewError(a2a.KindUnsupportedOperation, "streaming is not supported")
	}
	if taskID == "" {
		return nil, a2a.NewError(a2a.KindValidation, "taskId is required")
	}

	unlock := h.lockTask(taskID)
	defer unlock()

	t, err := h.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status.State.IsTerminal() {
		return nil, a2a.NewError(a2a.KindUnsupportedOperation, "task is in terminal state")
	}
	return h.streams.CreateOrTap(taskID), nil
}

// AgentCard serves agent/card. A non-empty id must name the serving agent.
func (h *TaskAwareHandler) AgentCard(_ context.Context, id a2a.AgentID) (*a2a.AgentCard, error) {
	profile := h.agent.Profile()
	if id != "" && id != profile.ID {
		return nil, a2a.Errorf(a2a.KindAgentNotFound, "agent %q not found", id)
	}
	return a2a.NewAgentCard(profile, *h.caps), nil
}

// HealthCheck reports the handler as healthy along with the stored task count.
func (h *TaskAwareHandler) HealthCheck() a2a.HealthStatus {
	return a2a.HealthStatus{Status: "healthy", Tasks: h.store.Len()}
}

func (h *TaskAwareHandler) pushStore() (task.PushConfigStore, error) {
	if h.notifier == nil || !h.caps.PushNotifications {
		return nil, a2a.NewError(a2a.KindPushNotificationNotSupported, "push notifications are not supported")
	}
	return h.notifier.Store(), nil
}

// SetPushConfig serves task/pushNotificationConfig/set.
func (h *TaskAwareHandler) SetPushConfig(ctx context.Context, cfg *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	s, err := h.pushStore()
	if err != nil {
		return nil, err
	}
	if cfg == nil || cfg.TaskID == "" {
		return nil, a2a.NewError(a2a.KindValidation, "taskId is required")
	}
	if _, err := h.store.Get(ctx, cfg.TaskID); err != nil {
		return nil, err
	}
	return s.Set(ctx, cfg)
}

// GetPushConfig serves task/pushNotificationConfig/get.
func (h *TaskAwareHandler) GetPushConfig(ctx context.Context, taskID, configID string) (*a2a.TaskPushNotificationConfig, error) {
	s, err := h.pushStore()
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, taskID, configID)
}

// ListPushConfigs serves task/pushNotificationConfig/list.
func (h *TaskAwareHandler) ListPushConfigs(ctx context.Context, taskID string) ([]*a2a.TaskPushNotificationConfig, error) {
	s, err := h.pushStore()
	if err != nil {
		return nil, err
	}
	return s.List(ctx, taskID)
}

// DeletePushConfig serves task/pushNotificationConfig/delete.
func (h *TaskAwareHandler) DeletePushConfig(ctx context.Context, taskID, configID string) error {
	s, err := h.pushStore()
	if err != nil {
		return err
	}
	return s.Delete(ctx, taskID, configID)
}

// Register binds the A2A methods to d. The streaming methods are refused
// there, since their replies need the stream endpoint.
func (h *TaskAwareHandler) Register(d *Dispatcher) {
	d.Register(a2a.MethodMessageSend, bind(func(ctx context.Context, p *a2a.MessageSendParams) (any, error) {
		return h.SendMessage(ctx, p)
	}))
	d.Register(a2a.MethodTaskGet, bind(func(ctx context.Context, p *a2a.TaskIDParams) (any, error) {
		return h.GetTask(ctx, p.TaskID)
	}))
	d.Register(a2a.MethodTaskStatus, bind(func(ctx context.Context, p *a2a.TaskIDParams) (any, error) {
		return h.TaskStatus(ctx, p.TaskID)
	}))
	d.Register(a2a.MethodTaskCancel, bind(func(ctx context.Context, p *a2a.TaskIDParams) (any, error) {
		return h.CancelTask(ctx, p.TaskID)
	}))
	d.Register(a2a.MethodAgentCard, bind(func(ctx context.Context, p *a2a.AgentCardParams) (any, error) {
		return h.AgentCard(ctx, p.AgentID)
	}))
	d.Register(a2a.MethodPushConfigSet, bind(func(ctx context.Context, p *a2a.TaskPushNotificationConfig) (any, error) {
		return h.SetPushConfig(ctx, p)
	}))
	d.Register(a2a.MethodPushConfigGet, bind(func(ctx context.Context, p *a2a.PushConfigIDParams) (any, error) {
		return h.GetPushConfig(ctx, p.TaskID, p.ConfigID)
	}))
	d.Register(a2a.MethodPushConfigList, bind(func(ctx context.Context, p *a2a.PushConfigIDParams) (any, error) {
		return h.ListPushConfigs(ctx, p.TaskID)
	}))
	d.Register(a2a.MethodPushConfigDelete, bind(func(ctx context.Context, p *a2a.PushConfigIDParams) (any, error) {
		return nil, h.DeletePushConfig(ctx, p.TaskID, p.ConfigID)
	}))

	for _, m := range []string{a2a.MethodMessageStream, a2a.MethodTaskResubscribe} {
		d.Register(m, func(context.Context, *a2a.Request) (any, error) {
			return nil, a2a.Errorf(a2a.KindUnsupportedOperation, "%s is only served on the stream endpoint", m)
		})
	}
}

// bind decodes the request params into a P before calling fn.
func bind[P any](fn func(ctx context.Context, p *P) (any, error)) HandlerFunc {
	return func(ctx context.Context, req *a2a.Request) (any, error) {
		p := new(P)
		if err := req.DecodeParams(p); err != nil {
			return nil, err
		}
		return fn(ctx, p)
	}
}

// statusMessage binds msg to t's ids. It returns nil for a nil msg.
func statusMessage(t *a2a.Task, msg *a2a.Message) *a2a.Message {
	if msg == nil {
		return nil
	}
	m := msg.Clone()
	m.TaskID = t.ID
	m.ContextID = t.ContextID
	if m.MessageID == "" {
		m.MessageID = a2a.NewMessageID()
	}
	if m.Role == "" {
		m.Role = a2a.RoleAgent
	}
	return m
}

// normalizeReply returns a copy of reply with a fresh id, attached to the
// conversation of req.
func normalizeReply(reply, req *a2a.Message) *a2a.Message {
	m := reply.Clone()
	m.MessageID = a2a.NewMessageID()
	if m.Role == "" {
		m.Role = a2a.RoleAgent
	}
	m.TaskID = cmp.Or(m.TaskID, req.TaskID)
	m.ContextID = cmp.Or(m.ContextID, req.ContextID)
	return m
}

// agentError keeps classified errors and wraps anything else as internal.
func agentError(err error) error {
	var e *a2a.Error
	if errors.As(err, &e) {
		return err
	}
	return a2a.Wrap(a2a.KindInternal, err, "agent failed")
}
