// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/go-a2a/a2a"
	"github.com/go-a2a/a2a/auth"
	"github.com/go-a2a/a2a/client"
	"github.com/go-a2a/a2a/server"
	"github.com/go-a2a/a2a/server/handler"
	"github.com/go-a2a/a2a/server/push"
	"github.com/go-a2a/a2a/server/task"
	"github.com/go-a2a/a2a/transport"
)

var echoProfile = a2a.AgentProfile{
	ID:                "echo",
	Name:              "Echo",
	DefaultInputModes: []string{"text/plain"},
	Skills:            []a2a.AgentSkill{{ID: "shout", Name: "Shout", InputModes: []string{"text/markdown"}}},
}

func echo(_ context.Context, msg *a2a.Message) (*a2a.Message, error) {
	return a2a.NewAgentTextMessage("ECHO: " + strings.ToUpper(msg.Text())), nil
}

// noRetry keeps failing calls fast.
func noRetry(t *testing.T) transport.Config {
	t.Helper()
	cfg, err := transport.NewConfigBuilder().WithMaxRetries(0).WithTimeout(5 * time.Second).Build()
	require.NoError(t, err)
	return cfg
}

type testAgent struct {
	ts *httptest.Server
	h  *handler.TaskAwareHandler
}

func newTestAgent(t *testing.T, fn func(context.Context, *a2a.Message) (*a2a.Message, error), hopts []handler.Option, sopts ...server.Option) *testAgent {
	t.Helper()
	h := handler.NewTaskAwareHandler(handler.AgentFunc{Info: echoProfile, Fn: fn}, nil, hopts...)
	ts := httptest.NewServer(server.New(h, sopts...).Handler())
	t.Cleanup(func() {
		ts.Close()
		h.Wait()
	})
	return &testAgent{ts: ts, h: h}
}

func newClient(t *testing.T, baseURL string, opts ...client.Option) *client.Client {
	t.Helper()
	c, err := client.New(baseURL, append([]client.Option{client.WithConfig(noRetry(t))}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	tests := map[string]struct {
		baseURL string
		wantErr bool
	}{
		"http":           {baseURL: "http://localhost:8080"},
		"trailing slash": {baseURL: "https://agent.example.com/a2a/"},
		"relative":       {baseURL: "/a2a", wantErr: true},
		"bad scheme":     {baseURL: "ftp://agent.example.com", wantErr: true},
		"unparseable":    {baseURL: "http://[::1", wantErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c, err := client.New(tt.baseURL)
			if tt.wantErr {
				require.Error(t, err)
				require.Equal(t, a2a.KindConfiguration, a2a.KindOf(err))
				return
			}
			require.NoError(t, err)
			require.False(t, strings.HasSuffix(c.BaseURL(), "/"))
			require.Equal(t, transport.TypeJSONRPC, c.Type())
		})
	}
}

func TestClientEcho(t *testing.T) {
	agent := newTestAgent(t, echo, nil)
	c := newClient(t, agent.ts.URL)
	ctx := t.Context()

	reply, err := c.SendImmediate(ctx, a2a.NewUserTextMessage("hello"))
	require.NoError(t, err)
	require.Equal(t, "ECHO: HELLO", reply.Text())
	require.Equal(t, a2a.RoleAgent, reply.Role)

	res, err := c.SendText(ctx, "hello")
	require.NoError(t, err)
	submitted, ok := res.(*a2a.Task)
	require.True(t, ok, "SendText() = %T, want a task", res)
	require.Equal(t, a2a.TaskStateSubmitted, submitted.Status.State)

	done, err := c.WaitForCompletion(ctx, submitted.ID, 5*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, a2a.TaskStateCompleted, done.Status.State)
	require.NotNil(t, done.Status.Message)
	require.Equal(t, "ECHO: HELLO", done.Status.Message.Text())

	status, err := c.TaskStatus(ctx, submitted.ID)
	require.NoError(t, err)
	require.Equal(t, a2a.TaskStateCompleted, status.Status.State)
}

func TestClientImmediateServerDefault(t *testing.T) {
	agent := newTestAgent(t, echo, []handler.Option{handler.WithImmediate(true)})
	c := newClient(t, agent.ts.URL)

	res, err := c.SendText(t.Context(), "hi")
	require.NoError(t, err)
	msg, ok := res.(*a2a.Message)
	require.True(t, ok, "SendText() = %T, want a message", res)
	require.Equal(t, "ECHO: HI", msg.Text())
}

func TestClientStream(t *testing.T) {
	agent := newTestAgent(t, echo, nil)
	c := newClient(t, agent.ts.URL)

	events, err := client.Collect(c.StreamText(t.Context(), "hello"))
	require.NoError(t, err)
	require.Len(t, events, 2)

	update, ok := events[0].(*a2a.TaskStatusUpdateEvent)
	require.True(t, ok, "first event = %T", events[0])
	require.Equal(t, a2a.TaskStateWorking, update.Status.State)

	final, ok := events[1].(*a2a.Task)
	require.True(t, ok, "last event = %T", events[1])
	require.Equal(t, a2a.TaskStateCompleted, final.Status.State)
	require.Equal(t, update.TaskID, final.ID)

	folded, err := client.FoldTask(c.StreamText(t.Context(), "again"))
	require.NoError(t, err)
	require.Equal(t, a2a.TaskStateCompleted, folded.Status.State)
	require.Equal(t, "ECHO: AGAIN", folded.Status.Message.Text())
}

func TestClientCancel(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	t.Cleanup(func() { once.Do(func() { close(release) }) })

	agent := newTestAgent(t, func(ctx context.Context, msg *a2a.Message) (*a2a.Message, error) {
		<-release
		return echo(ctx, msg)
	}, nil)
	c := newClient(t, agent.ts.URL)
	ctx := t.Context()

	res, err := c.SendText(ctx, "slow")
	require.NoError(t, err)
	id := res.(*a2a.Task).ID

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = c.WaitForCompletion(waitCtx, id, 5*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	canceled, err := c.CancelTask(ctx, id)
	require.NoError(t, err)
	require.Equal(t, a2a.TaskStateCanceled, canceled.Status.State)

	_, err = c.CancelTask(ctx, id)
	require.Equal(t, a2a.KindTaskNotCancelable, a2a.KindOf(err))

	// the agent's late reply does not resurrect the task
	once.Do(func() { close(release) })
	agent.h.Wait()
	got, err := c.GetTask(ctx, id)
	require.NoError(t, err)
	require.Equal(t, a2a.TaskStateCanceled, got.Status.State)
}

func TestClientErrors(t *testing.T) {
	agent := newTestAgent(t, echo, nil)
	c := newClient(t, agent.ts.URL)
	ctx := t.Context()

	tests := map[string]struct {
		call     func() error
		wantKind a2a.ErrorKind
	}{
		"get unknown task": {
			call:     func() error { _, err := c.GetTask(ctx, "missing"); return err },
			wantKind: a2a.KindTaskNotFound,
		},
		"cancel unknown task": {
			call:     func() error { _, err := c.CancelTask(ctx, "missing"); return err },
			wantKind: a2a.KindTaskNotFound,
		},
		"resubscribe unknown task": {
			call:     func() error { _, err := client.Collect(c.Resubscribe(ctx, "missing")); return err },
			wantKind: a2a.KindTaskNotFound,
		},
		"unknown agent": {
			call:     func() error { _, err := c.AgentCard(ctx, "someone-else"); return err },
			wantKind: a2a.KindAgentNotFound,
		},
		"empty message": {
			call:     func() error { _, err := c.SendMessage(ctx, a2a.NewMessage(a2a.RoleUser)); return err },
			wantKind: a2a.KindValidation,
		},
		"push not supported": {
			call:     func() error { _, err := c.ListPushConfigs(ctx, "missing"); return err },
			wantKind: a2a.KindPushNotificationNotSupported,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			require.Equal(t, tt.wantKind, a2a.KindOf(err), "error: %v", err)
		})
	}
}

func TestClientAgentCard(t *testing.T) {
	agent := newTestAgent(t, echo, nil)
	c := newClient(t, agent.ts.URL)
	ctx := t.Context()

	card, err := c.AgentCard(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "Echo", card.Name)
	require.NoError(t, client.ValidateAgentCard(card))

	wellKnown, err := c.FetchWellKnownCard(ctx)
	require.NoError(t, err)
	require.Equal(t, card, wellKnown)

	require.True(t, c.IsAvailable(ctx))

	agent.ts.Close()
	require.False(t, c.IsAvailable(ctx))
}

func TestClientPushConfig(t *testing.T) {
	notifier := push.NewNotifier(task.NewMemoryPushConfigStore())
	agent := newTestAgent(t, echo, []handler.Option{handler.WithPushNotifier(notifier)})
	c := newClient(t, agent.ts.URL)
	ctx := t.Context()

	res, err := c.SendText(ctx, "hello")
	require.NoError(t, err)
	taskID := res.(*a2a.Task).ID

	_, err = c.SetPushConfig(ctx, &a2a.TaskPushNotificationConfig{})
	require.Equal(t, a2a.KindValidation, a2a.KindOf(err))

	saved, err := c.SetPushConfig(ctx, &a2a.TaskPushNotificationConfig{
		TaskID: taskID,
		PushNotificationConfig: a2a.PushNotificationConfig{
			URL:    "https://hooks.example.com/a2a",
			Events: []a2a.PushEvent{a2a.PushEventCompleted},
		},
	})
	require.NoError(t, err)
	configID := saved.PushNotificationConfig.ID
	require.NotEmpty(t, configID)

	got, err := c.GetPushConfig(ctx, taskID, configID)
	require.NoError(t, err)
	require.Equal(t, saved, got)

	first, err := c.GetPushConfig(ctx, taskID, "")
	require.NoError(t, err)
	require.Equal(t, configID, first.PushNotificationConfig.ID)

	list, err := c.ListPushConfigs(ctx, taskID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, c.DeletePushConfig(ctx, taskID, configID))
	list, err = c.ListPushConfigs(ctx, taskID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestClientAuthAndInterceptors(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	agent := newTestAgent(t, echo, []handler.Option{handler.WithImmediate(true)},
		server.WithVerifier(auth.NewJWTAuth([]byte("s3cret"))))
	recorder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("X-Trace-Tag"))
		mu.Unlock()
		agent.ts.Config.Handler.ServeHTTP(w, r)
	}))
	t.Cleanup(recorder.Close)

	unauthenticated := newClient(t, recorder.URL)
	_, err := unauthenticated.SendText(t.Context(), "hi")
	require.Equal(t, a2a.KindAuthentication, a2a.KindOf(err))

	c := newClient(t, recorder.URL,
		client.WithAuthenticator(auth.NewJWTAuth([]byte("s3cret"))),
		client.WithRateLimit(rate.Inf, 1),
		client.WithInterceptors(client.HeaderInterceptor(map[string]string{"X-Trace-Tag": "abc"})),
	)
	res, err := c.SendText(t.Context(), "hi")
	require.NoError(t, err)
	require.Equal(t, "ECHO: HI", res.(*a2a.Message).Text())

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"", "abc"}, seen)
}

func TestClientUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()
	c := newClient(t, ts.URL)

	_, err := c.SendText(t.Context(), "hi")
	require.Error(t, err)
	require.Equal(t, a2a.KindNetwork, a2a.KindOf(err), "error: %v", err)
	require.True(t, a2a.IsRetryable(err))
}
