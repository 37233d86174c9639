// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client_test

import (
	"context"
	"fmt"
	"log"
	"net/http/httptest"
	"strings"

	"github.com/go-a2a/a2a"
	"github.com/go-a2a/a2a/client"
	"github.com/go-a2a/a2a/server"
	"github.com/go-a2a/a2a/server/handler"
)

func newExampleServer() *httptest.Server {
	agent := handler.AgentFunc{
		Info: a2a.AgentProfile{ID: "echo", Name: "Echo"},
		Fn: func(_ context.Context, msg *a2a.Message) (*a2a.Message, error) {
			return a2a.NewAgentTextMessage("ECHO: " + strings.ToUpper(msg.Text())), nil
		},
	}
	return httptest.NewServer(server.New(handler.NewTaskAwareHandler(agent, nil)).Handler())
}

func ExampleClient_SendImmediate() {
	ts := newExampleServer()
	defer ts.Close()

	c, err := client.New(ts.URL)
	if err != nil {
		log.Fatal(err)
	}

	reply, err := c.SendImmediate(context.Background(), a2a.NewUserTextMessage("hello"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(reply.Text())
	// Output: ECHO: HELLO
}

func ExampleClient_StreamText() {
	ts := newExampleServer()
	defer ts.Close()

	c, err := client.New(ts.URL)
	if err != nil {
		log.Fatal(err)
	}

	for ev, err := range c.StreamText(context.Background(), "hello") {
		if err != nil {
			log.Fatal(err)
		}
		switch ev := ev.(type) {
		case *a2a.TaskStatusUpdateEvent:
			fmt.Println("status:", ev.Status.State)
		case *a2a.Task:
			fmt.Println("done:", ev.Status.State, ev.Status.Message.Text())
		}
	}
	// Output:
	// status: working
	// done: completed ECHO: HELLO
}
