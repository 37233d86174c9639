// Copyright 2025 The Go A2A Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package a2a

import "time"

// A2A protocol path constants served by the HTTP binding.
const (
	// AgentCardWellKnownPath is the standard path for retrieving an agent's public AgentCard.
	//
	// Example usage: https://agent.example.com/.well-known/agent.json
	AgentCardWellKnownPath = "/.well-known/agent.json"

	// AgentCardPath serves the same card under the RPC namespace.
	AgentCardPath = "/agent/card"

	// RPCPath is the path of the JSON-RPC endpoint. It accepts single requests and batches.
	RPCPath = "/rpc"

	// StreamPath is the path of the event-stream endpoint for message/stream and task/resubscribe.
	StreamPath = "/stream"

	// HealthPath reports handler health.
	HealthPath = "/health"

	// MetricsPath exposes metrics when a metrics handler is configured.
	MetricsPath = "/metrics"
)

// Transport labels reported by agent cards and transports.
const (
	TransportJSONRPC = "JSONRPC"
	TransportHTTP    = "HTTP+JSON"
)

// Content types.
const (
	ContentTypeJSON        = "application/json"
	ContentTypeEventStream = "text/event-stream"
)

// DefaultKeepAliveInterval is the interval between keep-alive frames on event streams.
const DefaultKeepAliveInterval = 30 * time.Second
