// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package event fans task events out to streaming subscribers and frames
// them as server-sent events.
package event
