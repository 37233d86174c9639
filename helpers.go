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

// ApplyEvent folds one stream event into t and returns the updated task.
//
// t may be nil before the first event of a stream; it is then seeded from
// the event. t itself is never modified.
//
//   - A [*Task] snapshot replaces t.
//   - A [*TaskStatusUpdateEvent] replaces the status and appends its message,
//     if any, to the history.
//   - A [*TaskArtifactUpdateEvent] replaces the artifact with the same id, or
//     appends it.
//   - A [*Message] leaves t unchanged.
func ApplyEvent(t *Task, ev StreamEvent) *Task {
	switch ev := ev.(type) {
	case *Task:
		return ev.Clone()

	case *TaskStatusUpdateEvent:
		out := seedTask(t, ev.TaskID)
		if out.ContextID == "" {
			out.ContextID = ev.ContextID
		}
		out.Status = ev.Status
		out.Status.Message = ev.Status.Message.Clone()
		if ev.Status.Message != nil {
			out.History = append(out.History, ev.Status.Message.Clone())
		}
		return out

	case *TaskArtifactUpdateEvent:
		out := seedTask(t, ev.TaskID)
		if ev.Artifact == nil {
			return out
		}
		a := ev.Artifact.Clone()
		for i := range out.Artifacts {
			if out.Artifacts[i].ArtifactID == a.ArtifactID {
				out.Artifacts[i] = a
				return out
			}
		}
		out.AddArtifact(a)
		return out
	}
	return t
}

func seedTask(t *Task, id string) *Task {
	if t == nil {
		return &Task{ID: id}
	}
	return t.Clone()
}
