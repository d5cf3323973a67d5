/*
Copyright 2025 The Inkwell Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logging provides standard structured log field names so that
// every component logs the same concepts under the same keys.
package logging

import (
	"time"

	"github.com/sirupsen/logrus"
)

// StandardFields builds logrus fields with consistent key names.
type StandardFields logrus.Fields

// NewFields creates an empty field set.
func NewFields() StandardFields {
	return StandardFields{}
}

// Component records which orchestrator component emitted the entry.
func (f StandardFields) Component(name string) StandardFields {
	f["component"] = name
	return f
}

// Operation records the operation in progress.
func (f StandardFields) Operation(op string) StandardFields {
	f["operation"] = op
	return f
}

// Provider records the external provider involved.
func (f StandardFields) Provider(provider string) StandardFields {
	f["provider"] = provider
	return f
}

// Agent records the agent kind handling a task.
func (f StandardFields) Agent(kind string) StandardFields {
	f["agent"] = kind
	return f
}

// Task records the task identifier.
func (f StandardFields) Task(id string) StandardFields {
	if id != "" {
		f["task_id"] = id
	}
	return f
}

// Paper records the paper identifier a task operates on.
func (f StandardFields) Paper(id string) StandardFields {
	if id != "" {
		f["paper_id"] = id
	}
	return f
}

// Duration records elapsed wall time in milliseconds.
func (f StandardFields) Duration(d time.Duration) StandardFields {
	f["duration_ms"] = d.Milliseconds()
	return f
}

// Attempt records the retry attempt number.
func (f StandardFields) Attempt(n int) StandardFields {
	f["attempt"] = n
	return f
}

// Error records an error message.
func (f StandardFields) Error(err error) StandardFields {
	if err != nil {
		f["error"] = err.Error()
	}
	return f
}

// Count records a generic item count.
func (f StandardFields) Count(n int) StandardFields {
	f["count"] = n
	return f
}

// Fields converts to logrus.Fields for use with WithFields.
func (f StandardFields) Fields() logrus.Fields {
	return logrus.Fields(f)
}
