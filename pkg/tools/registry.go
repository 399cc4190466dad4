// Copyright 2025 The Codur Authors
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

package tools

import (
	"fmt"
	"sort"
	"sync"

	"github.com/codur-ai/codur/pkg/toolspec"
)

// RegistryError is a structured registry failure, grounded on the
// teacher's ToolRegistryError (pkg/tools/registry.go).
type RegistryError struct {
	Action  string
	Message string
	Err     error
}

func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[registry:%s] %s: %v", e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("[registry:%s] %s", e.Action, e.Message)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// Registry discovers and exposes every callable tool (spec §4.5
// "Tool registry").
type Registry struct {
	mu    sync.RWMutex
	items map[string]Entry
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Entry)}
}

// Register adds a tool under the given metadata name. Re-registering
// an existing name is an error.
func (r *Registry) Register(meta Metadata, fn Func) error {
	if meta.Name == "" {
		return &RegistryError{Action: "Register", Message: "tool name cannot be empty"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[meta.Name]; exists {
		return &RegistryError{Action: "Register", Message: fmt.Sprintf("tool %q already registered", meta.Name)}
	}
	r.items[meta.Name] = Entry{Fn: fn, Metadata: meta}
	return nil
}

// Get resolves a tool name to its Entry.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.items[name]
	return e, ok
}

// List returns every registered entry, sorted by name for determinism.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.items))
	for _, e := range r.items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metadata.Name < out[j].Metadata.Name })
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// ListFilter narrows tool discovery by scenario/side-effect (spec §4.5
// "list_tools_for_tasks(task_types, include_unannotated,
// exclude_task_types, exclude_side_effects)").
type ListFilter struct {
	TaskTypes          []toolspec.TaskType
	IncludeUnannotated bool
	ExcludeTaskTypes   []toolspec.TaskType
	ExcludeSideEffects []toolspec.ToolSideEffect
}

// ListForTasks filters the registry's entries per f, used to scope a
// sub-agent's available tool set (coding: mutation-capable tools;
// verification: read-only tools).
func (r *Registry) ListForTasks(f ListFilter) []Entry {
	wanted := toolspec.NewSet(f.TaskTypes...)
	excludedTasks := toolspec.NewSet(f.ExcludeTaskTypes...)
	excludedEffects := toolspec.NewSet(f.ExcludeSideEffects...)

	var out []Entry
	for _, e := range r.List() {
		if len(e.Metadata.Scenarios) == 0 {
			if f.IncludeUnannotated {
				out = append(out, e)
			}
			continue
		}
		if e.Metadata.Scenarios.Intersects(excludedTasks) {
			continue
		}
		if e.Metadata.SideEffects.Intersects(excludedEffects) {
			continue
		}
		if len(wanted) > 0 && !e.Metadata.Scenarios.Intersects(wanted) {
			continue
		}
		out = append(out, e)
	}
	return out
}
