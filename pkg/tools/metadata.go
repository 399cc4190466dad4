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

// Package tools implements the tool registry, JSON-schema generator
// and dispatcher from spec §4.5: annotation-driven discovery is
// modeled as a side-table of metadata keyed by tool name, rather than
// attributes hung on the function value itself (spec §9 "Decorator-
// based tool metadata... Model tool metadata as a side-table").
package tools

import (
	"context"

	"github.com/codur-ai/codur/pkg/toolspec"
)

// Ambient is the set of ambient collaborators the dispatcher may inject
// into a tool invocation. Individual tools declare which of these they
// need via their Metadata.Contexts / a Func signature that accepts them.
type Ambient struct {
	Root             string
	AllowOutsideRoot bool
	HumanMessage     string
	BatchReadOutputs map[string]string // path -> read_file output in this batch (for agent_call injection)
	LastReadPath     string            // path of the most recently executed read_file in this batch, in call order
}

// Func is the invocable shape every registered tool implements. args
// are the already-normalized (",@"-stripped) parameters from the plan
// step; ambient carries the injected collaborators internal parameters
// would otherwise have held (spec §4.5: "internal parameters
// `root, state, config, allow_outside_root`").
type Func func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error)

// Result is a single tool's execution outcome.
type Result struct {
	Content string
	Output  interface{}
}

// Metadata is the side-table record the registry keeps per tool,
// grounded on spec §3 "Tool metadata record".
type Metadata struct {
	Name        string
	Summary     string
	ParamsType  interface{} // zero value of the tool's argument struct, for schema generation
	Scenarios   toolspec.Set[toolspec.TaskType]
	SideEffects toolspec.Set[toolspec.ToolSideEffect]
	Contexts    toolspec.Set[toolspec.ToolContext]
	Guards      toolspec.Set[toolspec.ToolGuard]
}

// Entry is what the registry stores per registered tool.
type Entry struct {
	Fn       Func
	Metadata Metadata
}
