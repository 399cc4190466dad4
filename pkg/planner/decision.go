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

// Package planner implements Phase 2: the LLM planner node invoked
// when Phase 0 (pkg/classify.Preplan) found no pattern and Phase 1
// (pkg/classify.Classify) was not confident enough to resolve the
// request without a model call (spec §4.4).
package planner

import "github.com/codur-ai/codur/pkg/state"

// Action is the closed decision vocabulary the planner's JSON-mode
// response is constrained to (spec §4.4 decision schema).
type Action string

const (
	ActionDelegate Action = "delegate"
	ActionRespond  Action = "respond"
	ActionTool     Action = "tool"
	ActionDone     Action = "done"
)

// RequestedToolCall is one {tool, args} entry in the decision schema's
// tool_calls array — a distinct wire shape from state.ToolCall, which
// also carries an ID and is keyed by "name" rather than "tool".
type RequestedToolCall struct {
	Tool string                 `json:"tool"`
	Args map[string]interface{} `json:"args"`
}

// Decision is the parsed planner output (spec §4.4):
//
//	{action, agent, reasoning, response, tool_calls}
type Decision struct {
	Action    Action              `json:"action"`
	Agent     string              `json:"agent,omitempty"`
	Reasoning string              `json:"reasoning"`
	Response  string              `json:"response,omitempty"`
	ToolCalls []RequestedToolCall `json:"tool_calls,omitempty"`
}

// HasMutatingCall reports whether any of the decision's tool calls
// names a tool in toolspec.MutatingTools.
func (d Decision) HasMutatingCall(mutating func(name string) bool) bool {
	for _, tc := range d.ToolCalls {
		if mutating(tc.Tool) {
			return true
		}
	}
	return false
}

// ToStateToolCalls converts the decision's requested tool calls into
// state.ToolCall values ready for AgentState.ToolCalls, assigning each
// a fresh ID via newID.
func (d Decision) ToStateToolCalls(newID func() string) []state.ToolCall {
	out := make([]state.ToolCall, len(d.ToolCalls))
	for i, tc := range d.ToolCalls {
		out[i] = state.ToolCall{ID: newID(), Name: tc.Tool, Args: tc.Args}
	}
	return out
}

// ToNextAction maps the planner's Action vocabulary onto the
// orchestrator's state.NextAction routing vocabulary (spec §3, §9
// "route constants normalize to one closed set").
func (a Action) ToNextAction() state.NextAction {
	switch a {
	case ActionDelegate:
		return state.ActionDelegate
	case ActionRespond:
		return state.ActionRespond
	case ActionTool:
		return state.ActionTool
	case ActionDone:
		return state.ActionEnd
	default:
		return state.ActionEnd
	}
}
