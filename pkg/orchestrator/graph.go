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

// Package orchestrator wires the textual pre-planner, quick classifier,
// LLM planner, tool dispatcher and the coding/verification/generic
// sub-agents into the single traversal spec §4.1 describes: entry
// `plan`, terminal `end`, with `tool`/`execute`/`review` nodes closing
// the loop between planning, dispatch and verification.
package orchestrator

import (
	"context"

	"github.com/codur-ai/codur/pkg/config"
	"github.com/codur-ai/codur/pkg/llmprovider"
	"github.com/codur-ai/codur/pkg/observability"
	"github.com/codur-ai/codur/pkg/state"
	"github.com/codur-ai/codur/pkg/tools"
	"github.com/google/uuid"
)

// stage is the graph's node vocabulary (spec §4.1). It is distinct
// from state.NextAction, which is the data field a node writes into
// AgentState as a routing hint — stage is the orchestrator's own
// control-flow value driving Invoke's loop.
type stage string

const (
	stagePlan    stage = "plan"
	stageTool    stage = "tool"
	stageExecute stage = "execute"
	stageReview  stage = "review"
	stageEnd     stage = "end"
)

// signal carries the routing-relevant facts produced by whichever node
// last ran (tool dispatch, coding, verification, or a generic delegated
// agent) into the review node, without overloading AgentState with
// orchestrator-internal plumbing (spec §4.8 "Inputs: last AgentOutcome,
// last tool output...").
type signal struct {
	// Agent is "tool", "coding", "verification", or the delegated
	// agent's own name.
	Agent string
	// Tool is the meta-tool that ended the last turn: "done",
	// "build_verification_response", or "" (recursion bound exhausted
	// / plain tool dispatch / content-only reply).
	Tool string
	// Passed is only meaningful when Tool == "build_verification_response".
	Passed bool
}

// Graph holds the collaborators every node needs: LLM provider
// registry, tool registry/dispatcher and the immutable config.
type Graph struct {
	Config     *config.Config
	LLMs       *llmprovider.Registry
	Tools      *tools.Registry
	Dispatcher *tools.Dispatcher

	// Metrics is nil unless WithMetrics is called; every recording
	// method on a nil *observability.Metrics is a no-op, so nodes call
	// it unconditionally instead of guarding every call site.
	Metrics *observability.Metrics
}

// New builds a Graph over the given collaborators.
func New(cfg *config.Config, llms *llmprovider.Registry, toolReg *tools.Registry, dispatcher *tools.Dispatcher) *Graph {
	return &Graph{Config: cfg, LLMs: llms, Tools: toolReg, Dispatcher: dispatcher}
}

// WithMetrics attaches a Prometheus metrics recorder built from
// config.Config.Observability.Metrics (spec §1's ambient stack; the
// teacher's pkg/observability.Metrics does the actual recording and
// HTTP exposition, see observability.NewMetrics).
func (g *Graph) WithMetrics(m *observability.Metrics) *Graph {
	g.Metrics = m
	return g
}

// RunResult is what the execution driver (spec §4.9) surfaces:
// "messages, final_response, selected_agent".
type RunResult struct {
	Messages      []state.Message
	FinalResponse string
	SelectedAgent string
}

// recursionBound computes the graph's step-count ceiling (spec §4.1
// "recursion bound (>= 5 x max_iterations)"). One planning iteration
// can span several steps (plan, tool/execute, review), so the minimum
// of 5 also covers max_iterations == 0, where the router's first
// ExceededIterations check still needs a couple of steps to be reached.
func recursionBound(cfg *config.Config) int {
	bound := 5 * cfg.Runtime.MaxIterations
	if bound < 5 {
		bound = 5
	}
	return bound
}

// invoke runs the graph to completion or its recursion bound, whichever
// comes first (spec §4.1 "invoke(state) -> final_state").
func (g *Graph) invoke(ctx context.Context, task string) (*RunResult, error) {
	st := state.New(task, g.Config)

	stg := stagePlan
	var sig signal
	var selectedAgent string
	bound := recursionBound(g.Config)

	for steps := 0; stg != stageEnd; steps++ {
		if steps >= bound {
			st.FinalResponse = "recursion bound exceeded before reaching a terminal state"
			break
		}

		switch stg {
		case stagePlan:
			stg, sig = g.planNode(ctx, st)
		case stageTool:
			stg, sig = g.toolNode(ctx, st)
		case stageExecute:
			stg, sig = g.executeNode(ctx, st)
			if sig.Agent != "" {
				selectedAgent = sig.Agent
			}
		case stageReview:
			stg = g.reviewNode(st, sig)
		default:
			stg = stageEnd
		}
	}

	return &RunResult{Messages: st.Messages, FinalResponse: st.FinalResponse, SelectedAgent: selectedAgent}, nil
}

// newToolCallID mints a fresh correlation ID for a tool call minted
// outside the planner's own ID assignment (Phase 0/Phase 1 direct
// resolutions, which build bare state.ToolCall{Name,Args} values).
func newToolCallID() string { return uuid.NewString() }
