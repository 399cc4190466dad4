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

// The agent_call tool lets a planner route a step to a bounded
// coding or verification sub-agent. Its actual execution lives in
// pkg/subagent, which in turn depends on pkg/tools to build its own
// tool-calling loop — registering the dispatch function here rather
// than importing pkg/subagent directly avoids that import cycle,
// mirroring the teacher's own late-bound agent_call.go registration
// against a caller-supplied team/agent resolver.
package tools

import (
	"context"
	"fmt"

	"github.com/codur-ai/codur/pkg/toolspec"
)

type agentCallParams struct {
	AgentType    string `json:"agent_type" jsonschema:"required,description=coding or verification"`
	Instructions string `json:"instructions" jsonschema:"required,description=Task instructions for the sub-agent"`
}

// AgentCallFunc dispatches one agent_call invocation to the coding or
// verification sub-agent loop and returns its final outcome text.
type AgentCallFunc func(ctx context.Context, agentType, instructions, fileContents string) (string, error)

// RegisterAgentCallTool registers agent_call against a dispatch
// function supplied by the orchestrator once pkg/subagent exists. A
// nil dispatch always fails closed rather than silently no-op'ing.
func RegisterAgentCallTool(r *Registry, dispatch AgentCallFunc) error {
	return r.Register(Metadata{
		Name: "agent_call", Summary: "Delegate a step to a bounded coding or verification sub-agent.",
		ParamsType:  agentCallParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskCodeFix, toolspec.TaskCodeGeneration, toolspec.TaskComplexRefactor, toolspec.TaskResultVerify),
		SideEffects: toolspec.NewSet(toolspec.SideEffectStateChange),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		if dispatch == nil {
			return Result{}, fmt.Errorf("agent_call: no sub-agent dispatcher wired")
		}
		agentType, _ := args["agent_type"].(string)
		instructions, _ := args["instructions"].(string)
		fileContents, _ := args["file_contents"].(string)
		out, err := dispatch(ctx, agentType, instructions, fileContents)
		if err != nil {
			return Result{}, fmt.Errorf("agent_call: %w", err)
		}
		return Result{Content: out}, nil
	})
}
