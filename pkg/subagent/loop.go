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

// Package subagent implements the coding and verification sub-agents
// (spec §4.6-§4.7): bounded-depth tool-calling loops scoped to a
// narrow tool subset and short-circuited by meta-tool calls, grounded
// on the teacher's reasoning-iteration loop
// (pkg/reasoning/chain_of_thought_strategy.go: PrepareIteration /
// ShouldStop / AfterIteration) generalized to a fixed recursion bound
// and a single owning package rather than a pluggable ReasoningStrategy.
package subagent

import (
	"context"
	"fmt"

	"github.com/codur-ai/codur/pkg/llmprovider"
	"github.com/codur-ai/codur/pkg/state"
	"github.com/codur-ai/codur/pkg/tools"
	"github.com/codur-ai/codur/pkg/toolspec"
)

// metaCall is a detected meta-tool invocation pulled out of a batch
// before dispatch (spec §6 "a meta-tool call is detected before
// dispatch and handled by the enclosing sub-agent loop").
type metaCall struct {
	Name string
	Args map[string]interface{}
}

// loopConfig parameterizes runLoop for the coding vs. verification
// sub-agents: their tool scopes, termination sets and model settings
// differ but the turn-taking mechanics are identical.
type loopConfig struct {
	AgentName        string
	SystemPrompt     string
	ToolDefs         []llmprovider.ToolDefinition
	Profile          string
	FallbackProfiles []string
	Temperature      float64
	MaxDepth         int
	TerminalTools    toolspec.Set[toolspec.MetaTool]
}

// runLoop drives the turn-taking loop common to both sub-agents: call
// the LLM, dispatch any non-meta tool calls, append the turn to the
// transcript, and stop when a terminal meta-tool call appears or
// MaxDepth is reached. It never invokes an LLM call beyond MaxDepth
// (spec §4.6 "recursion_depth ≤ 3", §4.7 "≤ 4").
func runLoop(
	ctx context.Context,
	reg *llmprovider.Registry,
	dispatcher *tools.Dispatcher,
	humanMessage string,
	messages []state.Message,
	lc loopConfig,
) (transcript []state.Message, terminal *metaCall, err error) {
	transcript = append([]state.Message(nil), messages...)

	for depth := 0; depth < lc.MaxDepth; depth++ {
		req := llmprovider.Request{
			Messages:    prependSystem(lc.SystemPrompt, transcript),
			Tools:       lc.ToolDefs,
			Temperature: lc.Temperature,
		}

		resp, _, invokeErr := llmprovider.InvokeWithFallback(ctx, reg, lc.Profile, lc.FallbackProfiles, req)
		if invokeErr != nil {
			return transcript, nil, fmt.Errorf("subagent %s: LLM invocation failed: %w", lc.AgentName, invokeErr)
		}

		if len(resp.ToolCalls) == 0 {
			transcript = append(transcript, state.NewAI(resp.Content))
			return transcript, nil, nil
		}

		transcript = append(transcript, state.NewAI(resp.Content, resp.ToolCalls...))

		meta, rest := splitMeta(resp.ToolCalls, lc.TerminalTools)
		allowed, rejected := partitionAllowed(rest, lc.ToolDefs)
		if len(allowed) > 0 {
			result := dispatcher.Execute(ctx, allowed, humanMessage)
			transcript = append(transcript, state.NewToolResult(batchCallID(allowed), "tool_batch", result.Summary))
		}
		for _, r := range rejected {
			transcript = append(transcript, state.NewToolResult(r.ID, r.Name,
				fmt.Sprintf("%s failed: tool not available to the %s sub-agent", r.Name, lc.AgentName)))
		}

		if meta != nil {
			return transcript, meta, nil
		}
	}

	return transcript, nil, nil
}

// splitMeta separates a terminal meta-tool call (the first one found
// in terminal) from the rest of the batch, which is dispatched
// normally.
func splitMeta(calls []state.ToolCall, terminal toolspec.Set[toolspec.MetaTool]) (*metaCall, []state.ToolCall) {
	var found *metaCall
	var rest []state.ToolCall
	for _, c := range calls {
		if found == nil && terminal.Has(toolspec.MetaTool(c.Name)) {
			found = &metaCall{Name: c.Name, Args: c.Args}
			continue
		}
		rest = append(rest, c)
	}
	return found, rest
}

// partitionAllowed splits calls into those naming a tool in defs and
// those that don't, enforcing the sub-agent's scoped tool catalogue at
// dispatch time rather than trusting the LLM to only call what its
// prompt offered (a verification sub-agent must stay read-only even if
// it hallucinates a mutating tool name).
func partitionAllowed(calls []state.ToolCall, defs []llmprovider.ToolDefinition) (allowed, rejected []state.ToolCall) {
	names := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		names[d.Name] = struct{}{}
	}
	for _, c := range calls {
		if _, ok := names[c.Name]; ok {
			allowed = append(allowed, c)
		} else {
			rejected = append(rejected, c)
		}
	}
	return allowed, rejected
}

func batchCallID(calls []state.ToolCall) string {
	if len(calls) == 0 {
		return ""
	}
	return calls[0].ID
}

func prependSystem(systemPrompt string, messages []state.Message) []state.Message {
	out := make([]state.Message, 0, len(messages)+1)
	out = append(out, state.NewSystem(systemPrompt))
	out = append(out, messages...)
	return out
}

// scopedToolDefs builds the JSON-schema tool catalogue for a filtered
// registry view, skipping (silently) any tool whose params struct
// fails to reflect rather than aborting the sub-agent's turn.
func scopedToolDefs(entries []tools.Entry) []llmprovider.ToolDefinition {
	defs, _ := tools.Definitions(entries)
	out := make([]llmprovider.ToolDefinition, len(defs))
	for i, d := range defs {
		out[i] = llmprovider.ToolDefinition{Name: d.Name, Description: d.Description, Parameters: d.Parameters}
	}
	return out
}
