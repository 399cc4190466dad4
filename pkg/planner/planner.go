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

package planner

import (
	"context"
	"fmt"
	"regexp"

	"github.com/codur-ai/codur/pkg/config"
	"github.com/codur-ai/codur/pkg/llmprovider"
	"github.com/codur-ai/codur/pkg/state"
	"github.com/codur-ai/codur/pkg/toolspec"
)

// mutationIntentPattern matches the verbs spec §4.4 names for the
// mutation-intent retry: a human message that asks for an edit but
// whose decision is not a tool/delegate action carrying a mutating
// tool call.
var mutationIntentPattern = regexp.MustCompile(`(?i)\b(fix|edit|update|change|modify|refactor|bug|issue)\b`)

const correctiveJSONInstruction = "Your previous response was not a single valid JSON decision object. " +
	"Respond again with ONLY the JSON object described above, no prose, no code fence."

const correctiveMutationInstruction = "The user's request implies editing a file, but your decision did not " +
	"include a mutating tool call. Reconsider: if an edit is needed, set action to \"tool\" or \"delegate\" " +
	"and include the appropriate tool_calls."

// Plan runs Phase 2: builds the prompt, invokes the LLM in JSON mode
// with fallback/retry, recovers a Decision from the response, and
// applies the corrective-retry rules from spec §4.4 (parse-failure
// retry, mutation-intent retry) before falling back to
// delegate→default_agent.
func Plan(
	ctx context.Context,
	reg *llmprovider.Registry,
	cfg *config.Config,
	messages []state.Message,
	classification *state.ClassificationResult,
	toolDefs []llmprovider.ToolDefinition,
) (Decision, error) {
	prompt := BuildPrompt(classification, toolDefs)
	req := buildRequest(prompt, messages, toolDefs, cfg.LLM.PlanningTemperature)

	resp, _, err := llmprovider.InvokeWithFallback(ctx, reg, cfg.LLM.DefaultProfile, cfg.Runtime.PlannerFallbackProfiles, req)
	if err != nil {
		return fallbackDecision(cfg, fmt.Sprintf("LLM invocation failed: %v", err)), nil
	}

	decision, perr := ParseDecision(resp.Content)
	if perr != nil {
		retryReq := buildRequest(prompt, appendCorrective(messages, resp.Content, correctiveJSONInstruction), toolDefs, cfg.LLM.PlanningTemperature)
		resp2, _, err2 := llmprovider.InvokeWithFallback(ctx, reg, cfg.LLM.DefaultProfile, cfg.Runtime.PlannerFallbackProfiles, retryReq)
		if err2 != nil {
			return fallbackDecision(cfg, fmt.Sprintf("LLM invocation failed on corrective retry: %v", err2)), nil
		}
		decision, perr = ParseDecision(resp2.Content)
		if perr != nil {
			return fallbackDecision(cfg, "planner could not recover a decision after one corrective retry"), nil
		}
		resp = resp2
	}

	if needsMutationIntentRetry(messages, decision) {
		retryReq := buildRequest(prompt, appendCorrective(messages, resp.Content, correctiveMutationInstruction), toolDefs, cfg.LLM.PlanningTemperature)
		resp3, _, err3 := llmprovider.InvokeWithFallback(ctx, reg, cfg.LLM.DefaultProfile, cfg.Runtime.PlannerFallbackProfiles, retryReq)
		if err3 == nil {
			if d3, perr3 := ParseDecision(resp3.Content); perr3 == nil {
				decision = d3
			}
		}
	}

	return decision, nil
}

func buildRequest(prompt string, messages []state.Message, toolDefs []llmprovider.ToolDefinition, temperature float64) llmprovider.Request {
	all := make([]state.Message, 0, len(messages)+1)
	all = append(all, state.NewSystem(prompt))
	all = append(all, messages...)
	return llmprovider.Request{Messages: all, Tools: toolDefs, Temperature: temperature, JSONMode: true}
}

func appendCorrective(messages []state.Message, priorResponse, instruction string) []state.Message {
	out := make([]state.Message, 0, len(messages)+2)
	out = append(out, messages...)
	out = append(out, state.NewAI(priorResponse))
	out = append(out, state.NewHuman(instruction))
	return out
}

// needsMutationIntentRetry reports whether the latest human message
// asks for an edit but the decision is not a tool or delegate action
// whose tool_calls include a mutating tool; a delegate with no
// tool_calls, or a batch of only read-only tools, is retried too
// (spec §4.4 "mutation-intent retry").
func needsMutationIntentRetry(messages []state.Message, d Decision) bool {
	if !mutationIntentPattern.MatchString(state.LastHuman(messages)) {
		return false
	}
	if d.Action != ActionTool && d.Action != ActionDelegate {
		return true
	}
	return !d.HasMutatingCall(func(name string) bool { return toolspec.MutatingTools.Has(name) })
}

// fallbackDecision is the terminal "delegate to the default agent"
// decision used when the planner cannot recover a usable response
// after its corrective retry (spec §4.4 "fallback to delegate →
// default_agent on continued failure").
func fallbackDecision(cfg *config.Config, reasoning string) Decision {
	return Decision{
		Action:    ActionDelegate,
		Agent:     "agent:" + cfg.Agents.Preferences.DefaultAgent,
		Reasoning: reasoning,
	}
}
