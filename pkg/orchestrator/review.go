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

package orchestrator

import "github.com/codur-ai/codur/pkg/state"

// reviewNode applies the post-execute routing table (spec §4.8
// "review"). Precedence, highest first:
//  1. iterations exhausted -> end
//  2. coding's own "done" -> verification (spec §4.6 step 5: coding's
//     "done" is a handoff, not a terminal state; this node sets
//     selected_agent to "agent:verification" for it)
//  3. any other agent's "done" -> end (a generic delegated agent has
//     no verification convention to hand off to)
//  4. build_verification_response, passed -> end
//  5. build_verification_response, failed -> verification, or coding
//     if verification itself produced the failing verdict (the second
//     failure loops back to the author instead of re-verifying the
//     same fix)
//  6. a tool dispatch just ran and the planner already named an agent
//     to resume into -> execute
//  7. a tool dispatch just ran with no agent named -> plan
//  8. coding exhausted its recursion depth without a terminal call ->
//     verification, treating the unterminated attempt as a candidate
//     fix needing a check
//  9. a generic delegated agent exhausted its recursion depth ->
//     verification, same reasoning as 8
//  10. a verification fallback (never actually called, recursion bound
//      exhausted) with iterations still available -> plan, carrying a
//      next-step suggestion
//  11. anything else -> end
func (g *Graph) reviewNode(st *state.AgentState, sig signal) stage {
	if st.ExceededIterations() {
		st.FinalResponse = "maximum iterations reached without a final response"
		return stageEnd
	}

	if sig.Tool == "done" {
		if sig.Agent == "coding" {
			st.SelectedAgent = "agent:verification"
			return stageExecute
		}
		return stageEnd
	}

	if sig.Tool == "build_verification_response" {
		if sig.Passed {
			return stageEnd
		}
		if sig.Agent == "verification" {
			st.SelectedAgent = "agent:coding"
			return stageExecute
		}
		st.SelectedAgent = "agent:verification"
		return stageExecute
	}

	if sig.Agent == "tool" {
		if st.SelectedAgent != "" {
			return stageExecute
		}
		return stagePlan
	}

	if sig.Tool == "" && (sig.Agent == "coding" || (sig.Agent != "" && sig.Agent != "verification")) {
		st.SelectedAgent = "agent:verification"
		return stageExecute
	}

	if sig.Agent == "verification" && sig.Tool == "" {
		st.NextStepSuggestion = "verification could not reach a verdict; re-plan with the available context"
		return stagePlan
	}

	return stageEnd
}
