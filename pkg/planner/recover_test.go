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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDecisionDirectJSON(t *testing.T) {
	d, err := ParseDecision(`{"action": "respond", "reasoning": "hi", "response": "hello"}`)
	require.NoError(t, err)
	require.Equal(t, ActionRespond, d.Action)
	require.Equal(t, "hello", d.Response)
}

func TestParseDecisionStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"action\": \"tool\", \"reasoning\": \"r\", \"tool_calls\": [{\"tool\": \"read_file\", \"args\": {\"path\": \"a.py\"}}]}\n```"
	d, err := ParseDecision(raw)
	require.NoError(t, err)
	require.Equal(t, ActionTool, d.Action)
	require.Len(t, d.ToolCalls, 1)
	require.Equal(t, "read_file", d.ToolCalls[0].Tool)
}

func TestParseDecisionRecoversFromSurroundingProse(t *testing.T) {
	raw := `Sure, here is my decision: {"action": "delegate", "agent": "agent:coding", "reasoning": "bug fix"} Hope that helps!`
	d, err := ParseDecision(raw)
	require.NoError(t, err)
	require.Equal(t, ActionDelegate, d.Action)
	require.Equal(t, "agent:coding", d.Agent)
}

func TestParseDecisionGreedyFallbackRecoversNestedBraces(t *testing.T) {
	raw := "noise before { \"action\": \"tool\", \"reasoning\": \"r\", \"tool_calls\": [{\"tool\": \"list_files\", \"args\": {}}] } noise after"
	d, err := ParseDecision(raw)
	require.NoError(t, err)
	require.Equal(t, ActionTool, d.Action)
}

func TestParseDecisionFailsOnUnrecoverableGarbage(t *testing.T) {
	_, err := ParseDecision("this has no braces at all")
	require.Error(t, err)
}

func TestParseDecisionFailsWhenActionMissing(t *testing.T) {
	_, err := ParseDecision(`{"reasoning": "missing action"}`)
	require.Error(t, err)
}
