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
	"testing"

	"github.com/codur-ai/codur/pkg/config"
	"github.com/codur-ai/codur/pkg/llmprovider"
	"github.com/codur-ai/codur/pkg/state"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			DefaultProfile:      "default",
			PlanningTemperature: 0.1,
		},
		Agents: config.AgentsConfig{
			Preferences: config.AgentPreferences{DefaultAgent: "coding"},
		},
	}
}

func TestPlanParsesDirectDecision(t *testing.T) {
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", llmprovider.NewStubProvider("default",
		llmprovider.Response{Content: `{"action": "respond", "reasoning": "r", "response": "hi there"}`})))

	d, err := Plan(context.Background(), reg, testConfig(), []state.Message{state.NewHuman("hello")}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, ActionRespond, d.Action)
	require.Equal(t, "hi there", d.Response)
}

func TestPlanRetriesOnUnparseableResponseThenSucceeds(t *testing.T) {
	reg := llmprovider.NewRegistry()
	seq := llmprovider.NewSequenceProvider("default", []llmprovider.Response{
		{Content: "not json at all"},
		{Content: `{"action": "tool", "reasoning": "r", "tool_calls": [{"tool": "read_file", "args": {"path": "a.py"}}]}`},
	})
	require.NoError(t, reg.RegisterProvider("default", seq))

	d, err := Plan(context.Background(), reg, testConfig(), []state.Message{state.NewHuman("read a.py")}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, ActionTool, d.Action)
	require.Equal(t, 2, seq.Calls())
}

func TestPlanFallsBackToDelegateAfterExhaustedCorrectiveRetry(t *testing.T) {
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", llmprovider.NewStubProvider("default",
		llmprovider.Response{Content: "never valid json"})))

	d, err := Plan(context.Background(), reg, testConfig(), []state.Message{state.NewHuman("do something")}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, ActionDelegate, d.Action)
	require.Equal(t, "agent:coding", d.Agent)
}

func TestPlanFallsBackWhenLLMInvocationFails(t *testing.T) {
	reg := llmprovider.NewRegistry()
	failing := llmprovider.NewStubProvider("default", llmprovider.Response{})
	failing.Err = assertErr{}
	require.NoError(t, reg.RegisterProvider("default", failing))

	d, err := Plan(context.Background(), reg, testConfig(), []state.Message{state.NewHuman("do something")}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, ActionDelegate, d.Action)
}

func TestPlanAppliesMutationIntentRetry(t *testing.T) {
	reg := llmprovider.NewRegistry()
	seq := llmprovider.NewSequenceProvider("default", []llmprovider.Response{
		{Content: `{"action": "respond", "reasoning": "r", "response": "done"}`},
		{Content: `{"action": "tool", "reasoning": "r2", "tool_calls": [{"tool": "write_file", "args": {"path": "a.py", "content": "x"}}]}`},
	})
	require.NoError(t, reg.RegisterProvider("default", seq))

	d, err := Plan(context.Background(), reg, testConfig(), []state.Message{state.NewHuman("please fix the bug in a.py")}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, ActionTool, d.Action)
	require.Equal(t, 2, seq.Calls())
}

type assertErr struct{}

func (assertErr) Error() string { return "down" }
