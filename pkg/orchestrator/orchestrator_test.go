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

import (
	"context"
	"testing"

	"github.com/codur-ai/codur/internal/sandbox"
	"github.com/codur-ai/codur/pkg/config"
	"github.com/codur-ai/codur/pkg/llmprovider"
	"github.com/codur-ai/codur/pkg/state"
	"github.com/codur-ai/codur/pkg/tools"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{DefaultProfile: "default", PlanningTemperature: 0.2, GenerationTemperature: 0.4},
		Agents: config.AgentsConfig{
			Preferences: config.AgentPreferences{DefaultAgent: "coding"},
		},
		Runtime: config.RuntimeConfig{MaxIterations: 5, MaxLLMCalls: 20, DetectToolCallsFromText: true},
	}
}

func newTestGraph(t *testing.T, cfg *config.Config, reg *llmprovider.Registry) *Graph {
	t.Helper()
	root := t.TempDir()
	toolReg := tools.NewRegistry()
	sb := sandbox.New(root)
	require.NoError(t, tools.RegisterBuiltins(toolReg, sb, tools.BuiltinOptions{}))
	dispatcher := tools.NewDispatcher(toolReg, sb)
	return New(cfg, reg, toolReg, dispatcher)
}

func TestInvokeRespondsToGreetingWithoutAnyLLMCall(t *testing.T) {
	cfg := testConfig()
	reg := llmprovider.NewRegistry()
	g := newTestGraph(t, cfg, reg)

	result, err := g.invoke(context.Background(), "hello there")

	require.NoError(t, err)
	require.Contains(t, result.FinalResponse, "Hello")
}

func TestInvokeDirectlyResolvesFileReadWithoutLLM(t *testing.T) {
	cfg := testConfig()
	reg := llmprovider.NewRegistry()
	g := newTestGraph(t, cfg, reg)

	result, err := g.invoke(context.Background(), "please read main.go")

	require.NoError(t, err)
	require.NotEmpty(t, result.Messages)
}

func TestInvokeFallsBackToLLMPlannerAndRespondsDirectly(t *testing.T) {
	cfg := testConfig()
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", llmprovider.NewStubProvider("default", llmprovider.Response{
		Content: `{"action": "respond", "reasoning": "straightforward", "response": "here is the answer"}`,
	})))
	g := newTestGraph(t, cfg, reg)

	result, err := g.invoke(context.Background(), "explain how garbage collection generally works")

	require.NoError(t, err)
	require.Equal(t, "here is the answer", result.FinalResponse)
}

func TestInvokeDelegatesToCodingThenVerificationThenEnds(t *testing.T) {
	cfg := testConfig()
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", llmprovider.NewSequenceProvider("default", []llmprovider.Response{
		{Content: `{"action": "delegate", "agent": "agent:coding", "reasoning": "needs a code fix"}`},
		{Content: `{"action": "delegate", "agent": "agent:coding", "reasoning": "delegating the fix to the coding agent"}`},
		{ToolCalls: []state.ToolCall{{ID: "1", Name: "done", Args: map[string]interface{}{"summary": "fixed it"}}}},
		{ToolCalls: []state.ToolCall{{ID: "1", Name: "build_verification_response",
			Args: map[string]interface{}{"passed": true, "report": "looks good"}}}},
	})))
	g := newTestGraph(t, cfg, reg)

	result, err := g.invoke(context.Background(), "fix the off by one bug in parser.go")

	require.NoError(t, err)
	require.Equal(t, "verification", result.SelectedAgent)
}

func TestInvokeLoopsCodingAfterFailedVerificationThenSucceeds(t *testing.T) {
	cfg := testConfig()
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", llmprovider.NewSequenceProvider("default", []llmprovider.Response{
		{Content: `{"action": "delegate", "agent": "agent:coding", "reasoning": "needs a code fix"}`},
		{Content: `{"action": "delegate", "agent": "agent:coding", "reasoning": "delegating the fix to the coding agent"}`},
		{ToolCalls: []state.ToolCall{{ID: "1", Name: "done", Args: map[string]interface{}{"summary": "attempt one"}}}},
		{ToolCalls: []state.ToolCall{{ID: "1", Name: "build_verification_response",
			Args: map[string]interface{}{"passed": false, "report": "still broken"}}}},
		{ToolCalls: []state.ToolCall{{ID: "1", Name: "done", Args: map[string]interface{}{"summary": "attempt two"}}}},
		{ToolCalls: []state.ToolCall{{ID: "1", Name: "build_verification_response",
			Args: map[string]interface{}{"passed": true, "report": "fixed now"}}}},
	})))
	g := newTestGraph(t, cfg, reg)

	result, err := g.invoke(context.Background(), "fix the off by one bug in parser.go")

	require.NoError(t, err)
	require.Equal(t, "verification", result.SelectedAgent)
}

func TestInvokeStopsAtRecursionBoundOnRuntimeToolLoop(t *testing.T) {
	cfg := testConfig()
	cfg.Runtime.MaxIterations = 1
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", llmprovider.NewStubProvider("default", llmprovider.Response{
		Content: `{"action": "tool", "reasoning": "r", "tool_calls": [{"tool": "list_files", "args": {}}]}`,
	})))
	g := newTestGraph(t, cfg, reg)

	result, err := g.invoke(context.Background(), "list the files in this project repeatedly please")

	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestRunSkipsTimeoutWrappingWhenMaxRuntimeSecondsUnset(t *testing.T) {
	cfg := testConfig()
	cfg.Runtime.MaxRuntimeSeconds = 0
	reg := llmprovider.NewRegistry()
	g := newTestGraph(t, cfg, reg)

	result, err := g.Run(context.Background(), "hello")

	require.NoError(t, err)
	require.Contains(t, result.FinalResponse, "Hello")
}

// slowProvider blocks until its request context is cancelled, so Run's
// timeout driver can be exercised deterministically without a real
// external LLM.
type slowProvider struct{ name string }

func (s *slowProvider) Invoke(ctx context.Context, req llmprovider.Request) (llmprovider.Response, error) {
	<-ctx.Done()
	return llmprovider.Response{}, ctx.Err()
}

func (s *slowProvider) Name() string { return s.name }

func TestRunReturnsTimeoutErrorWhenRuntimeExceedsBudget(t *testing.T) {
	cfg := testConfig()
	cfg.Runtime.MaxRuntimeSeconds = 1
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", &slowProvider{name: "default"}))
	g := newTestGraph(t, cfg, reg)

	result, err := g.Run(context.Background(), "explain how garbage collection generally works")

	require.Nil(t, result)
	require.Error(t, err)
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}

func TestRecursionBoundFloorsAtFiveWhenMaxIterationsIsZero(t *testing.T) {
	cfg := testConfig()
	cfg.Runtime.MaxIterations = 0

	require.Equal(t, 5, recursionBound(cfg))
}
