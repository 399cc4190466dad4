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

package subagent

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

func testCodingConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{DefaultProfile: "default", GenerationTemperature: 0.4},
	}
}

func newTestToolSetup(t *testing.T) (*tools.Registry, *tools.Dispatcher) {
	t.Helper()
	root := t.TempDir()
	r := tools.NewRegistry()
	sb := sandbox.New(root)
	require.NoError(t, tools.RegisterBuiltins(r, sb, tools.BuiltinOptions{}))
	return r, tools.NewDispatcher(r, sb)
}

func TestRunCodingReturnsSuccessOnDone(t *testing.T) {
	toolReg, dispatcher := newTestToolSetup(t)
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", llmprovider.NewStubProvider("default", llmprovider.Response{
		ToolCalls: []state.ToolCall{{ID: "1", Name: "done", Args: map[string]interface{}{"summary": "fixed it"}}},
	})))

	outcome, terminal := RunCoding(context.Background(), reg, testCodingConfig(), toolReg, dispatcher,
		"fix the bug", []state.Message{state.NewHuman("fix the bug")})

	require.Equal(t, state.StatusSuccess, outcome.Status)
	require.Equal(t, "fixed it", outcome.Result)
	require.Equal(t, "done", terminal.Tool)
}

func TestRunCodingDispatchesToolsBeforeTerminating(t *testing.T) {
	toolReg, dispatcher := newTestToolSetup(t)
	reg := llmprovider.NewRegistry()
	seq := llmprovider.NewSequenceProvider("default", []llmprovider.Response{
		{ToolCalls: []state.ToolCall{{ID: "1", Name: "write_file", Args: map[string]interface{}{"path": "a.txt", "content": "x"}}}},
		{ToolCalls: []state.ToolCall{{ID: "2", Name: "done", Args: map[string]interface{}{"summary": "wrote a.txt"}}}},
	})
	require.NoError(t, reg.RegisterProvider("default", seq))

	outcome, _ := RunCoding(context.Background(), reg, testCodingConfig(), toolReg, dispatcher,
		"write a.txt", []state.Message{state.NewHuman("write a.txt")})

	require.Equal(t, state.StatusSuccess, outcome.Status)
	require.Equal(t, 2, seq.Calls())
}

func TestRunCodingFailsWhenDepthExhaustedWithoutTerminal(t *testing.T) {
	toolReg, dispatcher := newTestToolSetup(t)
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", llmprovider.NewStubProvider("default", llmprovider.Response{
		ToolCalls: []state.ToolCall{{ID: "1", Name: "write_file", Args: map[string]interface{}{"path": "a.txt", "content": "x"}}},
	})))

	outcome, terminal := RunCoding(context.Background(), reg, testCodingConfig(), toolReg, dispatcher,
		"keep writing", []state.Message{state.NewHuman("keep writing")})

	require.Equal(t, state.StatusFailed, outcome.Status)
	require.Contains(t, outcome.Result, "recursion depth")
	require.Equal(t, "", terminal.Tool)
}

func TestRunCodingRetriesOnFallbackModel(t *testing.T) {
	toolReg, dispatcher := newTestToolSetup(t)
	reg := llmprovider.NewRegistry()
	failing := llmprovider.NewStubProvider("default", llmprovider.Response{})
	failing.Err = errDown{}
	require.NoError(t, reg.RegisterProvider("default", failing))
	require.NoError(t, reg.RegisterProvider("fallback", llmprovider.NewStubProvider("fallback", llmprovider.Response{
		ToolCalls: []state.ToolCall{{ID: "1", Name: "done", Args: map[string]interface{}{"summary": "done via fallback"}}},
	})))

	cfg := testCodingConfig()
	cfg.Agents.Preferences.FallbackModel = "fallback"

	outcome, terminal := RunCoding(context.Background(), reg, cfg, toolReg, dispatcher,
		"fix it", []state.Message{state.NewHuman("fix it")})

	require.Equal(t, state.StatusSuccess, outcome.Status)
	require.Equal(t, "done via fallback", outcome.Result)
	require.Equal(t, "done", terminal.Tool)
}

func TestRunCodingReportsFailedSelfVerification(t *testing.T) {
	toolReg, dispatcher := newTestToolSetup(t)
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", llmprovider.NewStubProvider("default", llmprovider.Response{
		ToolCalls: []state.ToolCall{{ID: "1", Name: "build_verification_response",
			Args: map[string]interface{}{"passed": false, "report": "still broken"}}},
	})))

	outcome, terminal := RunCoding(context.Background(), reg, testCodingConfig(), toolReg, dispatcher,
		"fix it", []state.Message{state.NewHuman("fix it")})

	require.Equal(t, state.StatusFailed, outcome.Status)
	require.Equal(t, "build_verification_response", terminal.Tool)
	require.False(t, terminal.Passed)
}

type errDown struct{}

func (errDown) Error() string { return "down" }
