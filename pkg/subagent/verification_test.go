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

	"github.com/codur-ai/codur/pkg/config"
	"github.com/codur-ai/codur/pkg/llmprovider"
	"github.com/codur-ai/codur/pkg/state"
	"github.com/stretchr/testify/require"
)

func testVerificationConfig() *config.Config {
	return &config.Config{LLM: config.LLMConfig{DefaultProfile: "default"}}
}

func TestRunVerificationReturnsPassedVerdict(t *testing.T) {
	toolReg, dispatcher := newTestToolSetup(t)
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", llmprovider.NewStubProvider("default", llmprovider.Response{
		ToolCalls: []state.ToolCall{{ID: "1", Name: "build_verification_response",
			Args: map[string]interface{}{"passed": true, "report": "tests pass"}}},
	})))

	outcome, result := RunVerification(context.Background(), reg, testVerificationConfig(), toolReg, dispatcher,
		"verify the fix", []state.Message{state.NewHuman("verify the fix")})

	require.Equal(t, state.StatusSuccess, outcome.Status)
	require.True(t, result.Passed)
	require.True(t, result.Called)
	require.Equal(t, "tests pass", result.Reasoning)
}

func TestRunVerificationReturnsFailedVerdict(t *testing.T) {
	toolReg, dispatcher := newTestToolSetup(t)
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", llmprovider.NewStubProvider("default", llmprovider.Response{
		ToolCalls: []state.ToolCall{{ID: "1", Name: "build_verification_response",
			Args: map[string]interface{}{"passed": false, "report": "test X failed"}}},
	})))

	outcome, result := RunVerification(context.Background(), reg, testVerificationConfig(), toolReg, dispatcher,
		"verify the fix", []state.Message{state.NewHuman("verify the fix")})

	require.Equal(t, state.StatusFailed, outcome.Status)
	require.False(t, result.Passed)
	require.Equal(t, "test X failed", result.Reasoning)
}

func TestRunVerificationFallsBackWhenNeverCalled(t *testing.T) {
	toolReg, dispatcher := newTestToolSetup(t)
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", llmprovider.NewStubProvider("default", llmprovider.Response{
		Content: "still thinking about it",
	})))

	outcome, result := RunVerification(context.Background(), reg, testVerificationConfig(), toolReg, dispatcher,
		"verify the fix", []state.Message{state.NewHuman("verify the fix")})

	require.Equal(t, state.StatusFailed, outcome.Status)
	require.False(t, result.Passed)
	require.False(t, result.Called)
	require.Equal(t, fallbackVerificationReasoning, result.Reasoning)
}

func TestRunVerificationOnlyUsesReadOnlyTools(t *testing.T) {
	toolReg, dispatcher := newTestToolSetup(t)
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("default", llmprovider.NewStubProvider("default", llmprovider.Response{
		ToolCalls: []state.ToolCall{{ID: "1", Name: "write_file", Args: map[string]interface{}{"path": "a.txt", "content": "x"}}},
	})))

	outcome, _ := RunVerification(context.Background(), reg, testVerificationConfig(), toolReg, dispatcher,
		"verify the fix", []state.Message{state.NewHuman("verify the fix")})

	require.Equal(t, state.StatusFailed, outcome.Status)
}
