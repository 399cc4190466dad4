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

	"github.com/codur-ai/codur/pkg/llmprovider"
	"github.com/codur-ai/codur/pkg/state"
	"github.com/stretchr/testify/require"
)

func TestRunGenericReturnsSuccessOnDone(t *testing.T) {
	toolReg, dispatcher := newTestToolSetup(t)
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("research", llmprovider.NewStubProvider("research", llmprovider.Response{
		ToolCalls: []state.ToolCall{{ID: "1", Name: "done", Args: map[string]interface{}{"summary": "looked it up"}}},
	})))

	outcome, terminal := RunGeneric(context.Background(), reg, testCodingConfig(), toolReg, dispatcher,
		"research", "research", "look something up", []state.Message{state.NewHuman("look something up")})

	require.Equal(t, "research", outcome.Agent)
	require.Equal(t, state.StatusSuccess, outcome.Status)
	require.Equal(t, "looked it up", outcome.Result)
	require.Equal(t, "done", terminal.Tool)
}

func TestRunGenericFailsWhenDepthExhausted(t *testing.T) {
	toolReg, dispatcher := newTestToolSetup(t)
	reg := llmprovider.NewRegistry()
	require.NoError(t, reg.RegisterProvider("research", llmprovider.NewStubProvider("research", llmprovider.Response{
		ToolCalls: []state.ToolCall{{ID: "1", Name: "list_files", Args: map[string]interface{}{}}},
	})))

	outcome, terminal := RunGeneric(context.Background(), reg, testCodingConfig(), toolReg, dispatcher,
		"research", "research", "keep looking", []state.Message{state.NewHuman("keep looking")})

	require.Equal(t, state.StatusFailed, outcome.Status)
	require.Equal(t, "", terminal.Tool)
}
