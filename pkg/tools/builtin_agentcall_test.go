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

package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAgentCallDispatchesToInjectedFunc(t *testing.T) {
	r := NewRegistry()
	var gotType, gotInstructions string
	dispatch := func(ctx context.Context, agentType, instructions, fileContents string) (string, error) {
		gotType, gotInstructions = agentType, instructions
		return "ok", nil
	}
	require.NoError(t, RegisterAgentCallTool(r, dispatch))

	entry, _ := r.Get("agent_call")
	out, err := entry.Fn(context.Background(), map[string]interface{}{
		"agent_type": "coding", "instructions": "fix the bug",
	}, Ambient{})
	require.NoError(t, err)
	require.Equal(t, "ok", out.Content)
	require.Equal(t, "coding", gotType)
	require.Equal(t, "fix the bug", gotInstructions)
}

func TestAgentCallFailsClosedWithoutDispatcher(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterAgentCallTool(r, nil))
	entry, _ := r.Get("agent_call")
	_, err := entry.Fn(context.Background(), map[string]interface{}{"agent_type": "coding", "instructions": "x"}, Ambient{})
	require.Error(t, err)
}
