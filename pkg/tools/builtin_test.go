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

	"github.com/codur-ai/codur/internal/sandbox"
	"github.com/stretchr/testify/require"
)

func TestRegisterBuiltinsSkipsAgentCallWhenNil(t *testing.T) {
	r := NewRegistry()
	sb := sandbox.New(t.TempDir())
	require.NoError(t, RegisterBuiltins(r, sb, BuiltinOptions{}))
	_, ok := r.Get("agent_call")
	require.False(t, ok)
	_, ok = r.Get("read_file")
	require.True(t, ok)
	_, ok = r.Get("done")
	require.True(t, ok)
}

func TestRegisterBuiltinsWiresAgentCallWhenProvided(t *testing.T) {
	r := NewRegistry()
	sb := sandbox.New(t.TempDir())
	dispatch := func(ctx context.Context, agentType, instructions, fileContents string) (string, error) {
		return "done", nil
	}
	require.NoError(t, RegisterBuiltins(r, sb, BuiltinOptions{AgentCall: dispatch}))
	_, ok := r.Get("agent_call")
	require.True(t, ok)
}
