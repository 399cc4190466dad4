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
	"testing"

	"github.com/codur-ai/codur/pkg/toolspec"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetaToolsRegistersClosedSet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterMetaTools(r))
	for _, name := range []string{"done", "build_verification_response", "clarify", "task_complete"} {
		_, ok := r.Get(name)
		require.True(t, ok, "expected %s to be registered", name)
		require.True(t, toolspec.IsMetaTool(name))
	}
	require.False(t, toolspec.IsMetaTool("read_file"))
}

func TestDoneReturnsSummary(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterMetaTools(r))
	entry, _ := r.Get("done")
	out, err := entry.Fn(nil, map[string]interface{}{"summary": "finished"}, Ambient{})
	require.NoError(t, err)
	require.Equal(t, "finished", out.Content)
}

func TestBuildVerificationResponseCarriesPassed(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterMetaTools(r))
	entry, _ := r.Get("build_verification_response")
	out, err := entry.Fn(nil, map[string]interface{}{"passed": true, "report": "all good"}, Ambient{})
	require.NoError(t, err)
	require.Equal(t, "all good", out.Content)
	require.Equal(t, true, out.Output)
}
