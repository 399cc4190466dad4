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

	"github.com/codur-ai/codur/internal/sandbox"
	"github.com/stretchr/testify/require"
)

func TestGitToolsRefuseWhenWriteDisabled(t *testing.T) {
	root := t.TempDir()
	r := NewRegistry()
	sb := sandbox.New(root)
	require.NoError(t, RegisterGitTools(r, sb, false))

	entry, _ := r.Get("git_stage_all")
	_, err := entry.Fn(nil, nil, Ambient{Root: sb.Root})
	require.Error(t, err)

	entry, _ = r.Get("git_commit")
	_, err = entry.Fn(nil, map[string]interface{}{"message": "x"}, Ambient{Root: sb.Root})
	require.Error(t, err)
}
