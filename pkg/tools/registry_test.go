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

func TestRegisterRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	meta := Metadata{Name: "dup"}
	require.NoError(t, r.Register(meta, nil))
	err := r.Register(meta, nil)
	require.Error(t, err)
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Metadata{}, nil)
	require.Error(t, err)
}

func TestListIsSortedByName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Metadata{Name: "zzz"}, nil))
	require.NoError(t, r.Register(Metadata{Name: "aaa"}, nil))
	entries := r.List()
	require.Len(t, entries, 2)
	require.Equal(t, "aaa", entries[0].Metadata.Name)
	require.Equal(t, "zzz", entries[1].Metadata.Name)
}

func TestListForTasksFiltersByScenario(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Metadata{
		Name:      "fixer",
		Scenarios: toolspec.NewSet(toolspec.TaskCodeFix),
	}, nil))
	require.NoError(t, r.Register(Metadata{
		Name:      "explainer",
		Scenarios: toolspec.NewSet(toolspec.TaskExplanation),
	}, nil))

	entries := r.ListForTasks(ListFilter{TaskTypes: []toolspec.TaskType{toolspec.TaskCodeFix}})
	require.Len(t, entries, 1)
	require.Equal(t, "fixer", entries[0].Metadata.Name)
}

func TestListForTasksExcludesSideEffects(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Metadata{
		Name:        "mutator",
		Scenarios:   toolspec.NewSet(toolspec.TaskCodeFix),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
	}, nil))
	entries := r.ListForTasks(ListFilter{
		TaskTypes:          []toolspec.TaskType{toolspec.TaskCodeFix},
		ExcludeSideEffects: []toolspec.ToolSideEffect{toolspec.SideEffectFileMutation},
	})
	require.Empty(t, entries)
}
