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
	"path/filepath"
	"strings"

	"github.com/codur-ai/codur/pkg/state"
)

// augment inserts follow-up analysis calls after reads of source files
// that aren't already followed by one, per spec §4.5 step 1: a
// read_file(path=*.py) not already followed by a matching
// python_ast_dependencies gets one inserted; a Markdown read
// analogously gets markdown_outline inserted.
func (d *Dispatcher) augment(calls []state.ToolCall) []state.ToolCall {
	out := make([]state.ToolCall, 0, len(calls))
	for i, call := range calls {
		out = append(out, call)
		if call.Name != "read_file" {
			continue
		}
		path, _ := call.Args["path"].(string)
		ext := strings.ToLower(filepath.Ext(path))

		switch ext {
		case ".py":
			if !followedBy(calls, i, "python_ast_dependencies", "python_ast_dependencies_multifile") {
				out = append(out, state.ToolCall{
					Name: "python_ast_dependencies",
					Args: map[string]interface{}{"path": path},
				})
			}
		case ".md":
			if !followedBy(calls, i, "markdown_outline") {
				out = append(out, state.ToolCall{
					Name: "markdown_outline",
					Args: map[string]interface{}{"path": path},
				})
			}
		}
	}
	return out
}

func followedBy(calls []state.ToolCall, from int, names ...string) bool {
	for j := from + 1; j < len(calls); j++ {
		for _, n := range names {
			if calls[j].Name == n {
				return true
			}
		}
	}
	return false
}

// fuse collapses runs of >=2 consecutive read_file calls into a single
// read_files(paths=[...]) call (spec §4.5 step 2).
func (d *Dispatcher) fuse(calls []state.ToolCall) []state.ToolCall {
	var out []state.ToolCall
	i := 0
	for i < len(calls) {
		if calls[i].Name != "read_file" {
			out = append(out, calls[i])
			i++
			continue
		}
		j := i
		var paths []string
		for j < len(calls) && calls[j].Name == "read_file" {
			if p, ok := calls[j].Args["path"].(string); ok {
				paths = append(paths, p)
			}
			j++
		}
		if len(paths) >= 2 {
			out = append(out, state.ToolCall{
				Name: "read_files",
				Args: map[string]interface{}{"paths": paths},
			})
		} else {
			out = append(out, calls[i])
		}
		i = j
	}
	return out
}

// augmentAfterListFiles inserts and executes
// python_ast_dependencies_multifile when a list_files call in this
// batch returned <=5 Python files and no multi-file dependency call
// already exists (spec §4.5 step 5).
func (d *Dispatcher) augmentAfterListFiles(ctx context.Context, result *ExecutionResult, humanMessage string, batchReads map[string]string) {
	for _, existing := range result.Results {
		if existing.Tool == "python_ast_dependencies_multifile" {
			return
		}
	}

	for _, rec := range result.Results {
		if rec.Tool != "list_files" {
			continue
		}
		files := pythonFilesFromListing(rec.Output)
		if len(files) == 0 || len(files) > 5 {
			continue
		}

		entry, ok := d.Registry.Get("python_ast_dependencies_multifile")
		if !ok {
			return
		}
		args := map[string]interface{}{"paths": files}
		ambient := Ambient{Root: d.Sandbox.Root, HumanMessage: humanMessage, BatchReadOutputs: batchReads}
		out, err := entry.Fn(ctx, args, ambient)
		if err != nil {
			result.Errors = append(result.Errors, "python_ast_dependencies_multifile failed: "+err.Error())
			return
		}
		result.Results = append(result.Results, CallRecord{Tool: "python_ast_dependencies_multifile", Args: args, Output: out.Content})
		return
	}
}

func pythonFilesFromListing(listing string) []string {
	var files []string
	for _, line := range strings.Split(listing, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasSuffix(line, ".py") {
			files = append(files, line)
		}
	}
	return files
}
