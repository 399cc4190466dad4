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
	"fmt"
	"strings"

	"github.com/codur-ai/codur/internal/sandbox"
	"github.com/codur-ai/codur/pkg/state"
)

// CallRecord is one executed tool call's outcome, kept for the batch
// summary (spec §4.5 step 4 "Record {tool, output, args} on success").
type CallRecord struct {
	Tool string
	Args map[string]interface{}
	Output string
}

// ExecutionResult is the dispatcher's batch-level outcome (spec §4.5
// step 7 "ToolExecutionResult{results, errors, summary}").
type ExecutionResult struct {
	Results []CallRecord
	Errors  []string
	Summary string
}

// SummaryMode selects the dispatcher's summary rendering (spec §4.5
// step 7 "brief"/"full").
type SummaryMode string

const (
	SummaryBrief SummaryMode = "brief"
	SummaryFull  SummaryMode = "full"
)

// Dispatcher resolves tool calls to registered functions and executes
// them sequentially against a sandboxed workspace (spec §4.5
// "Dispatcher (execute_tool_calls)").
type Dispatcher struct {
	Registry *Registry
	Sandbox  *sandbox.Sandbox
	Mode     SummaryMode
}

// NewDispatcher builds a Dispatcher over a registry and workspace sandbox.
func NewDispatcher(registry *Registry, sb *sandbox.Sandbox) *Dispatcher {
	return &Dispatcher{Registry: registry, Sandbox: sb, Mode: SummaryBrief}
}

// Execute runs execute_tool_calls end to end: augment, fuse, normalize,
// guard, invoke, summarize (spec §4.5 "Dispatcher" steps 1-7).
func (d *Dispatcher) Execute(ctx context.Context, calls []state.ToolCall, humanMessage string) ExecutionResult {
	calls = d.augment(calls)
	calls = d.fuse(calls)

	var result ExecutionResult
	batchReads := map[string]string{}
	var lastReadPath string

	for _, call := range calls {
		args := normalizeArgs(call.Args)

		entry, ok := d.Registry.Get(call.Name)
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("%s failed: unknown tool", call.Name))
			continue
		}

		if err := d.applyGuards(entry, args, humanMessage); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s failed: %v", call.Name, err))
			continue
		}

		ambient := Ambient{
			Root:             d.Sandbox.Root,
			AllowOutsideRoot: boolArg(args, "allow_outside_root"),
			HumanMessage:     humanMessage,
			BatchReadOutputs: batchReads,
			LastReadPath:     lastReadPath,
		}
		if call.Name == "agent_call" {
			injectFileContents(args, batchReads, lastReadPath)
		}

		out, err := entry.Fn(ctx, args, ambient)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s failed: %v", call.Name, err))
			continue
		}

		result.Results = append(result.Results, CallRecord{Tool: call.Name, Args: args, Output: out.Content})

		if call.Name == "read_file" {
			if path, ok := args["path"].(string); ok {
				batchReads[path] = out.Content
				lastReadPath = path
			}
		}
	}

	// Post-batch augmentation: list_files returning <=5 python files
	// without an existing multi-file dependency call gets one inserted
	// and executed immediately (spec §4.5 step 5).
	d.augmentAfterListFiles(ctx, &result, humanMessage, batchReads)

	result.Summary = d.summarize(result)
	return result
}

func boolArg(args map[string]interface{}, key string) bool {
	v, _ := args[key].(bool)
	return v
}

// injectFileContents fills in file_contents from the most recently
// executed read_file output in this batch (spec §4.5 step 6), tracked
// by call order rather than by iterating batchReads, whose map
// iteration order is unspecified.
func injectFileContents(args map[string]interface{}, batchReads map[string]string, lastReadPath string) {
	if lastReadPath == "" {
		return
	}
	if _, exists := args["file_contents"]; !exists {
		args["file_contents"] = batchReads[lastReadPath]
	}
}

// normalizeArgs strips a leading "@" from string and []string
// arguments (spec §4.5 step 3).
func normalizeArgs(args map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		switch val := v.(type) {
		case string:
			out[k] = strings.TrimPrefix(val, "@")
		case []string:
			stripped := make([]string, len(val))
			for i, s := range val {
				stripped[i] = strings.TrimPrefix(s, "@")
			}
			out[k] = stripped
		case []interface{}:
			stripped := make([]interface{}, len(val))
			for i, item := range val {
				if s, ok := item.(string); ok {
					stripped[i] = strings.TrimPrefix(s, "@")
				} else {
					stripped[i] = item
				}
			}
			out[k] = stripped
		default:
			out[k] = v
		}
	}
	return out
}

func (d *Dispatcher) applyGuards(entry Entry, args map[string]interface{}, humanMessage string) error {
	if entry.Metadata.Guards.Has("test_overwrite") {
		if path, ok := args["path"].(string); ok {
			resolved, err := d.Sandbox.Resolve(path, boolArg(args, "allow_outside_root"))
			if err != nil {
				return err
			}
			if err := sandbox.CheckTestOverwrite(resolved, humanMessage); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Dispatcher) summarize(result ExecutionResult) string {
	var b strings.Builder
	for _, r := range result.Results {
		switch d.Mode {
		case SummaryFull:
			fmt.Fprintf(&b, "%s: %s\n", r.Tool, r.Output)
		default:
			if r.Tool == "read_file" {
				if path, ok := r.Args["path"].(string); ok {
					fmt.Fprintf(&b, "%s -> %d chars\n", path, len(r.Output))
					continue
				}
			}
			fmt.Fprintf(&b, "%s: %s\n", r.Tool, truncate(r.Output, 200))
		}
	}
	for _, e := range result.Errors {
		fmt.Fprintf(&b, "error: %s\n", e)
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
