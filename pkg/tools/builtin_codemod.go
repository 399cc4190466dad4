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

// Entity-level code modification tools: replace_function, replace_class,
// replace_method, replace_file_content, inject_function. Grounded on the
// teacher's file-I/O registration shape (builtin_file.go) and on the
// retrieval pack's code_modification.py, which locates an entity by an
// AST walk and then rewrites its line range. This build has no Python
// AST available (spec §1 scopes the leaf tools' domain logic out when
// it is non-trivial), so entity boundaries are found with an
// indentation-aware scan of "def"/"class" headers instead of a real
// parse — sufficient for well-formed, consistently-indented source,
// not a substitute for rope/ast.
package tools

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/codur-ai/codur/internal/sandbox"
	"github.com/codur-ai/codur/pkg/toolspec"
)

type replaceFunctionParams struct {
	Path         string `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
	FunctionName string `json:"function_name" jsonschema:"required,description=Name of the top-level function to replace"`
	NewCode      string `json:"new_code" jsonschema:"required,description=Complete replacement source for the function"`
}

type replaceClassParams struct {
	Path      string `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
	ClassName string `json:"class_name" jsonschema:"required,description=Name of the class to replace"`
	NewCode   string `json:"new_code" jsonschema:"required,description=Complete replacement source for the class"`
}

type replaceMethodParams struct {
	Path       string `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
	ClassName  string `json:"class_name" jsonschema:"required,description=Name of the enclosing class"`
	MethodName string `json:"method_name" jsonschema:"required,description=Name of the method to replace"`
	NewCode    string `json:"new_code" jsonschema:"required,description=Complete replacement source for the method"`
}

type replaceFileContentParams struct {
	Path       string `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
	NewContent string `json:"new_content" jsonschema:"required,description=Complete new contents of the file"`
}

type injectFunctionParams struct {
	Path    string `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
	NewCode string `json:"new_code" jsonschema:"required,description=Complete source for the function to add"`
	After   string `json:"after,omitempty" jsonschema:"description=Name of an existing top-level function to insert after; appended to the end of the file when omitted"`
}

var (
	pyDefHeader   = regexp.MustCompile(`^(\s*)def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	pyClassHeader = regexp.MustCompile(`^(\s*)class\s+([A-Za-z_][A-Za-z0-9_]*)\s*[:(]`)
)

// findBlockLines returns the 1-indexed [start, end] line range of the
// block whose header (a "def"/"class" line) is matched by header and
// named name, searching lines[from:]. The block ends at the line
// before the next non-blank line indented no deeper than the header
// (whether or not that line is itself a header), or at EOF.
func findBlockLines(lines []string, header *regexp.Regexp, name string, from int) (start, end int, ok bool) {
	baseIndent := -1
	for i := from; i < len(lines); i++ {
		m := header.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		if m[2] != name {
			continue
		}
		start = i + 1
		baseIndent = len(m[1])
		end = len(lines)
		for j := i + 1; j < len(lines); j++ {
			trimmed := strings.TrimRight(lines[j], " \t")
			if trimmed == "" {
				continue
			}
			indent := len(lines[j]) - len(strings.TrimLeft(lines[j], " \t"))
			if indent <= baseIndent {
				end = j
				break
			}
		}
		return start, end, true
	}
	return 0, 0, false
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}

// replaceBlock rewrites lines[start-1:end], i.e. the 1-indexed lines
// start through end inclusive as findBlockLines reports them, with
// newCode and writes the result back to path.
func replaceBlock(path string, lines []string, start, end int, newCode string) error {
	head := lines[:start-1]
	tail := lines[end:]
	replacement := strings.Split(strings.TrimRight(newCode, "\n"), "\n")

	out := make([]string, 0, len(head)+len(replacement)+len(tail))
	out = append(out, head...)
	out = append(out, replacement...)
	out = append(out, tail...)
	return os.WriteFile(path, []byte(strings.Join(out, "\n")), 0o644)
}

// RegisterCodeModificationTools registers the entity-level mutation
// tools the planner's mutation-intent retry targets (spec §4.4
// toolspec.MutatingTools).
func RegisterCodeModificationTools(r *Registry, sb *sandbox.Sandbox) error {
	if err := r.Register(Metadata{
		Name: "replace_function", Summary: "Replace a top-level function's implementation in a file.",
		ParamsType:  replaceFunctionParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskCodeFix, toolspec.TaskCodeGeneration, toolspec.TaskComplexRefactor),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		name, _ := args["function_name"].(string)
		newCode, _ := args["new_code"].(string)
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		lines, err := readLines(resolved)
		if err != nil {
			return Result{}, fmt.Errorf("replace_function: %w", err)
		}
		start, end, ok := findBlockLines(lines, pyDefHeader, name, 0)
		if !ok {
			return Result{}, fmt.Errorf("replace_function: could not find function %q in %s", name, path)
		}
		if err := replaceBlock(resolved, lines, start, end, newCode); err != nil {
			return Result{}, fmt.Errorf("replace_function: %w", err)
		}
		return Result{Content: fmt.Sprintf("replaced function %s in %s (lines %d-%d)", name, path, start, end)}, nil
	}); err != nil {
		return err
	}

	if err := r.Register(Metadata{
		Name: "replace_class", Summary: "Replace a class's implementation in a file.",
		ParamsType:  replaceClassParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskCodeFix, toolspec.TaskComplexRefactor),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		name, _ := args["class_name"].(string)
		newCode, _ := args["new_code"].(string)
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		lines, err := readLines(resolved)
		if err != nil {
			return Result{}, fmt.Errorf("replace_class: %w", err)
		}
		start, end, ok := findBlockLines(lines, pyClassHeader, name, 0)
		if !ok {
			return Result{}, fmt.Errorf("replace_class: could not find class %q in %s", name, path)
		}
		if err := replaceBlock(resolved, lines, start, end, newCode); err != nil {
			return Result{}, fmt.Errorf("replace_class: %w", err)
		}
		return Result{Content: fmt.Sprintf("replaced class %s in %s (lines %d-%d)", name, path, start, end)}, nil
	}); err != nil {
		return err
	}

	if err := r.Register(Metadata{
		Name: "replace_method", Summary: "Replace a method's implementation within a specific class in a file.",
		ParamsType:  replaceMethodParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskCodeFix, toolspec.TaskComplexRefactor),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		className, _ := args["class_name"].(string)
		methodName, _ := args["method_name"].(string)
		newCode, _ := args["new_code"].(string)
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		lines, err := readLines(resolved)
		if err != nil {
			return Result{}, fmt.Errorf("replace_method: %w", err)
		}
		classStart, classEnd, ok := findBlockLines(lines, pyClassHeader, className, 0)
		if !ok {
			return Result{}, fmt.Errorf("replace_method: could not find class %q in %s", className, path)
		}
		start, end, ok := findBlockLines(lines, pyDefHeader, methodName, classStart)
		if !ok || start > classEnd {
			return Result{}, fmt.Errorf("replace_method: could not find method %q on class %q in %s", methodName, className, path)
		}
		if end > classEnd {
			end = classEnd
		}
		if err := replaceBlock(resolved, lines, start, end, newCode); err != nil {
			return Result{}, fmt.Errorf("replace_method: %w", err)
		}
		return Result{Content: fmt.Sprintf("replaced method %s.%s in %s (lines %d-%d)", className, methodName, path, start, end)}, nil
	}); err != nil {
		return err
	}

	if err := r.Register(Metadata{
		Name: "replace_file_content", Summary: "Replace the entire contents of a file.",
		ParamsType:  replaceFileContentParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskCodeFix, toolspec.TaskCodeGeneration, toolspec.TaskComplexRefactor),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
		Guards:      toolspec.NewSet(toolspec.GuardTestOverwrite),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		content, _ := args["new_content"].(string)
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
			return Result{}, fmt.Errorf("replace_file_content: %w", err)
		}
		return Result{Content: fmt.Sprintf("replaced contents of %s (%d bytes)", path, len(content))}, nil
	}); err != nil {
		return err
	}

	return r.Register(Metadata{
		Name: "inject_function", Summary: "Add a new top-level function to a file, after an existing function or at end of file.",
		ParamsType:  injectFunctionParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskCodeGeneration, toolspec.TaskCodeFix),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		newCode, _ := args["new_code"].(string)
		after, _ := args["after"].(string)
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		lines, err := readLines(resolved)
		if err != nil {
			return Result{}, fmt.Errorf("inject_function: %w", err)
		}

		insertAt := len(lines)
		if after != "" {
			_, end, ok := findBlockLines(lines, pyDefHeader, after, 0)
			if !ok {
				return Result{}, fmt.Errorf("inject_function: could not find function %q in %s to insert after", after, path)
			}
			insertAt = end
		}

		block := append([]string{""}, strings.Split(strings.TrimRight(newCode, "\n"), "\n")...)
		out := make([]string, 0, len(lines)+len(block))
		out = append(out, lines[:insertAt]...)
		out = append(out, block...)
		out = append(out, lines[insertAt:]...)
		if err := os.WriteFile(resolved, []byte(strings.Join(out, "\n")), 0o644); err != nil {
			return Result{}, fmt.Errorf("inject_function: %w", err)
		}
		return Result{Content: fmt.Sprintf("injected function into %s at line %d", path, insertAt+1)}, nil
	})
}
