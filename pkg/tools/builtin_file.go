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

// File-operation tools. Domain logic for these is simple enough to
// implement directly (spec §1 puts only the *leaf tools' domain logic*
// out of scope when it is non-trivial, e.g. git/pandoc/ripgrep/rope;
// plain file I/O is specified fully by its registry contract and is
// grounded directly on the teacher's pkg/tools/read_file.go /
// file_writer.go shape).
package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codur-ai/codur/internal/sandbox"
	"github.com/codur-ai/codur/pkg/toolspec"
)

type pathParams struct {
	Path string `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
}

type readFilesParams struct {
	Paths []string `json:"paths" jsonschema:"required,description=File paths relative to the workspace root"`
}

type writeFileParams struct {
	Path    string `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
	Content string `json:"content" jsonschema:"required,description=Content to write"`
}

type appendFileParams struct {
	Path    string `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
	Content string `json:"content" jsonschema:"required,description=Content to append"`
}

type replaceInFileParams struct {
	Path    string `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
	Search  string `json:"search" jsonschema:"required,description=Exact text to find"`
	Replace string `json:"replace" jsonschema:"required,description=Replacement text"`
}

type copyMoveParams struct {
	Source      string `json:"source" jsonschema:"required,description=Source path"`
	Destination string `json:"destination" jsonschema:"required,description=Destination path"`
}

type listFilesParams struct {
	Path string `json:"path,omitempty" jsonschema:"description=Directory to list, defaults to the workspace root"`
}

func resolveFor(sb *sandbox.Sandbox, ambient Ambient, userPath string) (string, error) {
	return sb.Resolve(userPath, ambient.AllowOutsideRoot)
}

// RegisterFileTools registers the file-operation tools against sb.
func RegisterFileTools(r *Registry, sb *sandbox.Sandbox) error {
	register := func(meta Metadata, fn Func) error { return r.Register(meta, fn) }

	if err := register(Metadata{
		Name: "read_file", Summary: "Read the full contents of a file.",
		ParamsType: pathParams{},
		Scenarios:  toolspec.NewSet(toolspec.TaskFileOperation, toolspec.TaskExplanation, toolspec.TaskCodeAnalysis),
		Contexts:   toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		if err := sb.CheckSecretRead(resolved); err != nil {
			return Result{}, err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return Result{}, fmt.Errorf("read_file: %w", err)
		}
		return Result{Content: string(data)}, nil
	}); err != nil {
		return err
	}

	if err := register(Metadata{
		Name: "read_files", Summary: "Read the full contents of multiple files.",
		ParamsType: readFilesParams{},
		Scenarios:  toolspec.NewSet(toolspec.TaskFileOperation, toolspec.TaskExplanation, toolspec.TaskCodeAnalysis),
		Contexts:   toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		paths := toStringSlice(args["paths"])
		var b strings.Builder
		for _, p := range paths {
			resolved, err := resolveFor(sb, ambient, p)
			if err != nil {
				return Result{}, err
			}
			if err := sb.CheckSecretRead(resolved); err != nil {
				return Result{}, err
			}
			data, err := os.ReadFile(resolved)
			if err != nil {
				return Result{}, fmt.Errorf("read_files: %w", err)
			}
			fmt.Fprintf(&b, "--- %s ---\n%s\n", p, string(data))
		}
		return Result{Content: b.String()}, nil
	}); err != nil {
		return err
	}

	if err := register(Metadata{
		Name: "write_file", Summary: "Write content to a file, creating or overwriting it.",
		ParamsType:  writeFileParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskCodeFix, toolspec.TaskCodeGeneration, toolspec.TaskFileOperation),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
		Guards:      toolspec.NewSet(toolspec.GuardTestOverwrite),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		content, _ := args["content"].(string)
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
			return Result{}, fmt.Errorf("write_file: %w", err)
		}
		if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
			return Result{}, fmt.Errorf("write_file: %w", err)
		}
		return Result{Content: fmt.Sprintf("wrote %d bytes to %s", len(content), path)}, nil
	}); err != nil {
		return err
	}

	if err := register(Metadata{
		Name: "append_file", Summary: "Append content to the end of a file.",
		ParamsType:  appendFileParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskCodeFix, toolspec.TaskFileOperation),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		content, _ := args["content"].(string)
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		f, err := os.OpenFile(resolved, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return Result{}, fmt.Errorf("append_file: %w", err)
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return Result{}, fmt.Errorf("append_file: %w", err)
		}
		return Result{Content: fmt.Sprintf("appended %d bytes to %s", len(content), path)}, nil
	}); err != nil {
		return err
	}

	if err := register(Metadata{
		Name: "replace_in_file", Summary: "Replace the first occurrence of exact text in a file.",
		ParamsType:  replaceInFileParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskCodeFix, toolspec.TaskComplexRefactor),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		search, _ := args["search"].(string)
		replace, _ := args["replace"].(string)
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return Result{}, fmt.Errorf("replace_in_file: %w", err)
		}
		if !strings.Contains(string(data), search) {
			return Result{}, fmt.Errorf("replace_in_file: search text not found in %s", path)
		}
		updated := strings.Replace(string(data), search, replace, 1)
		if err := os.WriteFile(resolved, []byte(updated), 0o644); err != nil {
			return Result{}, fmt.Errorf("replace_in_file: %w", err)
		}
		return Result{Content: fmt.Sprintf("replaced 1 occurrence in %s", path)}, nil
	}); err != nil {
		return err
	}

	if err := register(Metadata{
		Name: "delete_file", Summary: "Delete a file.",
		ParamsType:  pathParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskFileOperation),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		if err := os.Remove(resolved); err != nil {
			return Result{}, fmt.Errorf("delete_file: %w", err)
		}
		return Result{Content: fmt.Sprintf("deleted %s", path)}, nil
	}); err != nil {
		return err
	}

	if err := register(Metadata{
		Name: "copy_file", Summary: "Copy a file to a new path.",
		ParamsType:  copyMoveParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskFileOperation),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		src, _ := args["source"].(string)
		dst, _ := args["destination"].(string)
		resolvedSrc, err := resolveFor(sb, ambient, src)
		if err != nil {
			return Result{}, err
		}
		resolvedDst, err := resolveFor(sb, ambient, dst)
		if err != nil {
			return Result{}, err
		}
		data, err := os.ReadFile(resolvedSrc)
		if err != nil {
			return Result{}, fmt.Errorf("copy_file: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(resolvedDst), 0o755); err != nil {
			return Result{}, fmt.Errorf("copy_file: %w", err)
		}
		if err := os.WriteFile(resolvedDst, data, 0o644); err != nil {
			return Result{}, fmt.Errorf("copy_file: %w", err)
		}
		return Result{Content: fmt.Sprintf("copied %s to %s", src, dst)}, nil
	}); err != nil {
		return err
	}

	if err := register(Metadata{
		Name: "move_file", Summary: "Move or rename a file.",
		ParamsType:  copyMoveParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskFileOperation),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		src, _ := args["source"].(string)
		dst, _ := args["destination"].(string)
		resolvedSrc, err := resolveFor(sb, ambient, src)
		if err != nil {
			return Result{}, err
		}
		resolvedDst, err := resolveFor(sb, ambient, dst)
		if err != nil {
			return Result{}, err
		}
		if err := os.MkdirAll(filepath.Dir(resolvedDst), 0o755); err != nil {
			return Result{}, fmt.Errorf("move_file: %w", err)
		}
		if err := os.Rename(resolvedSrc, resolvedDst); err != nil {
			return Result{}, fmt.Errorf("move_file: %w", err)
		}
		return Result{Content: fmt.Sprintf("moved %s to %s", src, dst)}, nil
	}); err != nil {
		return err
	}

	return register(Metadata{
		Name: "list_files", Summary: "List files under a directory, honoring ignore rules.",
		ParamsType: listFilesParams{},
		Scenarios:  toolspec.NewSet(toolspec.TaskFileOperation, toolspec.TaskCodeAnalysis),
		Contexts:   toolspec.NewSet(toolspec.ContextFilesystem, toolspec.ContextSearch),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		dir := sb.Root
		if p, ok := args["path"].(string); ok && p != "" {
			resolved, err := resolveFor(sb, ambient, p)
			if err != nil {
				return Result{}, err
			}
			dir = resolved
		}

		var lines []string
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(sb.Root, path)
			if d.IsDir() {
				if path != dir && sb.IsExcludedDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !sb.AllowsHidden(d.Name()) {
				return nil
			}
			if sb.MatchesGitignore(filepath.ToSlash(rel)) {
				return nil
			}
			lines = append(lines, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return Result{}, fmt.Errorf("list_files: %w", err)
		}
		return Result{Content: strings.Join(lines, "\n")}, nil
	})
}

func toStringSlice(v interface{}) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
