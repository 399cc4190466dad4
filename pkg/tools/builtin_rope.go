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

// Narrowed stand-ins for the retrieval pack's rope-backed refactoring
// tools (rope_tools.py), which drive Python's rope project index to
// rename a symbol project-wide, move a module and fix up its
// importers, or extract a code region into a new method. No Go module
// anywhere in the example pack wraps rope or an equivalent
// cross-reference index, so these three register with the same names
// and side effects the mutation-intent retry's vocabulary expects
// (spec §4.4 toolspec.MutatingTools) but operate single-file and
// textually rather than project-wide: rope_rename_symbol does a
// word-boundary rename within one file, rope_move_module relocates the
// file without rewriting any importer, and rope_extract_method lifts a
// line range into a new function and leaves a call in its place. A
// real rope integration would replace the bodies of these three
// without changing their registered contract.
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

type ropeRenameParams struct {
	Path    string `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
	Symbol  string `json:"symbol" jsonschema:"required,description=Identifier to rename"`
	NewName string `json:"new_name" jsonschema:"required,description=Replacement identifier"`
}

type ropeMoveModuleParams struct {
	Path            string `json:"path" jsonschema:"required,description=File path of the module to move"`
	DestinationDir  string `json:"destination_dir" jsonschema:"required,description=Directory to move the module into, relative to the workspace root"`
}

type ropeExtractMethodParams struct {
	Path          string `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
	ExtractedName string `json:"extracted_name" jsonschema:"required,description=Name of the new function"`
	StartLine     int    `json:"start_line" jsonschema:"required,description=First line of the region to extract (1-indexed)"`
	EndLine       int    `json:"end_line" jsonschema:"required,description=Last line of the region to extract (1-indexed, inclusive)"`
}

// RegisterRopeTools registers the narrowed rope-style refactoring tools.
func RegisterRopeTools(r *Registry, sb *sandbox.Sandbox) error {
	if err := r.Register(Metadata{
		Name: "rope_rename_symbol", Summary: "Rename every word-boundary occurrence of a symbol within a single file.",
		ParamsType:  ropeRenameParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskComplexRefactor, toolspec.TaskCodeFix),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		symbol, _ := args["symbol"].(string)
		newName, _ := args["new_name"].(string)
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return Result{}, fmt.Errorf("rope_rename_symbol: %w", err)
		}
		word := regexp.MustCompile(`\b` + regexp.QuoteMeta(symbol) + `\b`)
		content := string(data)
		count := len(word.FindAllString(content, -1))
		if count == 0 {
			return Result{}, fmt.Errorf("rope_rename_symbol: symbol %q not found in %s", symbol, path)
		}
		updated := word.ReplaceAllString(content, newName)
		if err := os.WriteFile(resolved, []byte(updated), 0o644); err != nil {
			return Result{}, fmt.Errorf("rope_rename_symbol: %w", err)
		}
		return Result{Content: fmt.Sprintf("renamed %d occurrence(s) of %s to %s in %s (single-file scope)", count, symbol, newName, path)}, nil
	}); err != nil {
		return err
	}

	if err := r.Register(Metadata{
		Name: "rope_move_module", Summary: "Move a module file to a destination directory (importers are not rewritten).",
		ParamsType:  ropeMoveModuleParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskComplexRefactor),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		destDir, _ := args["destination_dir"].(string)
		resolvedSrc, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		resolvedDestDir, err := resolveFor(sb, ambient, destDir)
		if err != nil {
			return Result{}, err
		}
		if err := os.MkdirAll(resolvedDestDir, 0o755); err != nil {
			return Result{}, fmt.Errorf("rope_move_module: %w", err)
		}
		base := resolvedSrc[strings.LastIndexByte(resolvedSrc, '/')+1:]
		dest := resolvedDestDir + "/" + base
		if err := os.Rename(resolvedSrc, dest); err != nil {
			return Result{}, fmt.Errorf("rope_move_module: %w", err)
		}
		return Result{Content: fmt.Sprintf("moved %s to %s/%s (importers not rewritten)", path, destDir, base)}, nil
	}); err != nil {
		return err
	}

	return r.Register(Metadata{
		Name: "rope_extract_method", Summary: "Extract a line range into a new function, leaving a call in its place.",
		ParamsType:  ropeExtractMethodParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskComplexRefactor),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		name, _ := args["extracted_name"].(string)
		startLine := intArg(args["start_line"])
		endLine := intArg(args["end_line"])
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		lines, err := readLines(resolved)
		if err != nil {
			return Result{}, fmt.Errorf("rope_extract_method: %w", err)
		}
		if startLine < 1 || endLine < startLine || endLine > len(lines) {
			return Result{}, fmt.Errorf("rope_extract_method: invalid line range %d-%d for %s", startLine, endLine, path)
		}

		region := lines[startLine-1 : endLine]
		indent := leadingWhitespace(region[0])

		var fn strings.Builder
		fmt.Fprintf(&fn, "%sdef %s():\n", indent, name)
		for _, l := range region {
			fn.WriteString("    ")
			fn.WriteString(l)
			fn.WriteString("\n")
		}

		out := make([]string, 0, len(lines)+len(region)+2)
		out = append(out, lines[:startLine-1]...)
		out = append(out, indent+name+"()")
		out = append(out, lines[endLine:]...)
		out = append(out, "", strings.TrimRight(fn.String(), "\n"))

		if err := os.WriteFile(resolved, []byte(strings.Join(out, "\n")), 0o644); err != nil {
			return Result{}, fmt.Errorf("rope_extract_method: %w", err)
		}
		return Result{Content: fmt.Sprintf("extracted lines %d-%d of %s into %s", startLine, endLine, path, name)}, nil
	})
}

func leadingWhitespace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

func intArg(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
