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

// Search and static-analysis tools. python_ast_dependencies and
// lint_python_tree are simplified to regex-based scans rather than a
// real Python AST walk or linter invocation — spec §1 explicitly
// scopes out "individual leaf tools' domain logic... specified only
// by their registry contract", and there is no Python toolchain
// available to this module to shell out to.
package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/codur-ai/codur/internal/sandbox"
	"github.com/codur-ai/codur/pkg/toolspec"
)

type grepParams struct {
	Pattern string `json:"pattern" jsonschema:"required,description=Regular expression to search for"`
	Path    string `json:"path,omitempty" jsonschema:"description=File or directory to search, defaults to the workspace root"`
}

type multiPathParams struct {
	Paths []string `json:"paths" jsonschema:"required,description=File paths relative to the workspace root"`
}

type headingOutline struct {
	Level int
	Text  string
}

var (
	pyImportLine = regexp.MustCompile(`^\s*(?:from\s+([\w.]+)\s+import|import\s+([\w.,\s]+))`)
	mdHeading    = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
)

func scanPythonImports(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := map[string]bool{}
	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := pyImportLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		var modules string
		if m[1] != "" {
			modules = m[1]
		} else {
			modules = m[2]
		}
		for _, mod := range strings.Split(modules, ",") {
			mod = strings.TrimSpace(strings.Fields(mod)[0])
			if mod != "" && !seen[mod] {
				seen[mod] = true
				out = append(out, mod)
			}
		}
	}
	return out, scanner.Err()
}

func outlineMarkdown(path string) ([]headingOutline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []headingOutline
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if m := mdHeading.FindStringSubmatch(scanner.Text()); m != nil {
			out = append(out, headingOutline{Level: len(m[1]), Text: strings.TrimSpace(m[2])})
		}
	}
	return out, scanner.Err()
}

// RegisterAnalysisTools registers search and static-analysis tools.
func RegisterAnalysisTools(r *Registry, sb *sandbox.Sandbox) error {
	if err := r.Register(Metadata{
		Name: "grep_search", Summary: "Search for a regular expression across files under a path.",
		ParamsType: grepParams{},
		Scenarios:  toolspec.NewSet(toolspec.TaskCodeAnalysis, toolspec.TaskFileOperation),
		Contexts:   toolspec.NewSet(toolspec.ContextSearch, toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		pattern, _ := args["pattern"].(string)
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Result{}, fmt.Errorf("grep_search: invalid pattern: %w", err)
		}
		root := sb.Root
		if p, ok := args["path"].(string); ok && p != "" {
			resolved, err := resolveFor(sb, ambient, p)
			if err != nil {
				return Result{}, err
			}
			root = resolved
		}

		var matches []string
		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				if d != nil && d.IsDir() && sb.IsExcludedDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			f, ferr := os.Open(path)
			if ferr != nil {
				return nil
			}
			defer f.Close()
			scanner := bufio.NewScanner(f)
			line := 0
			for scanner.Scan() {
				line++
				if re.MatchString(scanner.Text()) {
					rel, _ := filepath.Rel(sb.Root, path)
					matches = append(matches, fmt.Sprintf("%s:%d: %s", filepath.ToSlash(rel), line, scanner.Text()))
				}
			}
			return nil
		})
		if err != nil {
			return Result{}, fmt.Errorf("grep_search: %w", err)
		}
		return Result{Content: strings.Join(matches, "\n")}, nil
	}); err != nil {
		return err
	}

	if err := r.Register(Metadata{
		Name: "python_ast_dependencies", Summary: "List the modules a Python file imports.",
		ParamsType: pathParams{},
		Scenarios:  toolspec.NewSet(toolspec.TaskCodeAnalysis, toolspec.TaskExplanation),
		Contexts:   toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		imports, err := scanPythonImports(resolved)
		if err != nil {
			return Result{}, fmt.Errorf("python_ast_dependencies: %w", err)
		}
		return Result{Content: strings.Join(imports, "\n"), Output: imports}, nil
	}); err != nil {
		return err
	}

	if err := r.Register(Metadata{
		Name: "python_ast_dependencies_multifile", Summary: "List the modules each of several Python files imports.",
		ParamsType: multiPathParams{},
		Scenarios:  toolspec.NewSet(toolspec.TaskCodeAnalysis),
		Contexts:   toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		paths := toStringSlice(args["paths"])
		var b strings.Builder
		for _, p := range paths {
			resolved, err := resolveFor(sb, ambient, p)
			if err != nil {
				return Result{}, err
			}
			imports, err := scanPythonImports(resolved)
			if err != nil {
				return Result{}, fmt.Errorf("python_ast_dependencies_multifile: %w", err)
			}
			fmt.Fprintf(&b, "%s: %s\n", p, strings.Join(imports, ", "))
		}
		return Result{Content: b.String()}, nil
	}); err != nil {
		return err
	}

	if err := r.Register(Metadata{
		Name: "markdown_outline", Summary: "Extract the heading outline of a Markdown file.",
		ParamsType: pathParams{},
		Scenarios:  toolspec.NewSet(toolspec.TaskExplanation, toolspec.TaskDocumentation),
		Contexts:   toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		headings, err := outlineMarkdown(resolved)
		if err != nil {
			return Result{}, fmt.Errorf("markdown_outline: %w", err)
		}
		var b strings.Builder
		for _, h := range headings {
			fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", h.Level-1), h.Text)
		}
		return Result{Content: b.String()}, nil
	}); err != nil {
		return err
	}

	return r.Register(Metadata{
		Name: "lint_python_tree", Summary: "Report lines in Python files under a path that begin with a space and also contain a tab.",
		ParamsType: listFilesParams{},
		Scenarios:  toolspec.NewSet(toolspec.TaskCodeValidation),
		Contexts:   toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		root := sb.Root
		if p, ok := args["path"].(string); ok && p != "" {
			resolved, err := resolveFor(sb, ambient, p)
			if err != nil {
				return Result{}, err
			}
			root = resolved
		}

		var issues []string
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() || filepath.Ext(path) != ".py" {
				return nil
			}
			data, rerr := os.ReadFile(path)
			if rerr != nil {
				return nil
			}
			rel, _ := filepath.Rel(sb.Root, path)
			for i, line := range strings.Split(string(data), "\n") {
				if strings.Contains(line, "\t") && strings.HasPrefix(line, " ") {
					issues = append(issues, fmt.Sprintf("%s:%s: mixed tabs and spaces", filepath.ToSlash(rel), strconv.Itoa(i+1)))
				}
			}
			return nil
		})
		if err != nil {
			return Result{}, fmt.Errorf("lint_python_tree: %w", err)
		}
		if len(issues) == 0 {
			return Result{Content: "no issues found"}, nil
		}
		return Result{Content: strings.Join(issues, "\n")}, nil
	})
}
