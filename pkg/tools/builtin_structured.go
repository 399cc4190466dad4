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

// Structured-data tools: JSON, YAML and INI read/write/set-value,
// grounded on the teacher's YAML config decoding idiom (gopkg.in/yaml.v3)
// extended by analogy to JSON and INI. INI has no maintained dependency
// in the example pack, so its reader/writer is a small hand-rolled
// section/key=value parser; that is the one deliberately stdlib-only
// leaf here (see DESIGN.md).
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/codur-ai/codur/internal/sandbox"
	"github.com/codur-ai/codur/pkg/toolspec"
	"gopkg.in/yaml.v3"
)

type setValueParams struct {
	Path  string      `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
	Key   string       `json:"key" jsonschema:"required,description=Dotted key path, e.g. server.port"`
	Value interface{} `json:"value" jsonschema:"required,description=New value to set"`
}

type writeStructuredParams struct {
	Path string                 `json:"path" jsonschema:"required,description=File path relative to the workspace root"`
	Data map[string]interface{} `json:"data" jsonschema:"required,description=Document to write"`
}

// navigate walks a dotted key path inside a nested map, creating
// intermediate maps as needed, and returns the parent map and final key.
func navigate(doc map[string]interface{}, dotted string) (map[string]interface{}, string) {
	parts := strings.Split(dotted, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			cur[p] = next
		}
		cur = next
	}
	return cur, parts[len(parts)-1]
}

func lookup(doc map[string]interface{}, dotted string) (interface{}, bool) {
	parts := strings.Split(dotted, ".")
	var cur interface{} = doc
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func parseINI(data []byte) map[string]interface{} {
	doc := map[string]interface{}{}
	section := doc
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			sub := map[string]interface{}{}
			doc[name] = sub
			section = sub
			continue
		}
		if k, v, ok := strings.Cut(line, "="); ok {
			section[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return doc
}

func renderINI(doc map[string]interface{}) string {
	var b strings.Builder
	var top []string
	for k, v := range doc {
		if _, ok := v.(map[string]interface{}); !ok {
			top = append(top, k)
		}
	}
	sort.Strings(top)
	for _, k := range top {
		fmt.Fprintf(&b, "%s=%v\n", k, doc[k])
	}

	var sections []string
	for k, v := range doc {
		if _, ok := v.(map[string]interface{}); ok {
			sections = append(sections, k)
		}
	}
	sort.Strings(sections)
	for _, name := range sections {
		fmt.Fprintf(&b, "[%s]\n", name)
		sub := doc[name].(map[string]interface{})
		var keys []string
		for k := range sub {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "%s=%v\n", k, sub[k])
		}
	}
	return b.String()
}

func registerStructuredTrio(r *Registry, sb *sandbox.Sandbox, format string,
	decode func([]byte) (map[string]interface{}, error),
	encode func(map[string]interface{}) ([]byte, error),
) error {
	readName := "read_" + format
	writeName := "write_" + format
	setName := "set_" + format + "_value"

	if err := r.Register(Metadata{
		Name: readName, Summary: fmt.Sprintf("Read a %s file as structured data.", strings.ToUpper(format)),
		ParamsType: pathParams{},
		Scenarios:  toolspec.NewSet(toolspec.TaskFileOperation, toolspec.TaskExplanation),
		Contexts:   toolspec.NewSet(toolspec.ContextFilesystem),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", readName, err)
		}
		doc, err := decode(data)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", readName, err)
		}
		rendered, _ := json.MarshalIndent(doc, "", "  ")
		return Result{Content: string(rendered), Output: doc}, nil
	}); err != nil {
		return err
	}

	if err := r.Register(Metadata{
		Name: writeName, Summary: fmt.Sprintf("Write structured data to a %s file.", strings.ToUpper(format)),
		ParamsType:  writeStructuredParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskCodeFix, toolspec.TaskFileOperation),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
		Guards:      toolspec.NewSet(toolspec.GuardTestOverwrite),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		doc, _ := args["data"].(map[string]interface{})
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		out, err := encode(doc)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", writeName, err)
		}
		if err := os.WriteFile(resolved, out, 0o644); err != nil {
			return Result{}, fmt.Errorf("%s: %w", writeName, err)
		}
		return Result{Content: fmt.Sprintf("wrote %s", path)}, nil
	}); err != nil {
		return err
	}

	return r.Register(Metadata{
		Name: setName, Summary: fmt.Sprintf("Set a single dotted-key value in a %s file.", strings.ToUpper(format)),
		ParamsType:  setValueParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskCodeFix),
		SideEffects: toolspec.NewSet(toolspec.SideEffectFileMutation),
		Contexts:    toolspec.NewSet(toolspec.ContextFilesystem),
		Guards:      toolspec.NewSet(toolspec.GuardTestOverwrite),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		path, _ := args["path"].(string)
		key, _ := args["key"].(string)
		value := args["value"]
		resolved, err := resolveFor(sb, ambient, path)
		if err != nil {
			return Result{}, err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", setName, err)
		}
		doc, err := decode(data)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", setName, err)
		}
		parent, leaf := navigate(doc, key)
		parent[leaf] = value
		out, err := encode(doc)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", setName, err)
		}
		if err := os.WriteFile(resolved, out, 0o644); err != nil {
			return Result{}, fmt.Errorf("%s: %w", setName, err)
		}
		return Result{Content: fmt.Sprintf("set %s in %s", key, path)}, nil
	})
}

// RegisterStructuredTools registers the JSON, YAML and INI read/write/
// set-value tool families.
func RegisterStructuredTools(r *Registry, sb *sandbox.Sandbox) error {
	if err := registerStructuredTrio(r, sb, "json",
		func(b []byte) (map[string]interface{}, error) {
			var m map[string]interface{}
			err := json.Unmarshal(b, &m)
			return m, err
		},
		func(m map[string]interface{}) ([]byte, error) {
			return json.MarshalIndent(m, "", "  ")
		}); err != nil {
		return err
	}

	if err := registerStructuredTrio(r, sb, "yaml",
		func(b []byte) (map[string]interface{}, error) {
			var m map[string]interface{}
			err := yaml.Unmarshal(b, &m)
			return m, err
		},
		func(m map[string]interface{}) ([]byte, error) {
			return yaml.Marshal(m)
		}); err != nil {
		return err
	}

	return registerStructuredTrio(r, sb, "ini",
		func(b []byte) (map[string]interface{}, error) { return parseINI(b), nil },
		func(m map[string]interface{}) ([]byte, error) { return []byte(renderINI(m)), nil })
}
