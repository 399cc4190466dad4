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

// Git write tools, gated behind config.ToolsConfig.AllowGitWrite per
// spec §4.4 "mutating git operations are opt-in". Shelling out to the
// git binary mirrors the teacher's subprocess-execution tools rather
// than pulling in a full Go git implementation the example pack does
// not carry (no go-git in any _examples/ go.mod).
package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/codur-ai/codur/internal/sandbox"
	"github.com/codur-ai/codur/pkg/toolspec"
)

type gitCommitParams struct {
	Message string `json:"message" jsonschema:"required,description=Commit message"`
}

func runGit(root string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = root
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %v: %w: %s", args, err, stderr.String())
	}
	return out.String(), nil
}

// RegisterGitTools registers git_stage_all and git_commit. Both refuse
// to run unless allowWrite is true (config.ToolsConfig.AllowGitWrite).
func RegisterGitTools(r *Registry, sb *sandbox.Sandbox, allowWrite bool) error {
	guardWrite := func(name string) error {
		if !allowWrite {
			return fmt.Errorf("%s: git write operations are disabled (tools.allow_git_write is false)", name)
		}
		return nil
	}

	if err := r.Register(Metadata{
		Name: "git_stage_all", Summary: "Stage all working-tree changes.",
		ParamsType:  nil,
		Scenarios:   toolspec.NewSet(toolspec.TaskFileOperation),
		SideEffects: toolspec.NewSet(toolspec.SideEffectStateChange),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		if err := guardWrite("git_stage_all"); err != nil {
			return Result{}, err
		}
		out, err := runGit(sb.Root, "add", "-A")
		if err != nil {
			return Result{}, err
		}
		return Result{Content: out}, nil
	}); err != nil {
		return err
	}

	return r.Register(Metadata{
		Name: "git_commit", Summary: "Commit currently staged changes.",
		ParamsType:  gitCommitParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskFileOperation),
		SideEffects: toolspec.NewSet(toolspec.SideEffectStateChange),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		if err := guardWrite("git_commit"); err != nil {
			return Result{}, err
		}
		message, _ := args["message"].(string)
		out, err := runGit(sb.Root, "commit", "-m", message)
		if err != nil {
			return Result{}, err
		}
		return Result{Content: out}, nil
	})
}
