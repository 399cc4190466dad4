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

// Meta-tools: control-flow calls a sub-agent's model can emit instead
// of a regular tool. Each sub-agent loop (pkg/subagent) ends on the
// meta-tools in its own terminal set; a meta-tool outside that set is
// dispatched like any other tool.
package tools

import (
	"context"

	"github.com/codur-ai/codur/pkg/toolspec"
)

type doneParams struct {
	Summary string `json:"summary" jsonschema:"required,description=One-paragraph summary of the completed work"`
}

type buildVerificationResponseParams struct {
	Passed bool   `json:"passed" jsonschema:"required,description=Whether verification succeeded"`
	Report string `json:"report" jsonschema:"required,description=Human-readable verification report"`
}

type clarifyParams struct {
	Question string `json:"question" jsonschema:"required,description=Clarifying question to ask the human"`
}

type taskCompleteParams struct {
	Result string `json:"result" jsonschema:"required,description=Final result to return to the caller"`
}

// RegisterMetaTools registers the closed set of meta-tools. A meta-tool
// call in a sub-agent loop's terminal set ends that loop without
// dispatch; any other meta-tool call (for example clarify or
// task_complete inside the coding loop) reaches the dispatcher and runs
// its Func, so each is registered with a real Func like every other tool.
func RegisterMetaTools(r *Registry) error {
	if err := r.Register(Metadata{
		Name: string(toolspec.MetaDone), Summary: "Signal that the coding sub-agent has finished its work.",
		ParamsType: doneParams{},
		Scenarios:  toolspec.NewSet(toolspec.TaskMetaTool),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		summary, _ := args["summary"].(string)
		return Result{Content: summary}, nil
	}); err != nil {
		return err
	}

	if err := r.Register(Metadata{
		Name: string(toolspec.MetaBuildVerificationResult), Summary: "Report the outcome of a verification pass.",
		ParamsType: buildVerificationResponseParams{},
		Scenarios:  toolspec.NewSet(toolspec.TaskMetaTool, toolspec.TaskResultVerify),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		report, _ := args["report"].(string)
		return Result{Content: report, Output: args["passed"]}, nil
	}); err != nil {
		return err
	}

	if err := r.Register(Metadata{
		Name: string(toolspec.MetaClarify), Summary: "Ask the human a clarifying question instead of proceeding.",
		ParamsType: clarifyParams{},
		Scenarios:  toolspec.NewSet(toolspec.TaskMetaTool),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		question, _ := args["question"].(string)
		return Result{Content: question}, nil
	}); err != nil {
		return err
	}

	return r.Register(Metadata{
		Name: string(toolspec.MetaTaskComplete), Summary: "Signal that the whole orchestrated task is complete.",
		ParamsType: taskCompleteParams{},
		Scenarios:  toolspec.NewSet(toolspec.TaskMetaTool),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		result, _ := args["result"].(string)
		return Result{Content: result}, nil
	})
}
