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

package planner

import (
	"fmt"
	"strings"

	"github.com/codur-ai/codur/pkg/llmprovider"
	"github.com/codur-ai/codur/pkg/state"
)

const basePrompt = `You are the planning node of a coding orchestrator. Given the ` +
	`conversation so far, decide the single next action: delegate to a ` +
	`sub-agent, respond directly, call a tool yourself, or end the run.`

const decisionSchemaInstructions = `Respond with a single JSON object and nothing else:
{"action": "delegate"|"respond"|"tool"|"done", "agent": "agent:<name>"|"llm:<profile>"|null, ` +
	`"reasoning": "<why>", "response": "<text>"|null, "tool_calls": [{"tool": "<name>", "args": {...}}]}`

// BuildPrompt composes the planner's system prompt, following the
// teacher's slotted-section composition style (pkg/agent/services.go
// composeSystemPromptFromSlots): fixed role, dynamically generated
// tool catalogue, rigid output-format instructions, and a Task Focus
// section parameterized by the quick classifier's detected files
// (spec §4.4 "prompt construction").
func BuildPrompt(classification *state.ClassificationResult, toolDefs []llmprovider.ToolDefinition) string {
	var b strings.Builder

	b.WriteString(basePrompt)
	b.WriteString("\n\n")

	if len(toolDefs) > 0 {
		b.WriteString("<available_tools>\n")
		for _, td := range toolDefs {
			fmt.Fprintf(&b, "- %s: %s\n", td.Name, td.Description)
		}
		b.WriteString("</available_tools>\n\n")
	}

	b.WriteString("<output_format>\n")
	b.WriteString(decisionSchemaInstructions)
	b.WriteString("\n</output_format>\n\n")

	b.WriteString(examplesBlock)

	if classification != nil && len(classification.DetectedFiles) > 0 {
		b.WriteString("\n<task_focus>\n")
		fmt.Fprintf(&b, "Detected files: %s\n", strings.Join(classification.DetectedFiles, ", "))
		if classification.DetectedAction != "" {
			fmt.Fprintf(&b, "Detected action: %s\n", classification.DetectedAction)
		}
		b.WriteString("</task_focus>\n")
	}

	return strings.TrimSpace(b.String())
}

const examplesBlock = `<examples>
User: "fix the off-by-one error in parser.py"
{"action": "delegate", "agent": "agent:coding", "reasoning": "bug fix in a named file", "response": null, "tool_calls": []}

User: "what is the capital of France?"
{"action": "respond", "agent": null, "reasoning": "general knowledge question, not a coding task", "response": "Paris.", "tool_calls": []}
</examples>

`
