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

// Package llmprovider defines the narrow adapter contract the planner
// and sub-agents invoke the configured LLM through (spec §6 "LLM
// provider contract"), grounded on the teacher's pkg/llms.LLMProvider
// shape but reduced to the single non-streaming Invoke the core
// actually needs — streaming output to clients is an explicit
// Non-goal. Real network providers (OpenAI/Anthropic/Gemini/Ollama)
// are out of scope per spec §1; this package ships the contract, a
// registry, retry/fallback orchestration and a deterministic stub used
// by tests and local development.
package llmprovider

import (
	"context"

	"github.com/codur-ai/codur/pkg/state"
)

// ToolDefinition is the JSON-schema shape passed to a provider for
// function-calling, matching pkg/tools.Definition without importing
// it, since llmprovider must stay independent of the tool registry.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Request is one non-streaming LLM invocation (spec §6: "invoke(messages,
// tools?, temperature?) -> {content, tool_calls?}").
type Request struct {
	Messages    []state.Message
	Tools       []ToolDefinition
	Temperature float64
	JSONMode    bool
}

// Response is a provider's answer to a Request.
type Response struct {
	Content   string
	ToolCalls []state.ToolCall
	Tokens    int
}

// Provider is the adapter contract the orchestrator core depends on.
// Implementations own their own HTTP/SDK client and error classification.
type Provider interface {
	Invoke(ctx context.Context, req Request) (Response, error)
	Name() string
}

// TransientError marks a provider failure the retry loop should back
// off and retry (spec §4.4 "retrying transient connection errors").
// Non-transient errors are returned unwrapped and surface immediately.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }
