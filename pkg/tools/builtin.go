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
	"fmt"
	"net/http"

	"github.com/codur-ai/codur/internal/sandbox"
)

// BuiltinOptions configures which optional builtin families get
// registered by RegisterBuiltins.
type BuiltinOptions struct {
	AllowGitWrite bool
	AgentCall     AgentCallFunc // nil skips agent_call registration entirely
	DisableWebSearch bool         // true skips web_search (e.g. network-isolated test runs)
	HTTPClient       *http.Client // nil uses a default client with a 10s timeout
}

// RegisterBuiltins registers every builtin tool family against a
// shared registry and sandbox. Individual Register*Tools functions
// remain exported for callers that want a narrower tool set.
func RegisterBuiltins(r *Registry, sb *sandbox.Sandbox, opts BuiltinOptions) error {
	if err := RegisterFileTools(r, sb); err != nil {
		return fmt.Errorf("register file tools: %w", err)
	}
	if err := RegisterAnalysisTools(r, sb); err != nil {
		return fmt.Errorf("register analysis tools: %w", err)
	}
	if err := RegisterStructuredTools(r, sb); err != nil {
		return fmt.Errorf("register structured tools: %w", err)
	}
	if err := RegisterCodeModificationTools(r, sb); err != nil {
		return fmt.Errorf("register code modification tools: %w", err)
	}
	if err := RegisterRopeTools(r, sb); err != nil {
		return fmt.Errorf("register rope tools: %w", err)
	}
	if err := RegisterMetaTools(r); err != nil {
		return fmt.Errorf("register meta tools: %w", err)
	}
	if err := RegisterGitTools(r, sb, opts.AllowGitWrite); err != nil {
		return fmt.Errorf("register git tools: %w", err)
	}
	if !opts.DisableWebSearch {
		if err := RegisterWebSearchTool(r, opts.HTTPClient); err != nil {
			return fmt.Errorf("register web search tool: %w", err)
		}
	}
	if opts.AgentCall != nil {
		if err := RegisterAgentCallTool(r, opts.AgentCall); err != nil {
			return fmt.Errorf("register agent_call tool: %w", err)
		}
	}
	return nil
}
