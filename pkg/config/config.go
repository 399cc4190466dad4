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

// Package config holds the immutable, validated configuration tree for
// the orchestrator core: LLM profiles, agent preferences, runtime
// budgets, tool policy and MCP server launch parameters.
package config

import (
	"fmt"

	"github.com/codur-ai/codur/pkg/observability"
)

// Config is the root, immutable configuration handle threaded through
// AgentState. Callers obtain one via Load and never mutate it afterward.
type Config struct {
	LLM           LLMConfig                  `yaml:"llm"`
	Agents        AgentsConfig               `yaml:"agents"`
	Runtime       RuntimeConfig              `yaml:"runtime"`
	Tools         ToolsConfig                `yaml:"tools"`
	MCP           map[string]MCPServerConfig `yaml:"mcp_servers"`
	Observability observability.Config       `yaml:"observability"`
}

// LLMProfile names a provider/model/temperature triple referenced by
// name from agent configs and planner fallback lists.
type LLMProfile struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// LLMConfig holds the named LLM profiles and the two temperatures the
// planner and sub-agents draw on directly.
type LLMConfig struct {
	DefaultProfile        string                `yaml:"default_profile"`
	Profiles              map[string]LLMProfile `yaml:"profiles"`
	PlanningTemperature   float64               `yaml:"planning_temperature"`
	GenerationTemperature float64               `yaml:"generation_temperature"`
}

// AgentPreferences holds routing defaults for delegation.
type AgentPreferences struct {
	DefaultAgent  string        `yaml:"default_agent"`
	Routing       RoutingConfig `yaml:"routing"`
	FallbackModel string        `yaml:"fallback_model"`
}

// RoutingConfig maps task complexity buckets to agent references.
type RoutingConfig struct {
	Simple    string `yaml:"simple"`
	Complex   string `yaml:"complex"`
	Multifile string `yaml:"multifile"`
}

// AgentDef describes one configured agent or MCP/tool-backed collaborator.
type AgentDef struct {
	Type    string                 `yaml:"type"` // "llm" | "mcp" | "tool"
	Enabled bool                   `yaml:"enabled"`
	Params  map[string]interface{} `yaml:"params"`
}

// AgentsConfig bundles agent preferences, configured agents and profiles.
type AgentsConfig struct {
	Preferences AgentPreferences      `yaml:"preferences"`
	Configs     map[string]AgentDef   `yaml:"configs"`
	Profiles    map[string]LLMProfile `yaml:"profiles"`
}

// RuntimeConfig holds the budgets and feature flags that bound a run.
type RuntimeConfig struct {
	MaxIterations           int      `yaml:"max_iterations"`
	MaxLLMCalls             int      `yaml:"max_llm_calls"`
	MaxRuntimeSeconds       int      `yaml:"max_runtime_s"`
	AllowOutsideWorkspace   bool     `yaml:"allow_outside_workspace"`
	DetectToolCallsFromText bool     `yaml:"detect_tool_calls_from_text"`
	PlannerFallbackProfiles []string `yaml:"planner_fallback_profiles"`
	MetricsAddr             string   `yaml:"metrics_addr"`
}

// ToolsConfig holds tool-dispatch policy: exclusion lists, secret
// handling and write permissions.
type ToolsConfig struct {
	ExcludeDirs        []string `yaml:"exclude_dirs"`
	IncludeHiddenFiles bool     `yaml:"include_hidden_files"`
	RespectGitignore   bool     `yaml:"respect_gitignore"`
	AllowReadSecrets   bool     `yaml:"allow_read_secrets"`
	SecretGlobs        []string `yaml:"secret_globs"`
	AllowGitWrite      bool     `yaml:"allow_git_write"`
}

// MCPServerConfig describes how to launch one MCP server subprocess.
type MCPServerConfig struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Cwd     string            `yaml:"cwd"`
	Env     map[string]string `yaml:"env"`
}

// ConfigError is a structured configuration failure, grounded on the
// teacher's ToolRegistryError family (pkg/tools/registry.go).
type ConfigError struct {
	Component string
	Action    string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Action, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func newConfigError(action, message string, err error) *ConfigError {
	return &ConfigError{Component: "config", Action: action, Message: message, Err: err}
}

// Validate checks the config tree for fatal configuration errors:
// missing default profile, missing default agent, unknown provider
// references. These are fatal at graph-construction time (spec §7).
func (c *Config) Validate() error {
	if c.LLM.DefaultProfile == "" {
		return newConfigError("Validate", "llm.default_profile is required", nil)
	}
	if _, ok := c.LLM.Profiles[c.LLM.DefaultProfile]; !ok {
		return newConfigError("Validate",
			fmt.Sprintf("llm.default_profile %q has no matching entry in llm.profiles", c.LLM.DefaultProfile), nil)
	}
	if c.Agents.Preferences.DefaultAgent == "" {
		return newConfigError("Validate", "agents.preferences.default_agent is required", nil)
	}
	for _, name := range c.Runtime.PlannerFallbackProfiles {
		if _, ok := c.LLM.Profiles[name]; !ok {
			return newConfigError("Validate",
				fmt.Sprintf("planner_fallback_profiles references unknown profile %q", name), nil)
		}
	}
	for name, profile := range c.LLM.Profiles {
		if profile.Provider == "" {
			return newConfigError("Validate", fmt.Sprintf("llm.profiles[%s].provider is required", name), nil)
		}
	}
	if err := c.Observability.Validate(); err != nil {
		return newConfigError("Validate", "observability", err)
	}
	return nil
}

// SetDefaults fills in the conservative defaults used when a field was
// left zero-valued in the loaded YAML, mirroring the teacher's
// per-struct SetDefaults convention (pkg/config/types.go).
// Note: MaxIterations and MaxLLMCalls are deliberately NOT defaulted
// here — spec §8 requires max_iterations=0 and max_llm_calls=0 to be
// honored as explicit boundaries (terminate-immediately / refuse-any-
// LLM-call). Callers that want the conservative defaults should start
// from Default() before decoding a partial override on top.
func (c *Config) SetDefaults() {
	if c.LLM.PlanningTemperature == 0 {
		c.LLM.PlanningTemperature = 0.1
	}
	if c.LLM.GenerationTemperature == 0 {
		c.LLM.GenerationTemperature = 0.4
	}
	if c.Tools.SecretGlobs == nil {
		c.Tools.SecretGlobs = []string{".env", ".env.*", "*.pem", "*.key", "id_rsa", "id_ed25519"}
	}
	if c.Tools.ExcludeDirs == nil {
		c.Tools.ExcludeDirs = []string{".git", ".venv", "node_modules", "__pycache__", ".mypy_cache", ".pytest_cache"}
	}
	c.Observability.SetDefaults()
}
