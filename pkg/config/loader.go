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

package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Default returns a Config with the conservative runtime defaults the
// orchestrator uses when a field is absent from the loaded YAML.
// Detection of textual pre-planner patterns defaults to on, matching
// spec §4.2.
func Default() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			MaxIterations:           10,
			MaxLLMCalls:             40,
			DetectToolCallsFromText: true,
		},
	}
}

// Load reads a YAML config file from path, overlays environment
// variables (via .env/.env.local and ${VAR} expansion) and validates
// the result. Grounded on the teacher's pkg/config/loader.go.
func Load(path string) (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, newConfigError("Load", "failed to load env files", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newConfigError("Load", fmt.Sprintf("failed to read %s", path), err)
	}

	var generic map[string]interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, newConfigError("Load", "failed to parse YAML", err)
	}
	expanded := ExpandEnvVarsInData(generic)

	cfg := Default()
	if err := decodeInto(expanded, cfg); err != nil {
		return nil, newConfigError("Load", "failed to decode config", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeInto maps an already env-expanded generic YAML document onto
// cfg using mapstructure, matching the teacher's use of mapstructure to
// decode heterogeneous provider/agent param blocks (pkg/config/config.go).
func decodeInto(data interface{}, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		TagName:          "yaml",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(data)
}

// DecodeParams decodes an agent/tool/MCP "params" block into dst,
// isolating the heterogeneous-provider-params decoding the config tree
// itself cannot statically type (spec §3 AgentDef.params).
func DecodeParams(params map[string]interface{}, dst interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
		TagName:          "yaml",
	})
	if err != nil {
		return newConfigError("DecodeParams", "failed to build decoder", err)
	}
	if err := decoder.Decode(params); err != nil {
		return newConfigError("DecodeParams", "failed to decode params", err)
	}
	return nil
}
