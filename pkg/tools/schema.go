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
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Definition is the JSON-Schema shape handed to the LLM for function
// calling (spec §4.5 "Schema generator").
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// reflector is shared across calls; Reflect is safe for concurrent use.
var reflector = &jsonschema.Reflector{
	RequiredFromJSONSchemaTags: true,
	ExpandedStruct:             true,
	DoNotReference:             true,
}

// GenerateSchema reflects a Go struct value (the tool's Metadata.ParamsType)
// into a JSON-Schema parameters object, grounded on the teacher's
// pkg/tool/functiontool/schema.go generic reflector. Internal ambient
// parameters never appear here because they are not fields of the
// argument struct — they are injected separately via Ambient (spec
// §4.5 "hiding internal parameters").
func GenerateSchema(paramsType interface{}) (map[string]interface{}, error) {
	if paramsType == nil {
		return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}, nil
	}

	t := reflect.TypeOf(paramsType)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	v := reflect.New(t).Interface()

	schema := reflector.Reflect(v)
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var asMap map[string]interface{}
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	delete(asMap, "$schema")
	delete(asMap, "$id")

	if asMap["type"] == "object" {
		result := map[string]interface{}{
			"type":       "object",
			"properties": asMap["properties"],
		}
		if req, ok := asMap["required"]; ok {
			result["required"] = req
		}
		if addl, ok := asMap["additionalProperties"]; ok {
			result["additionalProperties"] = addl
		}
		return result, nil
	}
	return asMap, nil
}

// BuildDefinition produces the full {name, description, parameters}
// record for one registry entry.
func BuildDefinition(e Entry) (Definition, error) {
	params, err := GenerateSchema(e.Metadata.ParamsType)
	if err != nil {
		return Definition{}, fmt.Errorf("tool %s: %w", e.Metadata.Name, err)
	}
	return Definition{
		Name:        e.Metadata.Name,
		Description: e.Metadata.Summary,
		Parameters:  params,
	}, nil
}

// Definitions builds schema definitions for a slice of entries,
// skipping (and reporting) any tool whose argument struct fails to
// reflect rather than aborting the whole batch.
func Definitions(entries []Entry) ([]Definition, []error) {
	defs := make([]Definition, 0, len(entries))
	var errs []error
	for _, e := range entries {
		def, err := BuildDefinition(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, def)
	}
	return defs, errs
}
