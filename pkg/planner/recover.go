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
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// greedyObjectPattern is the fallback stage's last-resort extractor:
// the widest brace-delimited span in the text, used only once the
// first-brace/last-brace slice itself fails to parse (spec §9 "JSON
// recovery: two-stage").
var greedyObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ParseDecision recovers a Decision from raw LLM output that is
// expected to be JSON but may be wrapped in prose, code fences, or
// have trailing commentary. It tries, in order:
//
//  1. Direct unmarshal of the trimmed text.
//  2. The slice between the first '{' and the last '}'.
//  3. A greedy regex match of the widest {...} span.
//
// Every stage that fails to produce valid, schema-conformant JSON
// falls through to the next; only after all three fail does
// ParseDecision return an error (spec §9 "JSON recovery").
func ParseDecision(raw string) (Decision, error) {
	trimmed := strings.TrimSpace(stripCodeFence(raw))

	if d, err := unmarshalDecision(trimmed); err == nil {
		return d, nil
	}

	if first := strings.IndexByte(trimmed, '{'); first >= 0 {
		if last := strings.LastIndexByte(trimmed, '}'); last > first {
			if d, err := unmarshalDecision(trimmed[first : last+1]); err == nil {
				return d, nil
			}
		}
	}

	if m := greedyObjectPattern.FindString(trimmed); m != "" {
		if d, err := unmarshalDecision(m); err == nil {
			return d, nil
		}
	}

	return Decision{}, fmt.Errorf("planner: could not recover a decision object from response")
}

func unmarshalDecision(text string) (Decision, error) {
	var d Decision
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return Decision{}, err
	}
	if d.Action == "" {
		return Decision{}, fmt.Errorf("planner: decision missing required field %q", "action")
	}
	return d, nil
}

var codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// stripCodeFence unwraps a single fenced code block if the response is
// wrapped in one, otherwise returns text unchanged.
func stripCodeFence(text string) string {
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}
