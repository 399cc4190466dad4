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

package sandbox

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	testFileName     = regexp.MustCompile(`^(test_.+\.py|.+_test\.py)$`)
	testDirComponent = regexp.MustCompile(`(^|/)(tests?)(/|$)`)

	overwriteVerb = regexp.MustCompile(`(?i)\b(overwrite|replace|rewrite|regenerate|recreate|reset)\b`)
	writeVerb     = regexp.MustCompile(`(?i)\b(write|add|update|create|implement|generate)\b`)
	testWord      = regexp.MustCompile(`(?i)\btest\b`)
)

// IsTestFile reports whether path matches the test-file naming pattern
// from spec §4.5: "test_*.py | *_test.py | (any path containing
// /tests/|/test/)".
func IsTestFile(path string) bool {
	base := filepath.Base(path)
	if testFileName.MatchString(base) {
		return true
	}
	normalized := filepath.ToSlash(path)
	return testDirComponent.MatchString(normalized)
}

// CheckTestOverwrite refuses a write to an existing file matching the
// test-file pattern unless humanMessage both references the file (or
// the word "test") and either uses an overwrite verb or contains both a
// write verb and the word "test" (spec §4.5 "Test-overwrite guard").
// The words may appear anywhere in the message; their distance from
// each other is not checked.
func CheckTestOverwrite(path, humanMessage string) error {
	if !IsTestFile(path) {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		// Guard only applies to writes that would overwrite an existing file.
		return nil
	}

	base := filepath.Base(path)
	mentionsFile := strings.Contains(humanMessage, base) || testWord.MatchString(humanMessage)
	if !mentionsFile {
		return &PathError{Path: path, Message: "refusing to overwrite existing test file: not referenced by the request"}
	}

	if overwriteVerb.MatchString(humanMessage) {
		return nil
	}
	if writeVerb.MatchString(humanMessage) && testWord.MatchString(humanMessage) {
		return nil
	}
	return &PathError{Path: path, Message: "refusing to overwrite existing test file: request did not explicitly ask for overwrite"}
}
