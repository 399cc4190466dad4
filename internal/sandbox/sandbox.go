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

// Package sandbox resolves tool-supplied paths against a workspace
// root, enforces the outside-root refusal, the ignore rules used by
// directory walks, and the secret-glob read guard (spec §4.5, §6).
package sandbox

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Sandbox bounds path resolution to a workspace root.
type Sandbox struct {
	Root               string
	AllowOutsideWorkspace bool
	ExcludeDirs        []string
	IncludeHiddenFiles bool
	RespectGitignore   bool
	SecretGlobs        []string
	AllowReadSecrets   bool

	gitignore []string // cached patterns, invalidated by the fsnotify watcher in watch.go
}

// New builds a Sandbox rooted at root (must be an absolute, existing
// directory in real use; callers are responsible for that check) and
// loads its .gitignore immediately so RespectGitignore is effective
// from the first tree walk, not just after an explicit reload.
func New(root string) *Sandbox {
	s := &Sandbox{
		Root:             root,
		ExcludeDirs:      []string{".git", ".venv", "node_modules", "__pycache__", ".mypy_cache", ".pytest_cache"},
		RespectGitignore: true,
		SecretGlobs:      []string{".env", ".env.*", "*.pem", "*.key", "id_rsa", "id_ed25519"},
	}
	s.LoadGitignore()
	return s
}

// PathError reports a sandbox refusal.
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string { return fmt.Sprintf("%s: %s", e.Path, e.Message) }

// Resolve resolves userPath against the sandbox root, refusing any
// path that is neither the root nor a descendant of it unless
// allowOutsideRoot is true (tool-level override) or the sandbox itself
// allows outside-workspace access (spec §3 invariant, §4.5 "Path
// sandbox"). A leading "@" is stripped first — @-prefixed tokens are
// plain paths (spec §4.5).
func (s *Sandbox) Resolve(userPath string, allowOutsideRoot bool) (string, error) {
	userPath = strings.TrimPrefix(userPath, "@")

	var abs string
	if filepath.IsAbs(userPath) {
		abs = filepath.Clean(userPath)
	} else {
		abs = filepath.Clean(filepath.Join(s.Root, userPath))
	}

	if s.isWithinRoot(abs) {
		return abs, nil
	}
	if allowOutsideRoot || s.AllowOutsideWorkspace {
		return abs, nil
	}
	return "", &PathError{Path: userPath, Message: "resolved path escapes workspace root"}
}

func (s *Sandbox) isWithinRoot(abs string) bool {
	rel, err := filepath.Rel(s.Root, abs)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

// IsExcludedDir reports whether a directory name should be skipped
// during a tree walk, per the configured exclude_dirs (spec §4.5
// "Ignore rules").
func (s *Sandbox) IsExcludedDir(name string) bool {
	for _, d := range s.ExcludeDirs {
		if d == name {
			return true
		}
	}
	return false
}

// IsHidden reports whether a base name is a dotfile.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// AllowsHidden reports whether hidden files should be included in a walk.
func (s *Sandbox) AllowsHidden(name string) bool {
	return s.IncludeHiddenFiles || !IsHidden(name)
}

// IsSecretPath reports whether path matches one of the secret globs
// (spec §4.5 "Secret guard"); reads of matching paths must be refused
// unless AllowReadSecrets is set.
func (s *Sandbox) IsSecretPath(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range s.SecretGlobs {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// CheckSecretRead refuses a read of path if it matches a secret glob
// and secret reads are disabled.
func (s *Sandbox) CheckSecretRead(path string) error {
	if s.IsSecretPath(path) && !s.AllowReadSecrets {
		return &PathError{Path: path, Message: "secret files disabled"}
	}
	return nil
}
