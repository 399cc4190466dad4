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
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// LoadGitignore reads .gitignore at the sandbox root into the cached
// pattern list used by MatchesGitignore. Safe to call even when no
// .gitignore exists.
func (s *Sandbox) LoadGitignore() {
	s.gitignore = readGitignore(filepath.Join(s.Root, ".gitignore"))
}

func readGitignore(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// MatchesGitignore reports whether relPath (workspace-root-relative,
// slash-separated) is ignored by the cached .gitignore patterns. Only
// consulted when RespectGitignore is set (spec §4.5).
func (s *Sandbox) MatchesGitignore(relPath string) bool {
	if !s.RespectGitignore {
		return false
	}
	base := filepath.Base(relPath)
	for _, pattern := range s.gitignore {
		pattern = strings.TrimSuffix(pattern, "/")
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// WatchGitignore watches the sandbox root's .gitignore for changes and
// reloads the cached pattern list whenever it is written, so long
// directory walks during a run never operate on a stale ignore list.
// The watcher runs until stop is closed; failures to start the watcher
// are logged and treated as non-fatal, since RespectGitignore still
// works from the snapshot loaded at startup.
func (s *Sandbox) WatchGitignore(stop <-chan struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("sandbox: failed to start gitignore watcher", "error", err)
		return
	}

	if err := watcher.Add(s.Root); err != nil {
		slog.Warn("sandbox: failed to watch workspace root", "error", err)
		watcher.Close()
		return
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-stop:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) == ".gitignore" {
					s.LoadGitignore()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
}
