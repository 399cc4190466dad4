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

package orchestrator

import (
	"context"
	"fmt"
	"time"
)

// TimeoutError is returned when a run exceeds runtime.max_runtime_seconds
// (spec §4.9, §5 "No state is published after timeout").
type TimeoutError struct {
	Seconds int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("run exceeded max_runtime_seconds (%ds)", e.Seconds)
}

// invokeResult pairs invoke's two return values for the timeout
// driver's result channel.
type invokeResult struct {
	result *RunResult
	err    error
}

// Run is the execution driver (spec §4.9 "run(task) -> {messages,
// final_response, selected_agent}"). When runtime.max_runtime_seconds
// is unset (<= 0) it calls invoke directly; otherwise it races invoke
// against a timer. On timeout the in-flight invoke is abandoned (its
// context is cancelled) and no partial RunResult is returned, per spec
// §5's "no state is published after timeout" invariant.
func (g *Graph) Run(ctx context.Context, task string) (*RunResult, error) {
	seconds := g.Config.Runtime.MaxRuntimeSeconds
	if seconds <= 0 {
		return g.invoke(ctx, task)
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
	defer cancel()

	resultCh := make(chan invokeResult, 1)
	go func() {
		result, err := g.invoke(runCtx, task)
		resultCh <- invokeResult{result: result, err: err}
	}()

	select {
	case r := <-resultCh:
		return r.result, r.err
	case <-runCtx.Done():
		return nil, &TimeoutError{Seconds: seconds}
	}
}
