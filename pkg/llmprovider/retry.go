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

package llmprovider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// backoffInitial, backoffFactor and maxAttempts are the exponential
// backoff parameters for transient errors (spec §4.4: "initial 0.5s,
// factor 2, max attempts 3").
const (
	backoffInitial = 500 * time.Millisecond
	backoffFactor  = 2
	maxAttempts    = 3
)

// sleep is a package variable so tests can replace it with a no-op
// rather than actually waiting through the backoff schedule.
var sleep = time.Sleep

// InvokeWithFallback tries profile, then each of fallbackProfiles in
// order, retrying transient errors within each profile up to
// maxAttempts times with exponential backoff before moving to the next
// profile (spec §4.4 "LLM invocation"). A non-transient error from any
// profile surfaces immediately without trying the remaining profiles.
func InvokeWithFallback(ctx context.Context, reg *Registry, profile string, fallbackProfiles []string, req Request) (Response, string, error) {
	profiles := append([]string{profile}, fallbackProfiles...)

	var lastErr error
	for _, name := range profiles {
		provider, err := reg.Resolve(name)
		if err != nil {
			lastErr = err
			continue
		}

		resp, err := invokeWithRetry(ctx, provider, req)
		if err == nil {
			return resp, name, nil
		}

		var transient *TransientError
		if !errors.As(err, &transient) {
			return Response{}, name, err
		}
		lastErr = err
	}

	return Response{}, "", fmt.Errorf("llmprovider: all profiles exhausted: %w", lastErr)
}

func invokeWithRetry(ctx context.Context, provider Provider, req Request) (Response, error) {
	delay := backoffInitial
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := provider.Invoke(ctx, req)
		if err == nil {
			return resp, nil
		}

		var transient *TransientError
		if !errors.As(err, &transient) {
			return Response{}, err
		}
		lastErr = err

		if attempt < maxAttempts {
			sleep(delay)
			delay *= backoffFactor
		}
	}
	return Response{}, lastErr
}
