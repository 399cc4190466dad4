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

import "context"

// StubProvider returns a fixed Response (or a fixed error) regardless
// of the request, for use in tests and local development where no
// network provider is configured. Grounded on the teacher's fake LLM
// helpers used across pkg/llms/*_test.go.
type StubProvider struct {
	ProviderName string
	Response     Response
	Err          error
	Calls        int
}

// NewStubProvider builds a StubProvider that always returns resp.
func NewStubProvider(name string, resp Response) *StubProvider {
	return &StubProvider{ProviderName: name, Response: resp}
}

func (s *StubProvider) Invoke(ctx context.Context, req Request) (Response, error) {
	s.Calls++
	if s.Err != nil {
		return Response{}, s.Err
	}
	return s.Response, nil
}

func (s *StubProvider) Name() string { return s.ProviderName }

// SequenceProvider returns successive Responses on each call, repeating
// the last Response once the sequence is exhausted, and optional
// per-index errors. Useful for exercising the planner's fallback and
// mutation-intent retry loops deterministically.
type SequenceProvider struct {
	ProviderName string
	Responses    []Response
	Errs         []error
	calls        int
}

func NewSequenceProvider(name string, responses []Response) *SequenceProvider {
	return &SequenceProvider{ProviderName: name, Responses: responses}
}

func (s *SequenceProvider) Invoke(ctx context.Context, req Request) (Response, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.Errs) && s.Errs[idx] != nil {
		return Response{}, s.Errs[idx]
	}
	if idx >= len(s.Responses) {
		idx = len(s.Responses) - 1
	}
	return s.Responses[idx], nil
}

func (s *SequenceProvider) Name() string { return s.ProviderName }

// Calls reports how many times Invoke has been called.
func (s *SequenceProvider) Calls() int { return s.calls }
