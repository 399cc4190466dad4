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

package state

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/codur-ai/codur/pkg/config"
	"github.com/google/uuid"
)

// NextAction is the closed routing vocabulary produced by plan/review
// nodes (spec §3, §9 "route constants... normalize to one closed set").
type NextAction string

const (
	ActionDelegate     NextAction = "delegate"
	ActionTool         NextAction = "tool"
	ActionRespond      NextAction = "respond"
	ActionCoding       NextAction = "coding"
	ActionVerification NextAction = "verification"
	ActionContinue     NextAction = "continue"
	ActionEnd          NextAction = "end"
)

// OutcomeStatus is the closed status set for AgentOutcome.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusFailed  OutcomeStatus = "failed"
	StatusError   OutcomeStatus = "error"
)

// AgentOutcome records the result of one sub-agent or tool-dispatch
// pass (spec §3).
type AgentOutcome struct {
	Agent               string        `json:"agent"`
	Status              OutcomeStatus `json:"status"`
	Result              string        `json:"result"`
	Messages            []Message     `json:"messages"`
	NextStepSuggestion  string        `json:"next_step_suggestion,omitempty"`
}

// BudgetError is raised when a run would exceed one of its budgets.
// It is fatal at the run level (spec §7).
type BudgetError struct {
	Kind    string // "llm_calls" | "timeout"
	Message string
}

func (e *BudgetError) Error() string { return e.Message }

// ErrLLMCallLimitExceeded is returned (wrapped in a *BudgetError) by
// any node that would invoke the LLM past max_llm_calls.
func ErrLLMCallLimitExceeded(used, max int) error {
	return &BudgetError{
		Kind:    "llm_calls",
		Message: fmt.Sprintf("LLMCallLimitExceeded: %d/%d calls already made", used, max),
	}
}

// AgentState is the single shared, append-mostly record every graph
// node consumes and produces (spec §3).
type AgentState struct {
	RunID   string
	Messages []Message

	Iterations int
	LLMCalls   int
	MaxLLMCalls int

	AgentOutcomes []AgentOutcome
	SelectedAgent string

	ToolCalls  []ToolCall
	NextAction NextAction

	Classification *ClassificationResult

	Config *config.Config

	ErrorHashes map[string]bool

	Verbose bool

	// FinalResponse is the last human-visible string, set when a node
	// produces a terminal response (spec §3 "Lifecycle").
	FinalResponse string

	// NextStepSuggestion carries verification failure guidance into the
	// next plan pass (spec §4.8 decision table).
	NextStepSuggestion string
}

// New creates the initial AgentState for a run from a task string and
// config, per spec §3 "Lifecycle".
func New(task string, cfg *config.Config) *AgentState {
	return &AgentState{
		RunID:       uuid.NewString(),
		Messages:    []Message{NewHuman(task)},
		MaxLLMCalls: cfg.Runtime.MaxLLMCalls,
		Config:      cfg,
		ErrorHashes: make(map[string]bool),
	}
}

// Append adds messages to the end of the state's message list. Never
// rewrites earlier entries — the append-only invariant from spec §3.
func (s *AgentState) Append(messages ...Message) {
	s.Messages = append(s.Messages, messages...)
}

// CanCallLLM reports whether one more LLM call is within budget. Nodes
// must check this before invoking the LLM (spec §3 invariant
// "llm_calls <= max_llm_calls").
func (s *AgentState) CanCallLLM() bool {
	return s.LLMCalls < s.MaxLLMCalls
}

// RecordLLMCall increments the LLM-call counter or returns a
// BudgetError if the call would exceed max_llm_calls.
func (s *AgentState) RecordLLMCall() error {
	if !s.CanCallLLM() {
		return ErrLLMCallLimitExceeded(s.LLMCalls, s.MaxLLMCalls)
	}
	s.LLMCalls++
	return nil
}

// ExceededIterations reports whether the run has used more iterations
// than configured; the router accepts the current result when this is
// true (spec §3 invariant, §4.8 decision table first row).
func (s *AgentState) ExceededIterations() bool {
	return s.Iterations > s.Config.Runtime.MaxIterations
}

// ErrorHash computes the SHA-256 stuck-loop fingerprint of an error
// (kind, path, line), per spec §4.8 "Stuck-loop detection".
func ErrorHash(kind, path string, line int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", kind, path, line)))
	return hex.EncodeToString(h[:])
}

// RecordErrorHash records a fingerprint and reports whether it had
// already been seen at any earlier point in the run. It does not check
// that the earlier occurrence was in the immediately preceding
// iteration, and nothing in this build calls it.
func (s *AgentState) RecordErrorHash(hash string) (repeated bool) {
	repeated = s.ErrorHashes[hash]
	s.ErrorHashes[hash] = true
	return repeated
}
