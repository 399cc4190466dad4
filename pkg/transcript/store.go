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

// Package transcript persists a completed orchestrator run's message
// history to a local SQLite database, so a sequence of "codur run"
// invocations against the same workspace leaves a queryable record
// instead of only stdout. Grounded on the teacher's
// v2/session.SQLSessionService (pkg/agent/task_service_sql.go is the
// same pattern at a smaller scope): a normalized runs/messages table
// pair opened with database/sql over the sqlite3 driver.
package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codur-ai/codur/pkg/orchestrator"
	"github.com/codur-ai/codur/pkg/state"
)

// Store persists run transcripts to a SQLite file.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) the schema at path and returns a Store
// backed by it. Callers must Close when done.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("transcript: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("transcript: ping %s: %w", path, err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	task TEXT NOT NULL,
	final_response TEXT,
	selected_agent TEXT,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	run_id TEXT NOT NULL,
	idx INTEGER NOT NULL,
	role TEXT NOT NULL,
	content TEXT,
	tool_calls_json TEXT,
	PRIMARY KEY (run_id, idx)
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("transcript: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun records one orchestrator run, keyed by id, replacing any
// prior record under the same id.
func (s *Store) SaveRun(ctx context.Context, id, task string, result *orchestrator.RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transcript: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("transcript: clear run: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("transcript: clear messages: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, task, final_response, selected_agent, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, task, result.FinalResponse, result.SelectedAgent, time.Now().UTC()); err != nil {
		return fmt.Errorf("transcript: insert run: %w", err)
	}

	for i, msg := range result.Messages {
		toolCallsJSON := ""
		if len(msg.ToolCalls) > 0 {
			b, err := json.Marshal(msg.ToolCalls)
			if err != nil {
				return fmt.Errorf("transcript: marshal tool calls: %w", err)
			}
			toolCallsJSON = string(b)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (run_id, idx, role, content, tool_calls_json) VALUES (?, ?, ?, ?, ?)`,
			id, i, string(msg.Role), msg.Content, toolCallsJSON); err != nil {
			return fmt.Errorf("transcript: insert message %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// LoadMessages reconstructs a prior run's message history, in order,
// from each message's role, content and tool calls. ToolCallID and Name
// are not stored, so they come back empty.
func (s *Store) LoadMessages(ctx context.Context, runID string) ([]state.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, tool_calls_json FROM messages WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("transcript: query messages: %w", err)
	}
	defer rows.Close()

	var out []state.Message
	for rows.Next() {
		var role, content, toolCallsJSON string
		if err := rows.Scan(&role, &content, &toolCallsJSON); err != nil {
			return nil, fmt.Errorf("transcript: scan message: %w", err)
		}
		msg := state.Message{Role: state.Role(role), Content: content}
		if toolCallsJSON != "" {
			if err := json.Unmarshal([]byte(toolCallsJSON), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("transcript: unmarshal tool calls: %w", err)
			}
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}
