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

// Package mcptool connects to an MCP (Model Context Protocol) server over
// stdio and registers every tool the server advertises as a regular
// pkg/tools entry, so a configured config.MCPServerConfig entry reaches
// the dispatcher the same way a builtin tool does.
//
// Grounded on the teacher's pkg/tool/mcptoolset, narrowed to the stdio
// transport: config.MCPServerConfig (pkg/config/config.go) carries only
// Command/Args/Cwd/Env, with no URL field for the teacher's HTTP/SSE
// transports, so this build only ports the mcp-go client path.
package mcptool

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codur-ai/codur/pkg/config"
	"github.com/codur-ai/codur/pkg/tools"
)

// Client wraps one stdio MCP server connection, started by Connect
// (which RegisterTools calls) and reused for every subsequent call
// (spec §4.5 tools are long-lived registry entries, not per-call
// processes). A registered tool called while the client is not
// connected returns an error; it does not start the server.
type Client struct {
	name   string
	cfg    config.MCPServerConfig
	logger hclog.Logger

	mu        sync.Mutex
	mcpClient *client.Client
}

// New builds a Client for the named MCP server. The subprocess is not
// started until Connect (or RegisterTools) runs.
func New(name string, cfg config.MCPServerConfig) *Client {
	return &Client{
		name: name,
		cfg:  cfg,
		logger: hclog.New(&hclog.LoggerOptions{
			Name:  "codur-mcp-" + name,
			Level: hclog.Info,
		}),
	}
}

// Connect starts the server subprocess and performs the MCP handshake.
// Safe to call more than once; later calls are no-ops once connected.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mcpClient != nil {
		return nil
	}
	if c.cfg.Command == "" {
		return fmt.Errorf("mcptool %s: command is required", c.name)
	}

	mcpClient, err := client.NewStdioMCPClient(c.cfg.Command, envSlice(c.cfg.Env), c.cfg.Args...)
	if err != nil {
		return fmt.Errorf("mcptool %s: create client: %w", c.name, err)
	}
	if err := mcpClient.Start(ctx); err != nil {
		return fmt.Errorf("mcptool %s: start: %w", c.name, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "codur", Version: "0.1.0"}
	initReq.Params.ProtocolVersion = "2024-11-05"
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return fmt.Errorf("mcptool %s: initialize: %w", c.name, err)
	}

	c.mcpClient = mcpClient
	c.logger.Info("connected", "command", c.cfg.Command)
	return nil
}

// Close shuts down the subprocess, if started.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mcpClient == nil {
		return nil
	}
	err := c.mcpClient.Close()
	c.mcpClient = nil
	return err
}

// RegisterTools connects to the server, lists its tools, and registers
// each one against r under its server-reported name. Registered tools
// carry no toolspec.TaskType scenario (they are config-driven extras
// unknown at build time), so they surface only to callers that pass
// ListFilter.IncludeUnannotated.
func (c *Client) RegisterTools(ctx context.Context, r *tools.Registry) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	resp, err := c.mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("mcptool %s: list tools: %w", c.name, err)
	}

	for _, t := range resp.Tools {
		name := t.Name
		schema := t.InputSchema
		if err := r.Register(tools.Metadata{
			Name:    name,
			Summary: t.Description,
		}, c.callFunc(name)); err != nil {
			c.logger.Warn("skipping duplicate MCP tool name", "tool", name, "error", err.Error())
			continue
		}
		_ = schema // the MCP server's own JSON schema governs argument shape; tools.Registry generates its own from ParamsType only for builtin tools
	}

	c.logger.Info("registered MCP tools", "count", len(resp.Tools))
	return nil
}

// callFunc builds the tools.Func that forwards a dispatch call to the
// MCP server's tools/call and renders its text content back into a
// tools.Result.
func (c *Client) callFunc(name string) tools.Func {
	return func(ctx context.Context, args map[string]interface{}, ambient tools.Ambient) (tools.Result, error) {
		c.mu.Lock()
		mcpClient := c.mcpClient
		c.mu.Unlock()
		if mcpClient == nil {
			return tools.Result{}, fmt.Errorf("mcptool %s: not connected", c.name)
		}

		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args

		resp, err := mcpClient.CallTool(ctx, req)
		if err != nil {
			return tools.Result{}, fmt.Errorf("mcptool %s: call %s: %w", c.name, name, err)
		}

		var texts []string
		for _, content := range resp.Content {
			if tc, ok := content.(mcp.TextContent); ok {
				texts = append(texts, tc.Text)
			}
		}
		out := ""
		if len(texts) > 0 {
			out = texts[0]
			for _, t := range texts[1:] {
				out += "\n" + t
			}
		}
		if resp.IsError {
			return tools.Result{}, fmt.Errorf("mcptool %s: %s: %s", c.name, name, out)
		}
		return tools.Result{Content: out}, nil
	}
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
