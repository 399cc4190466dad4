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

// Command codur is the CLI entry point for the orchestrator core.
//
// Usage:
//
//	codur run "fix the off by one bug in parser.go"
//	codur run --config codur.yaml --root ./myproject "add a changelog entry"
//	codur version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/codur-ai/codur/internal/sandbox"
	"github.com/codur-ai/codur/pkg/config"
	"github.com/codur-ai/codur/pkg/llmprovider"
	"github.com/codur-ai/codur/pkg/logger"
	"github.com/codur-ai/codur/pkg/mcptool"
	"github.com/codur-ai/codur/pkg/observability"
	"github.com/codur-ai/codur/pkg/orchestrator"
	"github.com/codur-ai/codur/pkg/tools"
	"github.com/codur-ai/codur/pkg/transcript"
)

// CLI is kept to flag parsing and collaborator wiring only (spec §1
// scopes the CLI out "beyond a thin cmd/ entry point"); everything
// about planning, tool dispatch and sub-agent selection lives in
// pkg/orchestrator.
type CLI struct {
	Run     RunCmd     `cmd:"" default:"1" help:"Run a task through the orchestrator."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
}

// VersionCmd prints build version information, grounded on the
// teacher's cmd/hector VersionCmd.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("codur %s\n", version)
	return nil
}

// RunCmd hands one task to the orchestrator and prints its final
// response.
type RunCmd struct {
	Task string `arg:"" help:"The task to hand to the orchestrator."`

	Config        string `short:"c" help:"Path to a YAML config file. Zero-config defaults are used when omitted." type:"path"`
	Root          string `short:"r" help:"Workspace root the sandbox is bound to." type:"path" default:"."`
	AllowGitWrite bool   `name:"allow-git-write" help:"Allow git_stage_all/git_commit to run."`
	HistoryDB     string `name:"history-db" help:"Path to a SQLite file to append this run's transcript to. Omit to skip persistence." type:"path"`
}

func (c *RunCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	root, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("resolve workspace root: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("workspace root %q is not a directory", root)
	}

	sb := sandbox.New(root)
	sb.AllowOutsideWorkspace = cfg.Runtime.AllowOutsideWorkspace
	sb.IncludeHiddenFiles = cfg.Tools.IncludeHiddenFiles
	sb.AllowReadSecrets = cfg.Tools.AllowReadSecrets
	if len(cfg.Tools.ExcludeDirs) > 0 {
		sb.ExcludeDirs = cfg.Tools.ExcludeDirs
	}
	if len(cfg.Tools.SecretGlobs) > 0 {
		sb.SecretGlobs = cfg.Tools.SecretGlobs
	}

	toolReg := tools.NewRegistry()
	allowGitWrite := c.AllowGitWrite || cfg.Tools.AllowGitWrite
	if err := tools.RegisterBuiltins(toolReg, sb, tools.BuiltinOptions{AllowGitWrite: allowGitWrite}); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	for _, mc := range registerMCPServers(context.Background(), cfg, toolReg) {
		defer mc.Close()
	}

	dispatcher := tools.NewDispatcher(toolReg, sb)

	llms, err := providerRegistry(cfg)
	if err != nil {
		return fmt.Errorf("build LLM provider registry: %w", err)
	}

	graph := orchestrator.New(cfg, llms, toolReg, dispatcher)
	if metrics, err := startMetrics(cfg); err != nil {
		return fmt.Errorf("start metrics: %w", err)
	} else if metrics != nil {
		graph.WithMetrics(metrics)
	}

	slog.Info("codur run starting", "root", root, "max_iterations", cfg.Runtime.MaxIterations)
	result, err := graph.Run(context.Background(), c.Task)
	if err != nil {
		return err
	}

	if result.FinalResponse != "" {
		fmt.Println(result.FinalResponse)
	}
	if result.SelectedAgent != "" {
		slog.Info("codur run finished", "selected_agent", result.SelectedAgent)
	}

	if c.HistoryDB != "" {
		if err := saveTranscript(c.HistoryDB, c.Task, result); err != nil {
			slog.Warn("failed to persist run transcript", "db", c.HistoryDB, "error", err.Error())
		}
	}
	return nil
}

// saveTranscript opens (or creates) the SQLite file at path and
// appends this run's message history to it.
func saveTranscript(path, task string, result *orchestrator.RunResult) error {
	store, err := transcript.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveRun(context.Background(), uuid.NewString(), task, result)
}

// registerMCPServers connects to every configured MCP server concurrently
// (grounded on the teacher's workflowagent.NewParallel / golang.org/x/sync
// errgroup use for running independent sub-agents simultaneously) and
// registers each one's advertised tools against toolReg, returning the
// started clients so the caller can close them on exit.
// tools.Registry.Register takes its own lock, so concurrent registration
// from multiple servers is safe. A server that fails to connect is
// logged and skipped rather than aborting the run — one misconfigured
// optional collaborator should not take down a graph that does not
// need it.
func registerMCPServers(ctx context.Context, cfg *config.Config, toolReg *tools.Registry) []*mcptool.Client {
	clients := make([]*mcptool.Client, 0, len(cfg.MCP))
	names := make([]string, 0, len(cfg.MCP))
	for name, serverCfg := range cfg.MCP {
		clients = append(clients, mcptool.New(name, serverCfg))
		names = append(names, name)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, mc := range clients {
		i, mc := i, mc
		g.Go(func() error {
			if err := mc.RegisterTools(gctx, toolReg); err != nil {
				slog.Warn("MCP server registration failed", "server", names[i], "error", err.Error())
			}
			return nil
		})
	}
	_ = g.Wait() // per-server errors are logged, not propagated (see comment above)
	return clients
}

// startMetrics builds a Prometheus recorder from
// cfg.Observability.Metrics and serves it on a background HTTP
// listener, returning nil if metrics are disabled. Grounded on the
// teacher's observability.Manager, narrowed to metrics-only since
// tracing needs an OTLP collector this build has no deployment story
// for yet (see DESIGN.md).
func startMetrics(cfg *config.Config) (*observability.Metrics, error) {
	if !cfg.Observability.Metrics.Enabled {
		return nil, nil
	}
	metrics, err := observability.NewMetrics(&cfg.Observability.Metrics)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Observability.Metrics.Endpoint, metrics.Handler())
	addr := cfg.Runtime.MetricsAddr
	if addr == "" {
		addr = ":9090"
	}
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics server stopped", "error", err.Error())
		}
	}()
	slog.Info("metrics server started", "addr", addr, "endpoint", cfg.Observability.Metrics.Endpoint)
	return metrics, nil
}

// loadConfig reads the config file at path, or falls back to
// config.Default() for zero-config use (spec §7 "a missing config file
// is not itself a fatal error; the default config applies").
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		cfg.LLM.DefaultProfile = "default"
		cfg.LLM.Profiles = map[string]config.LLMProfile{"default": {Provider: "stub", Model: "stub"}}
		cfg.Agents.Preferences.DefaultAgent = "coding"
		cfg.SetDefaults()
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

// providerRegistry builds an llmprovider.Registry with one provider per
// configured profile. Real network providers (OpenAI/Anthropic/Gemini/
// Ollama adapters) are out of scope for this build (spec §1); every
// profile resolves to a canned StubProvider instead, so "codur run"
// exercises the full graph end-to-end without a live model behind it.
// A deployment wiring in a real Provider only needs to populate this
// registry differently — the orchestrator itself is provider-agnostic.
func providerRegistry(cfg *config.Config) (*llmprovider.Registry, error) {
	reg := llmprovider.NewRegistry()
	for name := range cfg.LLM.Profiles {
		resp := llmprovider.Response{
			Content: `{"action": "respond", "reasoning": "no network LLM provider is configured", "response": "no LLM provider is configured for this run; wire a real llmprovider.Provider into the registry to get live responses"}`,
		}
		if err := reg.RegisterProvider(name, llmprovider.NewStubProvider(name, resp)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func main() {
	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("codur"),
		kong.Description("Codur - graph-based coding agent orchestrator"),
		kong.UsageOnError(),
	)

	initLogger(cli.LogLevel)

	err := kctx.Run(&cli)
	kctx.FatalIfErrorf(err)
}

// initLogger installs the process-wide default logger, reusing the
// teacher's pkg/logger (colored, level-filtered slog handler that mutes
// third-party library logs below debug) rather than a bare
// slog.NewTextHandler.
func initLogger(level string) {
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	logger.Init(lvl, os.Stderr, "simple")
}
