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

// web_search gives toolspec.TaskWebSearch a real dispatchable tool,
// grounded on the retrieval pack's duckduckgo.py (query, max_results,
// region, safesearch -> a list of {title, url, snippet} results). The
// original drives the ddgs Python library; no module in the example
// pack wraps a search API or an HTML scraper, so this build issues the
// request directly against DuckDuckGo's HTML endpoint with net/http and
// extracts results with a regex scan, the same simplification
// builtin_analysis.go uses for python_ast_dependencies.
package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/codur-ai/codur/pkg/toolspec"
)

type webSearchParams struct {
	Query      string `json:"query" jsonschema:"required,description=Search query"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Maximum number of results to return, defaults to 5"`
}

var ddgResult = regexp.MustCompile(`(?s)<a rel="nofollow" class="result__a" href="([^"]+)">(.*?)</a>.*?<a class="result__snippet"[^>]*>(.*?)</a>`)

func stripTags(s string) string {
	return strings.TrimSpace(regexp.MustCompile(`<[^>]*>`).ReplaceAllString(s, ""))
}

// RegisterWebSearchTool registers web_search against the given HTTP
// client; a nil client is replaced by one with a 10-second timeout.
func RegisterWebSearchTool(r *Registry, client *http.Client) error {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return r.Register(Metadata{
		Name: "web_search", Summary: "Search the web and return a short list of title/url/snippet results.",
		ParamsType:  webSearchParams{},
		Scenarios:   toolspec.NewSet(toolspec.TaskWebSearch),
		SideEffects: toolspec.NewSet(toolspec.SideEffectNetwork),
		Contexts:    toolspec.NewSet(toolspec.ContextSearch),
	}, func(ctx context.Context, args map[string]interface{}, ambient Ambient) (Result, error) {
		query, _ := args["query"].(string)
		if query == "" {
			return Result{}, fmt.Errorf("web_search: query is required")
		}
		maxResults := 5
		if n := intArg(args["max_results"]); n > 0 {
			maxResults = n
		}

		reqURL := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return Result{}, fmt.Errorf("web_search: %w", err)
		}
		req.Header.Set("User-Agent", "codur-orchestrator/1.0")

		resp, err := client.Do(req)
		if err != nil {
			return Result{}, fmt.Errorf("web_search: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return Result{}, fmt.Errorf("web_search: unexpected status %d", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return Result{}, fmt.Errorf("web_search: %w", err)
		}

		matches := ddgResult.FindAllStringSubmatch(string(body), -1)
		var b strings.Builder
		count := 0
		for _, m := range matches {
			if count >= maxResults {
				break
			}
			title := stripTags(m[2])
			snippet := stripTags(m[3])
			fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", count+1, title, m[1], snippet)
			count++
		}
		if count == 0 {
			return Result{Content: "no results found"}, nil
		}
		return Result{Content: b.String()}, nil
	})
}
