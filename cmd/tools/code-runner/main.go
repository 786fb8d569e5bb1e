package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	units "github.com/docker/go-units"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/michaelbrown/polyrun/internal/config"
	"github.com/michaelbrown/polyrun/internal/console"
	"github.com/michaelbrown/polyrun/internal/dispatch"
	"github.com/michaelbrown/polyrun/internal/execution"
)

// maxOutput caps the text returned to the calling model.
const maxOutput = 4000

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	// stdout carries the MCP protocol; sandbox output must not reach it.
	d, err := cfg.Dispatcher(console.Channels{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	s := server.NewMCPServer("polyrun-code-runner", "0.1.0")
	s.AddTool(codeRunTool(d), newCodeRunHandler(d))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
	}
}

func codeRunTool(d *dispatch.Dispatcher) mcp.Tool {
	langs := d.Registry().Keys()

	return mcp.Tool{
		Name: "code_run",
		Description: fmt.Sprintf("Execute code. JavaScript and TypeScript run in-process; other languages run on a remote compile-and-run service. Supported languages: %s.",
			strings.Join(langs, ", ")),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"language": map[string]any{
					"type":        "string",
					"description": "Language key",
					"enum":        langs,
				},
				"code": map[string]any{
					"type":        "string",
					"description": "Source code to execute",
				},
				"stdin": map[string]any{
					"type":        "string",
					"description": "Standard input to provide to the program (optional, remote languages only)",
				},
			},
			Required: []string{"language", "code"},
		},
	}
}

func newCodeRunHandler(d *dispatch.Dispatcher) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)
		if args == nil {
			return errResult("error: invalid arguments"), nil
		}

		language, _ := args["language"].(string)
		code, _ := args["code"].(string)
		stdin, _ := args["stdin"].(string)

		if language == "" || code == "" {
			return errResult("error: 'language' and 'code' are required"), nil
		}

		res := d.Run(ctx, code, language, stdin)
		return toolResult(res), nil
	}
}

func toolResult(res execution.Result) *mcp.CallToolResult {
	var text string
	if res.OK() {
		text = res.Output
	} else {
		text = fmt.Sprintf("%s: %s", res.Kind(), res.Failure.Message)
	}

	var footer []string
	if m := res.Metrics.CPUTimeSeconds; m != nil {
		footer = append(footer, fmt.Sprintf("CPU Time: %gs", *m))
	}
	if m := res.Metrics.MemoryKB; m != nil {
		footer = append(footer, "Memory: "+units.BytesSize(*m*1024))
	}
	if len(footer) > 0 {
		text += "\n\n" + strings.Join(footer, " | ")
	}

	if len(text) > maxOutput {
		text = text[:maxOutput] + "\n... (output truncated)"
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: !res.OK(),
	}
}

func errResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: true,
	}
}
