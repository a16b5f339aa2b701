package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/veritas/internal/pipeline"
)

// NewMCPServer creates an MCP server exposing verifier as the verify_text tool
func NewMCPServer(verifier Verifier, version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "veritas", Version: version}, nil)
	RegisterMCP(srv, verifier)
	return srv
}

type verifyTextReq struct {
	Text string `json:"text"`
}

// RegisterMCP adds the verify_text tool to srv
func RegisterMCP(srv *mcp.Server, verifier Verifier) {
	tool := &mcp.Tool{
		Name:        "verify_text",
		Description: "Fact-check a passage: extract its factual claims, gather evidence and return a trust report with a verdict per claim.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string", "description": "Text to verify"},
			},
			"required": []string{"text"},
		},
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args verifyTextReq
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("invalid arguments: %w", err))
				return &res, nil
			}
		}

		report, err := verifier.Run(ctx, args.Text, nil)
		if err != nil {
			f := pipeline.Describe(err)
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("%s: %s", f.Title, f.Message))
			return &res, nil
		}

		data, err := json.Marshal(report)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}
