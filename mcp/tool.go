// Package mcp exposes the x402 negotiation client as an MCP tool so agents
// can fetch metered resources with automatic payment handling.
package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"

	x402http "github.com/agentkit/x402-agent-go/http"
)

// ToolName is the tool identifier agents call.
const ToolName = "x402_request"

// NewTool returns the x402_request tool definition.
func NewTool() mcp.Tool {
	return mcp.NewTool(
		ToolName,
		mcp.WithDescription(
			"Make HTTP requests to APIs that may require payment. "+
				"Automatically handles the x402 payment protocol when the API responds with 402. "+
				"Use this for premium APIs, paid data sources, or any x402-enabled endpoint. "+
				"Set max_price_usd to limit how much a single request may pay."),
		mcp.WithString("url", mcp.Required(), mcp.Description("The URL to request")),
		mcp.WithString("method", mcp.Description("HTTP method (GET, POST, ...). Defaults to GET.")),
		mcp.WithString("body", mcp.Description("Request body for POST/PUT")),
		mcp.WithObject("headers", mcp.Description("Additional request headers")),
		mcp.WithNumber("max_price_usd", mcp.Description("Maximum price in USD to pay for this request. Defaults to the wallet's remaining budget.")),
	)
}

// NewHandler returns the tool handler bound to a negotiation client. Budget
// and protocol outcomes come back as tool text the agent can reason about;
// only transport faults surface as tool errors.
func NewHandler(client *x402http.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		url, ok := args["url"].(string)
		if !ok || url == "" {
			return mcp.NewToolResultError("url is required"), nil
		}

		fetchReq := x402http.Request{URL: url}

		if method, ok := args["method"].(string); ok {
			fetchReq.Method = method
		}
		if body, ok := args["body"].(string); ok {
			fetchReq.Body = body
		}
		if rawHeaders, ok := args["headers"].(map[string]any); ok {
			fetchReq.Headers = make(map[string]string, len(rawHeaders))
			for name, value := range rawHeaders {
				s, ok := value.(string)
				if !ok {
					return mcp.NewToolResultError(fmt.Sprintf("header %q must be a string", name)), nil
				}
				fetchReq.Headers[name] = s
			}
		}
		if maxPrice, ok := args["max_price_usd"].(float64); ok {
			limit := decimal.NewFromFloat(maxPrice)
			fetchReq.MaxPriceUSD = &limit
		}

		result, err := client.Fetch(ctx, fetchReq)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(result.Message()), nil
	}
}

// AddTool registers the x402_request tool on an MCP server.
func AddTool(s *server.MCPServer, client *x402http.Client) {
	s.AddTool(NewTool(), NewHandler(client))
}
