// Package mcp_tools exposes the resolver as a Model Context Protocol tool,
// served over streamable HTTP alongside the REST endpoints.
package mcp_tools

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/KincaidYang/whois-engine/config"
	"github.com/KincaidYang/whois-engine/server_lists"
	"github.com/KincaidYang/whois-engine/whois_tools"
)

// LookupArgs are the arguments of the whois_lookup tool.
type LookupArgs struct {
	Target string `json:"target" jsonschema:"domain name or IP address to look up"`
	Server string `json:"server,omitempty" jsonschema:"optional WHOIS server host[:port] override"`
	Follow *int   `json:"follow,omitempty" jsonschema:"number of referrals to follow"`
}

// NewHandler builds the MCP server with the whois_lookup tool and wraps it
// in a streamable HTTP handler.
func NewHandler(client *whois_tools.Client) http.Handler {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "whois-engine",
		Version: config.Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "whois_lookup",
		Description: "Resolve the raw WHOIS record for a domain name or IP address, following registrar referrals.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args LookupArgs) (*mcp.CallToolResult, any, error) {
		target, err := whois_tools.ParseTarget(args.Target)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid target: %w", err)
		}

		opts := whois_tools.NewLookupOptions(target)
		opts.Follow = uint16(config.LookupFollow)
		opts.Timeout = config.LookupTimeout
		if args.Server != "" {
			sv, err := server_lists.ServerValueFromString(args.Server)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid server: %w", err)
			}
			opts.Server = &sv
		}
		if args.Follow != nil && *args.Follow >= 0 {
			opts.Follow = uint16(*args.Follow)
		}

		result, err := client.LookupContext(ctx, opts)
		if err != nil {
			return nil, nil, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil, nil
	})

	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}
