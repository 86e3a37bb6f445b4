// ABOUTME: MCP server for tagfilter integration with AI agents.
// ABOUTME: Provides tools, resources, and prompts for filter management.

package mcp

import (
	"context"

	"github.com/harper/tagfilter/internal/popup"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type Server struct {
	server *mcp.Server
	ctl    *popup.Controller
}

func NewServer(ctl *popup.Controller) *Server {
	s := &Server{ctl: ctl}

	s.server = mcp.NewServer(
		&mcp.Implementation{
			Name:    "tagfilter",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			HasTools:     true,
			HasResources: true,
			HasPrompts:   true,
		},
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

func (s *Server) Serve(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
