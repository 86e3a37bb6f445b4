// ABOUTME: MCP resources exposing the persisted filter state.
// ABOUTME: Lets AI agents read filters and settings via URI scheme.

package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const StateURI = "tagfilter://state"

func (s *Server) registerResources() {
	s.server.AddResource(
		&mcp.Resource{
			URI:         StateURI,
			Name:        "Filter state",
			Description: "Saved filters, the active filter and the hide-featured setting",
			MIMEType:    "application/json",
		},
		s.handleReadState,
	)
}

func (s *Server) handleReadState(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	s.ctl.Load(ctx)
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      StateURI,
				MIMEType: "application/json",
				Text:     s.stateJSON(),
			},
		},
	}, nil
}
