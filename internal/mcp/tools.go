// ABOUTME: MCP tools for filter list and active filter management.
// ABOUTME: Maps CLI functionality to MCP tool interface.

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/harper/tagfilter/internal/page"
	"github.com/harper/tagfilter/internal/ui"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// list_filters
	s.server.AddTool(&mcp.Tool{
		Name:        "list_filters",
		Description: "List saved keyword filters, the active filter and settings",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleListFilters)

	// add_filter
	s.server.AddTool(&mcp.Tool{
		Name:        "add_filter",
		Description: "Save a new keyword filter",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "description": "Keyword to filter project titles by"}
			},
			"required": ["name"]
		}`),
	}, s.handleAddFilter)

	// remove_filter
	s.server.AddTool(&mcp.Tool{
		Name:        "remove_filter",
		Description: "Delete a saved filter; clears it if it was active",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "description": "Filter to delete"}
			},
			"required": ["name"]
		}`),
	}, s.handleRemoveFilter)

	// set_active_filter
	s.server.AddTool(&mcp.Tool{
		Name:        "set_active_filter",
		Description: "Make a filter active and apply it to the open page",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "description": "Filter to activate"}
			},
			"required": ["name"]
		}`),
	}, s.handleSetActiveFilter)

	// clear_active_filter
	s.server.AddTool(&mcp.Tool{
		Name:        "clear_active_filter",
		Description: "Clear the active filter and show every project",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleClearActiveFilter)

	// set_hide_featured
	s.server.AddTool(&mcp.Tool{
		Name:        "set_hide_featured",
		Description: "Hide or show featured projects",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"hide": {"type": "boolean", "description": "true hides featured projects"}
			},
			"required": ["hide"]
		}`),
	}, s.handleSetHideFeatured)

	// filter_page
	s.server.AddTool(&mcp.Tool{
		Name:        "filter_page",
		Description: "Apply a filter to a saved HTML page and report which projects remain visible",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {"type": "string", "description": "Path to the saved HTML page"},
				"keyword": {"type": "string", "description": "Keyword to apply (default: the active filter)"}
			},
			"required": ["path"]
		}`),
	}, s.handleFilterPage)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
		IsError: true,
	}
}

type nameParams struct {
	Name string `json:"name"`
}

func (s *Server) stateJSON() string {
	st := s.ctl.State()
	st.Filters = s.ctl.SortedFilters()
	data, _ := json.MarshalIndent(st, "", "  ")
	return string(data)
}

// Tool handlers.
func (s *Server) handleListFilters(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.ctl.Load(ctx)
	return textResult(s.stateJSON()), nil
}

func (s *Server) handleAddFilter(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params nameParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, err
	}

	s.ctl.Load(ctx)
	if err := s.ctl.Add(ctx, params.Name); err != nil {
		return errorResult("failed to add filter: %v", err), nil
	}
	return textResult(fmt.Sprintf("Added filter %q", params.Name)), nil
}

func (s *Server) handleRemoveFilter(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params nameParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, err
	}

	st := s.ctl.Load(ctx)
	wasActive := params.Name == st.ActiveFilter
	s.ctl.Remove(ctx, params.Name)

	msg := fmt.Sprintf("Removed filter %q", params.Name)
	if wasActive {
		msg += " and cleared the active filter"
	}
	return textResult(msg), nil
}

func (s *Server) handleSetActiveFilter(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params nameParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return errorResult("name is required"), nil
	}

	s.ctl.Load(ctx)
	s.ctl.Toggle(ctx, params.Name, true)
	return textResult(fmt.Sprintf("Active filter is now %q", params.Name)), nil
}

func (s *Server) handleClearActiveFilter(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := s.ctl.Load(ctx)
	s.ctl.Toggle(ctx, st.ActiveFilter, false)
	return textResult("Cleared the active filter"), nil
}

func (s *Server) handleSetHideFeatured(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Hide bool `json:"hide"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, err
	}

	s.ctl.SetHideFeatured(ctx, params.Hide)
	if params.Hide {
		return textResult("Featured projects are hidden"), nil
	}
	return textResult("Featured projects are shown"), nil
}

func (s *Server) handleFilterPage(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Path    string  `json:"path"`
		Keyword *string `json:"keyword"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, err
	}

	f, err := os.Open(params.Path)
	if err != nil {
		return errorResult("failed to open page: %v", err), nil
	}
	defer func() { _ = f.Close() }()

	doc, err := page.Parse(f)
	if err != nil {
		return errorResult("failed to parse page: %v", err), nil
	}

	st := s.ctl.Load(ctx)
	keyword := st.ActiveFilter
	if params.Keyword != nil {
		keyword = *params.Keyword
	}

	res := doc.Filter(keyword)
	if st.HideFeatured {
		doc.HideFeatured()
	}
	return textResult(ui.MatchReport(params.Path, res, doc.Items())), nil
}
