// ABOUTME: MCP prompts for filter curation workflows.
// ABOUTME: Provides pre-configured prompts for AI agent interactions.

package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerPrompts() {
	s.server.AddPrompt(&mcp.Prompt{
		Name:        "suggest-filters",
		Description: "Suggest keyword filters that group the projects on a saved page",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "path",
				Description: "Path to a saved HTML page listing projects",
				Required:    false,
			},
		},
	}, s.getSuggestFiltersPrompt)
}

func (s *Server) getSuggestFiltersPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	existing := s.ctl.SortedFilters()
	have := "none yet"
	if len(existing) > 0 {
		have = strings.Join(existing, ", ")
	}

	source := "Ask me to paste the list of project titles."
	if path := req.Params.Arguments["path"]; path != "" {
		source = fmt.Sprintf(`Use the filter_page tool with path %q and an empty keyword to see every project title.`, path)
	}

	template := fmt.Sprintf(`Help me organize my projects with keyword filters.

1. %s
2. Group the titles by recurring words or themes
3. Suggest short keywords; a filter matches any title that contains it, ignoring case
4. Skip keywords I already have: %s
5. For each suggestion, list the projects it would keep visible

Use the add_filter tool for the suggestions I accept.`, source, have)

	return &mcp.GetPromptResult{
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: template,
				},
			},
		},
	}, nil
}
