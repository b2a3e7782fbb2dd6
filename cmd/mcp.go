package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"guidesearch/internal/search"
	"guidesearch/internal/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing guideline search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		return fmt.Errorf("index not found at %s\nRun 'guidesearch sync' first to build the index", cfg.DBPath)
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer st.Close()

	engine, err := newEngine(st)
	if err != nil {
		return err
	}

	s := mcpserver.NewMCPServer("guidesearch", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(searchGuidelinesTool(), makeSearchHandler(engine))
	s.AddTool(listGuidelinesTool(), makeListHandler(st))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchGuidelinesTool() mcp.Tool {
	return mcp.NewTool("search_guidelines",
		mcp.WithDescription("Semantically search the indexed medical guideline library. Returns the most relevant documents with page references, excerpts, and download links."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Clinical topic, condition, or keyword to search for"),
		),
	)
}

func listGuidelinesTool() mcp.Tool {
	return mcp.NewTool("list_guidelines",
		mcp.WithDescription("List all guideline documents currently in the index."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeSearchHandler(engine *search.Engine) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}

		resp, err := engine.Query(ctx, query)
		if errors.Is(err, search.ErrNoResults) {
			return mcp.NewToolResultText(fmt.Sprintf("No results found for query: %q", query)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if resp.Listing != nil {
			return mcp.NewToolResultText(formatListing(resp.Listing)), nil
		}

		return mcp.NewToolResultText(formatSearchResults(query, resp.Results)), nil
	}
}

func makeListHandler(st store.Store) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := search.Listing(st)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatListing(names)), nil
	}
}

// --- Formatting helpers ---

func formatSearchResults(query string, results []search.ScoredDocument) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d documents)\n\n", query, len(results))

	for i, r := range results {
		name := search.DisplayName(r.Chunk.Source)
		url := search.DocumentURL(cfg.Store.AccountURL, cfg.Store.Container, r.Chunk.Source)
		fmt.Fprintf(&sb, "### Result %d: %s\n\n", i+1, name)
		fmt.Fprintf(&sb, "**Page:** %d  \n**Link:** %s\n\n", r.Chunk.Page+1, url)
		fmt.Fprintf(&sb, "> %s\n\n", excerpt(r.Chunk.Content, 500))
	}

	return sb.String()
}

func formatListing(names []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Indexed guidelines (%d)\n\n", len(names))
	for _, name := range names {
		fmt.Fprintf(&sb, "- %s\n", name)
	}
	return sb.String()
}
