package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"faqbot/internal/app"
	"faqbot/internal/domain"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing the FAQ assistant as tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol; progress goes to stderr.
	a, err := openApp(cmd.Context(), stderrProgress())
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	s := mcpserver.NewMCPServer("faqbot", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(askFAQTool(), makeAskHandler(a))
	s.AddTool(searchFAQTool(), makeSearchHandler(a))
	s.AddTool(listSourcesTool(), makeListSourcesHandler(a))
	s.AddTool(indexStatusTool(), makeIndexStatusHandler(a))

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

func askFAQTool() mcp.Tool {
	return mcp.NewTool("ask_faq",
		mcp.WithDescription("Answer an insurance question using only the indexed FAQ and policy documents. Returns the answer followed by the sources it was grounded on."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Natural language question about insurance concepts or policies"),
		),
		mcp.WithNumber("k",
			mcp.Description("Number of chunks to retrieve (default from config)"),
		),
	)
}

func searchFAQTool() mcp.Tool {
	return mcp.NewTool("search_faq",
		mcp.WithDescription("Retrieve the FAQ and document chunks closest to a query, without generating an answer. Results are ordered by distance, closest first."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of chunks to return (default from config)"),
		),
	)
}

func listSourcesTool() mcp.Tool {
	return mcp.NewTool("list_sources",
		mcp.WithDescription("List the documents in the index with their source and chunk count."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("source",
			mcp.Description("Optional substring filter on the source name. Case-insensitive."),
		),
	)
}

func indexStatusTool() mcp.Tool {
	return mcp.NewTool("index_status",
		mcp.WithDescription("Report the embedding model, chunk count, backend and build time of the served index."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeAskHandler(a *app.App) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := req.GetString("question", "")
		if strings.TrimSpace(question) == "" {
			return mcp.NewToolResultError("question is required"), nil
		}
		ans, err := a.Answerer(req.GetInt("k", 0)).Answer(ctx, question)
		if err != nil {
			return mcp.NewToolResultError(toolError("answer", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(ans.Text)
		if len(ans.Sources) > 0 {
			sb.WriteString("\n\n## Sources\n\n")
			for _, s := range ans.Sources {
				fmt.Fprintf(&sb, "- **%s** (%s): %s\n", s.ID, s.Source, oneLine(s.Text))
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeSearchHandler(a *app.App) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if strings.TrimSpace(query) == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		hits, err := a.Retriever().Retrieve(ctx, query, req.GetInt("k", 0))
		if err != nil {
			return mcp.NewToolResultError(toolError("search", err)), nil
		}
		return mcp.NewToolResultText(formatSearchResults(query, hits)), nil
	}
}

func makeListSourcesHandler(a *app.App) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := strings.ToLower(req.GetString("source", ""))
		snap := a.Retriever().Snapshot()
		if snap == nil {
			return mcp.NewToolResultError("index is not loaded"), nil
		}

		type docSummary struct {
			id, source string
			chunks     int
		}
		var docs []*docSummary
		byID := make(map[string]*docSummary)
		for _, c := range snap.Chunks {
			if filter != "" && !strings.Contains(strings.ToLower(c.Source), filter) {
				continue
			}
			d, ok := byID[c.DocID]
			if !ok {
				d = &docSummary{id: c.DocID, source: c.Source}
				byID[c.DocID] = d
				docs = append(docs, d)
			}
			d.chunks++
		}

		var sb strings.Builder
		if filter != "" {
			fmt.Fprintf(&sb, "## Indexed documents (%d, source: %s)\n\n", len(docs), filter)
		} else {
			fmt.Fprintf(&sb, "## Indexed documents (%d)\n\n", len(docs))
		}
		for _, d := range docs {
			fmt.Fprintf(&sb, "- **%s** (%s, %d chunks)\n", d.id, d.source, d.chunks)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeIndexStatusHandler(a *app.App) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap := a.Retriever().Snapshot()
		if snap == nil {
			return mcp.NewToolResultError("index is not loaded"), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"**Model:** %s  \n**Chunks:** %d  \n**Backend:** %s  \n**Built:** %s\n",
			snap.Model, snap.Len(), snap.Index.Backend(), snap.BuiltAt.Format(time.RFC3339))), nil
	}
}

// --- Formatting helpers ---

func formatSearchResults(query string, hits []domain.Hit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d chunks)\n\n", query, len(hits))

	for i, h := range hits {
		fmt.Fprintf(&sb, "### Result %d: `%s`\n\n", i+1, h.Chunk.DocID)
		fmt.Fprintf(&sb, "**Source:** %s  \n**Chunk:** %d  \n**Distance:** %.4f\n\n",
			h.Chunk.Source, h.Chunk.ChunkIdx, h.Distance)
		fmt.Fprintf(&sb, "%s\n\n", h.Chunk.Text)
	}

	return sb.String()
}

func toolError(op string, err error) string {
	if domain.IsDisabled(err) {
		return fmt.Sprintf("%s disabled: %v", op, err)
	}
	return fmt.Sprintf("%s failed: %v", op, err)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
