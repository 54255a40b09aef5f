package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ainative/zerochat/internal/storage"
	"github.com/ainative/zerochat/internal/zerodb"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Vector *zerodb.Client
	Params zerodb.SearchParams
	Store  *storage.Store // optional; if nil, the interactions resource is empty
}

// NewMCPServer creates an MCP server exposing the ZeroDB knowledge base:
// semantic search and embed-and-store (the tool the seeding scripts drive),
// plus a recent-interactions resource.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"zerochat",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("zerochat — ZeroDB-backed knowledge base for the AINative chat demo."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("search_knowledge_base",
			mcp.WithDescription("Semantically search the ZeroDB knowledge base and return matching documents with similarity scores."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithString("similarity_metric", mcp.Description("Similarity metric: cosine, euclidean, or dot_product (default cosine)")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 5)")),
		),
		mcpSearch(deps),
	)

	s.AddTool(
		mcp.NewTool("embed_and_store",
			mcp.WithDescription("Embed the given texts with ZeroDB's embeddings API and store them in the knowledge base namespace."),
			mcp.WithArray("texts", mcp.Description("Texts to embed and store"), mcp.Required()),
			mcp.WithString("source", mcp.Description("Optional source label recorded in each vector's metadata")),
		),
		mcpEmbedAndStore(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"zerochat://interactions",
			"Recent Interactions",
			mcp.WithResourceDescription("Last 10 locally recorded chat interactions"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceInteractions(deps),
	)

	return s
}

func mcpSearch(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		metric := req.GetString("similarity_metric", "cosine")

		params := deps.Params
		if limit := req.GetInt("limit", 0); limit > 0 {
			if limit > 50 {
				limit = 50
			}
			params.Limit = limit
		}

		token, err := deps.Vector.Login(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("authentication failed: %v", err)), nil
		}

		results, err := deps.Vector.Search(ctx, token, query, metric, params)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}

		if len(results) == 0 {
			return mcpText("[]"), nil
		}

		type hit struct {
			ID         string  `json:"id,omitempty"`
			Text       string  `json:"text"`
			Similarity float64 `json:"similarity"`
		}
		hits := make([]hit, len(results))
		for i, r := range results {
			hits[i] = hit{ID: r.ID, Text: r.Content(), Similarity: r.Similarity}
		}

		b, err := json.Marshal(hits)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpEmbedAndStore(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		texts := req.GetStringSlice("texts", nil)
		if len(texts) == 0 {
			return mcpError("texts is required and must not be empty"), nil
		}

		source := req.GetString("source", "mcp")
		metadata := make([]map[string]any, len(texts))
		for i := range texts {
			metadata[i] = map[string]any{"source": source}
		}

		token, err := deps.Vector.Login(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("authentication failed: %v", err)), nil
		}

		res, err := deps.Vector.EmbedAndStore(ctx, token, texts, metadata, deps.Params.Namespace, deps.Params.EmbedModel)
		if err != nil {
			return mcpError(fmt.Sprintf("embed-and-store failed: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Stored %d vectors (model %s, %d dimensions)", res.VectorsStored, res.Model, res.Dimensions)), nil
	}
}

func mcpResourceInteractions(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list := []storage.Interaction{}
		if deps.Store != nil {
			var err error
			list, err = deps.Store.ListInteractions(10)
			if err != nil {
				return nil, fmt.Errorf("listing interactions: %w", err)
			}
		}

		b, err := json.Marshal(list)
		if err != nil {
			return nil, fmt.Errorf("marshaling interactions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
