// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tart-proj/codescholar/application/service"
	"github.com/tart-proj/codescholar/domain/idiom"
	"github.com/tart-proj/codescholar/domain/repository"
)

// Searcher runs idiom searches for MCP tools.
type Searcher interface {
	Run(ctx context.Context, seed []string, dataset string) (service.Result, error)
}

// IdiomLookup retrieves stored idioms for MCP tools.
type IdiomLookup interface {
	Get(ctx context.Context, id uuid.UUID) (idiom.Idiom, error)
	Find(ctx context.Context, options ...repository.Option) ([]idiom.Idiom, error)
}

// Server wraps the MCP server with codescholar-specific tools.
type Server struct {
	mcpServer *server.MCPServer
	search    Searcher
	idioms    IdiomLookup
	logger    *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(search Searcher, idioms IdiomLookup, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		search: search,
		idioms: idioms,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"codescholar",
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

// registerTools registers all codescholar tools with the MCP server.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	searchTool := mcp.NewTool("search_idioms",
		mcp.WithDescription("Mine reusable API usage idioms around a seed API set"),
		mcp.WithString("seed",
			mcp.Required(),
			mcp.Description("Comma-separated seed API names, e.g. \"np.mean,np.std\""),
		),
		mcp.WithString("dataset",
			mcp.Description("Restrict the search to one corpus dataset"),
		),
	)

	mcpServer.AddTool(searchTool, s.handleSearchIdioms)

	listTool := mcp.NewTool("list_idioms",
		mcp.WithDescription("List idioms mined by previous runs, ranked best first"),
		mcp.WithString("dataset",
			mcp.Description("Filter by corpus dataset"),
		),
		mcp.WithNumber("min_support",
			mcp.Description("Only return idioms with at least this support"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of idioms to return (default: 10)"),
		),
	)

	mcpServer.AddTool(listTool, s.handleListIdioms)

	getTool := mcp.NewTool("get_idiom",
		mcp.WithDescription("Get a mined idiom by its ID, including its source rendering"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The idiom UUID"),
		),
	)

	mcpServer.AddTool(getTool, s.handleGetIdiom)
}

// idiomResult is the wire form of one idiom in tool output.
type idiomResult struct {
	ID      string   `json:"id"`
	Rank    int      `json:"rank"`
	Size    int      `json:"size"`
	Support int      `json:"support"`
	APIs    []string `json:"apis"`
	Source  string   `json:"source,omitempty"`
}

func toIdiomResult(i idiom.Idiom) idiomResult {
	return idiomResult{
		ID:      i.ID().String(),
		Rank:    i.Rank(),
		Size:    i.Size(),
		Support: i.Support(),
		APIs:    i.APIs(),
		Source:  i.Source(),
	}
}

// handleSearchIdioms handles the search_idioms tool invocation.
func (s *Server) handleSearchIdioms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seedStr, err := request.RequireString("seed")
	if err != nil {
		return mcp.NewToolResultError("seed is required"), nil
	}

	var seed []string
	for _, api := range strings.Split(seedStr, ",") {
		if api = strings.TrimSpace(api); api != "" {
			seed = append(seed, api)
		}
	}
	if len(seed) == 0 {
		return mcp.NewToolResultError("seed is required"), nil
	}

	dataset := request.GetString("dataset", "")

	result, err := s.search.Run(ctx, seed, dataset)
	if err != nil {
		s.logger.Error("idiom search failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	idioms := result.Idioms()
	results := make([]idiomResult, len(idioms))
	for i, idm := range idioms {
		results[i] = toIdiomResult(idm)
	}

	jsonBytes, err := json.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// handleListIdioms handles the list_idioms tool invocation.
func (s *Server) handleListIdioms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.idioms == nil {
		return mcp.NewToolResultError("idiom lookup not configured"), nil
	}

	options := []repository.Option{repository.WithOrderAsc("rank")}
	if dataset := request.GetString("dataset", ""); dataset != "" {
		options = append(options, repository.WithDataset(dataset))
	}
	if minSupport := request.GetInt("min_support", 0); minSupport > 0 {
		options = append(options, repository.WithMinSupport(minSupport))
	}
	limit := request.GetInt("limit", 10)
	options = append(options, repository.WithLimit(limit))

	idioms, err := s.idioms.Find(ctx, options...)
	if err != nil {
		s.logger.Error("failed to list idioms", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to list idioms: %v", err)), nil
	}

	results := make([]idiomResult, len(idioms))
	for i, idm := range idioms {
		results[i] = toIdiomResult(idm)
	}

	jsonBytes, err := json.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// handleGetIdiom handles the get_idiom tool invocation.
func (s *Server) handleGetIdiom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	if s.idioms == nil {
		return mcp.NewToolResultError("idiom lookup not configured"), nil
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid id: %s", idStr)), nil
	}

	idm, err := s.idioms.Get(ctx, id)
	if err != nil {
		s.logger.Error("failed to get idiom", slog.String("id", idStr), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to get idiom: %v", err)), nil
	}

	jsonBytes, err := json.Marshal(toIdiomResult(idm))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
