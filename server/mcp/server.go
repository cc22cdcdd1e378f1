package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kasuganosora/knapsackga/pkg/api"
	"github.com/kasuganosora/knapsackga/pkg/config"
	"github.com/kasuganosora/knapsackga/pkg/solver"
)

// Server is the MCP protocol server
type Server struct {
	svc        *solver.Service
	cfg        config.MCPConfig
	logger     api.Logger
	httpServer *mcpserver.StreamableHTTPServer
}

// NewServer creates a new MCP server
func NewServer(svc *solver.Service, cfg config.MCPConfig, logger api.Logger) *Server {
	if logger == nil {
		logger = api.NewNoOpLogger()
	}
	return &Server{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
	}
}

// MCPServer builds the protocol server with every tool registered.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	deps := &ToolDeps{
		Solver: s.svc,
		Logger: s.logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"knapsackga",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	solveTool := mcp.NewTool("solve_knapsack",
		mcp.WithDescription("Run the genetic algorithm on the loaded 0/1 knapsack catalog and report the best selection found."),
		mcp.WithNumber("population_size", mcp.Description("Individuals per generation (at least 2, default from config)")),
		mcp.WithNumber("max_generations", mcp.Description("Generation budget (at least 1, default from config)")),
		mcp.WithNumber("mutation_rate", mcp.Description("Probability in [0,1] of one bit flip per generation")),
		mcp.WithNumber("seed", mcp.Description("Random seed for a reproducible run")),
		mcp.WithString("degenerate_policy", mcp.Description("What to do when every fitness is zero"), mcp.Enum("uniform", "fail")),
		mcp.WithString("format", mcp.Description("text (default) or json for the full history"), mcp.Enum("text", "json")),
		mcp.WithString("lang", mcp.Description("Summary language, en or zh")),
		mcp.WithBoolean("history", mcp.Description("Include every generation in the text summary")),
	)

	evaluateTool := mcp.NewTool("evaluate_chromosome",
		mcp.WithDescription("Compute value, weight and fitness of a selection given as a bit string, index 0 first"),
		mcp.WithString("chromosome", mcp.Description("Bit string such as 01111"), mcp.Required()),
	)

	listItemsTool := mcp.NewTool("list_items",
		mcp.WithDescription("List the catalog items and the knapsack capacity"),
	)

	statsTool := mcp.NewTool("solver_stats",
		mcp.WithDescription("Report how many runs this server has served, their success rate and the best fitness seen"),
		mcp.WithString("error_code", mcp.Description("Only count failures with this code, e.g. DEGENERATE_POPULATION")),
	)

	mcpSrv.AddTool(solveTool, deps.HandleSolve)
	mcpSrv.AddTool(evaluateTool, deps.HandleEvaluate)
	mcpSrv.AddTool(listItemsTool, deps.HandleListItems)
	mcpSrv.AddTool(statsTool, deps.HandleStats)

	return mcpSrv
}

// Start starts the MCP server (blocking) on the configured transport.
func (s *Server) Start() error {
	mcpSrv := s.MCPServer()

	if s.cfg.Transport == "stdio" {
		s.logger.Info("[MCP] 启动 MCP 服务器: stdio")
		return mcpserver.ServeStdio(mcpSrv)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath("/mcp"),
	)

	s.logger.Info("[MCP] 启动 MCP 服务器: %s", addr)
	return s.httpServer.Start(addr)
}

// Shutdown stops the HTTP transport; stdio ends with its input.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
