// Package mcpadapter exposes the question-answering core over the Model
// Context Protocol so agent runtimes can call it as a tool.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/safety-qa/internal/core/domain"
	"github.com/kirillkom/safety-qa/internal/core/ports"
)

const serverVersion = "1.0.0"

type Server struct {
	asker  ports.QuestionAnswerer
	index  ports.IndexManager
	logger *slog.Logger
	mcp    *server.MCPServer
}

func NewServer(asker ports.QuestionAnswerer, index ports.IndexManager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		asker:  asker,
		index:  index,
		logger: logger,
	}

	s.mcp = server.NewMCPServer(
		"safety-qa",
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.mcp.AddTool(mcp.NewTool("ask",
		mcp.WithDescription("Answer a question from the indexed industrial-safety corpus. "+
			"Returns a gated answer with citations; accepted=false means no passage cleared the confidence threshold."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question to answer."),
		),
		mcp.WithNumber("k",
			mcp.Description("Candidate pool size, defaults to 20."),
		),
		mcp.WithString("mode",
			mcp.Description("Ranking mode, defaults to reranked."),
			mcp.Enum("baseline", "reranked"),
		),
	), s.handleAsk)

	s.mcp.AddTool(mcp.NewTool("index_status",
		mcp.WithDescription("Report the state of the search index: empty, building, or ready, with chunk count and version."),
	), s.handleIndexStatus)

	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	k := req.GetInt("k", 0)
	mode := req.GetString("mode", "")

	answer, err := s.asker.Ask(ctx, query, k, domain.AnswerMode(mode))
	if err != nil {
		s.logger.Error("ask tool failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}

	payload, err := json.Marshal(answer)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode answer: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleIndexStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(s.index.Status())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode status: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
