// Package mcp exposes triage sessions as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/aretw0/triage/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CatalogURI is the resource holding the question catalog.
const CatalogURI = "triage://catalog"

// ToolResponse is the structured result of every session tool.
type ToolResponse struct {
	SessionID string           `json:"session_id" jsonschema_description:"The triage session identifier"`
	State     *domain.State    `json:"state,omitempty" jsonschema_description:"The session state after the call"`
	Posted    []domain.Message `json:"posted" jsonschema_description:"Messages posted to the patient by this call"`
	Ignored   bool             `json:"ignored" jsonschema_description:"True when the question was already answered and the call was a no-op"`
	Completed bool             `json:"completed" jsonschema_description:"True when this call finished the questionnaire"`
}

// Server wraps a session manager and exposes it as an MCP Server.
type Server struct {
	manager   *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(m *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		manager:   m,
		mcpServer: server.NewMCPServer("triage-mcp", strings.TrimSpace(triage.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_triage",
		mcp.WithDescription("Start a pain triage session, or resume it when session_id already exists. Returns the first pending prompt."),
		mcp.WithString("session_id", mcp.Description("Session to start or resume (optional, generated when empty)")),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("select_choice",
		mcp.WithDescription("Answer the current question with one choice id, or several comma separated ids for multi-select questions."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("question_id", mcp.Required(), mcp.Description("Question being answered")),
		mcp.WithString("choice_ids", mcp.Required(), mcp.Description("Choice id(s), comma separated")),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleSelect))

	s.mcpServer.AddTool(mcp.NewTool("submit_text",
		mcp.WithDescription("Submit the free-text description requested after choosing \"Other\"."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("question_id", mcp.Required(), mcp.Description("Question being described")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The patient's own words")),
		mcp.WithOutputSchema[ToolResponse](),
	), mcp.NewStructuredToolHandler(s.handleText))

	s.mcpServer.AddTool(mcp.NewTool("get_answers",
		mcp.WithDescription("Get the flat answer snapshot of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := request.GetArguments()["session_id"].(string)
		answers, err := s.manager.Answers(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get answers failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(answers)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ToolResponse, error) {
	id, _ := args["session_id"].(string)
	clean, err := runner.SanitizeInput(strings.TrimSpace(id))
	if err != nil {
		return ToolResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	res, err := s.manager.Start(ctx, clean)
	if err != nil {
		return ToolResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return toResponse(res), nil
}

func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ToolResponse, error) {
	id, _ := args["session_id"].(string)
	qid, _ := args["question_id"].(string)
	raw, _ := args["choice_ids"].(string)

	ids, err := runner.SanitizeChoiceIDs(strings.Split(raw, ","))
	if err != nil {
		s.logger.Warn("MCP select_choice: input rejected", "err", err, "size", len(raw))
		return ToolResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	res, err := s.manager.Select(ctx, id, domain.QuestionID(qid), ids...)
	return s.finish(res, err, "select_choice")
}

func (s *Server) handleText(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ToolResponse, error) {
	id, _ := args["session_id"].(string)
	qid, _ := args["question_id"].(string)
	text, _ := args["text"].(string)

	clean, err := runner.SanitizeInput(text)
	if err != nil {
		s.logger.Warn("MCP submit_text: input rejected", "err", err, "size", len(text))
		return ToolResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	res, err := s.manager.SubmitText(ctx, id, domain.QuestionID(qid), clean)
	return s.finish(res, err, "submit_text")
}

func (s *Server) finish(res *session.Result, err error, tool string) (ToolResponse, error) {
	if err != nil {
		if domain.IsValidation(err) || errors.Is(err, domain.ErrUnexpectedEvent) {
			s.logger.Debug("MCP tool rejected event", "tool", tool, "err", err)
		} else {
			s.logger.Error("MCP tool failed", "tool", tool, "err", err)
		}
		return ToolResponse{}, fmt.Errorf("%s failed: %w", tool, err)
	}
	return toResponse(res), nil
}

func toResponse(res *session.Result) ToolResponse {
	posted := res.Posted
	if posted == nil {
		posted = []domain.Message{}
	}
	return ToolResponse{
		SessionID: res.SessionID,
		State:     res.State,
		Posted:    posted,
		Ignored:   res.Ignored,
		Completed: res.Completed,
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(CatalogURI, "Pain Triage Question Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.manager.Engine().Catalog().Questions())
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      CatalogURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
