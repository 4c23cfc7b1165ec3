package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/pdf-form-schema/internal/config"
	"github.com/a3tai/pdf-form-schema/internal/descriptions"
	"github.com/a3tai/pdf-form-schema/internal/document"
	"github.com/a3tai/pdf-form-schema/internal/library"
	"github.com/a3tai/pdf-form-schema/internal/orchestrator"
	"github.com/a3tai/pdf-form-schema/internal/progress"
	"github.com/a3tai/pdf-form-schema/internal/schema"
	"github.com/a3tai/pdf-form-schema/internal/security"
)

// DefaultSearchLimit caps form_search_directory results
const DefaultSearchLimit = 100

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	extractor *orchestrator.Orchestrator
	events    *progress.Log
	paths     *security.PathValidator
	search    *library.Search
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance. events must be the progress
// log the orchestrator notifies, so form_progress sees its sessions.
func NewServer(cfg *config.Config, extractor *orchestrator.Orchestrator, events *progress.Log, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if extractor == nil {
		return nil, errors.New("orchestrator cannot be nil")
	}
	if events == nil {
		return nil, errors.New("progress log cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := security.NewPathValidator(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("invalid document directory: %w", err)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		extractor: extractor,
		events:    events,
		paths:     paths,
		search:    library.NewSearch(paths, cfg.MaxFileSize),
		logger:    logger,
		mcpServer: mcpServer,
	}
	s.registerTools()
	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolExtractFile,
		mcp.WithDescription(descriptions.ExtractFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the document, absolute or relative to the configured directory"),
		),
		mcp.WithString("model",
			mcp.Description("Model to use: 'ft:...' for a fine-tuned model, 'basic' to skip AI, empty for the default"),
		),
		mcp.WithString("instructions",
			mcp.Description("Extra instructions appended to the AI prompt"),
		),
		mcp.WithString("session_id",
			mcp.Description("Session id for form_progress; generated when empty"),
		),
	), s.handleExtractFile)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolExtractBatch,
		mcp.WithDescription(descriptions.ExtractBatchDescription),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("Document paths"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("model",
			mcp.Description("Model used for every document"),
		),
	), s.handleExtractBatch)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolValidateSchema,
		mcp.WithDescription(descriptions.ValidateSchemaDescription),
		mcp.WithString("schema",
			mcp.Description("Schema JSON text"),
		),
		mcp.WithString("path",
			mcp.Description("Path to a schema JSON file, used when schema is empty"),
		),
	), s.handleValidateSchema)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolSearchDirectory,
		mcp.WithDescription(descriptions.SearchDirectoryDescription),
		mcp.WithString("directory",
			mcp.Description("Directory to search (uses the configured directory if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of files returned"),
		),
	), s.handleSearchDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolProgress,
		mcp.WithDescription(descriptions.ProgressDescription),
		mcp.WithString("session_id",
			mcp.Description("Session to read; empty lists the open sessions"),
		),
		mcp.WithBoolean("cleanup",
			mcp.Description("Drop the session history after reading it"),
		),
	), s.handleProgress)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.ServerInfoDescription),
	), s.handleServerInfo)
}

// extractResponse is the JSON body returned by the extraction tools
type extractResponse struct {
	SessionID  string                 `json:"session_id"`
	Document   string                 `json:"document"`
	Tier       string                 `json:"tier"`
	Validation schema.Result          `json:"validation"`
	Attempts   []orchestrator.Attempt `json:"attempts"`
	Warnings   []document.UnitError   `json:"warnings,omitempty"`
	Schema     *schema.Form           `json:"schema"`
}

func newExtractResponse(doc string, res *orchestrator.Result) extractResponse {
	out := extractResponse{
		SessionID:  res.SessionID,
		Document:   doc,
		Tier:       res.Tier,
		Validation: res.Validation,
		Attempts:   res.Attempts,
		Schema:     res.Form,
	}
	if res.Extraction != nil {
		out.Warnings = res.Extraction.Errors
	}
	return out
}

// Handler functions
func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	doc, err := s.open(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.extractor.Extract(ctx, orchestrator.Request{
		Document:     doc,
		Model:        stringArg(args, "model"),
		Instructions: stringArg(args, "instructions"),
		SessionID:    stringArg(args, "session_id"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(newExtractResponse(doc.Name, res))
}

func (s *Server) handleExtractBatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	raw, ok := args["paths"].([]any)
	if !ok || len(raw) == 0 {
		return mcp.NewToolResultError("paths must be a non-empty array of strings"), nil
	}
	model := stringArg(args, "model")

	type item struct {
		Path  string           `json:"path"`
		Error string           `json:"error,omitempty"`
		Form  *extractResponse `json:"result,omitempty"`
	}
	items := make([]item, len(raw))
	var (
		reqs  []orchestrator.Request
		index []int
	)
	for i, r := range raw {
		p, _ := r.(string)
		items[i].Path = p
		doc, err := s.open(p)
		if err != nil {
			items[i].Error = err.Error()
			continue
		}
		reqs = append(reqs, orchestrator.Request{Document: doc, Model: model})
		index = append(index, i)
	}

	outcomes, err := s.extractor.ExtractAll(ctx, reqs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for j, o := range outcomes {
		i := index[j]
		if o.Err != nil {
			items[i].Error = o.Err.Error()
			continue
		}
		resp := newExtractResponse(reqs[j].Document.Name, o.Result)
		items[i].Form = &resp
	}
	return jsonResult(map[string]any{"documents": items})
}

func (s *Server) handleValidateSchema(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	data := []byte(stringArg(args, "schema"))
	if len(strings.TrimSpace(string(data))) == 0 {
		path := stringArg(args, "path")
		if path == "" {
			return mcp.NewToolResultError("either schema or path is required"), nil
		}
		abs, err := s.paths.Resolve(path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if data, err = readLimited(abs, s.config.MaxFileSize); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return jsonResult(schema.ValidateJSON(data))
}

func (s *Server) handleSearchDirectory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	limit := DefaultSearchLimit
	if n, ok := args["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}

	res, err := s.search.Find(stringArg(args, "directory"), stringArg(args, "query"), limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res.Total == 0 {
		text := fmt.Sprintf("No documents found in directory: %s", res.Directory)
		if res.Query != "" {
			text += fmt.Sprintf(" (searched for: %s)", res.Query)
		}
		return mcp.NewToolResultText(text), nil
	}
	return mcp.NewToolResultText(formatSearchResult(res)), nil
}

func (s *Server) handleProgress(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id := stringArg(args, "session_id")
	if id == "" {
		return jsonResult(map[string]any{"sessions": s.events.Sessions()})
	}

	events := s.events.Events(id)
	body := map[string]any{"session_id": id, "events": events}
	if cleanup, _ := args["cleanup"].(bool); cleanup {
		body["cleaned_up"] = s.events.Cleanup(id)
	}
	return jsonResult(body)
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatServerInfo()), nil
}

// open resolves path inside the configured directory and reads it
func (s *Server) open(path string) (*document.Document, error) {
	abs, err := s.paths.Resolve(path)
	if err != nil {
		return nil, err
	}
	return document.Open(abs, s.config.MaxFileSize)
}

func readLimited(path string, maxSize int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open schema file: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("cannot read schema file: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("schema file exceeds %d bytes", maxSize)
	}
	return data, nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Formatting methods
func formatSearchResult(res *library.Result) string {
	text := fmt.Sprintf("Found %d document(s) in directory: %s\n", res.Total, res.Directory)
	if res.Query != "" {
		text += fmt.Sprintf("Search query: %s\n", res.Query)
	}
	text += "\nFiles:\n"
	for i, file := range res.Files {
		text += fmt.Sprintf("%d. %s (%s)\n", i+1, file.Name, file.Kind)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
	}
	if res.Truncated {
		text += "\n(more files available, raise limit to see them)\n"
	}
	return text
}

func (s *Server) formatServerInfo() string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("📁 Document Directory: %s\n", s.paths.Root())
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	if s.extractor.AIEnabled() {
		text += fmt.Sprintf("🤖 AI Extraction: enabled (default model %s)\n", s.config.AI.Model)
	} else {
		text += "🤖 AI Extraction: disabled (heuristic tiers only)\n"
	}

	kinds := make([]string, 0, len(document.Kinds()))
	for _, k := range document.Kinds() {
		kinds = append(kinds, string(k))
	}
	text += fmt.Sprintf("📄 Supported Documents: %s\n", strings.Join(kinds, ", "))
	text += fmt.Sprintf("🧭 Extraction Tiers: %s\n\n", strings.Join([]string{
		orchestrator.TierFineTuned, orchestrator.TierGeneral, orchestrator.TierEnhanced,
		orchestrator.TierBasic, orchestrator.TierStructure, orchestrator.TierDefault,
	}, " → "))

	text += "🛠️  Available Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		desc := descriptions.GetToolDescription(name)
		if i := strings.Index(desc, "\n"); i > 0 {
			desc = desc[:i]
		}
		text += fmt.Sprintf("• %s: %s\n", name, desc)
	}

	text += "\nTypical workflow: form_search_directory → form_extract_file → form_validate_schema; " +
		"poll form_progress with the session id to see which tier produced the schema.\n"
	return text
}

// Run starts the MCP server in the configured mode and returns when ctx is
// cancelled or the transport stops
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx, os.Stdin, os.Stdout)
}

// runStdioMode serves MCP over the given streams
func (s *Server) runStdioMode(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Debug("starting MCP server in stdio mode", "directory", s.paths.Root())
	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over streamable HTTP until ctx is cancelled
func (s *Server) runServerMode(ctx context.Context) error {
	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	addr := s.config.Address()
	s.logger.Info("starting MCP server", "address", addr, "directory", s.paths.Root())

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Start(addr) }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
