package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/fivepercent/internal/config"
	"github.com/a3tai/fivepercent/internal/descriptions"
	"github.com/a3tai/fivepercent/internal/holdings"
	"github.com/a3tai/fivepercent/internal/pdf"
	pdferrors "github.com/a3tai/fivepercent/internal/pdf/errors"
)

// Tool names
const (
	ToolExtract  = "fivepercent_extract"
	ToolLatest   = "fivepercent_latest"
	ToolValidate = "fivepercent_validate"
	ToolSearch   = "fivepercent_search"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	log        *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger *slog.Logger) (*Server, error) {
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		log:        logger,
	}
	s.registerTools()
	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		ToolExtract,
		mcp.WithDescription(descriptions.ExtractDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the disclosure PDF"),
		),
		mcp.WithBoolean("only_changes",
			mcp.Description("Only report owners whose holding changed (default true)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: text or json"),
			mcp.Enum(config.FormatText, config.FormatJSON),
		),
	), s.handleExtract)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolLatest,
		mcp.WithDescription(descriptions.LatestDescription),
		mcp.WithString("directory",
			mcp.Description("Directory to scan (uses default if empty)"),
		),
	), s.handleLatest)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolValidate,
		mcp.WithDescription(descriptions.ValidateDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	), s.handleValidate)

	s.mcpServer.AddTool(mcp.NewTool(
		ToolSearch,
		mcp.WithDescription(descriptions.SearchDescription),
		mcp.WithString("query",
			mcp.Description("Optional words matched against file names"),
		),
	), s.handleSearch)
}

// Handler functions
func (s *Server) handleExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	onlyChanges := true
	if v, ok := args["only_changes"].(bool); ok {
		onlyChanges = v
	}
	format := config.FormatText
	if v, ok := args["format"].(string); ok && v != "" {
		format = strings.ToLower(v)
	}
	if format != config.FormatText && format != config.FormatJSON {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q (use text or json)", format)), nil
	}

	return s.extract(ctx, pdf.ExtractRequest{Path: path, OnlyChanges: onlyChanges}, format), nil
}

func (s *Server) handleLatest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := ""
	if v, ok := request.GetArguments()["directory"].(string); ok {
		dir = v
	}
	path, err := s.pdfService.LatestPDF(dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.extract(ctx, pdf.ExtractRequest{Path: path, OnlyChanges: true}, config.FormatText), nil
}

func (s *Server) handleValidate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ValidateFile(pdf.ValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var text string
	if result.Valid {
		text = fmt.Sprintf("PDF file %s is valid and readable\nPages: %d\nEncrypted: %t", result.Path, result.Pages, result.Encrypted)
	} else {
		text = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleSearch(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := ""
	if v, ok := request.GetArguments()["query"].(string); ok {
		query = v
	}

	result, err := s.pdfService.SearchDirectory(pdf.SearchDirectoryRequest{Query: query})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if result.TotalCount == 0 {
		text := fmt.Sprintf("No PDF files found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			text += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
		return mcp.NewToolResultText(text), nil
	}
	return mcp.NewToolResultText(formatSearchResult(result)), nil
}

func (s *Server) extract(ctx context.Context, req pdf.ExtractRequest, format string) *mcp.CallToolResult {
	result, err := s.pdfService.ExtractFile(ctx, req)
	if err != nil {
		s.log.Warn("extract failed", "path", req.Path, "error", err)
		return mcp.NewToolResultError(pdferrors.UserMessage(err))
	}
	text, err := formatExtractResult(result, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(text)
}

// Formatting methods
func formatExtractResult(result *pdf.ExtractResult, format string) (string, error) {
	var b strings.Builder
	if format == config.FormatJSON {
		if err := holdings.WriteJSON(&b, result.Groups); err != nil {
			return "", err
		}
		return b.String(), nil
	}

	fmt.Fprintf(&b, "File: %s\n", result.Path)
	fmt.Fprintf(&b, "Pages: %d, rows: %d, owners: %d\n\n", result.Pages, len(result.Rows), len(result.Groups))
	if len(result.Groups) == 0 {
		b.WriteString("No holdings changed in this report.\n")
		return b.String(), nil
	}
	if err := holdings.WriteReport(&b, result.Groups); err != nil {
		return "", err
	}
	return b.String(), nil
}

func formatSearchResult(result *pdf.SearchDirectoryResult) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}
	return text
}

// Run serves MCP over the process's stdin and stdout until ctx is done or
// the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.log.Debug("starting MCP server", "transport", "stdio", "dir", s.pdfService.Directory())

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.log.Handler(), slog.LevelError))
	if err := stdio.Listen(ctx, in, out); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
