package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/fivepercent/internal/config"
	"github.com/a3tai/fivepercent/internal/holdings"
	"github.com/a3tai/fivepercent/internal/mcp"
	"github.com/a3tai/fivepercent/internal/pdf"
	pdferrors "github.com/a3tai/fivepercent/internal/pdf/errors"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitNoInput = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, stderr)
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(stdout)
		return exitOK
	case errors.Is(err, pflag.ErrHelp):
		return exitOK
	case err != nil:
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitFailure
	}
	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg, stderr)
	logger.Debug("starting", "config", cfg.String())

	anchors, err := cfg.LoadAnchorTable()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load anchor table: %v\n", err)
		return exitFailure
	}

	pdfService, err := pdf.NewService(pdf.ServiceConfig{
		MaxFileSize:  cfg.MaxFileSize,
		Directory:    cfg.Directory,
		Anchors:      anchors,
		Timeout:      cfg.Timeout,
		Workers:      cfg.Workers,
		Logger:       logger,
		AllowOutside: cfg.IsPrintMode(),
	})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create PDF service: %v\n", err)
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsStdioMode() {
		return runStdioMode(ctx, cfg, pdfService, logger)
	}
	return runPrintMode(ctx, cfg, pdfService, stdout, stderr)
}

// newLogger writes structured logs to stderr. stdout belongs to the report
// or, in stdio mode, to the MCP protocol, which also silences logs unless
// debug is enabled.
func newLogger(cfg *config.Config, stderr io.Writer) *slog.Logger {
	if cfg.IsStdioMode() && !cfg.IsDebug() {
		return slog.New(slog.DiscardHandler)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	// Info logging per document is noise on a terminal report.
	if cfg.IsPrintMode() && level == slog.LevelInfo {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// runStdioMode serves MCP until the client disconnects or a signal arrives
func runStdioMode(ctx context.Context, cfg *config.Config, pdfService *pdf.Service, logger *slog.Logger) int {
	server, err := mcp.NewServer(cfg, pdfService, logger)
	if err != nil {
		logger.Error("failed to create MCP server", "error", err)
		return exitFailure
	}
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		return exitFailure
	}
	return exitOK
}

// runPrintMode extracts every input and prints one report per document, in
// argument order. The exit code is the worst of the documents'.
func runPrintMode(ctx context.Context, cfg *config.Config, pdfService *pdf.Service, stdout, stderr io.Writer) int {
	paths, code := pickInputs(cfg, pdfService, stderr)
	if len(paths) == 0 {
		return code
	}

	reqs := make([]pdf.ExtractRequest, len(paths))
	for i, p := range paths {
		reqs[i] = pdf.ExtractRequest{Path: p, OnlyChanges: cfg.OnlyChanges}
	}

	for _, item := range pdfService.ExtractFiles(ctx, reqs) {
		if item.Err != nil {
			code = max(code, reportError(stderr, item.Request.Path, item.Err, len(reqs) > 1))
			continue
		}
		if err := writeResult(stdout, cfg.Format, item.Result, len(reqs) > 1); err != nil {
			fmt.Fprintf(stderr, "Failed to write report: %v\n", err)
			return exitFailure
		}
	}
	return code
}

// pickInputs turns positional arguments into files. A directory stands for
// its newest PDF; no arguments means the newest PDF in the documents
// directory.
func pickInputs(cfg *config.Config, pdfService *pdf.Service, stderr io.Writer) ([]string, int) {
	if len(cfg.Paths) == 0 {
		latest, err := pdfService.LatestPDF("")
		if err != nil {
			fmt.Fprintf(stderr, "No PDF found. Provide a file path or place a PDF in %s.\n", cfg.Directory)
			return nil, exitNoInput
		}
		return []string{latest}, exitOK
	}

	code := exitOK
	var out []string
	for _, arg := range cfg.Paths {
		info, err := os.Stat(arg)
		switch {
		case err != nil:
			fmt.Fprintf(stderr, "No PDF found at %s. Provide a file path or place a PDF in %s.\n", arg, cfg.Directory)
			code = exitNoInput
		case info.IsDir():
			latest, err := pdfService.LatestPDF(arg)
			if err != nil {
				fmt.Fprintf(stderr, "No PDF found in %s.\n", arg)
				code = exitNoInput
				continue
			}
			out = append(out, latest)
		default:
			out = append(out, arg)
		}
	}
	return out, code
}

func reportError(stderr io.Writer, path string, err error, named bool) int {
	if named {
		fmt.Fprintf(stderr, "%s: ", path)
	}
	fmt.Fprintln(stderr, pdferrors.UserMessage(err))

	switch pdferrors.TypeOf(err) {
	case pdferrors.ErrorTypeNoRowsExtracted, pdferrors.ErrorTypeInvalidPath:
		return exitNoInput
	}
	return exitFailure
}

func writeResult(w io.Writer, format string, result *pdf.ExtractResult, named bool) error {
	if format == config.FormatJSON {
		return holdings.WriteJSON(w, result.Groups)
	}
	if named {
		if _, err := fmt.Fprintf(w, "== %s ==\n\n", result.Path); err != nil {
			return err
		}
	}
	return holdings.WriteReport(w, result.Groups)
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "fivepercent\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
