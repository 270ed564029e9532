package pdf

import (
	"github.com/a3tai/fivepercent/internal/holdings"
)

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// ExtractRequest asks for the owner groups of one disclosure PDF.
type ExtractRequest struct {
	Path        string `json:"path"`
	OnlyChanges bool   `json:"only_changes"`
}

// ValidateFileRequest represents a request to validate a PDF file
type ValidateFileRequest struct {
	Path string `json:"path"`
}

// SearchDirectoryRequest represents a request to search for PDF files in a directory
type SearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
}

// Response Types

// ExtractResult holds the rows read from one document and their grouping.
type ExtractResult struct {
	Path     string                `json:"path"`
	Template string                `json:"template"`
	Pages    int                   `json:"pages"`
	Rows     []holdings.Row        `json:"rows"`
	Groups   []holdings.OwnerGroup `json:"groups"`
}

// BatchItem is the outcome for one path of a multi-document run.
type BatchItem struct {
	Request ExtractRequest `json:"request"`
	Result  *ExtractResult `json:"result,omitempty"`
	Err     error          `json:"-"`
}

// ValidateFileResult represents the result of a PDF validation operation
type ValidateFileResult struct {
	Valid     bool   `json:"valid"`
	Path      string `json:"path"`
	Pages     int    `json:"pages,omitempty"`
	Encrypted bool   `json:"encrypted,omitempty"`
	Message   string `json:"message,omitempty"`
}

// SearchDirectoryResult lists PDFs, newest first.
type SearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}
