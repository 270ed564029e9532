package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// PDFError is a document-level failure with the file and page it concerns.
type PDFError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Context    string    `json:"context,omitempty"`
	FilePath   string    `json:"file_path,omitempty"`
	PageNumber int       `json:"page_number,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Err        error     `json:"-"`
}

// ErrorType represents the categories of failure that can cross the
// extraction boundary.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeUnreadableDocument: the bytes are not a parseable PDF, or are
	// encrypted, or the text layer could not be decoded.
	ErrorTypeUnreadableDocument
	// ErrorTypeNoRowsExtracted: the document parsed but yielded zero rows.
	ErrorTypeNoRowsExtracted
	// ErrorTypeMalformedCell is a per-field parse failure. Parsers absorb it
	// and it is only used for diagnostics.
	ErrorTypeMalformedCell
	ErrorTypeInvalidPath
	ErrorTypeFileTooLarge
	ErrorTypeTimeout
)

// Sentinels for errors.Is. They match any PDFError of the same type.
var (
	ErrUnreadableDocument = &PDFError{Type: ErrorTypeUnreadableDocument}
	ErrNoRowsExtracted    = &PDFError{Type: ErrorTypeNoRowsExtracted}
	ErrInvalidPath        = &PDFError{Type: ErrorTypeInvalidPath}
	ErrFileTooLarge       = &PDFError{Type: ErrorTypeFileTooLarge}
	ErrTimeout            = &PDFError{Type: ErrorTypeTimeout}
)

// NoRowsGuidance is shown to users when a document yields nothing.
const NoRowsGuidance = "No rows extracted. If this PDF is scanned or table lines are not detected, convert it to a text-based PDF."

// UnreadableGuidance is shown to users when a document cannot be parsed.
const UnreadableGuidance = "This doesn't look like a 5% ownership PDF, or the file is damaged or password protected."

// Error implements the error interface
func (e *PDFError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type.String(), e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, ": %s", e.Context)
	}
	if e.FilePath != "" {
		fmt.Fprintf(&b, " (file %s", e.FilePath)
		if e.PageNumber > 0 {
			fmt.Fprintf(&b, ", page %d", e.PageNumber)
		}
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *PDFError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same type.
func (e *PDFError) Is(target error) bool {
	t, ok := target.(*PDFError)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Message == ""
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeUnreadableDocument:
		return "UNREADABLE_DOCUMENT"
	case ErrorTypeNoRowsExtracted:
		return "NO_ROWS_EXTRACTED"
	case ErrorTypeMalformedCell:
		return "MALFORMED_CELL"
	case ErrorTypeInvalidPath:
		return "INVALID_PATH"
	case ErrorTypeFileTooLarge:
		return "FILE_TOO_LARGE"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// IsRetryable reports whether the same input could succeed on a second try.
// Document failures are deterministic for a given byte stream.
func (et ErrorType) IsRetryable() bool {
	return et == ErrorTypeTimeout
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:      errorType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WrapError wraps a standard error as a PDFError
func WrapError(errorType ErrorType, err error) *PDFError {
	return &PDFError{
		Type:      errorType,
		Message:   err.Error(),
		Timestamp: time.Now(),
		Err:       err,
	}
}

// WithContext adds context to an existing PDFError
func (e *PDFError) WithContext(context string) *PDFError {
	e.Context = context
	return e
}

// WithFile adds file path information to an existing PDFError
func (e *PDFError) WithFile(filePath string) *PDFError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing PDFError
func (e *PDFError) WithPage(pageNumber int) *PDFError {
	e.PageNumber = pageNumber
	return e
}

// TypeOf returns the type of the first PDFError in err's chain.
func TypeOf(err error) ErrorType {
	var pe *PDFError
	if stderrors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeUnknown
}

var unreadablePhrases = []string{
	"no root object",
	"eof marker",
	"malformed",
	"password",
	"encrypted",
	"missing %pdf",
	"xref",
	"not a pdf",
}

// LooksUnreadable reports whether a parser message describes a structural
// failure of the document rather than a problem with the caller's request.
func LooksUnreadable(msg string) bool {
	lower := strings.ToLower(msg)
	for _, p := range unreadablePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// UserMessage maps err to the text shown to an end user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, ErrNoRowsExtracted):
		return NoRowsGuidance
	case stderrors.Is(err, ErrUnreadableDocument), LooksUnreadable(err.Error()):
		return UnreadableGuidance
	}
	return err.Error()
}
