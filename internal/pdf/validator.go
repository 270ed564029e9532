package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	pdferrors "github.com/a3tai/fivepercent/internal/pdf/errors"
)

// Structure is what the structural check learns about a document.
type Structure struct {
	Pages     int
	Encrypted bool
}

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile checks the file and its structure. Validation failures are
// reported in the result, not as an error.
func (v *Validator) ValidateFile(path string) *ValidateFileResult {
	result := &ValidateFileResult{Path: path}

	if _, err := v.statPDF(path); err != nil {
		result.Message = err.Error()
		return result
	}
	data, err := os.ReadFile(path)
	if err != nil {
		result.Message = fmt.Sprintf("cannot read file: %v", err)
		return result
	}
	st, err := v.CheckStructure(data)
	if err != nil {
		result.Message = err.Error()
		return result
	}

	result.Valid = true
	result.Pages = st.Pages
	result.Encrypted = st.Encrypted
	return result
}

// CheckStructure parses the document's cross-reference structure without
// decoding page content.
func (v *Validator) CheckStructure(data []byte) (*Structure, error) {
	if len(data) == 0 {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeUnreadableDocument, "document is empty")
	}
	if int64(len(data)) > v.maxFileSize {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeFileTooLarge,
			fmt.Sprintf("document too large: %d bytes (max: %d bytes)", len(data), v.maxFileSize))
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeUnreadableDocument, err).
			WithContext("structure check failed")
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeUnreadableDocument, err).
			WithContext("no page tree")
	}
	return &Structure{Pages: ctx.PageCount, Encrypted: ctx.Encrypt != nil}, nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidPath, "path is a directory, not a file").WithFile(filePath)
	}
	if !isPDFName(filePath) {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidPath, "file is not a PDF").WithFile(filePath)
	}
	if fileInfo.Size() == 0 {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeUnreadableDocument, "file is empty").WithFile(filePath)
	}
	if fileInfo.Size() > v.maxFileSize {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeFileTooLarge,
			fmt.Sprintf("file too large: %d bytes (max: %d bytes)", fileInfo.Size(), v.maxFileSize)).WithFile(filePath)
	}
	return nil
}

func (v *Validator) statPDF(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidPath, "path cannot be empty")
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidPath, "file does not exist").WithFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if err := v.ValidateFileInfo(path, info); err != nil {
		return nil, err
	}
	return info, nil
}

func isPDFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}
