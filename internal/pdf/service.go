package pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/a3tai/fivepercent/internal/holdings"
	pdferrors "github.com/a3tai/fivepercent/internal/pdf/errors"
	"github.com/a3tai/fivepercent/internal/pdf/security"
)

// DefaultWorkers bounds concurrent documents in a batch.
const DefaultWorkers = 4

// ServiceConfig configures a Service.
type ServiceConfig struct {
	MaxFileSize int64
	Directory   string
	Anchors     holdings.AnchorTable
	// Timeout bounds one document. Zero means no limit.
	Timeout time.Duration
	Workers int
	Logger  *slog.Logger
	// AllowOutside lets ExtractFile open paths outside Directory. Relative
	// paths then resolve against the working directory.
	AllowOutside bool
}

// Service handles disclosure PDFs by orchestrating the reader, validator and
// extraction core.
type Service struct {
	maxFileSize   int64
	anchors       holdings.AnchorTable
	timeout       time.Duration
	workers       int
	reader        *Reader
	validator     *Validator
	search        *Search
	pathValidator *security.PathValidator
	allowOutside  bool
	log           *slog.Logger
}

// NewService creates a new PDF service with all components
func NewService(cfg ServiceConfig) (*Service, error) {
	pathValidator, err := security.NewPathValidator(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("max file size must be positive")
	}
	if len(cfg.Anchors.Anchors()) == 0 {
		cfg.Anchors = holdings.DefaultAnchorTable()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Service{
		maxFileSize:   cfg.MaxFileSize,
		anchors:       cfg.Anchors,
		timeout:       cfg.Timeout,
		workers:       cfg.Workers,
		reader:        NewReader(cfg.MaxFileSize, logger),
		validator:     NewValidator(cfg.MaxFileSize),
		search:        NewSearch(cfg.MaxFileSize),
		pathValidator: pathValidator,
		allowOutside:  cfg.AllowOutside,
		log:           logger,
	}, nil
}

// ExtractHoldings reads the rows and group hints of one document. Zero rows is
// not an error here; callers decide how to present it.
func (s *Service) ExtractHoldings(ctx context.Context, data []byte) (*holdings.Extraction, error) {
	if _, err := s.validator.CheckStructure(data); err != nil {
		return nil, err
	}

	ex := holdings.NewExtractor(s.anchors, s.log)
	_, err := s.reader.ReadPages(ctx, data, func(_ int, frags []holdings.TextFragment) error {
		ex.AddPage(frags)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ex.Result(), nil
}

// ExtractFile extracts and groups the holdings of one file under the
// documents directory. A document without rows fails with NoRowsExtracted.
func (s *Service) ExtractFile(ctx context.Context, req ExtractRequest) (*ExtractResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	if _, err := s.validator.statPDF(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.ExtractHoldings(ctx, data)
	if err != nil {
		var pe *pdferrors.PDFError
		if errors.As(err, &pe) && pe.FilePath == "" {
			pe.WithFile(path)
		}
		return nil, err
	}
	s.log.Info("extracted", "path", path, "pages", res.Pages, "rows", len(res.Rows), "took", time.Since(start))

	if len(res.Rows) == 0 {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeNoRowsExtracted, pdferrors.NoRowsGuidance).WithFile(path)
	}

	return &ExtractResult{
		Path:     path,
		Template: s.anchors.Name(),
		Pages:    res.Pages,
		Rows:     res.Rows,
		Groups:   holdings.GroupAndAggregate(res.Rows, res.GroupHints, req.OnlyChanges),
	}, nil
}

// ExtractFiles runs ExtractFile over reqs with at most Workers documents in
// flight. Items come back in request order; one failure does not stop the
// others.
func (s *Service) ExtractFiles(ctx context.Context, reqs []ExtractRequest) []BatchItem {
	items := make([]BatchItem, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, req := range reqs {
		items[i].Request = req
		g.Go(func() error {
			res, err := s.ExtractFile(gctx, req)
			items[i].Result, items[i].Err = res, err
			return nil
		})
	}
	_ = g.Wait()
	return items
}

// ValidateFile performs validation on a PDF file
func (s *Service) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	return s.validator.ValidateFile(path), nil
}

// SearchDirectory searches for PDF files in a directory
func (s *Service) SearchDirectory(req SearchDirectoryRequest) (*SearchDirectoryResult, error) {
	if req.Directory == "" {
		req.Directory = s.pathValidator.Root()
	}
	if err := s.pathValidator.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.search.SearchDirectory(req)
}

// LatestPDF returns the newest PDF in dir, or in the documents directory when
// dir is empty. dir must be under the documents directory unless AllowOutside
// is set.
func (s *Service) LatestPDF(dir string) (string, error) {
	if dir == "" {
		dir = s.pathValidator.Root()
	}
	if !s.allowOutside {
		if err := s.pathValidator.ValidateDirectory(dir); err != nil {
			return "", fmt.Errorf("security validation failed: %w", err)
		}
	}
	return s.search.LatestPDF(dir)
}

func (s *Service) resolve(path string) (string, error) {
	if s.allowOutside && path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		return abs, nil
	}
	abs, err := s.pathValidator.Resolve(path)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	return abs, nil
}

// Directory returns the documents directory.
func (s *Service) Directory() string {
	return s.pathValidator.Root()
}

// Anchors returns the anchor table in use.
func (s *Service) Anchors() holdings.AnchorTable {
	return s.anchors
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}
