package pdf

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	pdferrors "github.com/a3tai/fivepercent/internal/pdf/errors"
)

// Search discovers disclosure PDFs in the documents directory.
type Search struct {
	validator *Validator
}

// NewSearch creates a new PDF search handler with the specified constraints
func NewSearch(maxFileSize int64) *Search {
	return &Search{validator: NewValidator(maxFileSize)}
}

type found struct {
	info    FileInfo
	modTime time.Time
}

// SearchDirectory lists the PDFs under directory whose names match query,
// newest first. Hidden directories are skipped; unreadable entries are
// ignored.
func (s *Search) SearchDirectory(req SearchDirectoryRequest) (*SearchDirectoryResult, error) {
	if req.Directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	abs, err := filepath.Abs(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidPath, "directory does not exist").WithFile(req.Directory)
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	var hits []found
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != abs {
				return filepath.SkipDir
			}
			return nil
		}
		if !isPDFName(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			return nil
		}
		if !matchesQuery(d.Name(), query) {
			return nil
		}
		hits = append(hits, found{
			info: FileInfo{
				Path:         path,
				Name:         info.Name(),
				Size:         info.Size(),
				ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
			},
			modTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if !hits[i].modTime.Equal(hits[j].modTime) {
			return hits[i].modTime.After(hits[j].modTime)
		}
		return hits[i].info.Path < hits[j].info.Path
	})
	files := make([]FileInfo, len(hits))
	for i, h := range hits {
		files[i] = h.info
	}

	return &SearchDirectoryResult{
		Files:       files,
		TotalCount:  len(files),
		Directory:   abs,
		SearchQuery: req.Query,
	}, nil
}

// LatestPDF returns the most recently modified PDF directly inside dir.
func (s *Search) LatestPDF(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", pdferrors.WrapError(pdferrors.ErrorTypeInvalidPath, err).WithFile(dir)
	}

	var (
		best     string
		bestTime time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !isPDFName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best, bestTime = filepath.Join(dir, e.Name()), info.ModTime()
		}
	}
	if best == "" {
		return "", pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidPath, "no PDF files found").WithFile(dir)
	}
	return best, nil
}

// matchesQuery reports whether every word of query appears in a word of the
// file name. An empty query matches everything.
func matchesQuery(filename, query string) bool {
	if query == "" {
		return true
	}
	name := strings.ToLower(filename)
	if strings.Contains(name, query) {
		return true
	}

	words := splitIntoWords(strings.TrimSuffix(name, ".pdf"))
	for _, q := range splitIntoWords(query) {
		hit := false
		for _, w := range words {
			if strings.Contains(w, q) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func splitIntoWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return strings.ContainsRune(" _-.()[]", r)
	})
}
