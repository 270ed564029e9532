package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdferrors "github.com/a3tai/fivepercent/internal/pdf/errors"
)

// PathValidator keeps every document the service opens inside the
// configured documents directory.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir. The directory does not
// have to exist yet.
func NewPathValidator(dir string) (*PathValidator, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("documents directory cannot be empty")
	}
	return &PathValidator{root: dir}, nil
}

// Root returns the configured documents directory.
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve turns path into an absolute path. Relative paths are taken
// relative to the documents directory. The result is validated.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", invalidPath("path cannot be empty", path)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", invalidPath(fmt.Sprintf("failed to resolve path: %v", err), path)
	}
	if err := v.ValidatePath(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// ValidatePath checks that path lies inside the documents directory. Until
// the directory exists every path is accepted.
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return invalidPath("path cannot be empty", path)
	}
	if _, err := os.Stat(v.root); os.IsNotExist(err) {
		return nil
	}
	within, err := v.IsPathWithinDirectory(path)
	if err != nil {
		return invalidPath(fmt.Sprintf("path validation failed: %v", err), path)
	}
	if !within {
		return invalidPath("path is outside configured directory", path)
	}
	return nil
}

// IsPathWithinDirectory reports whether path, after cleaning and symlink
// resolution, lies inside the documents directory.
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	absRoot, err := filepath.Abs(v.root)
	if err != nil {
		return false, fmt.Errorf("failed to resolve documents directory: %w", err)
	}

	realPath := filepath.Clean(absPath)
	if resolved, err := filepath.EvalSymlinks(realPath); err == nil {
		realPath = resolved
	}
	realRoot := filepath.Clean(absRoot)
	if resolved, err := filepath.EvalSymlinks(realRoot); err == nil {
		realRoot = resolved
	}

	return within(filepath.Clean(absPath), filepath.Clean(absRoot), realRoot) &&
		within(realPath, filepath.Clean(absRoot), realRoot), nil
}

func within(path string, roots ...string) bool {
	for _, root := range roots {
		if path == root {
			return true
		}
		prefix := root
		if !strings.HasSuffix(prefix, string(filepath.Separator)) {
			prefix += string(filepath.Separator)
		}
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// ValidateDirectory checks that dir is inside the documents directory and,
// when it exists, is a directory.
func (v *PathValidator) ValidateDirectory(dir string) error {
	if err := v.ValidatePath(dir); err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return invalidPath(fmt.Sprintf("cannot access directory: %v", err), dir)
	}
	if !info.IsDir() {
		return invalidPath("path is not a directory", dir)
	}
	return nil
}

func invalidPath(msg, path string) error {
	return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidPath, msg).WithFile(path)
}
