package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	pdferrors "github.com/a3tai/fivepercent/internal/pdf/errors"
)

func TestNewPathValidator(t *testing.T) {
	tests := []struct {
		name      string
		dir       string
		wantError bool
	}{
		{name: "valid directory", dir: t.TempDir(), wantError: false},
		{name: "empty directory", dir: "", wantError: true},
		{name: "blank directory", dir: "   ", wantError: true},
		{name: "non-existent directory", dir: "/non/existent/documents", wantError: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator, err := NewPathValidator(tt.dir)
			if tt.wantError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if validator.Root() != tt.dir {
				t.Errorf("Root() = %q, want %q", validator.Root(), tt.dir)
			}
		})
	}
}

func setupDocuments(t *testing.T) (root, report, nested string) {
	t.Helper()
	root = t.TempDir()
	sub := filepath.Join(root, "2024")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}
	report = filepath.Join(root, "kepemilikan.pdf")
	nested = filepath.Join(sub, "kepemilikan-jan.pdf")
	for _, f := range []string{report, nested} {
		if err := os.WriteFile(f, []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}
	return root, report, nested
}

func TestPathValidator_ValidatePath(t *testing.T) {
	root, report, nested := setupDocuments(t)
	validator, err := NewPathValidator(root)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{name: "empty path", path: "", wantError: true},
		{name: "file in root", path: report, wantError: false},
		{name: "file in subdirectory", path: nested, wantError: false},
		{name: "root itself", path: root, wantError: false},
		{name: "file outside directory", path: "/etc/passwd", wantError: true},
		{name: "parent traversal", path: filepath.Join(root, "..", "outside.pdf"), wantError: true},
		{name: "sibling with shared prefix", path: root + "-other/x.pdf", wantError: true},
		{name: "dot segment inside", path: filepath.Join(root, ".", "kepemilikan.pdf"), wantError: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidatePath(tt.path)
			if tt.wantError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if err != nil && !errors.Is(err, pdferrors.ErrInvalidPath) {
				t.Errorf("Expected an invalid path error, got %v", err)
			}
		})
	}
}

func TestPathValidator_MissingRootAcceptsAll(t *testing.T) {
	validator, err := NewPathValidator(filepath.Join(t.TempDir(), "not-yet"))
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	if err := validator.ValidatePath("/etc/passwd"); err != nil {
		t.Errorf("Expected no error before the directory exists, got %v", err)
	}
}

func TestPathValidator_Symlink(t *testing.T) {
	root, _, _ := setupDocuments(t)
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.pdf")
	if err := os.WriteFile(target, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("Failed to create target: %v", err)
	}
	link := filepath.Join(root, "link.pdf")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	validator, err := NewPathValidator(root)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	if err := validator.ValidatePath(link); err == nil {
		t.Error("Expected symlink escaping the directory to be rejected")
	}
}

func TestPathValidator_Resolve(t *testing.T) {
	root, report, _ := setupDocuments(t)
	validator, err := NewPathValidator(root)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	got, err := validator.Resolve("kepemilikan.pdf")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != report {
		t.Errorf("Resolve() = %q, want %q", got, report)
	}

	if _, err := validator.Resolve("../escape.pdf"); err == nil {
		t.Error("Expected relative traversal to be rejected")
	}
	if _, err := validator.Resolve(""); err == nil {
		t.Error("Expected empty path to be rejected")
	}
}

func TestPathValidator_ValidateDirectory(t *testing.T) {
	root, report, _ := setupDocuments(t)
	validator, err := NewPathValidator(root)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	if err := validator.ValidateDirectory(filepath.Join(root, "2024")); err != nil {
		t.Errorf("Unexpected error for subdirectory: %v", err)
	}
	if err := validator.ValidateDirectory(filepath.Join(root, "later")); err != nil {
		t.Errorf("Unexpected error for missing subdirectory: %v", err)
	}
	if err := validator.ValidateDirectory(report); err == nil {
		t.Error("Expected error for a file")
	}
	if err := validator.ValidateDirectory(os.TempDir()); err == nil {
		t.Error("Expected error for a directory outside the root")
	}
}
