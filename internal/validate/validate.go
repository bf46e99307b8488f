// Package validate checks user input before anything is sent to the backend.
package validate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/casestudy-ai/cli/config"
	"github.com/casestudy-ai/cli/internal/apierr"
)

// MaxQuestionLength is the longest accepted question, in characters
const MaxQuestionLength = 1000

const bytesPerMB = 1024 * 1024

var (
	ErrEmptyQuestion   = errors.New("empty question")
	ErrQuestionTooLong = errors.New("question too long")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNotRegularFile  = errors.New("not a regular file")
)

// Question trims q and checks it can be dispatched
func Question(q string) (string, error) {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return "", apierr.Validation(ErrEmptyQuestion, "Please enter a question")
	}
	if utf8.RuneCountInString(trimmed) > MaxQuestionLength {
		return "", apierr.Validation(ErrQuestionTooLong,
			fmt.Sprintf("Question is too long (max %d characters)", MaxQuestionLength))
	}
	return trimmed, nil
}

// Files validates uploads against the configured ceiling and allow-list
type Files struct {
	maxBytes   int64
	maxMB      int
	extensions []string
}

// NewFiles creates a file validator
func NewFiles(cfg config.UploadConfig) *Files {
	exts := make([]string, 0, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		exts = append(exts, strings.ToLower(ext))
	}
	return &Files{
		maxBytes:   int64(cfg.MaxFileSizeMB) * bytesPerMB,
		maxMB:      cfg.MaxFileSizeMB,
		extensions: exts,
	}
}

// Extensions returns the allow-list
func (f *Files) Extensions() []string {
	return f.extensions
}

// MaxMB returns the size ceiling in megabytes
func (f *Files) MaxMB() int {
	return f.maxMB
}

// Supported reports whether name has an allowed extension
func (f *Files) Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range f.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Check validates a file by name and size in bytes
func (f *Files) Check(name string, size int64) error {
	if size > f.maxBytes {
		sizeMB := float64(size) / bytesPerMB
		return apierr.Validation(ErrFileTooLarge,
			fmt.Sprintf("File exceeds %dMB limit (%.1fMB)", f.maxMB, sizeMB))
	}
	if !f.Supported(name) {
		return apierr.Validation(ErrUnsupportedType,
			fmt.Sprintf("Unsupported file type. Supported: %s", strings.Join(f.extensions, ", ")))
	}
	return nil
}

// CheckPath stats a local file and validates it
func (f *Files) CheckPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return apierr.Validation(err, fmt.Sprintf("Cannot read %s", filepath.Base(path)))
	}
	if !info.Mode().IsRegular() {
		return apierr.Validation(ErrNotRegularFile, fmt.Sprintf("%s is not a file", filepath.Base(path)))
	}
	return f.Check(info.Name(), info.Size())
}
