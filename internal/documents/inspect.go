// Package documents inspects, collects and ingests local case study files.
package documents

import (
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gen2brain/go-fitz"
)

const bytesPerMB = 1024 * 1024

// FileInfo describes a local file before upload
type FileInfo struct {
	Name      string
	Path      string
	Ext       string
	SizeBytes int64
	// Pages is zero when unknown or not a PDF
	Pages int
}

// SizeMB returns the size in megabytes
func (f *FileInfo) SizeMB() float64 {
	return float64(f.SizeBytes) / bytesPerMB
}

// Summary renders "name (1.2MB, 14 pages)"
func (f *FileInfo) Summary() string {
	if f.Pages > 0 {
		return fmt.Sprintf("%s (%.1fMB, %d pages)", f.Name, f.SizeMB(), f.Pages)
	}
	return fmt.Sprintf("%s (%.1fMB)", f.Name, f.SizeMB())
}

// pdfPages is a package-level variable to allow mocking in tests.
var pdfPages = func(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

// Inspect stats a file. PDF page counts are best effort.
func Inspect(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !stat.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	info := &FileInfo{
		Name:      stat.Name(),
		Path:      path,
		Ext:       strings.ToLower(filepath.Ext(path)),
		SizeBytes: stat.Size(),
	}
	if info.Ext == ".pdf" {
		if pages, err := pdfPages(path); err == nil {
			info.Pages = pages
		}
	}
	return info, nil
}

// Collect walks dir recursively and returns files accepted by supported in
// lexical order, along with the number of other files found
func Collect(dir string, supported func(name string) bool) ([]string, int, error) {
	stat, err := os.Stat(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("folder does not exist: %s: %w", dir, err)
	}
	if !stat.IsDir() {
		return nil, 0, fmt.Errorf("%s is not a folder", dir)
	}

	var files []string
	skipped := 0
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if supported(d.Name()) {
			files = append(files, path)
		} else {
			skipped++
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Strings(files)
	return files, skipped, nil
}

// computeFileHash computes SHA256 hash of a file
func computeFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
