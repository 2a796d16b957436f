// Package loader reads local files into upload payloads.
// Clean Architecture: Adapter implementing ports.FileLoader.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/0xcro3dile/netbot-go/internal/domain/entities"
	"github.com/0xcro3dile/netbot-go/internal/domain/ports"
)

// DefaultExtensions are the formats the backend can ingest.
var DefaultExtensions = []string{".pdf", ".docx", ".txt", ".csv"}

// FileLoader reads files whose extension is on an accept list.
type FileLoader struct {
	extensions []string
}

// NewFileLoader creates a loader. A nil or empty list means DefaultExtensions.
func NewFileLoader(extensions []string) *FileLoader {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return &FileLoader{extensions: normalized}
}

// Load reads the file at path.
// Unsupported extensions and directories are rejected; empty files return ports.ErrEmptyFile.
func (l *FileLoader) Load(ctx context.Context, path string) (*entities.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !l.Accepts(path) {
		return nil, fmt.Errorf("unsupported file type %q (accepted: %s)", filepath.Ext(path), strings.Join(l.extensions, ", "))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, ports.ErrEmptyFile
	}

	return &entities.File{Name: filepath.Base(path), Data: data}, nil
}

// Accepts reports whether path has a supported extension.
func (l *FileLoader) Accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range l.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SupportedExtensions returns the accept list.
func (l *FileLoader) SupportedExtensions() []string {
	return append([]string(nil), l.extensions...)
}
