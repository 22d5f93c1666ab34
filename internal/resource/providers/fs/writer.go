package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/forgelight/forgekit"
	"github.com/forgelight/forgekit/internal/resource"
)

// Writer creates and writes resources as plain files under Root, answering
// to the same scheme a Provider rooted at the same directory would use.
type Writer struct {
	Root   string
	Scheme string
}

// NewWriter creates a Writer rooted at root, answering to the "file" scheme.
func NewWriter(root string) *Writer {
	return &Writer{Root: root, Scheme: "file"}
}

func (w *Writer) scheme() string {
	if w.Scheme != "" {
		return w.Scheme
	}
	return "file"
}

func (w *Writer) Schemes() []string { return []string{w.scheme()} }

func (w *Writer) resolvePath(uri resource.URI) string {
	return filepath.Join(w.Root, filepath.FromSlash(strings.TrimPrefix(uri.Path, "/")))
}

// CreateResource ensures the parent directory for uri exists.
func (w *Writer) CreateResource(ctx context.Context, uri resource.URI) error {
	path := w.resolvePath(uri)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return forgekit.WrapError("fs.Writer.CreateResource", err)
	}
	return nil
}

// WriteResource writes data to the file for uri, creating or truncating it.
func (w *Writer) WriteResource(ctx context.Context, uri resource.URI, data []byte) error {
	if err := os.WriteFile(w.resolvePath(uri), data, 0o644); err != nil {
		return forgekit.WrapError("fs.Writer.WriteResource", err)
	}
	return nil
}

var _ resource.Writer = (*Writer)(nil)
