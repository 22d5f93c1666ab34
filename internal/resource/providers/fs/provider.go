// Package fs implements a filesystem-backed resource.Provider: it walks a
// root directory, treats every regular file as a resource named by its
// path relative to root, and loads an adjacent "<name>.isrm" file (if
// present) as the resource's metadata sidecar.
package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"github.com/forgelight/forgekit"
	"github.com/forgelight/forgekit/internal/metadata"
	"github.com/forgelight/forgekit/internal/resource"
)

const sidecarExt = ".isrm"

// Provider discovers resources under Root on the local filesystem.
type Provider struct {
	Root   string
	Scheme string // defaults to "file"
}

// New creates a Provider rooted at root, answering to the "file" scheme.
func New(root string) *Provider {
	return &Provider{Root: root, Scheme: "file"}
}

func (p *Provider) scheme() string {
	if p.Scheme != "" {
		return p.Scheme
	}
	return "file"
}

func (p *Provider) Schemes() []string { return []string{p.scheme()} }

// Refresh walks Root and reports every non-sidecar regular file as a
// resource, attaching the parsed metadata.Metadata of its ".isrm" sidecar
// when one exists.
func (p *Provider) Refresh(ctx context.Context) ([]resource.Resource, error) {
	var resources []resource.Resource

	err := godirwalk.Walk(p.Root, &godirwalk.Options{
		Unsorted: false,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || strings.HasSuffix(path, sidecarExt) {
				return nil
			}

			rel, err := filepath.Rel(p.Root, path)
			if err != nil {
				return errors.Wrap(err, "fs: relative path")
			}
			rel = filepath.ToSlash(rel)

			info, err := os.Stat(path)
			if err != nil {
				return errors.Wrap(err, "fs: stat resource")
			}

			res := resource.Resource{
				URI:  resource.URI{Scheme: p.scheme(), Host: filepath.ToSlash(p.Root), Path: "/" + rel},
				Name: rel,
				Size: info.Size(),
			}

			if md, err := loadSidecar(path + sidecarExt); err == nil {
				res.Metadata = md
			}

			resources = append(resources, res)
			return nil
		},
	})
	if err != nil {
		return nil, forgekit.WrapError("fs.Provider.Refresh", err)
	}
	return resources, nil
}

func loadSidecar(path string) (*metadata.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return metadata.Decode(f)
}

func (p *Provider) resolvePath(uri resource.URI) string {
	return filepath.Join(p.Root, filepath.FromSlash(strings.TrimPrefix(uri.Path, "/")))
}

// Load reads the full contents of the file uri refers to.
func (p *Provider) Load(ctx context.Context, uri resource.URI) ([]byte, error) {
	data, err := os.ReadFile(p.resolvePath(uri))
	if err != nil {
		return nil, forgekit.WrapError("fs.Provider.Load", err)
	}
	return data, nil
}

// Unload is a no-op: the filesystem provider holds no cache of its own
// beyond what the tracker already releases.
func (p *Provider) Unload(ctx context.Context, uri resource.URI) error { return nil }

var _ resource.Provider = (*Provider)(nil)
