// Package files implements a resource.Provider over an explicit list of
// files, as opposed to fs.Provider's whole-directory walk — used for the
// packager CLI's positional input file paths, which name files rather than
// directories.
package files

import (
	"context"
	"os"
	"path/filepath"

	"github.com/forgelight/forgekit"
	"github.com/forgelight/forgekit/internal/resource"
)

// Provider answers for exactly the files in Paths, named by their base
// filename.
type Provider struct {
	Paths  []string
	Scheme string
}

// New creates a Provider over the given explicit file paths.
func New(paths []string) *Provider {
	return &Provider{Paths: paths, Scheme: "file"}
}

func (p *Provider) scheme() string {
	if p.Scheme != "" {
		return p.Scheme
	}
	return "file"
}

func (p *Provider) Schemes() []string { return []string{p.scheme()} }

func (p *Provider) Refresh(ctx context.Context) ([]resource.Resource, error) {
	resources := make([]resource.Resource, 0, len(p.Paths))
	for _, path := range p.Paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, forgekit.WrapError("files.Provider.Refresh", err)
		}
		name := filepath.Base(path)
		resources = append(resources, resource.Resource{
			URI:  resource.URI{Scheme: p.scheme(), Path: "/" + name},
			Name: name,
			Size: info.Size(),
		})
	}
	return resources, nil
}

func (p *Provider) Load(ctx context.Context, uri resource.URI) ([]byte, error) {
	for _, path := range p.Paths {
		if "/"+filepath.Base(path) == uri.Path {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, forgekit.WrapError("files.Provider.Load", err)
			}
			return data, nil
		}
	}
	return nil, forgekit.NewError("files.Provider.Load", forgekit.CodeResourceNotFound, uri.String())
}

func (p *Provider) Unload(ctx context.Context, uri resource.URI) error { return nil }

var _ resource.Provider = (*Provider)(nil)
