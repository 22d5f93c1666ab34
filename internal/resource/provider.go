package resource

import "context"

// Provider discovers resources under one or more URI schemes and loads
// their raw bytes on demand. A filesystem-walking provider (fs) and an
// explicit-file-list provider (files) are the two concrete implementations;
// both live under resource/providers.
type Provider interface {
	// Schemes returns the URI schemes this provider answers to (e.g.
	// "file", "pack").
	Schemes() []string

	// Refresh (re)scans the provider's backing store and returns every
	// resource it currently knows about. Called by Tracker.Sync.
	Refresh(ctx context.Context) ([]Resource, error)

	// Load fetches the raw bytes for uri. Only ever called for a URI this
	// provider returned from Refresh.
	Load(ctx context.Context, uri URI) ([]byte, error)

	// Unload releases any provider-side cache associated with uri. Called
	// once a resource's last handle has been released.
	Unload(ctx context.Context, uri URI) error
}

// Writer creates and writes resources into a backing store — the
// filesystem or, for the Hailstorm packager, the archive under
// construction. Tracker matches a Writer to a destination URI by scheme
// only, first match wins; the URI's hostname is not considered.
type Writer interface {
	Schemes() []string

	// CreateResource registers a new resource at uri, ready to receive
	// bytes via WriteResource.
	CreateResource(ctx context.Context, uri URI) error

	// WriteResource writes data for a resource previously created with
	// CreateResource.
	WriteResource(ctx context.Context, uri URI, data []byte) error
}
