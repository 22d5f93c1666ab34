// Package resource implements the content-addressed resource registry:
// pluggable providers that discover and load resources, pluggable writers
// that create and write them, and a Tracker that ties both to ref-counted,
// single-flight-loaded handles.
package resource

import (
	"context"
	"sync"

	"github.com/forgelight/forgekit"
	"github.com/forgelight/forgekit/internal/logging"
)

// Tracker is the resource registry: it owns the set of attached providers
// and writers, the synced index of known resources, and every
// internalResource's lifecycle state.
type Tracker struct {
	logger  *logging.Logger
	metrics *forgekit.Metrics

	mu        sync.RWMutex
	providers []Provider
	writers   []Writer
	byURI     map[string]*internalResource
	byName    map[string]*internalResource
}

// NewTracker creates an empty Tracker. predictedResourceCount is a sizing
// hint for the internal index, not a hard limit.
func NewTracker(predictedResourceCount int, logger *logging.Logger) *Tracker {
	return &Tracker{
		logger: logger,
		byURI:  make(map[string]*internalResource, predictedResourceCount),
		byName: make(map[string]*internalResource, predictedResourceCount),
	}
}

// SetMetrics attaches m so every resource load and unload tracked from this
// point on records to it. A nil metrics (the default) means no metrics are
// recorded.
func (t *Tracker) SetMetrics(m *forgekit.Metrics) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = m
}

// AttachProvider registers a provider. Its resources are not visible until
// Sync is called.
func (t *Tracker) AttachProvider(p Provider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.providers = append(t.providers, p)
}

// AttachWriter registers a writer for CreateResource/WriteResource.
func (t *Tracker) AttachWriter(w Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writers = append(t.writers, w)
}

// Sync refreshes every attached provider and (re)indexes the resources it
// reports, by both URI and bare name.
func (t *Tracker) Sync(ctx context.Context) error {
	t.mu.Lock()
	providers := append([]Provider(nil), t.providers...)
	t.mu.Unlock()

	for _, p := range providers {
		resources, err := p.Refresh(ctx)
		if err != nil {
			return forgekit.WrapError("Tracker.Sync", err)
		}

		t.mu.Lock()
		for _, res := range resources {
			ir := newInternalResource(res, p, t.metrics)
			t.byURI[res.URI.String()] = ir
			if res.Name != "" {
				t.byName[res.Name] = ir
			}
		}
		t.mu.Unlock()
	}
	return nil
}

// FindByURI looks up a known resource by its full URI.
func (t *Tracker) FindByURI(uri URI) (Resource, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ir, ok := t.byURI[uri.String()]
	if !ok {
		return Resource{}, false
	}
	return ir.res, true
}

// FindByURN looks up a known resource by its urn: name.
func (t *Tracker) FindByURN(name string) (Resource, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ir, ok := t.byName[name]
	if !ok {
		return Resource{}, false
	}
	return ir.res, true
}

// FindRelative resolves a URI relative to a base resource's own URI,
// falling back to an absolute lookup when rel is already absolute (has its
// own scheme separator before any relative path component).
func (t *Tracker) FindRelative(base Resource, rel string) (Resource, bool) {
	if uri, err := ParseURI(rel); err == nil && uri.Scheme != "" {
		if res, ok := t.FindByURI(uri); ok {
			return res, true
		}
	}
	joined := base.URI
	joined.Path = base.URI.Path + "/" + rel
	return t.FindByURI(joined)
}

func (t *Tracker) lookup(uri URI) (*internalResource, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if uri.IsURN() {
		ir, ok := t.byName[uri.Name]
		return ir, ok
	}
	ir, ok := t.byURI[uri.String()]
	return ir, ok
}

// LoadResource acquires a Handle to the resource identified by uri,
// triggering (or joining) its single-flight load. Returns
// CodeResourceNotFound if uri was never reported by a synced provider.
func (t *Tracker) LoadResource(ctx context.Context, uri URI) (*Handle, error) {
	ir, ok := t.lookup(uri)
	if !ok {
		return nil, forgekit.NewError("Tracker.LoadResource", forgekit.CodeResourceNotFound, uri.String())
	}

	ir.acquire()
	if _, err := ir.load(ctx); err != nil {
		ir.release(ctx)
		return nil, forgekit.WrapError("Tracker.LoadResource", err)
	}
	return &Handle{ir: ir}, nil
}

// ReleaseResource releases a handle acquired via LoadResource. Prefer
// calling Handle.Release directly; this exists for callers that only have
// the URI and want to drop a reference without holding onto the Handle.
func (t *Tracker) ReleaseResource(ctx context.Context, uri URI) {
	ir, ok := t.lookup(uri)
	if !ok {
		return
	}
	ir.release(ctx)
}

func writerFor(writers []Writer, uri URI) (Writer, bool) {
	for _, w := range writers {
		for _, scheme := range w.Schemes() {
			if scheme == uri.Scheme {
				return w, true
			}
		}
	}
	return nil, false
}

// CreateResource picks the first attached writer matching uri's scheme and
// asks it to create the resource. The "first match wins" rule mirrors the
// underlying tracker's writer-selection behavior when multiple writers
// register for the same scheme.
func (t *Tracker) CreateResource(ctx context.Context, uri URI) error {
	t.mu.RLock()
	writers := t.writers
	t.mu.RUnlock()

	w, ok := writerFor(writers, uri)
	if !ok {
		return forgekit.NewError("Tracker.CreateResource", forgekit.CodeFailedToFindValidWriter, uri.String())
	}
	return forgekit.WrapError("Tracker.CreateResource", w.CreateResource(ctx, uri))
}

// WriteResource picks the first attached writer matching uri's scheme and
// writes data through it.
func (t *Tracker) WriteResource(ctx context.Context, uri URI, data []byte) error {
	t.mu.RLock()
	writers := t.writers
	t.mu.RUnlock()

	w, ok := writerFor(writers, uri)
	if !ok {
		return forgekit.NewError("Tracker.WriteResource", forgekit.CodeFailedToFindValidWriter, uri.String())
	}
	return forgekit.WrapError("Tracker.WriteResource", w.WriteResource(ctx, uri, data))
}

// AllResources returns every resource currently known to the tracker, in no
// particular order. Intended for tools (like the Hailstorm packager CLI)
// that need to enumerate everything a Sync discovered rather than look up
// one resource at a time.
func (t *Tracker) AllResources() []Resource {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Resource, 0, len(t.byURI))
	for _, ir := range t.byURI {
		out = append(out, ir.res)
	}
	return out
}

// FilterURIs walks every attached provider's Refresh-reported resources and
// returns the URIs that pass both filter's scheme/hostname allow-lists and
// match one of providers' registered schemes, logging each one it drops.
// This mirrors filter_resource_uris walking providers whose scheme and
// hostname are allowed by the filter and asking each to append its
// matching URIs, rather than filtering a caller-supplied list.
func (t *Tracker) FilterURIs(filter ResourceFilter) []URI {
	t.mu.RLock()
	providers := t.providers
	byURI := t.byURI
	t.mu.RUnlock()

	schemes := make(map[string]bool)
	for _, p := range providers {
		for _, s := range p.Schemes() {
			schemes[s] = true
		}
	}

	var kept []URI
	for uriStr, ir := range byURI {
		u := ir.res.URI
		if !schemes[u.Scheme] {
			continue
		}
		if !filter.Allows(u) {
			if t.logger != nil {
				t.logger.Warn("filtered uri disallowed by resource filter", "uri", uriStr)
			}
			continue
		}
		kept = append(kept, u)
	}
	return kept
}
