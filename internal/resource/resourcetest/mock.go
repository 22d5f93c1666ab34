// Package resourcetest provides an in-memory Provider/Writer pair for
// exercising Tracker and Handle behavior without touching a filesystem.
package resourcetest

import (
	"context"
	"sync"

	"github.com/forgelight/forgekit"
	"github.com/forgelight/forgekit/internal/resource"
)

// MockProvider is an in-memory resource.Provider and resource.Writer. It
// tracks per-URI Load and Unload call counts so tests can assert
// single-flight and lifecycle behavior directly.
type MockProvider struct {
	scheme string

	mu        sync.RWMutex
	resources map[string]resource.Resource
	data      map[string][]byte

	loadCalls   map[string]int
	unloadCalls map[string]int
}

// NewMockProvider creates a mock provider answering to scheme.
func NewMockProvider(scheme string) *MockProvider {
	return &MockProvider{
		scheme:      scheme,
		resources:   make(map[string]resource.Resource),
		data:        make(map[string][]byte),
		loadCalls:   make(map[string]int),
		unloadCalls: make(map[string]int),
	}
}

// Put registers a resource and its backing bytes, as if Refresh had
// discovered it.
func (m *MockProvider) Put(uri resource.URI, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resources[uri.String()] = resource.Resource{URI: uri, Name: uri.Name, Size: int64(len(data))}
	m.data[uri.String()] = data
}

func (m *MockProvider) Schemes() []string { return []string{m.scheme} }

func (m *MockProvider) Refresh(ctx context.Context) ([]resource.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]resource.Resource, 0, len(m.resources))
	for _, r := range m.resources {
		out = append(out, r)
	}
	return out, nil
}

func (m *MockProvider) Load(ctx context.Context, uri resource.URI) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := uri.String()
	m.loadCalls[key]++
	data, ok := m.data[key]
	if !ok {
		return nil, forgekit.NewError("MockProvider.Load", forgekit.CodeResourceNotFound, key)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MockProvider) Unload(ctx context.Context, uri resource.URI) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unloadCalls[uri.String()]++
	return nil
}

func (m *MockProvider) CreateResource(ctx context.Context, uri resource.URI) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[uri.String()] = resource.Resource{URI: uri, Name: uri.Name}
	m.data[uri.String()] = nil
	return nil
}

func (m *MockProvider) WriteResource(ctx context.Context, uri resource.URI, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[uri.String()] = cp
	return nil
}

// LoadCalls returns how many times Load was called for uri.
func (m *MockProvider) LoadCalls(uri resource.URI) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadCalls[uri.String()]
}

// UnloadCalls returns how many times Unload was called for uri.
func (m *MockProvider) UnloadCalls(uri resource.URI) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.unloadCalls[uri.String()]
}

var (
	_ resource.Provider = (*MockProvider)(nil)
	_ resource.Writer   = (*MockProvider)(nil)
)
