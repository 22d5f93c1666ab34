package resource

import "github.com/forgelight/forgekit/internal/metadata"

// Status is a resource's lifecycle state.
type Status int32

const (
	StatusAvailable Status = iota // known to the tracker, not loaded
	StatusLoading
	StatusLoaded
	StatusUnloading
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusUnloading:
		return "unloading"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Flags is a bitset of resource attributes.
type Flags uint8

const (
	FlagNone     Flags = 0
	FlagDynamic  Flags = 1 << 0 // provider may return different data across loads
	FlagReadOnly Flags = 1 << 1
)

// Resource is the static, immutable-after-sync description of something a
// provider can load: its identity, where it lives, and whatever metadata a
// sidecar file attached to it.
type Resource struct {
	URI      URI
	Name     string
	Flags    Flags
	Size     int64
	Metadata *metadata.Metadata
}

// ResourceFilter restricts Tracker.FilterURIs to URIs whose scheme and
// hostname are both allowed. An empty Schemes or Hosts list allows every
// scheme or host respectively, matching filter_resource_uris walking every
// attached provider when no restriction is given.
type ResourceFilter struct {
	Schemes []string
	Hosts   []string
}

// Allows reports whether uri passes both the scheme and hostname
// allow-lists.
func (f ResourceFilter) Allows(uri URI) bool {
	if len(f.Schemes) > 0 && !containsString(f.Schemes, uri.Scheme) {
		return false
	}
	if len(f.Hosts) > 0 && !containsString(f.Hosts, uri.Host) {
		return false
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
