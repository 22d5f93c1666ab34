package resource

import (
	"strings"

	"github.com/forgelight/forgekit"
)

// URI identifies a resource. The "urn:" scheme is name-only (Host and Path
// are empty, Name carries the whole opaque identifier); every other scheme
// follows the usual scheme://host/path shape, matching filesystem and
// network-style provider URIs.
type URI struct {
	Scheme string
	Host   string
	Path   string
	Name   string // set only for urn: URIs
}

// ParseURI parses s into a URI. Recognized forms:
//
//	urn:player/idle-animation
//	scheme://host/path/to/resource
func ParseURI(s string) (URI, error) {
	if s == "" {
		return URI{}, forgekit.NewError("ParseURI", forgekit.CodeInvalidArgument, "empty uri")
	}

	idx := strings.Index(s, ":")
	if idx < 0 {
		return URI{}, forgekit.NewError("ParseURI", forgekit.CodeInvalidArgument, "missing scheme separator in "+s)
	}
	scheme := s[:idx]
	rest := s[idx+1:]

	if scheme == "urn" {
		return URI{Scheme: scheme, Name: rest}, nil
	}

	if !strings.HasPrefix(rest, "//") {
		return URI{}, forgekit.NewError("ParseURI", forgekit.CodeInvalidArgument, "expected // after scheme in "+s)
	}
	rest = rest[2:]

	slash := strings.Index(rest, "/")
	if slash < 0 {
		return URI{Scheme: scheme, Host: rest}, nil
	}
	return URI{Scheme: scheme, Host: rest[:slash], Path: rest[slash:]}, nil
}

// String renders the URI back to its textual form.
func (u URI) String() string {
	if u.Scheme == "urn" {
		return "urn:" + u.Name
	}
	return u.Scheme + "://" + u.Host + u.Path
}

// IsURN reports whether u uses the name-only urn: scheme.
func (u URI) IsURN() bool { return u.Scheme == "urn" }
