package fota

import (
	"fmt"
	"strings"

	"github.com/fota-tools/fotactl/pkg/errors"
)

// Capacity of the stored locator pieces. A host or path that does not fit
// is rejected before the session is armed.
const (
	MaxHostLen = 128
	MaxPathLen = 128
)

// ParseURI splits a download locator at the scheme separator and the first
// slash after it. The host excludes the scheme, the path excludes the
// separating slash.
func ParseURI(uri string) (host, path string, err error) {
	i := strings.Index(uri, "://")
	if i < 0 {
		return "", "", fmt.Errorf("uri %q has no scheme separator: %w", uri, errors.ErrValidation)
	}
	rest := uri[i+3:]
	j := strings.IndexByte(rest, '/')
	if j < 0 {
		return "", "", fmt.Errorf("uri %q has no path separator: %w", uri, errors.ErrValidation)
	}
	host = rest[:j]
	path = rest[j+1:]

	if host == "" {
		return "", "", fmt.Errorf("uri %q has an empty host: %w", uri, errors.ErrValidation)
	}
	if len(host) >= MaxHostLen {
		return "", "", fmt.Errorf("host of %d bytes exceeds capacity %d: %w", len(host), MaxHostLen, errors.ErrResource)
	}
	if len(path) >= MaxPathLen {
		return "", "", fmt.Errorf("path of %d bytes exceeds capacity %d: %w", len(path), MaxPathLen, errors.ErrResource)
	}
	return host, path, nil
}
