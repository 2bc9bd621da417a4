// Package policy maps request paths to the cache headers a production
// edge would attach to them.
package policy

import (
	"path"
	"strings"
)

// Header values are exact strings. Auditing tools compare them byte for byte.
const (
	// AssetCacheControl is served for versioned static assets which never
	// change at their URL.
	AssetCacheControl = "public, max-age=31536000, immutable"

	// HTMLCacheControl is served for HTML entry points which must be
	// revalidated after an hour.
	HTMLCacheControl = "public, max-age=3600, must-revalidate"

	// VaryAcceptEncoding keys caches on the encoding a client accepts.
	VaryAcceptEncoding = "Accept-Encoding"

	// AllowAnyOrigin is the CORS value attached to every response.
	AllowAnyOrigin = "*"
)

// Policy is the set of cache headers attached to a response. The zero
// Policy sets no cache headers at all.
type Policy struct {
	CacheControl string
	Vary         string
}

var (
	// Asset is the policy for immutable static assets.
	Asset = Policy{CacheControl: AssetCacheControl, Vary: VaryAcceptEncoding}

	// HTML is the policy for HTML pages and the site root.
	HTML = Policy{CacheControl: HTMLCacheControl, Vary: VaryAcceptEncoding}

	// None is the policy for everything else.
	None = Policy{}
)

// assetExts are the extensions treated as immutable versioned assets.
var assetExts = map[string]struct{}{
	".css":  {},
	".js":   {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".svg":  {},
	".webp": {},
	".json": {},
}

// ForPath returns the policy for a decoded URL path. The extension is the
// substring after the last dot of the last path segment, matched
// case-insensitively. The HTML policy wins whenever the path is exactly "/"
// or the extension is ".html". The lookup never considers whether the file
// exists.
func ForPath(p string) Policy {
	ext := strings.ToLower(path.Ext(p))
	if p == "/" || ext == ".html" {
		return HTML
	}
	if _, ok := assetExts[ext]; ok {
		return Asset
	}
	return None
}

// Cacheable reports whether the policy sets any cache headers.
func (p Policy) Cacheable() bool {
	return p.CacheControl != ""
}

// Class names the policy for logs and metrics.
func (p Policy) Class() string {
	switch p {
	case Asset:
		return "asset"
	case HTML:
		return "html"
	default:
		return "uncached"
	}
}
