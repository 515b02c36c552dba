// Package resolver turns shareable social-media page links into direct,
// independently fetchable media URLs.
package resolver

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

var ErrUnresolvable = errors.New("could not resolve a direct media url")

type Resolver interface {
	// Resolve returns the URL to download. URLs the resolver does not handle
	// come back unchanged.
	Resolve(ctx context.Context, rawURL string) (string, error)
}

// Passthrough never rewrites anything.
type Passthrough struct{}

func (Passthrough) Resolve(_ context.Context, rawURL string) (string, error) {
	return rawURL, nil
}

func hostMatches(rawURL string, domains []string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// usableMediaURL reports whether raw is an absolute http(s) URL.
func usableMediaURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
