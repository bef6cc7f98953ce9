package source

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidLink is returned for links that cannot become an identity key
var ErrInvalidLink = errors.New("invalid link")

// Resolver turns listing links into canonical originalUrl keys
type Resolver struct {
	scheme string
	host   string
}

// NewResolver creates a resolver for links found on baseURL's site
func NewResolver(baseURL string) (*Resolver, error) {
	u, err := parseAbsolute(baseURL)
	if err != nil {
		return nil, err
	}
	return &Resolver{scheme: u.Scheme, host: u.Host}, nil
}

// Resolve returns the identity key for link. Absolute http(s) links pass
// through unchanged; relative links get the base scheme and host prepended.
func (r *Resolver) Resolve(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidLink)
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		if u.Host == "" {
			return "", fmt.Errorf("%w: %q has no host", ErrInvalidLink, link)
		}
		return link, nil
	case u.Scheme != "":
		// mailto:, javascript:, tel: and friends never denote a listing
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLink, u.Scheme)
	case strings.HasPrefix(link, "#"):
		return "", fmt.Errorf("%w: fragment-only link %q", ErrInvalidLink, link)
	case strings.HasPrefix(link, "//"):
		return r.scheme + ":" + link, nil
	case strings.HasPrefix(link, "/"):
		return r.scheme + "://" + r.host + link, nil
	default:
		return r.scheme + "://" + r.host + "/" + link, nil
	}
}
