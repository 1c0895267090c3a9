// Package canonical derives a canonical robots.txt URL and a request path
// from an arbitrary target URL. No third-party URL library in the
// retrieval pack does anything net/url doesn't already do for this (see
// DESIGN.md); both operations are built directly on the standard library.
package canonical

import (
	"fmt"
	"net/url"
)

// ErrInvalidURL is returned (wrapped) when targetURL cannot be turned into
// a robots.txt URL or a path: parse failure, unsupported scheme, or a
// missing host.
type ErrInvalidURL struct {
	Reason string
}

func (e *ErrInvalidURL) Error() string {
	return "invalid url: " + e.Reason
}

// RobotsURLFor derives scheme://host[:port]/robots.txt from targetURL,
// eliding the port when it is absent or equals the scheme's default.
func RobotsURLFor(targetURL string) (string, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return "", &ErrInvalidURL{Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &ErrInvalidURL{Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	host := u.Hostname()
	if host == "" {
		return "", &ErrInvalidURL{Reason: "missing host"}
	}

	port := u.Port()
	defaultPort := (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443")
	if port == "" || defaultPort {
		return fmt.Sprintf("%s://%s/robots.txt", u.Scheme, host), nil
	}
	return fmt.Sprintf("%s://%s:%s/robots.txt", u.Scheme, host, port), nil
}

// PathFor returns targetURL's path plus, if present, "?"+rawquery.
// Fragments are discarded.
func PathFor(targetURL string) (string, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return "", &ErrInvalidURL{Reason: err.Error()}
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path, nil
}
