package tool

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseActionURL checks that action is an absolute http(s) URL with a host.
func ParseActionURL(action string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(action))
	if err != nil {
		return nil, fmt.Errorf("failed to parse action URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported action scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("action URL %q has no host", action)
	}
	return u, nil
}

// ParseRecordURL parses a file record URL. Supported schemes are http, https and file.
func ParseRecordURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty file URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid file URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("file URL %q has no host", raw)
		}
	case "file":
		if u.Path == "" {
			return nil, fmt.Errorf("file URL %q has no path", raw)
		}
	default:
		return nil, fmt.Errorf("unsupported file URL scheme %q", u.Scheme)
	}
	return u, nil
}
