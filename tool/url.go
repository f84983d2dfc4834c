package tool

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildRootURL builds the liveness probe URL.
func BuildRootURL(base string) (string, error) {
	u, err := parseBase(base)
	if err != nil {
		return "", err
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// BuildUploadURL builds the /upload URL.
func BuildUploadURL(base string) (string, error) {
	u, err := parseBase(base)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/upload"
	return u.String(), nil
}

// BuildDownloadURL builds the /download/{port} URL.
func BuildDownloadURL(base string, port int) (string, error) {
	u, err := parseBase(base)
	if err != nil {
		return "", err
	}
	u.Path = fmt.Sprintf("%s/download/%d", strings.TrimSuffix(u.Path, "/"), port)
	return u.String(), nil
}

// HostOf returns the bare host name of base, without port.
func HostOf(base string) string {
	u, err := parseBase(base)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func parseBase(base string) (*url.URL, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme in base URL: %q", base)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in base URL: %q", base)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
