package tool

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultDownloadName is used when the response carries no usable filename.
const DefaultDownloadName = "downloaded-file"

var (
	quotedFilename   = regexp.MustCompile(`filename="([^"]+)"`)
	unquotedFilename = regexp.MustCompile(`filename=([^;]+)`)
	extendedFilename = regexp.MustCompile(`filename\*=UTF-8''([^;]+)`)
)

// FilenameFromDisposition extracts the suggested filename from a Content-Disposition value.
// Forms are tried in order: filename="...", filename=..., filename*=UTF-8''...
// The match is percent-decoded; an undecodable match is returned as is.
func FilenameFromDisposition(header string) string {
	if strings.TrimSpace(header) == "" {
		return DefaultDownloadName
	}
	var match []string
	for _, re := range []*regexp.Regexp{quotedFilename, unquotedFilename, extendedFilename} {
		if match = re.FindStringSubmatch(header); match != nil {
			break
		}
	}
	if match == nil {
		DefaultLogger.Debugf("Could not extract filename from Content-Disposition: %q", header)
		return DefaultDownloadName
	}
	name := strings.TrimSpace(match[1])
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if name == "" {
		return DefaultDownloadName
	}
	return name
}

// SafeFileName reduces name to a plain base name that cannot escape the download folder.
func SafeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "" || name == "." || name == ".." || name == "/" {
		return DefaultDownloadName
	}
	return name
}
