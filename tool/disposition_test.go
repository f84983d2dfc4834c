package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilenameFromDisposition(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"quoted", `attachment; filename="report final.pdf"`, "report final.pdf"},
		{"unquoted with trailing param", `attachment; filename=plain.txt; size=3`, "plain.txt"},
		{"extended utf-8", `attachment; filename*=UTF-8''r%C3%A9sum%C3%A9.pdf`, "résumé.pdf"},
		{"quoted wins over extended", `attachment; filename*=UTF-8''other.pdf; filename="first.pdf"`, "first.pdf"},
		{"quoted percent-decoded", `attachment; filename="my%20notes.txt"`, "my notes.txt"},
		{"undecodable kept as is", `attachment; filename="100%.txt"`, "100%.txt"},
		{"empty header", "", DefaultDownloadName},
		{"blank header", "   ", DefaultDownloadName},
		{"no filename", "inline", DefaultDownloadName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FilenameFromDisposition(tc.header))
		})
	}
}

func TestSafeFileName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":        "report.pdf",
		"../../etc/passwd":  "passwd",
		`..\..\boot.ini`:    "boot.ini",
		"/abs/path/key.pem": "key.pem",
		"a/b/c.txt":         "c.txt",
		"..":                DefaultDownloadName,
		"/":                 DefaultDownloadName,
		"":                  DefaultDownloadName,
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeFileName(in), "SafeFileName(%q)", in)
	}
}
