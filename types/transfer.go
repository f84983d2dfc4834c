package types

import (
	"io"
	"strconv"
)

// ServerStatusReport is the result of one liveness probe.
type ServerStatusReport struct {
	IsRunning bool   `json:"isRunning"`
	Error     string `json:"error,omitempty"`
	Response  string `json:"response,omitempty"` // root body, kept for diagnostics only
}

// UploadResponse is the body returned by POST /upload.
type UploadResponse struct {
	Port int `json:"port"`
}

// DownloadResult describes a completed GET /download/{port}.
type DownloadResult struct {
	Filename string
	Size     int64
}

// FileRef is a file selected for sharing.
type FileRef struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Code renders the assigned port as the share code.
func (u UploadResponse) Code() string {
	return strconv.Itoa(u.Port)
}
