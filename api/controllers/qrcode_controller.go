package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/moyoez/shareit-go/tool"
)

const (
	defaultQRSize = 200
	maxQRSize     = 512
)

// GenerateQRCode returns a PNG QR code image, typically of a share code.
// GET ?data=<content>&size=200x200&ecc=L|M|Q|H
func GenerateQRCode(c *gin.Context) {
	data := c.Query("data")
	if data == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing required parameter: data"))
		return
	}

	size := parseSize(c.Query("size"))
	if size <= 0 {
		size = defaultQRSize
	}
	size = min(size, maxQRSize)

	png, err := qrcode.Encode(data, parseRecovery(c.Query("ecc")), size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to encode QR code: "+err.Error()))
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// parseSize parses size from "200x200" or "200" and returns the pixel dimension.
func parseSize(s string) int {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "x"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func parseRecovery(s string) qrcode.RecoveryLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return qrcode.Low
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}
