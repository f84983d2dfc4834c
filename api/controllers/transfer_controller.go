package controllers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/shareit-go/session"
	"github.com/moyoez/shareit-go/tool"
	"github.com/moyoez/shareit-go/transfer"
	"github.com/moyoez/shareit-go/types"
)

// TransferController serves the share, receive and session endpoints for the web UI.
type TransferController struct {
	sessions *session.Controller
	prober   session.Prober
	defaults types.ShareDefaults
}

// ReceiveRequest is the body of POST /receive.
type ReceiveRequest struct {
	Code string `json:"code"`
}

func NewTransferController(sessions *session.Controller, prober session.Prober, defaults types.ShareDefaults) *TransferController {
	return &TransferController{sessions: sessions, prober: prober, defaults: defaults}
}

// HandleStatus probes the transfer service on demand.
// GET /api/self/v1/status
func (ctrl *TransferController) HandleStatus(c *gin.Context) {
	report := ctrl.prober.Check(c.Request.Context())
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{
		"running":  report.IsRunning,
		"error":    report.Error,
		"response": report.Response,
		"busy":     ctrl.sessions.Busy(),
	}))
}

// HandleSession returns the current or last finished session.
// GET /api/self/v1/session
func (ctrl *TransferController) HandleSession(c *gin.Context) {
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctrl.sessions.Session()))
}

// HandleShare uploads the submitted files and answers with the share code.
// POST /api/self/v1/share (multipart: file..., password, expiryMinutes, oneTime)
func (ctrl *TransferController) HandleShare(c *gin.Context) {
	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = form.File["file"]
	}

	opts := types.ShareOptions{
		Password:      c.PostForm("password"),
		ExpiryMinutes: ctrl.defaults.ExpiryMinutes,
		OneTime:       ctrl.defaults.OneTime,
	}
	if v := strings.TrimSpace(c.PostForm("expiryMinutes")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, tool.FastReturnFailure(transfer.KindInvalidInput.String(), "expiryMinutes must be a non-negative integer", nil))
			return
		}
		opts.ExpiryMinutes = n
	}
	if v := strings.TrimSpace(c.PostForm("oneTime")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnFailure(transfer.KindInvalidInput.String(), "oneTime must be true or false", nil))
			return
		}
		opts.OneTime = b
	}

	refs := make([]types.FileRef, 0, len(files))
	for _, fh := range files {
		refs = append(refs, fileRefFromHeader(fh))
	}

	// the session outlives a closed browser tab
	ctx := context.WithoutCancel(c.Request.Context())
	s, err := ctrl.sessions.Share(ctx, session.ShareRequest{Files: refs, Options: opts})
	respond(c, s, err)
}

// HandleReceive downloads the content behind a code into the download folder.
// POST /api/self/v1/receive {"code": "..."}
func (ctrl *TransferController) HandleReceive(c *gin.Context) {
	var req ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnFailure(transfer.KindInvalidInput.String(), "invalid request body: "+err.Error(), nil))
		return
	}
	ctx := context.WithoutCancel(c.Request.Context())
	s, err := ctrl.sessions.Receive(ctx, session.ReceiveRequest{Code: req.Code})
	respond(c, s, err)
}

func respond(c *gin.Context, s types.TransferSession, err error) {
	if err == nil {
		c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(s))
		return
	}
	if errors.Is(err, session.ErrBusy) {
		c.JSON(http.StatusConflict, tool.FastReturnFailure("Busy", err.Error(), nil))
		return
	}
	classified := transfer.Classify(err)
	c.JSON(StatusForKind(classified.Kind), tool.FastReturnFailure(classified.Kind.String(), classified.Error(), s))
}

// StatusForKind maps a failure category to the HTTP status of the local API.
func StatusForKind(kind transfer.Kind) int {
	switch kind {
	case transfer.KindInvalidInput:
		return http.StatusBadRequest
	case transfer.KindServerUnavailable:
		return http.StatusServiceUnavailable
	case transfer.KindNetworkUnreachable, transfer.KindServerRejected:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fileRefFromHeader(fh *multipart.FileHeader) types.FileRef {
	return types.FileRef{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
