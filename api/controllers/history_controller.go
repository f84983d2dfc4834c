package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/shareit-go/session"
	"github.com/moyoez/shareit-go/tool"
	"github.com/moyoez/shareit-go/types"
)

// HistoryController exposes the persisted transfer history.
type HistoryController struct {
	sessions *session.Controller
}

func NewHistoryController(sessions *session.Controller) *HistoryController {
	return &HistoryController{sessions: sessions}
}

// HandleList returns at most ten entries, most recent first.
// GET /api/self/v1/history
func (ctrl *HistoryController) HandleList(c *gin.Context) {
	entries := ctrl.sessions.History(c.Request.Context())
	if entries == nil {
		entries = []types.HistoryEntry{}
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(entries))
}

// HandleClear empties the history.
// DELETE /api/self/v1/history
func (ctrl *HistoryController) HandleClear(c *gin.Context) {
	if err := ctrl.sessions.ClearHistory(c.Request.Context()); err != nil {
		tool.DefaultLogger.Errorf("Failed to clear history: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to clear history: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}
