package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/livepoll/livepoll/internal/store"
)

type titleRequest struct {
	Title string `json:"title" form:"title" binding:"max=200"`
}

// GetVoteTitle returns the display title, or the configured default.
func (h *Handler) GetVoteTitle(c *gin.Context) {
	title, found, err := h.store.GetSetting(c.Request.Context(), store.TitleKey)
	if err != nil {
		internalError(c, "failed to load title", err)
		return
	}
	if !found {
		title = h.opts.DefaultTitle
	}
	c.JSON(http.StatusOK, gin.H{"title": title})
}

// SetVoteTitle stores the display title, taken from a JSON body or the
// title query parameter.
func (h *Handler) SetVoteTitle(c *gin.Context) {
	var req titleRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid title: "+err.Error())
			return
		}
	}
	if req.Title == "" {
		if err := c.ShouldBindQuery(&req); err != nil {
			badRequest(c, "invalid title: "+err.Error())
			return
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		badRequest(c, "title must not be empty")
		return
	}

	if err := h.store.SetSetting(c.Request.Context(), store.TitleKey, title); err != nil {
		internalError(c, "failed to save title", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": title})
}
