package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/livepoll/livepoll/internal/export"
)

// Export streams the results and the vote log as an xlsx workbook.
func (h *Handler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	results, err := h.store.GetResults(ctx)
	if err != nil {
		internalError(c, "failed to load results", err)
		return
	}
	votes, err := h.store.VoteDetails(ctx)
	if err != nil {
		internalError(c, "failed to load votes", err)
		return
	}

	wb, err := export.Workbook(results, votes)
	if err != nil {
		internalError(c, "failed to build workbook", err)
		return
	}
	defer wb.Close()

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(time.Now())))
	if err := wb.Write(c.Writer); err != nil {
		c.Error(err)
	}
}
