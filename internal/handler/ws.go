package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/livepoll/livepoll/internal/live"
)

// Live upgrades the request to a websocket push channel. The subscriber is
// registered before the initial snapshot is sent and stays registered until
// its read loop ends.
func (h *Handler) Live(c *gin.Context) {
	id := uuid.NewString()
	handle, err := h.services.NewServiceHandle("ws-" + id)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "unavailable", Message: "server is shutting down"})
		return
	}
	defer handle.Close()

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the error response.
		slog.Warn("websocket upgrade failed", "remote", c.ClientIP(), "error", err)
		return
	}

	conn := live.NewConn(ws, id, h.opts.PingInterval)
	log := slog.With("conn", conn.ID(), "remote", c.ClientIP())
	if !h.hub.Connect(conn) {
		return
	}
	defer conn.Close()
	defer h.hub.Disconnect(conn)

	snapshot, err := h.events.Snapshot(handle.Ctx())
	if err != nil {
		log.Error("failed to build initial snapshot", "error", err)
		return
	}
	sendCtx, cancel := context.WithTimeout(handle.Ctx(), h.opts.SendTimeout)
	err = conn.Send(sendCtx, snapshot)
	cancel()
	if err != nil {
		log.Warn("failed to send initial snapshot", "error", err)
		return
	}

	if err := conn.ReadLoop(handle.Ctx()); err != nil {
		log.Debug("websocket closed", "reason", err)
	}
}

// Root identifies the service.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "livepoll",
		"version": h.opts.Version,
	})
}

// Health is a liveness probe.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
