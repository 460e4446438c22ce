package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResetVotes deletes every vote and unlocks every client.
func (h *Handler) ResetVotes(c *gin.Context) {
	if err := h.store.ResetVotes(c.Request.Context()); err != nil {
		internalError(c, "failed to reset votes", err)
		return
	}
	h.events.VotesReset(c.Request.Context())
	c.JSON(http.StatusOK, resultBody{Success: true, Message: "All votes have been reset"})
}

// UnlockClients starts a new round: clients may vote again, votes are kept.
func (h *Handler) UnlockClients(c *gin.Context) {
	if err := h.store.UnlockClients(c.Request.Context()); err != nil {
		internalError(c, "failed to unlock clients", err)
		return
	}
	h.events.ClientsUnlocked(c.Request.Context())
	c.JSON(http.StatusOK, resultBody{Success: true, Message: "All clients have been unlocked"})
}

// ClearPoll removes candidates, votes and client records. Settings survive.
func (h *Handler) ClearPoll(c *gin.Context) {
	if err := h.store.Wipe(c.Request.Context()); err != nil {
		internalError(c, "failed to clear poll", err)
		return
	}
	h.events.PollCleared(c.Request.Context())
	c.JSON(http.StatusOK, resultBody{Success: true, Message: "Poll data has been cleared"})
}

type statusResponse struct {
	Running           bool  `json:"running"`
	TotalCandidates   int64 `json:"total_candidates"`
	TotalVotes        int64 `json:"total_votes"`
	Port              int   `json:"port"`
	ActiveConnections int   `json:"active_connections"`
}

// Status summarizes the running server.
func (h *Handler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	candidates, err := h.store.CountCandidates(ctx)
	if err != nil {
		internalError(c, "failed to count candidates", err)
		return
	}
	votes, err := h.store.GetTotalVotes(ctx)
	if err != nil {
		internalError(c, "failed to count votes", err)
		return
	}

	c.JSON(http.StatusOK, statusResponse{
		Running:           true,
		TotalCandidates:   candidates,
		TotalVotes:        votes,
		Port:              h.opts.Port,
		ActiveConnections: h.hub.Count(),
	})
}
