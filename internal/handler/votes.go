package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/livepoll/livepoll/internal/event"
	"github.com/livepoll/livepoll/internal/platform/config"
)

type voteRequest struct {
	ClientID    string `json:"client_id" binding:"max=500"`
	CandidateID uint   `json:"candidate_id" binding:"required,min=1"`
}

type checkRequest struct {
	ClientID string `json:"client_id" binding:"max=500"`
}

var errMissingClientID = errors.New("client_id is required")

// clientID resolves who is voting. In ip mode the body value is ignored.
func (h *Handler) clientID(c *gin.Context, fromBody string) (string, error) {
	if h.opts.ClientIdentity == config.IdentityClient {
		id := strings.TrimSpace(fromBody)
		if id == "" {
			return "", errMissingClientID
		}
		return id, nil
	}
	return c.ClientIP(), nil
}

// CastVote records one vote. Double votes and unknown candidates are
// answered with success=false, not an error status.
func (h *Handler) CastVote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid vote: "+err.Error())
		return
	}
	client, err := h.clientID(c, req.ClientID)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	accepted, err := h.store.CastVote(c.Request.Context(), client, req.CandidateID)
	if err != nil {
		internalError(c, "failed to record vote", err)
		return
	}
	if !accepted {
		c.JSON(http.StatusOK, resultBody{Success: false, Message: "You have already voted or the candidate does not exist"})
		return
	}

	h.events.VoteCast(c.Request.Context(), req.CandidateID)
	c.JSON(http.StatusOK, resultBody{Success: true, Message: "Vote recorded"})
}

// CheckVote reports whether the caller is currently locked.
func (h *Handler) CheckVote(c *gin.Context) {
	var req checkRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	client, err := h.clientID(c, req.ClientID)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	voted, err := h.store.HasVoted(c.Request.Context(), client)
	if err != nil {
		internalError(c, "failed to check vote status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"has_voted": voted})
}

// GetResults returns the current tally.
func (h *Handler) GetResults(c *gin.Context) {
	results, total, err := h.store.Tally(c.Request.Context())
	if err != nil {
		internalError(c, "failed to load results", err)
		return
	}
	c.JSON(http.StatusOK, event.Results{Results: results, TotalVotes: total})
}
