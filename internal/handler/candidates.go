package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type candidateRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=1000"`
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "candidate id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func bindCandidate(c *gin.Context) (candidateRequest, bool) {
	var req candidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid candidate: "+err.Error())
		return req, false
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" {
		badRequest(c, "candidate name must not be empty")
		return req, false
	}
	return req, true
}

// ListCandidates returns every candidate ordered by name.
func (h *Handler) ListCandidates(c *gin.Context) {
	candidates, err := h.store.ListCandidates(c.Request.Context())
	if err != nil {
		internalError(c, "failed to list candidates", err)
		return
	}
	c.JSON(http.StatusOK, candidates)
}

// CreateCandidate adds a candidate and announces the new list.
func (h *Handler) CreateCandidate(c *gin.Context) {
	req, ok := bindCandidate(c)
	if !ok {
		return
	}

	cand, err := h.store.AddCandidate(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		internalError(c, "failed to create candidate", err)
		return
	}

	h.events.CandidatesChanged(c.Request.Context())
	c.JSON(http.StatusOK, cand)
}

// UpdateCandidate edits a candidate's name and description.
func (h *Handler) UpdateCandidate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, ok := bindCandidate(c)
	if !ok {
		return
	}

	cand, found, err := h.store.UpdateCandidate(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		internalError(c, "failed to update candidate", err)
		return
	}
	if !found {
		notFound(c, "candidate not found")
		return
	}

	h.events.CandidatesChanged(c.Request.Context())
	c.JSON(http.StatusOK, cand)
}

// DeleteCandidate removes a candidate together with its votes.
func (h *Handler) DeleteCandidate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	found, err := h.store.DeleteCandidate(c.Request.Context(), id)
	if err != nil {
		internalError(c, "failed to delete candidate", err)
		return
	}
	if !found {
		notFound(c, "candidate not found")
		return
	}

	h.events.CandidateDeleted(c.Request.Context())
	c.JSON(http.StatusOK, resultBody{Success: true, Message: "Candidate deleted"})
}
