package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quorum-community/backend/internal/models"
	"github.com/quorum-community/backend/internal/votes"
)

// VoteHandler exposes the vote ledger over HTTP. It talks only to the vote
// service; no queries of its own.
type VoteHandler struct {
	svc *votes.Service
}

func NewVoteHandler(svc *votes.Service) *VoteHandler {
	return &VoteHandler{svc: svc}
}

func targetParam(c *gin.Context, kind models.TargetKind, param string) (models.Target, bool) {
	id, err := strconv.Atoi(c.Param(param))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target id"})
		return models.Target{}, false
	}
	return models.Target{Kind: kind, ID: id}, true
}

// voteError maps service errors to stable HTTP responses. Storage error
// details never reach the caller.
func voteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, votes.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote state must be upvote or downvote"})
	case errors.Is(err, votes.ErrTargetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Target not found"})
	case errors.Is(err, votes.ErrTargetGone):
		c.JSON(http.StatusGone, gin.H{"error": "Target has been deleted"})
	case errors.Is(err, votes.ErrSelfVote):
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot vote on your own content"})
	case errors.Is(err, votes.ErrVoteConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Vote conflicted with a concurrent request, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process vote"})
	}
}

func (h *VoteHandler) submit(c *gin.Context, kind models.TargetKind, param string) {
	target, ok := targetParam(c, kind, param)
	if !ok {
		return
	}
	actorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		VoteState string `json:"vote_state" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote state must be upvote or downvote"})
		return
	}

	res, err := h.svc.SubmitVote(c.Request.Context(), actorID, target, models.VoteState(input.VoteState))
	if err != nil {
		voteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": res.State, "score": res.Score})
}

func (h *VoteHandler) remove(c *gin.Context, kind models.TargetKind, param string) {
	target, ok := targetParam(c, kind, param)
	if !ok {
		return
	}
	actorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.svc.RemoveVote(c.Request.Context(), actorID, target); err != nil {
		voteError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *VoteHandler) state(c *gin.Context, kind models.TargetKind, param string) {
	target, ok := targetParam(c, kind, param)
	if !ok {
		return
	}
	actorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	state, err := h.svc.VoteState(c.Request.Context(), actorID, target)
	if err != nil {
		voteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *VoteHandler) score(c *gin.Context, kind models.TargetKind, param string) {
	target, ok := targetParam(c, kind, param)
	if !ok {
		return
	}

	score, err := h.svc.Score(c.Request.Context(), target)
	if err != nil {
		voteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"score": score})
}

// Post routes

func (h *VoteHandler) SubmitPostVote(c *gin.Context) { h.submit(c, models.TargetPost, "id") }
func (h *VoteHandler) RemovePostVote(c *gin.Context) { h.remove(c, models.TargetPost, "id") }
func (h *VoteHandler) GetPostVote(c *gin.Context)    { h.state(c, models.TargetPost, "id") }
func (h *VoteHandler) GetPostScore(c *gin.Context)   { h.score(c, models.TargetPost, "id") }

// Comment routes

func (h *VoteHandler) SubmitCommentVote(c *gin.Context) {
	h.submit(c, models.TargetComment, "commentId")
}
func (h *VoteHandler) RemoveCommentVote(c *gin.Context) {
	h.remove(c, models.TargetComment, "commentId")
}
func (h *VoteHandler) GetCommentVote(c *gin.Context)  { h.state(c, models.TargetComment, "commentId") }
func (h *VoteHandler) GetCommentScore(c *gin.Context) { h.score(c, models.TargetComment, "commentId") }
