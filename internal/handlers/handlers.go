package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quorum-community/backend/internal/models"
	"github.com/quorum-community/backend/internal/votes"
)

// Handler combines all handler types
type Handler struct {
	Auth      *AuthHandler
	Post      *PostHandler
	Comment   *CommentHandler
	Community *CommunityHandler
	User      *UserHandler
	Vote      *VoteHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, voteSvc *votes.Service, jwtSecret []byte) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(db, jwtSecret),
		Post:      NewPostHandler(db, voteSvc),
		Comment:   NewCommentHandler(db, voteSvc),
		Community: NewCommunityHandler(db),
		User:      NewUserHandler(db),
		Vote:      NewVoteHandler(voteSvc),
	}
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func isAdmin(c *gin.Context) bool {
	role, _ := c.Get("role")
	r, ok := role.(string)
	return ok && r == models.RoleAdmin
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
