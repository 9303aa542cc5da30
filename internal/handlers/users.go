package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quorum-community/backend/internal/models"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// karma sums the score records of everything the user authored. One SUM per
// target kind, off the hot path.
func (h *UserHandler) karma(userID string) int {
	var postKarma, commentKarma int

	h.db.Model(&models.ScoreRecord{}).
		Select("COALESCE(SUM(score_records.score), 0)").
		Joins("JOIN posts ON posts.id = score_records.target_id").
		Where("score_records.target_kind = ? AND posts.author_id = ?", models.TargetPost, userID).
		Scan(&postKarma)

	h.db.Model(&models.ScoreRecord{}).
		Select("COALESCE(SUM(score_records.score), 0)").
		Joins("JOIN comments ON comments.id = score_records.target_id").
		Where("score_records.target_kind = ? AND comments.author_id = ?", models.TargetComment, userID).
		Scan(&commentKarma)

	return postKarma + commentKarma
}

// GetUserProfile returns a user's profile
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID := c.Param("id")
	var user models.User

	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var posts []models.Post
	h.db.Where("author_id = ?", userID).Preload("User").Order("created_at desc").Find(&posts)

	var memberships int64
	h.db.Model(&models.Membership{}).Where("user_id = ?", userID).Count(&memberships)

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"bio":      user.Bio,
			"avatar":   user.Avatar,
		},
		"posts":       posts,
		"karma":       h.karma(userID),
		"communities": memberships,
	})
}

func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	userID := c.Param("id")

	authUserID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if fmt.Sprintf("%d", authUserID) != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own profile"})
		return
	}

	var input struct {
		Bio    string `json:"bio"`
		Avatar string `json:"avatar"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if input.Bio != "" {
		user.Bio = input.Bio
	}
	if input.Avatar != "" {
		user.Avatar = input.Avatar
	}

	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"bio":      user.Bio,
		"avatar":   user.Avatar,
	})
}
