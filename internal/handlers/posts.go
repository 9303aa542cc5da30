package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quorum-community/backend/internal/models"
	"github.com/quorum-community/backend/internal/votes"
)

type PostHandler struct {
	db    *gorm.DB
	votes *votes.Service
}

func NewPostHandler(db *gorm.DB, voteSvc *votes.Service) *PostHandler {
	return &PostHandler{db: db, votes: voteSvc}
}

func (h *PostHandler) postResponse(c *gin.Context, post models.Post) gin.H {
	// Score comes off the denormalized record, never a count over votes.
	score, err := h.votes.Score(c.Request.Context(), models.Target{Kind: models.TargetPost, ID: post.ID})
	if err != nil {
		score = 0
	}
	return gin.H{
		"id":           post.ID,
		"title":        post.Title,
		"body":         post.Body,
		"author_id":    post.AuthorID,
		"community_id": post.CommunityID,
		"user":         post.User,
		"score":        score,
		"created_at":   post.CreatedAt,
		"updated_at":   post.UpdatedAt,
	}
}

// GetPosts returns posts, newest first, with optional offset/limit.
func (h *PostHandler) GetPosts(c *gin.Context) {
	var posts []models.Post

	query := h.db.Preload("User").Order("created_at desc")
	if community := c.Query("community_id"); community != "" {
		query = query.Where("community_id = ?", community)
	}
	if limit := c.Query("limit"); limit != "" {
		query = query.Limit(atoiDefault(limit, 50))
	}
	if offset := c.Query("offset"); offset != "" {
		query = query.Offset(atoiDefault(offset, 0))
	}

	if err := query.Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	responses := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, h.postResponse(c, post))
	}

	c.JSON(http.StatusOK, responses)
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	postID := c.Param("id")
	var post models.Post

	if err := h.db.Preload("User").First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, h.postResponse(c, post))
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input struct {
		Title       string `json:"title" binding:"required"`
		Body        string `json:"body"`
		CommunityID int    `json:"community_id"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if input.CommunityID != 0 {
		var community models.Community
		if err := h.db.First(&community, input.CommunityID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Community not found"})
			return
		}
	}

	post := models.Post{
		Title:       input.Title,
		Body:        input.Body,
		AuthorID:    authorID,
		CommunityID: input.CommunityID,
	}

	if err := h.db.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	h.db.Preload("User").First(&post, post.ID)

	c.JSON(http.StatusCreated, h.postResponse(c, post))
}

// UpdatePost updates an existing post (PROTECTED - requires ownership)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	postID := c.Param("id")

	currentUserID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.AuthorID != currentUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own posts"})
		return
	}

	if input.Title != "" {
		post.Title = input.Title
	}
	if input.Body != "" {
		post.Body = input.Body
	}

	h.db.Save(&post)
	h.db.Preload("User").First(&post, post.ID)

	c.JSON(http.StatusOK, h.postResponse(c, post))
}

// DeletePost soft-deletes a post (PROTECTED - owner or admin). The row is
// kept with its deleted timestamp so votes on it read as gone, not missing.
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID := c.Param("id")

	currentUserID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.AuthorID != currentUserID && !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own posts"})
		return
	}

	if err := h.db.Delete(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// GetUserPosts returns all posts by a specific user
func (h *PostHandler) GetUserPosts(c *gin.Context) {
	userID := c.Param("id")
	var posts []models.Post

	if err := h.db.Preload("User").Where("author_id = ?", userID).Order("created_at desc").Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user posts"})
		return
	}

	responses := make([]gin.H, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, h.postResponse(c, post))
	}
	c.JSON(http.StatusOK, responses)
}
