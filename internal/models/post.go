package models

import (
	"time"

	"gorm.io/gorm"
)

type Post struct {
	ID          int            `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Body        string         `json:"body,omitempty"`
	AuthorID    int            `json:"author_id"`
	User        User           `gorm:"foreignKey:AuthorID" json:"user"`
	CommunityID int            `json:"community_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type CreatePostRequest struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	CommunityID int    `json:"community_id"`
}
