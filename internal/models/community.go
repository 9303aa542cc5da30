package models

import "time"

type Community struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"unique;not null" json:"name"`
	Description string `json:"description"`
	CreatedBy   int    `json:"created_by"`
	// Maintained incrementally on join/leave, same discipline as scores.
	MemberCount int       `gorm:"not null;default:0" json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership links a user to a community; the unique index keeps concurrent
// joins from double-counting.
type Membership struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	CommunityID int       `gorm:"uniqueIndex:idx_memberships_community_user" json:"community_id"`
	UserID      int       `gorm:"uniqueIndex:idx_memberships_community_user" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateCommunityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
