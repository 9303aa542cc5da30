package models

import "time"

// VoteState is the recorded opinion of a user on a target. Absence of a
// Vote row means "none" — a row never holds VoteNone.
type VoteState string

const (
	VoteNone     VoteState = "none"
	VoteUpvote   VoteState = "upvote"
	VoteDownvote VoteState = "downvote"
)

// Valid reports whether s is a state a request may submit.
func (s VoteState) Valid() bool {
	return s == VoteUpvote || s == VoteDownvote
}

// Delta is the signed score contribution of a vote in state s.
func (s VoteState) Delta() int {
	switch s {
	case VoteUpvote:
		return 1
	case VoteDownvote:
		return -1
	}
	return 0
}

// TargetKind distinguishes the two votable entity types. Posts and comments
// share one vote table and one score table, keyed by (kind, id).
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// Target identifies one votable entity.
type Target struct {
	Kind TargetKind
	ID   int
}

// Vote — one user's current vote on one target. At most one row exists per
// (user_id, target_kind, target_id), enforced by the unique index.
type Vote struct {
	ID         int        `gorm:"primaryKey" json:"id"`
	UserID     int        `gorm:"uniqueIndex:idx_votes_user_target" json:"user_id"`
	TargetKind TargetKind `gorm:"uniqueIndex:idx_votes_user_target" json:"target_kind"`
	TargetID   int        `gorm:"uniqueIndex:idx_votes_user_target" json:"target_id"`
	State      VoteState  `gorm:"not null" json:"state"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
