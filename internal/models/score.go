package models

import "time"

// ScoreRecord — the denormalized net vote count (upvotes minus downvotes)
// for one target. Created lazily on the first vote; a missing row reads as
// score 0. Mutated only through atomic increments, never read-then-overwrite.
type ScoreRecord struct {
	ID         int        `gorm:"primaryKey" json:"id"`
	TargetKind TargetKind `gorm:"uniqueIndex:idx_scores_target" json:"target_kind"`
	TargetID   int        `gorm:"uniqueIndex:idx_scores_target" json:"target_id"`
	Score      int        `gorm:"not null;default:0" json:"score"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
