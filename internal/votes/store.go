package votes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quorum-community/backend/internal/models"
)

// Store is the persistence port for the vote ledger and score records.
// All score mutations go through ApplyScoreDelta; nothing may read a score
// and write it back.
type Store interface {
	// GetVote returns the actor's current vote on a target, or nil if none.
	GetVote(ctx context.Context, userID int, t models.Target) (*models.Vote, error)
	// CreateVote inserts a new vote; returns ErrVoteConflict if a concurrent
	// writer created one first.
	CreateVote(ctx context.Context, v *models.Vote) error
	UpdateVoteState(ctx context.Context, voteID int, state models.VoteState) error
	DeleteVote(ctx context.Context, voteID int) error

	// ApplyScoreDelta atomically increments the target's score record,
	// creating it when absent.
	ApplyScoreDelta(ctx context.Context, t models.Target, delta int) error
	// GetScore returns the current score, 0 when no record exists.
	GetScore(ctx context.Context, t models.Target) (int, error)
	// SumVoteDeltas recomputes the score from vote rows (repair path only).
	SumVoteDeltas(ctx context.Context, t models.Target) (int, error)
	SetScore(ctx context.Context, t models.Target, score int) error

	// InTx runs fn against a transactional view of the store; the ledger
	// write and the score delta of one request commit or roll back together.
	InTx(ctx context.Context, fn func(Store) error) error
}

// TargetInfo is what the ledger needs to know about a target before
// accepting a vote.
type TargetInfo struct {
	AuthorID int
	Deleted  bool
}

// ContentStore supplies existence, authorship and deleted-state of targets.
type ContentStore interface {
	GetTarget(ctx context.Context, t models.Target) (TargetInfo, error)
}

// SQLStore implements Store and ContentStore on GORM.
type SQLStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

const pgUniqueViolation = "23505"

func (s *SQLStore) GetVote(ctx context.Context, userID int, t models.Target) (*models.Vote, error) {
	var vote models.Vote
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, t.Kind, t.ID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (s *SQLStore) CreateVote(ctx context.Context, v *models.Vote) error {
	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrVoteConflict
		}
		return err
	}
	return nil
}

func (s *SQLStore) UpdateVoteState(ctx context.Context, voteID int, state models.VoteState) error {
	return s.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("id = ?", voteID).
		Update("state", state).Error
}

func (s *SQLStore) DeleteVote(ctx context.Context, voteID int) error {
	return s.db.WithContext(ctx).Delete(&models.Vote{}, voteID).Error
}

func (s *SQLStore) ApplyScoreDelta(ctx context.Context, t models.Target, delta int) error {
	// Increment in place first; the common case is an existing record.
	res := s.db.WithContext(ctx).
		Model(&models.ScoreRecord{}).
		Where("target_kind = ? AND target_id = ?", t.Kind, t.ID).
		UpdateColumn("score", gorm.Expr("score + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// First vote for this target. A concurrent first voter may insert
	// between our update and create, so fall back to increment on conflict.
	rec := models.ScoreRecord{TargetKind: t.Kind, TargetID: t.ID, Score: delta}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "target_kind"}, {Name: "target_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"score": gorm.Expr("score_records.score + ?", delta),
			}),
		}).
		Create(&rec).Error
}

func (s *SQLStore) GetScore(ctx context.Context, t models.Target) (int, error) {
	var rec models.ScoreRecord
	err := s.db.WithContext(ctx).
		Where("target_kind = ? AND target_id = ?", t.Kind, t.ID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.Score, nil
}

func (s *SQLStore) SumVoteDeltas(ctx context.Context, t models.Target) (int, error) {
	var sum int
	err := s.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select("COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE -1 END), 0)", models.VoteUpvote).
		Where("target_kind = ? AND target_id = ?", t.Kind, t.ID).
		Scan(&sum).Error
	return sum, err
}

func (s *SQLStore) SetScore(ctx context.Context, t models.Target, score int) error {
	rec := models.ScoreRecord{TargetKind: t.Kind, TargetID: t.ID, Score: score}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "target_kind"}, {Name: "target_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"score": score}),
		}).
		Create(&rec).Error
}

func (s *SQLStore) InTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SQLStore{db: tx})
	})
}

// GetTarget looks up a post or comment including soft-deleted rows, so the
// ledger can tell "gone" apart from "never existed".
func (s *SQLStore) GetTarget(ctx context.Context, t models.Target) (TargetInfo, error) {
	switch t.Kind {
	case models.TargetPost:
		var post models.Post
		err := s.db.WithContext(ctx).Unscoped().First(&post, t.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TargetInfo{}, ErrTargetNotFound
		}
		if err != nil {
			return TargetInfo{}, err
		}
		return TargetInfo{AuthorID: post.AuthorID, Deleted: post.DeletedAt.Valid}, nil
	case models.TargetComment:
		var comment models.Comment
		err := s.db.WithContext(ctx).Unscoped().First(&comment, t.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TargetInfo{}, ErrTargetNotFound
		}
		if err != nil {
			return TargetInfo{}, err
		}
		return TargetInfo{AuthorID: comment.AuthorID, Deleted: comment.DeletedAt.Valid}, nil
	default:
		return TargetInfo{}, ErrTargetNotFound
	}
}
