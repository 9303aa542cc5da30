package votes

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/quorum-community/backend/internal/models"
)

// Service applies the toggle rules: submitting the state you already hold
// clears the vote, submitting the opposite flips it, and every transition
// carries its signed delta to the score record in the same transaction.
type Service struct {
	store   Store
	content ContentStore
	log     *zap.Logger
}

func NewService(store Store, content ContentStore, log *zap.Logger) *Service {
	return &Service{store: store, content: content, log: log}
}

// VoteResult is the state and score a vote operation leaves behind.
type VoteResult struct {
	State models.VoteState `json:"state"`
	Score int              `json:"score"`
}

// SubmitVote records, flips or clears the actor's vote on a target.
func (s *Service) SubmitVote(ctx context.Context, actorID int, t models.Target, requested models.VoteState) (VoteResult, error) {
	if !requested.Valid() {
		return VoteResult{}, ErrInvalidState
	}

	info, err := s.content.GetTarget(ctx, t)
	if err != nil {
		return VoteResult{}, err
	}
	if info.Deleted {
		return VoteResult{}, ErrTargetGone
	}
	if info.AuthorID == actorID {
		return VoteResult{}, ErrSelfVote
	}

	state, err := s.transition(ctx, actorID, t, requested)
	if errors.Is(err, ErrVoteConflict) {
		// A concurrent first vote won the unique index. Re-read and
		// recompute the delta once; a stale delta must never be applied.
		s.log.Warn("vote conflict, retrying",
			zap.Int("actor_id", actorID),
			zap.String("target_kind", string(t.Kind)),
			zap.Int("target_id", t.ID))
		state, err = s.transition(ctx, actorID, t, requested)
	}
	if err != nil {
		return VoteResult{}, err
	}

	score, err := s.store.GetScore(ctx, t)
	if err != nil {
		return VoteResult{}, err
	}
	return VoteResult{State: state, Score: score}, nil
}

// transition runs one read-modify-write of the ledger plus the matching
// score delta, all-or-nothing.
func (s *Service) transition(ctx context.Context, actorID int, t models.Target, requested models.VoteState) (models.VoteState, error) {
	result := models.VoteNone
	err := s.store.InTx(ctx, func(tx Store) error {
		existing, err := tx.GetVote(ctx, actorID, t)
		if err != nil {
			return err
		}

		var delta int
		switch {
		case existing == nil:
			vote := &models.Vote{
				UserID:     actorID,
				TargetKind: t.Kind,
				TargetID:   t.ID,
				State:      requested,
			}
			if err := tx.CreateVote(ctx, vote); err != nil {
				return err
			}
			delta = requested.Delta()
			result = requested
		case existing.State == requested:
			// Toggle off: reverse the vote's original contribution.
			if err := tx.DeleteVote(ctx, existing.ID); err != nil {
				return err
			}
			delta = -existing.State.Delta()
			result = models.VoteNone
		default:
			// Flip: two units, the sign changes.
			if err := tx.UpdateVoteState(ctx, existing.ID, requested); err != nil {
				return err
			}
			delta = 2 * requested.Delta()
			result = requested
		}

		return tx.ApplyScoreDelta(ctx, t, delta)
	})
	return result, err
}

// RemoveVote clears the actor's vote if one exists. Idempotent: a second
// call is a no-op, not an error.
func (s *Service) RemoveVote(ctx context.Context, actorID int, t models.Target) error {
	return s.store.InTx(ctx, func(tx Store) error {
		existing, err := tx.GetVote(ctx, actorID, t)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		if err := tx.DeleteVote(ctx, existing.ID); err != nil {
			return err
		}
		return tx.ApplyScoreDelta(ctx, t, -existing.State.Delta())
	})
}

// VoteState returns the actor's current vote on a target. Pure read.
func (s *Service) VoteState(ctx context.Context, actorID int, t models.Target) (models.VoteState, error) {
	vote, err := s.store.GetVote(ctx, actorID, t)
	if err != nil {
		return models.VoteNone, err
	}
	if vote == nil {
		return models.VoteNone, nil
	}
	return vote.State, nil
}

// Score returns the target's current score; 0 when nobody has voted.
func (s *Service) Score(ctx context.Context, t models.Target) (int, error) {
	return s.store.GetScore(ctx, t)
}

// Recount rebuilds a score record from the vote rows. Repair path for a
// record that drifted after a partial failure; never called on the hot path.
func (s *Service) Recount(ctx context.Context, t models.Target) (int, error) {
	var sum int
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		sum, err = tx.SumVoteDeltas(ctx, t)
		if err != nil {
			return err
		}
		return tx.SetScore(ctx, t, sum)
	})
	return sum, err
}
