// Package votes owns the vote ledger and the denormalized score records.
// Handlers call into Service; storage is reached through the Store and
// ContentStore ports so the toggle rules stay testable without a database.
package votes

import "errors"

var (
	// ErrInvalidState — submitted vote_state outside {upvote, downvote}
	ErrInvalidState = errors.New("vote state must be upvote or downvote")
	// ErrTargetNotFound — target post or comment does not exist
	ErrTargetNotFound = errors.New("vote target not found")
	// ErrTargetGone — target exists but has been soft-deleted
	ErrTargetGone = errors.New("vote target has been deleted")
	// ErrSelfVote — actor attempted to vote on their own content
	ErrSelfVote = errors.New("cannot vote on your own content")
	// ErrVoteConflict — unique-key collision with a concurrent writer;
	// retried once inside the service before being surfaced
	ErrVoteConflict = errors.New("concurrent vote conflict")
)
