package votes

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/quorum-community/backend/internal/models"
)

// fakeStore is an in-memory Store + ContentStore. InTx serializes callers
// and restores a snapshot on error, mirroring the all-or-nothing contract
// of the SQL implementation.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int
	votes   map[int]*models.Vote
	scores  map[models.Target]int
	targets map[models.Target]TargetInfo

	// conflictsLeft makes the next N CreateVote calls fail with
	// ErrVoteConflict, to exercise the retry path.
	conflictsLeft int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		votes:   make(map[int]*models.Vote),
		scores:  make(map[models.Target]int),
		targets: make(map[models.Target]TargetInfo),
	}
}

func (f *fakeStore) addTarget(t models.Target, authorID int, deleted bool) {
	f.targets[t] = TargetInfo{AuthorID: authorID, Deleted: deleted}
}

func (f *fakeStore) GetTarget(_ context.Context, t models.Target) (TargetInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.targets[t]
	if !ok {
		return TargetInfo{}, ErrTargetNotFound
	}
	return info, nil
}

func (f *fakeStore) findVote(userID int, t models.Target) *models.Vote {
	for _, v := range f.votes {
		if v.UserID == userID && v.TargetKind == t.Kind && v.TargetID == t.ID {
			return v
		}
	}
	return nil
}

func (f *fakeStore) GetVote(_ context.Context, userID int, t models.Target) (*models.Vote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v := f.findVote(userID, t); v != nil {
		copied := *v
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStore) CreateVote(_ context.Context, v *models.Vote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createVoteLocked(v)
}

func (f *fakeStore) createVoteLocked(v *models.Vote) error {
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return ErrVoteConflict
	}
	t := models.Target{Kind: v.TargetKind, ID: v.TargetID}
	if f.findVote(v.UserID, t) != nil {
		return ErrVoteConflict
	}
	f.nextID++
	v.ID = f.nextID
	copied := *v
	f.votes[v.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateVoteState(_ context.Context, voteID int, state models.VoteState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.votes[voteID]; ok {
		v.State = state
	}
	return nil
}

func (f *fakeStore) DeleteVote(_ context.Context, voteID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.votes, voteID)
	return nil
}

func (f *fakeStore) ApplyScoreDelta(_ context.Context, t models.Target, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[t] += delta
	return nil
}

func (f *fakeStore) GetScore(_ context.Context, t models.Target) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scores[t], nil
}

func (f *fakeStore) SumVoteDeltas(_ context.Context, t models.Target) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sumLocked(t), nil
}

func (f *fakeStore) sumLocked(t models.Target) int {
	sum := 0
	for _, v := range f.votes {
		if v.TargetKind == t.Kind && v.TargetID == t.ID {
			sum += v.State.Delta()
		}
	}
	return sum
}

func (f *fakeStore) SetScore(_ context.Context, t models.Target, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[t] = score
	return nil
}

// txStore gives the transaction callback raw access under the already-held
// lock.
type txStore struct {
	f *fakeStore
}

func (tx txStore) GetVote(_ context.Context, userID int, t models.Target) (*models.Vote, error) {
	if v := tx.f.findVote(userID, t); v != nil {
		copied := *v
		return &copied, nil
	}
	return nil, nil
}

func (tx txStore) CreateVote(_ context.Context, v *models.Vote) error {
	return tx.f.createVoteLocked(v)
}

func (tx txStore) UpdateVoteState(_ context.Context, voteID int, state models.VoteState) error {
	if v, ok := tx.f.votes[voteID]; ok {
		v.State = state
	}
	return nil
}

func (tx txStore) DeleteVote(_ context.Context, voteID int) error {
	delete(tx.f.votes, voteID)
	return nil
}

func (tx txStore) ApplyScoreDelta(_ context.Context, t models.Target, delta int) error {
	tx.f.scores[t] += delta
	return nil
}

func (tx txStore) GetScore(_ context.Context, t models.Target) (int, error) {
	return tx.f.scores[t], nil
}

func (tx txStore) SumVoteDeltas(_ context.Context, t models.Target) (int, error) {
	return tx.f.sumLocked(t), nil
}

func (tx txStore) SetScore(_ context.Context, t models.Target, score int) error {
	tx.f.scores[t] = score
	return nil
}

func (tx txStore) InTx(ctx context.Context, fn func(Store) error) error {
	return fn(tx)
}

func (f *fakeStore) InTx(_ context.Context, fn func(Store) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Snapshot so a failed transaction leaves no partial writes.
	votesBackup := make(map[int]*models.Vote, len(f.votes))
	for id, v := range f.votes {
		copied := *v
		votesBackup[id] = &copied
	}
	scoresBackup := make(map[models.Target]int, len(f.scores))
	for t, s := range f.scores {
		scoresBackup[t] = s
	}

	if err := fn(txStore{f: f}); err != nil {
		f.votes = votesBackup
		f.scores = scoresBackup
		return err
	}
	return nil
}

func newTestService(f *fakeStore) *Service {
	return NewService(f, f, zap.NewNop())
}

var (
	post    = models.Target{Kind: models.TargetPost, ID: 1}
	ownPost = models.Target{Kind: models.TargetPost, ID: 2}
)

func setupStore() *fakeStore {
	f := newFakeStore()
	f.addTarget(post, 99, false)
	return f
}

func TestSubmitVoteCreatesAndToggles(t *testing.T) {
	f := setupStore()
	svc := newTestService(f)
	ctx := context.Background()

	res, err := svc.SubmitVote(ctx, 1, post, models.VoteUpvote)
	if err != nil {
		t.Fatalf("first upvote: %v", err)
	}
	if res.State != models.VoteUpvote || res.Score != 1 {
		t.Errorf("after upvote: state=%s score=%d, want upvote/1", res.State, res.Score)
	}

	// Same state again toggles off and reverses the delta.
	res, err = svc.SubmitVote(ctx, 1, post, models.VoteUpvote)
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if res.State != models.VoteNone || res.Score != 0 {
		t.Errorf("after toggle: state=%s score=%d, want none/0", res.State, res.Score)
	}

	state, err := svc.VoteState(ctx, 1, post)
	if err != nil {
		t.Fatalf("VoteState: %v", err)
	}
	if state != models.VoteNone {
		t.Errorf("state after toggle = %s, want none", state)
	}
}

func TestSubmitVoteFlip(t *testing.T) {
	f := setupStore()
	svc := newTestService(f)
	ctx := context.Background()

	if _, err := svc.SubmitVote(ctx, 1, post, models.VoteUpvote); err != nil {
		t.Fatalf("upvote: %v", err)
	}

	res, err := svc.SubmitVote(ctx, 1, post, models.VoteDownvote)
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	if res.State != models.VoteDownvote {
		t.Errorf("state after flip = %s, want downvote", res.State)
	}
	// Net delta of the flip is -2 relative to the pre-flip score of 1.
	if res.Score != -1 {
		t.Errorf("score after flip = %d, want -1", res.Score)
	}
}

func TestRemoveVoteIdempotent(t *testing.T) {
	f := setupStore()
	svc := newTestService(f)
	ctx := context.Background()

	if _, err := svc.SubmitVote(ctx, 1, post, models.VoteDownvote); err != nil {
		t.Fatalf("downvote: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.RemoveVote(ctx, 1, post); err != nil {
			t.Fatalf("RemoveVote call %d: %v", i+1, err)
		}
	}

	score, _ := svc.Score(ctx, post)
	if score != 0 {
		t.Errorf("score after removals = %d, want 0", score)
	}
	state, _ := svc.VoteState(ctx, 1, post)
	if state != models.VoteNone {
		t.Errorf("state after removals = %s, want none", state)
	}
}

func TestSubmitVoteValidation(t *testing.T) {
	f := setupStore()
	f.addTarget(ownPost, 1, false)
	deleted := models.Target{Kind: models.TargetPost, ID: 3}
	f.addTarget(deleted, 99, true)
	svc := newTestService(f)
	ctx := context.Background()

	tests := []struct {
		name    string
		actorID int
		target  models.Target
		state   models.VoteState
		wantErr error
	}{
		{"invalid state", 1, post, models.VoteState("sideways"), ErrInvalidState},
		{"none not submittable", 1, post, models.VoteNone, ErrInvalidState},
		{"missing target", 1, models.Target{Kind: models.TargetPost, ID: 404}, models.VoteUpvote, ErrTargetNotFound},
		{"deleted target", 1, deleted, models.VoteUpvote, ErrTargetGone},
		{"own content", 1, ownPost, models.VoteUpvote, ErrSelfVote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitVote(ctx, tt.actorID, tt.target, tt.state)
			if err != tt.wantErr {
				t.Errorf("SubmitVote = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Rejected votes leave the score untouched.
	if score, _ := svc.Score(ctx, ownPost); score != 0 {
		t.Errorf("score of own post after rejected vote = %d, want 0", score)
	}
}

func TestSubmitVoteScenario(t *testing.T) {
	f := setupStore()
	svc := newTestService(f)
	ctx := context.Background()

	if score, _ := svc.Score(ctx, post); score != 0 {
		t.Fatalf("fresh score = %d, want 0", score)
	}

	if res, _ := svc.SubmitVote(ctx, 1, post, models.VoteUpvote); res.Score != 1 {
		t.Errorf("after A upvotes: score = %d, want 1", res.Score)
	}
	if res, _ := svc.SubmitVote(ctx, 1, post, models.VoteDownvote); res.Score != -1 {
		t.Errorf("after A flips: score = %d, want -1", res.Score)
	}
	if err := svc.RemoveVote(ctx, 1, post); err != nil {
		t.Fatalf("RemoveVote: %v", err)
	}
	if score, _ := svc.Score(ctx, post); score != 0 {
		t.Errorf("after A removes: score = %d, want 0", score)
	}
	if res, _ := svc.SubmitVote(ctx, 2, post, models.VoteDownvote); res.Score != -1 {
		t.Errorf("after B downvotes: score = %d, want -1", res.Score)
	}
}

func TestSubmitVoteRetriesConflictOnce(t *testing.T) {
	f := setupStore()
	f.conflictsLeft = 1
	svc := newTestService(f)

	res, err := svc.SubmitVote(context.Background(), 1, post, models.VoteUpvote)
	if err != nil {
		t.Fatalf("SubmitVote should retry past one conflict, got %v", err)
	}
	if res.Score != 1 {
		t.Errorf("score after retried vote = %d, want 1", res.Score)
	}
}

func TestSubmitVoteSurfacesRepeatedConflict(t *testing.T) {
	f := setupStore()
	f.conflictsLeft = 2
	svc := newTestService(f)

	_, err := svc.SubmitVote(context.Background(), 1, post, models.VoteUpvote)
	if err != ErrVoteConflict {
		t.Fatalf("SubmitVote = %v, want ErrVoteConflict after second conflict", err)
	}
	if score, _ := svc.Score(context.Background(), post); score != 0 {
		t.Errorf("score after failed vote = %d, want 0", score)
	}
}

func TestConcurrentFirstVotes(t *testing.T) {
	f := setupStore()
	svc := newTestService(f)

	const voters = 25
	var wg sync.WaitGroup
	errs := make(chan error, voters)

	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(actorID int) {
			defer wg.Done()
			_, err := svc.SubmitVote(context.Background(), actorID, post, models.VoteUpvote)
			errs <- err
		}(i + 1)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent vote: %v", err)
		}
	}

	score, _ := svc.Score(context.Background(), post)
	if score != voters {
		t.Errorf("score after %d concurrent upvotes = %d", voters, score)
	}
}

func TestScoreNeverDrifts(t *testing.T) {
	f := setupStore()
	svc := newTestService(f)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	states := []models.VoteState{models.VoteUpvote, models.VoteDownvote}
	for i := 0; i < 500; i++ {
		actorID := rng.Intn(10) + 1
		if rng.Intn(4) == 0 {
			if err := svc.RemoveVote(ctx, actorID, post); err != nil {
				t.Fatalf("op %d RemoveVote: %v", i, err)
			}
		} else {
			if _, err := svc.SubmitVote(ctx, actorID, post, states[rng.Intn(2)]); err != nil {
				t.Fatalf("op %d SubmitVote: %v", i, err)
			}
		}

		score, _ := svc.Score(ctx, post)
		truth, _ := f.SumVoteDeltas(ctx, post)
		if score != truth {
			t.Fatalf("op %d: score %d drifted from ledger sum %d", i, score, truth)
		}
	}
}

func TestRecountRepairsDrift(t *testing.T) {
	f := setupStore()
	svc := newTestService(f)
	ctx := context.Background()

	for actor := 1; actor <= 3; actor++ {
		if _, err := svc.SubmitVote(ctx, actor, post, models.VoteUpvote); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}

	// Corrupt the record out-of-band.
	if err := f.SetScore(ctx, post, 42); err != nil {
		t.Fatal(err)
	}

	sum, err := svc.Recount(ctx, post)
	if err != nil {
		t.Fatalf("Recount: %v", err)
	}
	if sum != 3 {
		t.Errorf("Recount = %d, want 3", sum)
	}
	if score, _ := svc.Score(ctx, post); score != 3 {
		t.Errorf("score after recount = %d, want 3", score)
	}
}

func TestVoteStatePerActor(t *testing.T) {
	f := setupStore()
	svc := newTestService(f)
	ctx := context.Background()

	if _, err := svc.SubmitVote(ctx, 1, post, models.VoteDownvote); err != nil {
		t.Fatal(err)
	}

	cases := map[int]models.VoteState{1: models.VoteDownvote, 2: models.VoteNone}
	for actorID, want := range cases {
		state, err := svc.VoteState(ctx, actorID, post)
		if err != nil {
			t.Fatalf("VoteState(%d): %v", actorID, err)
		}
		if state != want {
			t.Errorf("VoteState(%d) = %s, want %s", actorID, state, want)
		}
	}
}

func TestTransitionTable(t *testing.T) {
	// Every (held, submitted) pair in one pass.
	tests := []struct {
		held      models.VoteState // none means no prior vote
		submitted models.VoteState
		wantState models.VoteState
		wantScore int
	}{
		{models.VoteNone, models.VoteUpvote, models.VoteUpvote, 1},
		{models.VoteNone, models.VoteDownvote, models.VoteDownvote, -1},
		{models.VoteUpvote, models.VoteUpvote, models.VoteNone, 0},
		{models.VoteUpvote, models.VoteDownvote, models.VoteDownvote, -1},
		{models.VoteDownvote, models.VoteDownvote, models.VoteNone, 0},
		{models.VoteDownvote, models.VoteUpvote, models.VoteUpvote, 1},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s_then_%s", tt.held, tt.submitted)
		t.Run(name, func(t *testing.T) {
			f := setupStore()
			svc := newTestService(f)
			ctx := context.Background()

			if tt.held != models.VoteNone {
				if _, err := svc.SubmitVote(ctx, 1, post, tt.held); err != nil {
					t.Fatalf("setup vote: %v", err)
				}
			}

			res, err := svc.SubmitVote(ctx, 1, post, tt.submitted)
			if err != nil {
				t.Fatalf("SubmitVote: %v", err)
			}
			if res.State != tt.wantState || res.Score != tt.wantScore {
				t.Errorf("got state=%s score=%d, want %s/%d",
					res.State, res.Score, tt.wantState, tt.wantScore)
			}
		})
	}
}
