package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	challengerepo "flagforge/internal/challenge/repository"
	"flagforge/internal/common/db"
	"flagforge/internal/scoring/repository"
	userrepo "flagforge/internal/user/repository"
)

// memStore is the committed state shared by the in-memory repositories.
// Writes go through a memTx and only land here on commit, mirroring the
// failure-atomic unit the real transaction provides.
type memStore struct {
	mu         sync.Mutex
	users      map[int64]*userrepo.User
	challenges map[int64]*challengerepo.Challenge
	subs       []*repository.Submission
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[int64]*userrepo.User),
		challenges: make(map[int64]*challengerepo.Challenge),
	}
}

type memTx struct {
	subs        []*repository.Submission
	scoreDeltas map[int64]int
}

func (t *memTx) Query(ctx context.Context, query string, args ...interface{}) (db.Rows, error) {
	panic("not used")
}

func (t *memTx) QueryRow(ctx context.Context, query string, args ...interface{}) db.Row {
	panic("not used")
}

func (t *memTx) Exec(ctx context.Context, query string, args ...interface{}) (db.Result, error) {
	panic("not used")
}

func (t *memTx) Commit() error   { return nil }
func (t *memTx) Rollback() error { return nil }

// memDB hands repositories a memTx and applies its staged writes only
// when the transaction function succeeds.
type memDB struct {
	store *memStore
}

func (d *memDB) Transaction(ctx context.Context, fn func(tx db.Transaction) error) error {
	tx := &memTx{scoreDeltas: make(map[int64]int)}
	if err := fn(tx); err != nil {
		return err
	}
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	d.store.subs = append(d.store.subs, tx.subs...)
	for userID, delta := range tx.scoreDeltas {
		if user, ok := d.store.users[userID]; ok {
			user.Score += delta
		}
	}
	return nil
}

func (d *memDB) Query(ctx context.Context, query string, args ...interface{}) (db.Rows, error) {
	panic("not used")
}

func (d *memDB) QueryRow(ctx context.Context, query string, args ...interface{}) db.Row {
	panic("not used")
}

func (d *memDB) Exec(ctx context.Context, query string, args ...interface{}) (db.Result, error) {
	panic("not used")
}

func (d *memDB) Ping(ctx context.Context) error { return nil }
func (d *memDB) Close() error                   { return nil }

type memSubmissionRepo struct {
	store *memStore
}

func (r *memSubmissionRepo) Create(ctx context.Context, tx db.Transaction, submission *repository.Submission) error {
	mtx := tx.(*memTx)
	copied := *submission
	mtx.subs = append(mtx.subs, &copied)
	return nil
}

func (r *memSubmissionRepo) HasCorrect(ctx context.Context, tx db.Transaction, userID, challengeID int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, sub := range r.store.subs {
		if sub.UserID == userID && sub.ChallengeID == challengeID && sub.Correct {
			return true, nil
		}
	}
	if mtx, ok := tx.(*memTx); ok {
		for _, sub := range mtx.subs {
			if sub.UserID == userID && sub.ChallengeID == challengeID && sub.Correct {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *memSubmissionRepo) ListByUser(ctx context.Context, userID int64) ([]*repository.SubmissionView, error) {
	return r.listViews(userID, false), nil
}

func (r *memSubmissionRepo) ListCorrectByUser(ctx context.Context, userID int64) ([]*repository.SubmissionView, error) {
	return r.listViews(userID, true), nil
}

func (r *memSubmissionRepo) listViews(userID int64, correctOnly bool) []*repository.SubmissionView {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var views []*repository.SubmissionView
	for _, sub := range r.store.subs {
		if sub.UserID != userID {
			continue
		}
		if correctOnly && !sub.Correct {
			continue
		}
		view := &repository.SubmissionView{
			ID:          sub.ID,
			ChallengeID: sub.ChallengeID,
			Correct:     sub.Correct,
			SubmittedAt: sub.SubmittedAt,
		}
		if challenge, ok := r.store.challenges[sub.ChallengeID]; ok {
			view.ChallengeTitle = challenge.Title
			if sub.Correct {
				view.AwardedPoints = challenge.Points
			}
		}
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].SubmittedAt.Before(views[j].SubmittedAt)
	})
	return views
}

type memUserRepo struct {
	store        *memStore
	failAddScore bool
}

func (r *memUserRepo) Create(ctx context.Context, tx db.Transaction, user *userrepo.User) (int64, error) {
	panic("not used")
}

func (r *memUserRepo) GetByID(ctx context.Context, tx db.Transaction, id int64) (*userrepo.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, userrepo.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, tx db.Transaction, username string) (*userrepo.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, userrepo.ErrUserNotFound
}

func (r *memUserRepo) AddScore(ctx context.Context, tx db.Transaction, userID int64, delta int) error {
	if r.failAddScore {
		return errTestScoreUpdate
	}
	mtx := tx.(*memTx)
	mtx.scoreDeltas[userID] += delta
	return nil
}

type memChallengeRepo struct {
	store *memStore
}

func (r *memChallengeRepo) Create(ctx context.Context, tx db.Transaction, challenge *challengerepo.Challenge) (int64, error) {
	panic("not used")
}

func (r *memChallengeRepo) GetByID(ctx context.Context, tx db.Transaction, id int64) (*challengerepo.Challenge, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	challenge, ok := r.store.challenges[id]
	if !ok {
		return nil, challengerepo.ErrChallengeNotFound
	}
	copied := *challenge
	return &copied, nil
}

func (r *memChallengeRepo) List(ctx context.Context, filter challengerepo.ListFilter) ([]*challengerepo.Challenge, error) {
	panic("not used")
}

func (r *memChallengeRepo) Update(ctx context.Context, tx db.Transaction, challenge *challengerepo.Challenge) error {
	panic("not used")
}

func (r *memChallengeRepo) Delete(ctx context.Context, tx db.Transaction, id int64) error {
	panic("not used")
}

func (r *memChallengeRepo) ExistsByTitle(ctx context.Context, tx db.Transaction, title string) (bool, error) {
	panic("not used")
}

// fakeHasher avoids bcrypt cost in service tests.
type fakeHasher struct{}

func (fakeHasher) Hash(secret string) (string, error) {
	return "hashed:" + secret, nil
}

func (fakeHasher) Verify(secret, hash string) bool {
	return hash == "hashed:"+secret
}

type countingBoard struct {
	mu    sync.Mutex
	calls int
}

func (b *countingBoard) Invalidate(ctx context.Context) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
}

func (b *countingBoard) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func seedUser(store *memStore, id int64, username string) {
	store.users[id] = &userrepo.User{
		ID:        id,
		Username:  username,
		Email:     username + "@ctf.test",
		Role:      userrepo.UserRoleUser,
		CreatedAt: time.Now(),
	}
}

func seedChallenge(store *memStore, id int64, title string, points int, flag string) {
	store.challenges[id] = &challengerepo.Challenge{
		ID:       id,
		Title:    title,
		Category: challengerepo.CategoryWeb,
		Points:   points,
		FlagHash: "hashed:" + flag,
	}
}
