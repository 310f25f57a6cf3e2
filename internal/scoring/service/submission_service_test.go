package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"flagforge/internal/ratelimit"
	"flagforge/internal/scoring/service"
	apperr "flagforge/pkg/errors"
)

var errTestScoreUpdate = errors.New("score update failed")

type fixture struct {
	store   *memStore
	users   *memUserRepo
	board   *countingBoard
	service *service.SubmissionService
}

func newFixture(t *testing.T, limiter *ratelimit.Limiter) *fixture {
	t.Helper()
	store := newMemStore()
	users := &memUserRepo{store: store}
	board := &countingBoard{}
	svc, err := service.NewSubmissionService(service.Config{
		DB:          &memDB{store: store},
		Submissions: &memSubmissionRepo{store: store},
		Challenges:  &memChallengeRepo{store: store},
		Users:       users,
		Hasher:      fakeHasher{},
		Limiter:     limiter,
		Board:       board,
	})
	if err != nil {
		t.Fatalf("NewSubmissionService: %v", err)
	}
	return &fixture{store: store, users: users, board: board, service: svc}
}

func (f *fixture) score(t *testing.T, userID int64) int {
	t.Helper()
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	user, ok := f.store.users[userID]
	if !ok {
		t.Fatalf("user %d not found", userID)
	}
	return user.Score
}

func (f *fixture) submissionCount(userID, challengeID int64) int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	count := 0
	for _, sub := range f.store.subs {
		if sub.UserID == userID && sub.ChallengeID == challengeID {
			count++
		}
	}
	return count
}

func TestSubmitCorrectAwardsOnce(t *testing.T) {
	f := newFixture(t, nil)
	seedUser(f.store, 1, "alice")
	seedChallenge(f.store, 10, "SQL Warmup", 100, "flag{union}")

	result, err := f.service.Submit(context.Background(), service.SubmitInput{
		UserID: 1, Username: "alice", ChallengeID: 10, Attempt: "flag{union}",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.Correct {
		t.Fatal("expected correct result")
	}
	if result.AwardedPoints != 100 {
		t.Fatalf("awarded points = %d, want 100", result.AwardedPoints)
	}
	if result.SubmissionID == "" {
		t.Fatal("expected a submission id")
	}
	if result.ChallengeTitle != "SQL Warmup" {
		t.Fatalf("challenge title = %q", result.ChallengeTitle)
	}
	if got := f.score(t, 1); got != 100 {
		t.Fatalf("score = %d, want 100", got)
	}
	if got := f.board.count(); got != 1 {
		t.Fatalf("board invalidations = %d, want 1", got)
	}
}

func TestSubmitWrongRecordsWithoutScoring(t *testing.T) {
	f := newFixture(t, nil)
	seedUser(f.store, 1, "alice")
	seedChallenge(f.store, 10, "SQL Warmup", 100, "flag{union}")

	for i := 0; i < 2; i++ {
		result, err := f.service.Submit(context.Background(), service.SubmitInput{
			UserID: 1, Username: "alice", ChallengeID: 10, Attempt: "flag{wrong}",
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if result.Correct {
			t.Fatal("expected incorrect result")
		}
		if result.AwardedPoints != 0 {
			t.Fatalf("awarded points = %d, want 0", result.AwardedPoints)
		}
	}
	if got := f.submissionCount(1, 10); got != 2 {
		t.Fatalf("recorded attempts = %d, want 2", got)
	}
	if got := f.score(t, 1); got != 0 {
		t.Fatalf("score = %d, want 0", got)
	}
	if got := f.board.count(); got != 0 {
		t.Fatalf("board invalidations = %d, want 0", got)
	}
}

func TestSubmitAfterSolveIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	seedUser(f.store, 1, "alice")
	seedChallenge(f.store, 10, "SQL Warmup", 100, "flag{union}")

	ctx := context.Background()
	input := service.SubmitInput{UserID: 1, Username: "alice", ChallengeID: 10, Attempt: "flag{union}"}
	if _, err := f.service.Submit(ctx, input); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	// Both a repeated correct flag and a wrong one hit the same wall.
	for _, attempt := range []string{"flag{union}", "flag{wrong}"} {
		input.Attempt = attempt
		_, err := f.service.Submit(ctx, input)
		if apperr.GetCode(err) != apperr.AlreadySolved {
			t.Fatalf("attempt %q: error = %v, want AlreadySolved", attempt, err)
		}
	}
	if got := f.submissionCount(1, 10); got != 1 {
		t.Fatalf("recorded attempts = %d, want 1 (rejections are not recorded)", got)
	}
	if got := f.score(t, 1); got != 100 {
		t.Fatalf("score = %d, want 100", got)
	}
}

func TestSubmitConcurrentSamePairScoresOnce(t *testing.T) {
	f := newFixture(t, nil)
	seedUser(f.store, 1, "alice")
	seedChallenge(f.store, 10, "Race", 250, "flag{tocttou}")

	const attempts = 32
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.service.Submit(context.Background(), service.SubmitInput{
				UserID: 1, Username: "alice", ChallengeID: 10, Attempt: "flag{tocttou}",
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	success := 0
	for _, err := range results {
		switch {
		case err == nil:
			success++
		case apperr.GetCode(err) == apperr.AlreadySolved:
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("successful submissions = %d, want exactly 1", success)
	}
	if got := f.score(t, 1); got != 250 {
		t.Fatalf("score = %d, want 250", got)
	}
	if got := f.submissionCount(1, 10); got != 1 {
		t.Fatalf("recorded attempts = %d, want 1", got)
	}
}

func TestSubmitConcurrentDistinctChallenges(t *testing.T) {
	f := newFixture(t, nil)
	seedUser(f.store, 1, "alice")
	seedChallenge(f.store, 10, "Web", 100, "flag{a}")
	seedChallenge(f.store, 11, "Pwn", 200, "flag{b}")
	seedChallenge(f.store, 12, "Crypto", 300, "flag{c}")

	flags := map[int64]string{10: "flag{a}", 11: "flag{b}", 12: "flag{c}"}
	var wg sync.WaitGroup
	for challengeID, flag := range flags {
		wg.Add(1)
		go func(challengeID int64, flag string) {
			defer wg.Done()
			if _, err := f.service.Submit(context.Background(), service.SubmitInput{
				UserID: 1, Username: "alice", ChallengeID: challengeID, Attempt: flag,
			}); err != nil {
				t.Errorf("challenge %d: %v", challengeID, err)
			}
		}(challengeID, flag)
	}
	wg.Wait()

	if got := f.score(t, 1); got != 600 {
		t.Fatalf("score = %d, want 600", got)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	limiter := ratelimit.NewWithPolicies(map[ratelimit.Category]ratelimit.Policy{
		ratelimit.FlagSubmission: {Capacity: 2, Window: time.Hour},
	})
	f := newFixture(t, limiter)
	seedUser(f.store, 1, "alice")
	seedChallenge(f.store, 10, "Web", 100, "flag{a}")

	ctx := context.Background()
	input := service.SubmitInput{UserID: 1, Username: "alice", ChallengeID: 10, Attempt: "flag{wrong}"}
	for i := 0; i < 2; i++ {
		if _, err := f.service.Submit(ctx, input); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	_, err := f.service.Submit(ctx, input)
	if apperr.GetCode(err) != apperr.SubmitTooFrequently {
		t.Fatalf("error = %v, want SubmitTooFrequently", err)
	}
	// Rejected attempts leave no audit record.
	if got := f.submissionCount(1, 10); got != 2 {
		t.Fatalf("recorded attempts = %d, want 2", got)
	}
}

func TestSubmitRateLimitPerUser(t *testing.T) {
	limiter := ratelimit.NewWithPolicies(map[ratelimit.Category]ratelimit.Policy{
		ratelimit.FlagSubmission: {Capacity: 1, Window: time.Hour},
	})
	f := newFixture(t, limiter)
	seedUser(f.store, 1, "alice")
	seedUser(f.store, 2, "bob")
	seedChallenge(f.store, 10, "Web", 100, "flag{a}")

	ctx := context.Background()
	if _, err := f.service.Submit(ctx, service.SubmitInput{
		UserID: 1, Username: "alice", ChallengeID: 10, Attempt: "flag{wrong}",
	}); err != nil {
		t.Fatalf("alice: %v", err)
	}
	// Alice exhausted her bucket, Bob still has his.
	if _, err := f.service.Submit(ctx, service.SubmitInput{
		UserID: 2, Username: "bob", ChallengeID: 10, Attempt: "flag{wrong}",
	}); err != nil {
		t.Fatalf("bob: %v", err)
	}
}

func TestSubmitUnknownChallengeAndUser(t *testing.T) {
	f := newFixture(t, nil)
	seedUser(f.store, 1, "alice")
	seedChallenge(f.store, 10, "Web", 100, "flag{a}")

	ctx := context.Background()
	_, err := f.service.Submit(ctx, service.SubmitInput{
		UserID: 1, Username: "alice", ChallengeID: 99, Attempt: "flag{a}",
	})
	if apperr.GetCode(err) != apperr.ChallengeNotFound {
		t.Fatalf("error = %v, want ChallengeNotFound", err)
	}
	_, err = f.service.Submit(ctx, service.SubmitInput{
		UserID: 99, Username: "ghost", ChallengeID: 10, Attempt: "flag{a}",
	})
	if apperr.GetCode(err) != apperr.UserNotFound {
		t.Fatalf("error = %v, want UserNotFound", err)
	}
}

func TestSubmitScoreUpdateFailureDiscardsRecord(t *testing.T) {
	f := newFixture(t, nil)
	f.users.failAddScore = true
	seedUser(f.store, 1, "alice")
	seedChallenge(f.store, 10, "Web", 100, "flag{a}")

	_, err := f.service.Submit(context.Background(), service.SubmitInput{
		UserID: 1, Username: "alice", ChallengeID: 10, Attempt: "flag{a}",
	})
	if apperr.GetCode(err) != apperr.DatabaseError {
		t.Fatalf("error = %v, want DatabaseError", err)
	}
	// The record and the award commit together or not at all.
	if got := f.submissionCount(1, 10); got != 0 {
		t.Fatalf("recorded attempts = %d, want 0", got)
	}
	if got := f.score(t, 1); got != 0 {
		t.Fatalf("score = %d, want 0", got)
	}
	if got := f.board.count(); got != 0 {
		t.Fatalf("board invalidations = %d, want 0", got)
	}
}

func TestListByUser(t *testing.T) {
	f := newFixture(t, nil)
	seedUser(f.store, 1, "alice")
	seedChallenge(f.store, 10, "Web", 100, "flag{a}")
	seedChallenge(f.store, 11, "Pwn", 200, "flag{b}")

	ctx := context.Background()
	submit := func(challengeID int64, attempt string) {
		t.Helper()
		if _, err := f.service.Submit(ctx, service.SubmitInput{
			UserID: 1, Username: "alice", ChallengeID: challengeID, Attempt: attempt,
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	submit(10, "flag{nope}")
	submit(10, "flag{a}")
	submit(11, "flag{b}")

	all, err := f.service.ListByUser(ctx, 1)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("attempts = %d, want 3", len(all))
	}

	solved, err := f.service.ListSolvedByUser(ctx, 1)
	if err != nil {
		t.Fatalf("ListSolvedByUser: %v", err)
	}
	if len(solved) != 2 {
		t.Fatalf("solves = %d, want 2", len(solved))
	}
	wantPoints := map[int64]int{10: 100, 11: 200}
	for _, view := range solved {
		if !view.Correct {
			t.Fatalf("solved list contains incorrect attempt %s", view.ID)
		}
		if view.AwardedPoints != wantPoints[view.ChallengeID] {
			t.Fatalf("challenge %d awarded %d, want %d", view.ChallengeID, view.AwardedPoints, wantPoints[view.ChallengeID])
		}
	}

	if _, err := f.service.ListByUser(ctx, 42); apperr.GetCode(err) != apperr.UserNotFound {
		t.Fatalf("unknown user error = %v, want UserNotFound", err)
	}
}
