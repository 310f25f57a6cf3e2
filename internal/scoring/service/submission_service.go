package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	challengerepo "flagforge/internal/challenge/repository"
	"flagforge/internal/common/db"
	"flagforge/internal/ratelimit"
	"flagforge/internal/scoring/repository"
	"flagforge/internal/secret"
	userrepo "flagforge/internal/user/repository"
	apperr "flagforge/pkg/errors"
	"flagforge/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BoardInvalidator drops any cached leaderboard view after a solve.
type BoardInvalidator interface {
	Invalidate(ctx context.Context)
}

// Config holds submission service dependencies.
type Config struct {
	DB          db.Database
	Submissions repository.SubmissionRepository
	Challenges  challengerepo.ChallengeRepository
	Users       userrepo.UserRepository
	Hasher      secret.Hasher
	Limiter     *ratelimit.Limiter
	Board       BoardInvalidator
}

// SubmissionService is the scoring ledger. It decides whether an attempt
// is correct, awards points at most once per (user, challenge) pair, and
// records every attempt for audit.
type SubmissionService struct {
	db          db.Database
	submissions repository.SubmissionRepository
	challenges  challengerepo.ChallengeRepository
	users       userrepo.UserRepository
	hasher      secret.Hasher
	limiter     *ratelimit.Limiter
	board       BoardInvalidator

	locks pairLocks
	now   func() time.Time
}

// NewSubmissionService creates a submission service.
func NewSubmissionService(cfg Config) (*SubmissionService, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.Submissions == nil {
		return nil, fmt.Errorf("submission repository is required")
	}
	if cfg.Challenges == nil {
		return nil, fmt.Errorf("challenge repository is required")
	}
	if cfg.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if cfg.Hasher == nil {
		return nil, fmt.Errorf("hasher is required")
	}
	return &SubmissionService{
		db:          cfg.DB,
		submissions: cfg.Submissions,
		challenges:  cfg.Challenges,
		users:       cfg.Users,
		hasher:      cfg.Hasher,
		limiter:     cfg.Limiter,
		board:       cfg.Board,
		now:         time.Now,
	}, nil
}

// SubmitInput describes one flag submission request.
type SubmitInput struct {
	UserID      int64
	Username    string
	ChallengeID int64
	Attempt     string
}

// SubmitResult is the outcome of one submission.
type SubmitResult struct {
	SubmissionID   string
	ChallengeID    int64
	ChallengeTitle string
	Correct        bool
	AwardedPoints  int
	SubmittedAt    time.Time
}

// Submit verifies an attempt and scores it at most once.
//
// The already-solved check, the record insert and the score increment run
// under the pair's lock and inside one transaction: no two concurrent
// submissions for the same pair can both observe "not yet solved", and a
// recorded-but-unscored solve can never be committed.
func (s *SubmissionService) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	if input.ChallengeID <= 0 {
		return SubmitResult{}, apperr.ValidationError("challenge_id", "required")
	}
	if input.UserID <= 0 {
		return SubmitResult{}, apperr.ValidationError("user_id", "required")
	}

	if s.limiter != nil && !s.limiter.TryConsume(ratelimit.FlagSubmission, input.Username) {
		return SubmitResult{}, apperr.New(apperr.SubmitTooFrequently)
	}

	challenge, err := s.challenges.GetByID(ctx, nil, input.ChallengeID)
	if err != nil {
		if stderrors.Is(err, challengerepo.ErrChallengeNotFound) {
			return SubmitResult{}, apperr.New(apperr.ChallengeNotFound)
		}
		return SubmitResult{}, apperr.Wrapf(err, apperr.DatabaseError, "get challenge failed")
	}

	user, err := s.users.GetByID(ctx, nil, input.UserID)
	if err != nil {
		if stderrors.Is(err, userrepo.ErrUserNotFound) {
			return SubmitResult{}, apperr.New(apperr.UserNotFound)
		}
		return SubmitResult{}, apperr.Wrapf(err, apperr.DatabaseError, "get user failed")
	}

	correct := s.hasher.Verify(input.Attempt, challenge.FlagHash)

	unlock := s.locks.lock(user.ID, challenge.ID)
	defer unlock()

	var result SubmitResult
	err = s.db.Transaction(ctx, func(tx db.Transaction) error {
		solved, err := s.submissions.HasCorrect(ctx, tx, user.ID, challenge.ID)
		if err != nil {
			return apperr.Wrapf(err, apperr.DatabaseError, "check solved failed")
		}
		if solved {
			// Terminal business outcome, regardless of whether the new
			// attempt is correct.
			return apperr.New(apperr.AlreadySolved)
		}

		record := &repository.Submission{
			ID:          uuid.NewString(),
			UserID:      user.ID,
			ChallengeID: challenge.ID,
			FlagAttempt: input.Attempt,
			Correct:     correct,
			SubmittedAt: s.now(),
		}
		if err := s.submissions.Create(ctx, tx, record); err != nil {
			return apperr.Wrapf(err, apperr.DatabaseError, "record submission failed")
		}

		awarded := 0
		if correct {
			awarded = challenge.Points
			if challenge.Points > 0 {
				if err := s.users.AddScore(ctx, tx, user.ID, challenge.Points); err != nil {
					return apperr.Wrapf(err, apperr.DatabaseError, "update score failed")
				}
			}
		}

		result = SubmitResult{
			SubmissionID:   record.ID,
			ChallengeID:    challenge.ID,
			ChallengeTitle: challenge.Title,
			Correct:        correct,
			AwardedPoints:  awarded,
			SubmittedAt:    record.SubmittedAt,
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	if correct {
		if s.board != nil {
			s.board.Invalidate(ctx)
		}
		logger.Info(ctx, "challenge solved",
			zap.Int64("user_id", user.ID),
			zap.Int64("challenge_id", challenge.ID),
			zap.Int("points", result.AwardedPoints),
		)
	}
	return result, nil
}

// ListByUser returns every attempt by the user, oldest first.
func (s *SubmissionService) ListByUser(ctx context.Context, userID int64) ([]*repository.SubmissionView, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	views, err := s.submissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "list submissions failed")
	}
	return views, nil
}

// ListSolvedByUser returns only the user's correct attempts, oldest first.
func (s *SubmissionService) ListSolvedByUser(ctx context.Context, userID int64) ([]*repository.SubmissionView, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	views, err := s.submissions.ListCorrectByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "list solved failed")
	}
	return views, nil
}

func (s *SubmissionService) ensureUser(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return apperr.ValidationError("user_id", "required")
	}
	if _, err := s.users.GetByID(ctx, nil, userID); err != nil {
		if stderrors.Is(err, userrepo.ErrUserNotFound) {
			return apperr.New(apperr.UserNotFound)
		}
		return apperr.Wrapf(err, apperr.DatabaseError, "get user failed")
	}
	return nil
}
