package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"flagforge/internal/challenge/repository"
	"flagforge/internal/secret"
	apperr "flagforge/pkg/errors"
	"flagforge/pkg/utils/logger"

	"go.uber.org/zap"
)

// Config holds challenge service dependencies.
type Config struct {
	Challenges repository.ChallengeRepository
	Hasher     secret.Hasher
}

// ChallengeService manages the challenge catalog. Flags are hashed on
// the way in and never leave this layer in any form.
type ChallengeService struct {
	challenges repository.ChallengeRepository
	hasher     secret.Hasher
}

// NewChallengeService creates a challenge service.
func NewChallengeService(cfg Config) (*ChallengeService, error) {
	if cfg.Challenges == nil {
		return nil, fmt.Errorf("challenge repository is required")
	}
	if cfg.Hasher == nil {
		return nil, fmt.Errorf("hasher is required")
	}
	return &ChallengeService{challenges: cfg.Challenges, hasher: cfg.Hasher}, nil
}

// View is the public shape of a challenge, without the flag hash.
type View struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Difficulty    string    `json:"difficulty"`
	Points        int       `json:"points"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateInput describes a new challenge.
type CreateInput struct {
	Title         string
	Description   string
	Category      string
	Difficulty    string
	Points        int
	Flag          string
	AttachmentURL string
}

// UpdateInput rewrites a challenge. An empty Flag keeps the current one.
type UpdateInput struct {
	Title         string
	Description   string
	Category      string
	Difficulty    string
	Points        int
	Flag          string
	AttachmentURL string
}

// Create adds a challenge to the catalog.
func (s *ChallengeService) Create(ctx context.Context, input CreateInput) (*View, error) {
	if err := validateChallenge(input.Title, input.Category, input.Difficulty, input.Points); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Flag) == "" {
		return nil, apperr.ValidationError("flag", "required")
	}

	exists, err := s.challenges.ExistsByTitle(ctx, nil, input.Title)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "check title failed")
	}
	if exists {
		return nil, apperr.New(apperr.ChallengeTitleExists)
	}

	flagHash, err := s.hasher.Hash(input.Flag)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.InternalServerError, "hash flag failed")
	}

	challenge := &repository.Challenge{
		Title:         input.Title,
		Description:   input.Description,
		Category:      repository.Category(input.Category),
		Difficulty:    repository.Difficulty(input.Difficulty),
		Points:        input.Points,
		FlagHash:      flagHash,
		AttachmentURL: input.AttachmentURL,
	}
	id, err := s.challenges.Create(ctx, nil, challenge)
	if err != nil {
		if stderrors.Is(err, repository.ErrTitleExists) {
			return nil, apperr.New(apperr.ChallengeTitleExists)
		}
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "create challenge failed")
	}

	logger.Info(ctx, "challenge created",
		zap.Int64("challenge_id", id),
		zap.String("title", challenge.Title),
		zap.Int("points", challenge.Points),
	)
	created, err := s.challenges.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "reload challenge failed")
	}
	return viewOf(created), nil
}

// GetByID returns one challenge.
func (s *ChallengeService) GetByID(ctx context.Context, id int64) (*View, error) {
	challenge, err := s.getChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewOf(challenge), nil
}

// List returns challenges matching the optional category and difficulty
// filters.
func (s *ChallengeService) List(ctx context.Context, category, difficulty string) ([]*View, error) {
	if category != "" && !validCategory(category) {
		return nil, apperr.ValidationError("category", "unknown value")
	}
	if difficulty != "" && !validDifficulty(difficulty) {
		return nil, apperr.ValidationError("difficulty", "unknown value")
	}
	challenges, err := s.challenges.List(ctx, repository.ListFilter{
		Category:   repository.Category(category),
		Difficulty: repository.Difficulty(difficulty),
	})
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "list challenges failed")
	}
	views := make([]*View, 0, len(challenges))
	for _, challenge := range challenges {
		views = append(views, viewOf(challenge))
	}
	return views, nil
}

// Update rewrites a challenge. The flag hash is rotated only when the
// input carries a new flag.
func (s *ChallengeService) Update(ctx context.Context, id int64, input UpdateInput) (*View, error) {
	if err := validateChallenge(input.Title, input.Category, input.Difficulty, input.Points); err != nil {
		return nil, err
	}

	challenge, err := s.getChallenge(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != challenge.Title {
		exists, err := s.challenges.ExistsByTitle(ctx, nil, input.Title)
		if err != nil {
			return nil, apperr.Wrapf(err, apperr.DatabaseError, "check title failed")
		}
		if exists {
			return nil, apperr.New(apperr.ChallengeTitleExists)
		}
	}

	challenge.Title = input.Title
	challenge.Description = input.Description
	challenge.Category = repository.Category(input.Category)
	challenge.Difficulty = repository.Difficulty(input.Difficulty)
	challenge.Points = input.Points
	challenge.AttachmentURL = input.AttachmentURL
	if strings.TrimSpace(input.Flag) != "" {
		flagHash, err := s.hasher.Hash(input.Flag)
		if err != nil {
			return nil, apperr.Wrapf(err, apperr.InternalServerError, "hash flag failed")
		}
		challenge.FlagHash = flagHash
	}

	if err := s.challenges.Update(ctx, nil, challenge); err != nil {
		if stderrors.Is(err, repository.ErrTitleExists) {
			return nil, apperr.New(apperr.ChallengeTitleExists)
		}
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "update challenge failed")
	}

	logger.Info(ctx, "challenge updated", zap.Int64("challenge_id", id))
	updated, err := s.challenges.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "reload challenge failed")
	}
	return viewOf(updated), nil
}

// Delete removes a challenge.
func (s *ChallengeService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.ValidationError("id", "required")
	}
	if err := s.challenges.Delete(ctx, nil, id); err != nil {
		if stderrors.Is(err, repository.ErrChallengeNotFound) {
			return apperr.New(apperr.ChallengeNotFound)
		}
		return apperr.Wrapf(err, apperr.DatabaseError, "delete challenge failed")
	}
	logger.Info(ctx, "challenge deleted", zap.Int64("challenge_id", id))
	return nil
}

func (s *ChallengeService) getChallenge(ctx context.Context, id int64) (*repository.Challenge, error) {
	if id <= 0 {
		return nil, apperr.ValidationError("id", "required")
	}
	challenge, err := s.challenges.GetByID(ctx, nil, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrChallengeNotFound) {
			return nil, apperr.New(apperr.ChallengeNotFound)
		}
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "get challenge failed")
	}
	return challenge, nil
}

func validateChallenge(title, category, difficulty string, points int) error {
	if strings.TrimSpace(title) == "" {
		return apperr.ValidationError("title", "required")
	}
	if len(title) > 128 {
		return apperr.ValidationError("title", "too long")
	}
	if !validCategory(category) {
		return apperr.ValidationError("category", "unknown value")
	}
	if !validDifficulty(difficulty) {
		return apperr.ValidationError("difficulty", "unknown value")
	}
	if points < 0 {
		return apperr.ValidationError("points", "must not be negative")
	}
	return nil
}

func validCategory(category string) bool {
	switch repository.Category(category) {
	case repository.CategoryWeb, repository.CategoryCrypto, repository.CategoryPwn,
		repository.CategoryReverse, repository.CategoryForensics, repository.CategoryMisc:
		return true
	}
	return false
}

func validDifficulty(difficulty string) bool {
	switch repository.Difficulty(difficulty) {
	case repository.DifficultyEasy, repository.DifficultyMedium, repository.DifficultyHard:
		return true
	}
	return false
}

func viewOf(challenge *repository.Challenge) *View {
	return &View{
		ID:            challenge.ID,
		Title:         challenge.Title,
		Description:   challenge.Description,
		Category:      string(challenge.Category),
		Difficulty:    string(challenge.Difficulty),
		Points:        challenge.Points,
		AttachmentURL: challenge.AttachmentURL,
		CreatedAt:     challenge.CreatedAt,
		UpdatedAt:     challenge.UpdatedAt,
	}
}
