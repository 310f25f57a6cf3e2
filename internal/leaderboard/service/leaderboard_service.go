package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"flagforge/internal/common/cache"
	"flagforge/internal/leaderboard/repository"
	apperr "flagforge/pkg/errors"
	"flagforge/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	boardCacheKey = "leaderboard:board"
	defaultTTL    = 10 * time.Second
)

// Entry is one ranked leaderboard row.
type Entry struct {
	Rank        int    `json:"rank"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Score       int    `json:"score"`
	SolvedCount int    `json:"solved_count"`
}

// Config holds leaderboard service dependencies.
type Config struct {
	Standings repository.StandingsRepository
	Cache     cache.Cache   // optional, nil disables caching
	TTL       time.Duration // cache lifetime, defaults to 10s
}

// LeaderboardService ranks users and serves the board through a short
// lived cache. Ordering is applied here, over whatever order the
// standings query returned.
type LeaderboardService struct {
	standings repository.StandingsRepository
	cache     cache.Cache
	ttl       time.Duration
}

// NewLeaderboardService creates a leaderboard service.
func NewLeaderboardService(cfg Config) (*LeaderboardService, error) {
	if cfg.Standings == nil {
		return nil, fmt.Errorf("standings repository is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &LeaderboardService{
		standings: cfg.Standings,
		cache:     cfg.Cache,
		ttl:       ttl,
	}, nil
}

// Board returns the full ranked leaderboard.
func (s *LeaderboardService) Board(ctx context.Context) ([]*Entry, error) {
	if entries, ok := s.cachedBoard(ctx); ok {
		return entries, nil
	}

	standings, err := s.standings.Standings(ctx)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.DatabaseError, "load standings failed")
	}
	sortStandings(standings)

	entries := make([]*Entry, 0, len(standings))
	for i, standing := range standings {
		entries = append(entries, &Entry{
			Rank:        i + 1,
			UserID:      standing.UserID,
			Username:    standing.Username,
			Score:       standing.Score,
			SolvedCount: standing.SolvedCount,
		})
	}

	s.storeBoard(ctx, entries)
	return entries, nil
}

// RankOf returns the user's leaderboard entry.
func (s *LeaderboardService) RankOf(ctx context.Context, username string) (*Entry, error) {
	if username == "" {
		return nil, apperr.ValidationError("username", "required")
	}
	entries, err := s.Board(ctx)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.Username == username {
			return entry, nil
		}
	}
	return nil, apperr.New(apperr.RankNotFound)
}

// Invalidate drops the cached board. Called after every new solve so the
// next read reflects it immediately instead of waiting out the TTL.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, boardCacheKey); err != nil {
		logger.Warn(ctx, "leaderboard cache invalidation failed", zap.Error(err))
	}
}

// sortStandings orders the board: score descending, then the earlier
// last solve wins the tie. A user with no solves compares as if their
// last solve were infinitely far in the future, so within a score tier
// every real solver sorts ahead of them. User id is the final key so
// ranks are reproducible across reads.
func sortStandings(standings []*repository.Standing) {
	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		switch {
		case a.HasSolve && b.HasSolve:
			if !a.LastSolve.Equal(b.LastSolve) {
				return a.LastSolve.Before(b.LastSolve)
			}
		case a.HasSolve:
			return true
		case b.HasSolve:
			return false
		}
		return a.UserID < b.UserID
	})
}

func (s *LeaderboardService) cachedBoard(ctx context.Context) ([]*Entry, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, boardCacheKey)
	if err != nil {
		if !stderrors.Is(err, cache.ErrCacheMiss) {
			logger.Warn(ctx, "leaderboard cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var entries []*Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		logger.Warn(ctx, "leaderboard cache decode failed", zap.Error(err))
		return nil, false
	}
	return entries, true
}

func (s *LeaderboardService) storeBoard(ctx context.Context, entries []*Entry) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		logger.Warn(ctx, "leaderboard cache encode failed", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, boardCacheKey, string(raw), s.ttl); err != nil {
		logger.Warn(ctx, "leaderboard cache write failed", zap.Error(err))
	}
}
