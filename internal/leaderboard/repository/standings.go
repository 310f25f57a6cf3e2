package repository

import (
	"context"
	"time"

	"flagforge/internal/common/db"
)

// Standing is one user's aggregate scoring state, read in a single query
// so score, solve count and last solve time are mutually consistent.
type Standing struct {
	UserID      int64
	Username    string
	Score       int
	SolvedCount int
	LastSolve   time.Time
	HasSolve    bool
}

// StandingsRepository reads the aggregated leaderboard source data.
type StandingsRepository interface {
	// Standings returns one row per user, in no particular order.
	// Ranking and tie-breaks are applied by the leaderboard service.
	Standings(ctx context.Context) ([]*Standing, error)
}

// MySQLStandingsRepository implements StandingsRepository with MySQL.
type MySQLStandingsRepository struct {
	db db.Database
}

// NewStandingsRepository creates a MySQL standings repository.
func NewStandingsRepository(database db.Database) *MySQLStandingsRepository {
	return &MySQLStandingsRepository{db: database}
}

// Standings aggregates scores, solve counts and last solve times per user.
// One query per call: each row is internally consistent even while
// submissions land concurrently.
func (r *MySQLStandingsRepository) Standings(ctx context.Context) ([]*Standing, error) {
	query := `
		SELECT u.id, u.username, u.score,
		       COUNT(s.id) AS solved_count,
		       MAX(s.submitted_at) AS last_solve
		FROM users u
		LEFT JOIN submissions s ON s.user_id = u.id AND s.is_correct = 1
		GROUP BY u.id, u.username, u.score
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var standings []*Standing
	for rows.Next() {
		standing := &Standing{}
		var lastSolve *time.Time
		if err := rows.Scan(
			&standing.UserID,
			&standing.Username,
			&standing.Score,
			&standing.SolvedCount,
			&lastSolve,
		); err != nil {
			return nil, err
		}
		if lastSolve != nil {
			standing.LastSolve = *lastSolve
			standing.HasSolve = true
		}
		standings = append(standings, standing)
	}
	return standings, rows.Err()
}
