package repository

import (
	"context"
	"errors"
	"time"

	"flagforge/internal/common/db"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// Submission is one flag attempt, correct or not. Rows are append-only:
// they are created solely by the ledger and never mutated or deleted.
// FlagAttempt is kept for audit and is never re-verified after the fact.
type Submission struct {
	ID          string
	UserID      int64
	ChallengeID int64
	FlagAttempt string
	Correct     bool
	SubmittedAt time.Time
}

// SubmissionView joins a submission with the challenge it targeted, for
// the reporting endpoints.
type SubmissionView struct {
	ID             string
	ChallengeID    int64
	ChallengeTitle string
	Correct        bool
	AwardedPoints  int
	SubmittedAt    time.Time
}

// SubmissionRepository defines ledger persistence operations.
type SubmissionRepository interface {
	Create(ctx context.Context, tx db.Transaction, submission *Submission) error
	// HasCorrect reports whether the (user, challenge) pair already has a
	// correct record. Callers that are about to insert a correct record
	// must hold the pair's critical section across this check and the
	// insert.
	HasCorrect(ctx context.Context, tx db.Transaction, userID, challengeID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]*SubmissionView, error)
	ListCorrectByUser(ctx context.Context, userID int64) ([]*SubmissionView, error)
}

// MySQLSubmissionRepository implements SubmissionRepository with MySQL.
type MySQLSubmissionRepository struct {
	db db.Database
}

// NewSubmissionRepository creates a MySQL submission repository.
func NewSubmissionRepository(database db.Database) *MySQLSubmissionRepository {
	return &MySQLSubmissionRepository{db: database}
}

// Create inserts a submission record.
func (r *MySQLSubmissionRepository) Create(ctx context.Context, tx db.Transaction, submission *Submission) error {
	if submission == nil {
		return errors.New("submission is nil")
	}
	if submission.ID == "" {
		return errors.New("submission id is required")
	}
	query := `
		INSERT INTO submissions (id, user_id, challenge_id, flag_attempt, is_correct, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := db.GetQuerier(r.db, tx).Exec(
		ctx,
		query,
		submission.ID,
		submission.UserID,
		submission.ChallengeID,
		submission.FlagAttempt,
		submission.Correct,
		submission.SubmittedAt,
	)
	return err
}

// HasCorrect reports whether the pair already has a correct record.
func (r *MySQLSubmissionRepository) HasCorrect(ctx context.Context, tx db.Transaction, userID, challengeID int64) (bool, error) {
	var one int
	query := "SELECT 1 FROM submissions WHERE user_id = ? AND challenge_id = ? AND is_correct = 1 LIMIT 1"
	err := db.GetQuerier(r.db, tx).QueryRow(ctx, query, userID, challengeID).Scan(&one)
	if err != nil {
		if db.IsNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListByUser returns every attempt by the user, oldest first.
func (r *MySQLSubmissionRepository) ListByUser(ctx context.Context, userID int64) ([]*SubmissionView, error) {
	return r.listViews(ctx, userID, false)
}

// ListCorrectByUser returns only the user's solves, oldest first.
func (r *MySQLSubmissionRepository) ListCorrectByUser(ctx context.Context, userID int64) ([]*SubmissionView, error) {
	return r.listViews(ctx, userID, true)
}

func (r *MySQLSubmissionRepository) listViews(ctx context.Context, userID int64, correctOnly bool) ([]*SubmissionView, error) {
	extra := ""
	if correctOnly {
		extra = " AND s.is_correct = 1"
	}
	query := submissionViewSQL(extra)

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*SubmissionView
	for rows.Next() {
		view := &SubmissionView{}
		var points int
		if err := rows.Scan(
			&view.ID,
			&view.ChallengeID,
			&view.ChallengeTitle,
			&view.Correct,
			&points,
			&view.SubmittedAt,
		); err != nil {
			return nil, err
		}
		if view.Correct {
			view.AwardedPoints = points
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

func submissionViewSQL(extra string) string {
	return `
	SELECT s.id, s.challenge_id, c.title, s.is_correct, c.points, s.submitted_at
	FROM submissions s
	JOIN challenges c ON c.id = s.challenge_id
	WHERE s.user_id = ?` + extra + `
	ORDER BY s.submitted_at ASC, s.id ASC
`
}
