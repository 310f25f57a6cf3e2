package repository

import (
	"context"
	"errors"
	"time"

	"flagforge/internal/common/db"
)

type Category string

const (
	CategoryWeb       Category = "web"
	CategoryCrypto    Category = "crypto"
	CategoryPwn       Category = "pwn"
	CategoryReverse   Category = "reverse"
	CategoryForensics Category = "forensics"
	CategoryMisc      Category = "misc"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrTitleExists       = errors.New("challenge title already exists")
)

// Challenge is a scorable task. FlagHash is the only secret material:
// the plaintext flag is hashed on create and never stored.
type Challenge struct {
	ID            int64
	Title         string
	Description   string
	Category      Category
	Difficulty    Difficulty
	Points        int
	FlagHash      string
	AttachmentURL string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ListFilter narrows challenge listings. Zero values match everything.
type ListFilter struct {
	Category   Category
	Difficulty Difficulty
}

// ChallengeRepository defines challenge persistence operations.
type ChallengeRepository interface {
	Create(ctx context.Context, tx db.Transaction, challenge *Challenge) (int64, error)
	GetByID(ctx context.Context, tx db.Transaction, id int64) (*Challenge, error)
	List(ctx context.Context, filter ListFilter) ([]*Challenge, error)
	Update(ctx context.Context, tx db.Transaction, challenge *Challenge) error
	Delete(ctx context.Context, tx db.Transaction, id int64) error
	ExistsByTitle(ctx context.Context, tx db.Transaction, title string) (bool, error)
}

// MySQLChallengeRepository implements ChallengeRepository with MySQL.
type MySQLChallengeRepository struct {
	db db.Database
}

// NewChallengeRepository creates a MySQL challenge repository.
func NewChallengeRepository(database db.Database) *MySQLChallengeRepository {
	return &MySQLChallengeRepository{db: database}
}

const challengeColumns = "id, title, description, category, difficulty, points, flag_hash, attachment_url, created_at, updated_at"

// Create inserts a challenge and returns the generated id.
func (r *MySQLChallengeRepository) Create(ctx context.Context, tx db.Transaction, challenge *Challenge) (int64, error) {
	if challenge == nil {
		return 0, errors.New("challenge is nil")
	}
	query := `
		INSERT INTO challenges (title, description, category, difficulty, points, flag_hash, attachment_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := db.GetQuerier(r.db, tx).Exec(
		ctx,
		query,
		challenge.Title,
		challenge.Description,
		challenge.Category,
		challenge.Difficulty,
		challenge.Points,
		challenge.FlagHash,
		challenge.AttachmentURL,
	)
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return 0, ErrTitleExists
		}
		return 0, err
	}
	return result.LastInsertId()
}

// GetByID retrieves a challenge by primary key.
func (r *MySQLChallengeRepository) GetByID(ctx context.Context, tx db.Transaction, id int64) (*Challenge, error) {
	query := "SELECT " + challengeColumns + " FROM challenges WHERE id = ? LIMIT 1"
	row := db.GetQuerier(r.db, tx).QueryRow(ctx, query, id)
	return scanChallenge(row)
}

// List retrieves challenges matching the filter, newest first.
func (r *MySQLChallengeRepository) List(ctx context.Context, filter ListFilter) ([]*Challenge, error) {
	query := "SELECT " + challengeColumns + " FROM challenges"
	var conditions []string
	var args []interface{}
	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Difficulty != "" {
		conditions = append(conditions, "difficulty = ?")
		args = append(args, filter.Difficulty)
	}
	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var challenges []*Challenge
	for rows.Next() {
		challenge := &Challenge{}
		if err := rows.Scan(
			&challenge.ID,
			&challenge.Title,
			&challenge.Description,
			&challenge.Category,
			&challenge.Difficulty,
			&challenge.Points,
			&challenge.FlagHash,
			&challenge.AttachmentURL,
			&challenge.CreatedAt,
			&challenge.UpdatedAt,
		); err != nil {
			return nil, err
		}
		challenges = append(challenges, challenge)
	}
	return challenges, rows.Err()
}

// Update rewrites a challenge row, including a possibly rotated flag hash.
func (r *MySQLChallengeRepository) Update(ctx context.Context, tx db.Transaction, challenge *Challenge) error {
	if challenge == nil {
		return errors.New("challenge is nil")
	}
	query := `
		UPDATE challenges
		SET title = ?, description = ?, category = ?, difficulty = ?, points = ?, flag_hash = ?, attachment_url = ?
		WHERE id = ?
	`
	_, err := db.GetQuerier(r.db, tx).Exec(
		ctx,
		query,
		challenge.Title,
		challenge.Description,
		challenge.Category,
		challenge.Difficulty,
		challenge.Points,
		challenge.FlagHash,
		challenge.AttachmentURL,
		challenge.ID,
	)
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return ErrTitleExists
		}
		return err
	}
	return nil
}

// Delete removes a challenge by primary key.
func (r *MySQLChallengeRepository) Delete(ctx context.Context, tx db.Transaction, id int64) error {
	result, err := db.GetQuerier(r.db, tx).Exec(ctx, "DELETE FROM challenges WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrChallengeNotFound
	}
	return nil
}

// ExistsByTitle checks whether a challenge with the title exists.
func (r *MySQLChallengeRepository) ExistsByTitle(ctx context.Context, tx db.Transaction, title string) (bool, error) {
	var one int
	err := db.GetQuerier(r.db, tx).QueryRow(ctx, "SELECT 1 FROM challenges WHERE title = ? LIMIT 1", title).Scan(&one)
	if err != nil {
		if db.IsNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func scanChallenge(row db.Row) (*Challenge, error) {
	challenge := &Challenge{}
	if err := row.Scan(
		&challenge.ID,
		&challenge.Title,
		&challenge.Description,
		&challenge.Category,
		&challenge.Difficulty,
		&challenge.Points,
		&challenge.FlagHash,
		&challenge.AttachmentURL,
		&challenge.CreatedAt,
		&challenge.UpdatedAt,
	); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	return challenge, nil
}
