package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"flagforge/internal/common/db"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
	ErrDuplicate      = errors.New("duplicate user")
)

// User is a registered participant. Score is denormalized: it always
// equals the sum of points of the challenges the user has one correct
// submission for, and is only ever changed inside the ledger transaction
// that records the solve.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         UserRole
	Score        int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, tx db.Transaction, user *User) (int64, error)
	GetByID(ctx context.Context, tx db.Transaction, id int64) (*User, error)
	GetByUsername(ctx context.Context, tx db.Transaction, username string) (*User, error)
	// AddScore atomically increments the user's score by delta. Two
	// concurrent solves on different challenges must both land.
	AddScore(ctx context.Context, tx db.Transaction, userID int64, delta int) error
}

// MySQLUserRepository implements UserRepository with MySQL.
type MySQLUserRepository struct {
	db db.Database
}

// NewUserRepository creates a MySQL user repository.
func NewUserRepository(database db.Database) *MySQLUserRepository {
	return &MySQLUserRepository{db: database}
}

const userColumns = "id, username, email, password_hash, role, score, created_at, updated_at"

// Create inserts a user and returns the generated id.
func (r *MySQLUserRepository) Create(ctx context.Context, tx db.Transaction, user *User) (int64, error) {
	if user == nil {
		return 0, errors.New("user is nil")
	}
	role := user.Role
	if role == "" {
		role = UserRoleUser
	}

	query := "INSERT INTO users (username, email, password_hash, role, score) VALUES (?, ?, ?, ?, 0)"
	result, err := db.GetQuerier(r.db, tx).Exec(ctx, query, user.Username, user.Email, user.PasswordHash, role)
	if err != nil {
		if key, ok := db.UniqueViolation(err); ok {
			switch {
			case strings.Contains(strings.ToLower(key), "username"):
				return 0, ErrUsernameExists
			case strings.Contains(strings.ToLower(key), "email"):
				return 0, ErrEmailExists
			default:
				return 0, ErrDuplicate
			}
		}
		return 0, err
	}
	return result.LastInsertId()
}

// GetByID retrieves a user by primary key.
func (r *MySQLUserRepository) GetByID(ctx context.Context, tx db.Transaction, id int64) (*User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ? LIMIT 1"
	return r.scanUser(db.GetQuerier(r.db, tx).QueryRow(ctx, query, id))
}

// GetByUsername retrieves a user by unique username.
func (r *MySQLUserRepository) GetByUsername(ctx context.Context, tx db.Transaction, username string) (*User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = ? LIMIT 1"
	return r.scanUser(db.GetQuerier(r.db, tx).QueryRow(ctx, query, username))
}

// AddScore atomically increments the user's score.
func (r *MySQLUserRepository) AddScore(ctx context.Context, tx db.Transaction, userID int64, delta int) error {
	query := "UPDATE users SET score = score + ? WHERE id = ?"
	result, err := db.GetQuerier(r.db, tx).Exec(ctx, query, delta, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *MySQLUserRepository) scanUser(row db.Row) (*User, error) {
	user := &User{}
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Score,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
