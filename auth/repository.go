package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUserNotFound signals that the user does not exist.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrDuplicateUsername signals that the username is already taken.
	ErrDuplicateUsername = errors.New("auth: username already exists")
)

// Repository handles data access for authentication.
type Repository interface {
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
}

// CreateUserParams contains write parameters for creating users.
type CreateUserParams struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	RepName      string
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed auth repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateUser inserts a new user with a pre-hashed password.
func (r *PGRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	const insertSQL = `
		INSERT INTO users (id, username, password_hash, role, rep_name)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5)
		RETURNING id, username, password_hash, role, rep_name, created_at
	`

	user, err := scanUser(r.pool.QueryRow(ctx, insertSQL, params.ID, params.Username, params.PasswordHash, params.Role, params.RepName))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrDuplicateUsername
		}
		return User{}, fmt.Errorf("auth: create user: %w", err)
	}

	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *PGRepository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	const selectSQL = `
		SELECT id, username, password_hash, role, rep_name, created_at
		FROM users
		WHERE username = $1
	`

	user, err := scanUser(r.pool.QueryRow(ctx, selectSQL, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("auth: get user by username: %w", err)
	}

	return user, nil
}

// ListByRole retrieves all users holding the given role, ordered by display name.
func (r *PGRepository) ListByRole(ctx context.Context, role Role) ([]User, error) {
	const selectSQL = `
		SELECT id, username, password_hash, role, rep_name, created_at
		FROM users
		WHERE role = $1
		ORDER BY rep_name ASC
	`

	rows, err := r.pool.Query(ctx, selectSQL, role)
	if err != nil {
		return nil, fmt.Errorf("auth: list users by role: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("auth: scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auth: iterate users: %w", err)
	}

	return users, nil
}

// CountUsers returns the total number of user records.
func (r *PGRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("auth: count users: %w", err)
	}
	return count, nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.RepName,
		&user.CreatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}
