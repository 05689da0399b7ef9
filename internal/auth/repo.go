package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// User is one account allowed to use the write endpoints. TokenVersion
// is stamped into every token signed for the account; bumping it
// revokes all outstanding tokens at once.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	TokenVersion int
	CreatedAt    time.Time
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, u User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash) VALUES (?, ?, ?)
	`, u.ID, u.Username, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("create user %s: %w", u.Username, err)
	}
	return nil
}

// Count reports how many accounts exist; registration is only open
// while this is zero.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *Repo) ByUsername(ctx context.Context, username string) (*User, error) {
	return r.one(ctx, `
		SELECT id, username, password_hash, token_version, created_at
		FROM users WHERE username = ?
	`, strings.TrimSpace(username))
}

func (r *Repo) ByID(ctx context.Context, id string) (*User, error) {
	return r.one(ctx, `
		SELECT id, username, password_hash, token_version, created_at
		FROM users WHERE id = ?
	`, id)
}

func (r *Repo) one(ctx context.Context, query, arg string) (*User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.TokenVersion, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &u, nil
}

// TokenVersion reads the current version for an account. A missing
// account reports -1, which no signed token can carry, so tokens for
// deleted accounts always fail the version check.
func (r *Repo) TokenVersion(ctx context.Context, id string) (int, error) {
	var version int
	err := r.DB.QueryRowContext(ctx, `SELECT token_version FROM users WHERE id = ?`, id).Scan(&version)
	if err == sql.ErrNoRows {
		return -1, nil
	}
	if err != nil {
		return -1, fmt.Errorf("token version for %s: %w", id, err)
	}
	return version, nil
}

// SetPassword replaces the hash and revokes outstanding tokens in the
// same statement.
func (r *Repo) SetPassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, token_version = token_version + 1
		WHERE id = ?
	`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("set password for %s: %w", id, err)
	}
	return mustAffect(res, "set password")
}

// RevokeTokens invalidates every token signed for the account.
func (r *Repo) RevokeTokens(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET token_version = token_version + 1 WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("revoke tokens for %s: %w", id, err)
	}
	return mustAffect(res, "revoke tokens")
}

func mustAffect(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: no such user", op)
	}
	return nil
}
