package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/potager/plant-catalog/internal/model"
)

// SessionRepo persists and resolves session tokens (single 'token_hash'
// column; the raw token never touches the database).
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Replace atomically revokes every live session of a user and stores a new
// one.  Login calls this so that two concurrent logins for the same user
// serialize on the transaction: whichever commits last holds the only live
// session.
func (r *SessionRepo) Replace(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Resolve returns the owning userID if a non-revoked, non-expired session
// with the given hash exists.  sql.ErrNoRows doubles as the sentinel for
// revoked and expired rows so callers treat all three identically.
func (r *SessionRepo) Resolve(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		s         model.Session
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked_at, created_at FROM sessions WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &revokedAt, &s.CreatedAt)
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid {
		return 0, sql.ErrNoRows
	}
	if time.Now().UTC().After(s.ExpiresAt) {
		return 0, sql.ErrNoRows
	}
	return s.UserID, nil
}

// RevokeAllForUser revokes all of a user's active sessions (logout).
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
