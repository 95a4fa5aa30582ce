package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/room-reservation/internal/persistence"
)

var _ persistence.TokenRepository = (*TokenRepository)(nil)

// TokenRepository implements persistence.TokenRepository.
type TokenRepository struct {
	store *Store
}

// NewTokenRepository creates a token repository backed by store.
func NewTokenRepository(store *Store) *TokenRepository {
	return &TokenRepository{store: store}
}

// CreateToken persists an issued token.
func (r *TokenRepository) CreateToken(ctx context.Context, token persistence.AuthToken) error {
	_, err := r.store.exec(ctx, r.store.db,
		`INSERT INTO auth_tokens (id, username, token_hash, expires_at, created_at, revoked_at) VALUES (?, ?, ?, ?, ?, ?)`,
		token.ID,
		token.Username,
		token.TokenHash,
		formatTime(token.ExpiresAt),
		formatTime(token.CreatedAt),
		formatOptionalTime(token.RevokedAt),
	)
	return r.store.mapError(err)
}

// GetToken looks a token up by its hash.
func (r *TokenRepository) GetToken(ctx context.Context, tokenHash string) (persistence.AuthToken, error) {
	var (
		token                persistence.AuthToken
		expiresAt, createdAt string
		revokedAt            sql.NullString
	)
	err := r.store.queryRow(ctx, r.store.db,
		`SELECT id, username, token_hash, expires_at, created_at, revoked_at FROM auth_tokens WHERE token_hash = ?`,
		tokenHash,
	).Scan(&token.ID, &token.Username, &token.TokenHash, &expiresAt, &createdAt, &revokedAt)
	if err != nil {
		return persistence.AuthToken{}, r.store.mapError(err)
	}

	if token.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.AuthToken{}, err
	}
	if token.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.AuthToken{}, err
	}
	if token.RevokedAt, err = parseOptionalTime(revokedAt); err != nil {
		return persistence.AuthToken{}, err
	}
	return token, nil
}

// RevokeToken marks a live token as revoked.
func (r *TokenRepository) RevokeToken(ctx context.Context, tokenHash string, revokedAt time.Time) error {
	result, err := r.store.exec(ctx, r.store.db,
		`UPDATE auth_tokens SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL`,
		formatTime(revokedAt),
		tokenHash,
	)
	if err != nil {
		return r.store.mapError(err)
	}
	return requireAffected(result)
}

// DeleteExpiredTokens removes tokens that expired before reference and
// reports how many were removed.
func (r *TokenRepository) DeleteExpiredTokens(ctx context.Context, reference time.Time) (int64, error) {
	result, err := r.store.exec(ctx, r.store.db,
		`DELETE FROM auth_tokens WHERE expires_at < ?`,
		formatTime(reference),
	)
	if err != nil {
		return 0, r.store.mapError(err)
	}
	return result.RowsAffected()
}
