package store

import (
	"context"
	"fmt"
	"time"
)

// RevokeToken records a session token's JTI so it is refused until it expires.
func RevokeToken(ctx context.Context, db DBTX, jti string, expiresAt time.Time) error {
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt,
	); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// PurgeExpiredTokens drops revocations whose tokens would be rejected anyway.
func PurgeExpiredTokens(ctx context.Context, db DBTX, now time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("purging revoked tokens: %w", err)
	}
	return result.RowsAffected()
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func IsTokenRevoked(ctx context.Context, db DBTX, jti string) (bool, error) {
	var revoked bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return revoked, nil
}
