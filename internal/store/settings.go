package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const secretKeySetting = "secret_key"

// GetSecretKey returns the session signing key. A configured key wins and
// is never persisted. Otherwise the key stored in settings is used,
// generating one on first run; INSERT OR IGNORE followed by a read keeps
// concurrent first starts on the same value.
func GetSecretKey(ctx context.Context, db DBTX, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating secret key: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		secretKeySetting, hex.EncodeToString(buf),
	); err != nil {
		return "", fmt.Errorf("storing %s: %w", secretKeySetting, err)
	}

	var secret string
	if err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, secretKeySetting,
	).Scan(&secret); err != nil {
		return "", fmt.Errorf("querying %s: %w", secretKeySetting, err)
	}
	return secret, nil
}
