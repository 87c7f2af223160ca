package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    email         TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'household' CHECK (role IN ('household', 'staff', 'admin')),
    name          TEXT,
    address       TEXT,
    phone         TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);

CREATE TABLE IF NOT EXISTS pickup_requests (
    id             INTEGER PRIMARY KEY,
    household_id   INTEGER NOT NULL REFERENCES users(id),
    staff_id       INTEGER REFERENCES users(id),
    status         TEXT NOT NULL DEFAULT 'pending' CHECK (status IN (
                       'pending', 'approved', 'scheduled', 'in_progress',
                       'completed', 'cancelled', 'failed', 'rejected')),
    location       TEXT NOT NULL,
    scheduled_date TEXT,
    notes          TEXT,
    photo_filename TEXT,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_pickup_requests_household ON pickup_requests(household_id);
CREATE INDEX IF NOT EXISTS idx_pickup_requests_staff ON pickup_requests(staff_id);
CREATE INDEX IF NOT EXISTS idx_pickup_requests_photo ON pickup_requests(photo_filename);

CREATE TABLE IF NOT EXISTS item_details (
    id               INTEGER PRIMARY KEY,
    request_id       INTEGER NOT NULL REFERENCES pickup_requests(id),
    item_type        TEXT NOT NULL,
    quantity         INTEGER NOT NULL DEFAULT 1 CHECK (quantity > 0),
    condition_status TEXT
);

CREATE INDEX IF NOT EXISTS idx_item_details_request ON item_details(request_id);

CREATE TABLE IF NOT EXISTS notifications (
    id           INTEGER PRIMARY KEY,
    recipient_id INTEGER NOT NULL REFERENCES users(id),
    message      TEXT NOT NULL,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    is_read      BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
