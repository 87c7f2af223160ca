package store

import (
	"context"
	"fmt"

	"github.com/erazemk/ewaste/internal/model"
)

// CreateNotification records a message for a recipient.
func CreateNotification(ctx context.Context, db DBTX, recipientID int64, message string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO notifications (recipient_id, message) VALUES (?, ?)`,
		recipientID, message,
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

// ListNotifications returns a recipient's notifications, newest first.
func ListNotifications(ctx context.Context, db DBTX, recipientID int64) ([]model.Notification, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, recipient_id, message, created_at, is_read
		 FROM notifications WHERE recipient_id = ?
		 ORDER BY created_at DESC, id DESC`, recipientID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &n.CreatedAt, &n.IsRead); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// CountUnreadNotifications returns how many of a recipient's notifications are unread.
func CountUnreadNotifications(ctx context.Context, db DBTX, recipientID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = 0`, recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationsRead marks all of a recipient's notifications as read.
func MarkNotificationsRead(ctx context.Context, db DBTX, recipientID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE recipient_id = ? AND is_read = 0`, recipientID,
	)
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}
