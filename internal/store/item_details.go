package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/ewaste/internal/model"
)

// CreateItemDetail inserts an item belonging to a pickup request.
func CreateItemDetail(ctx context.Context, db DBTX, item *model.ItemDetail) (*model.ItemDetail, error) {
	quantity := item.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO item_details (request_id, item_type, quantity, condition_status) VALUES (?, ?, ?, ?)`,
		item.RequestID, item.ItemType, quantity, nullString(item.ConditionStatus),
	)
	if err != nil {
		return nil, fmt.Errorf("creating item detail: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item detail id: %w", err)
	}

	return &model.ItemDetail{
		ID:              id,
		RequestID:       item.RequestID,
		ItemType:        item.ItemType,
		Quantity:        quantity,
		ConditionStatus: item.ConditionStatus,
	}, nil
}

// ListItemsByRequest returns the items of a pickup request in insertion order.
func ListItemsByRequest(ctx context.Context, db DBTX, requestID int64) ([]model.ItemDetail, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, request_id, item_type, quantity, condition_status
		 FROM item_details WHERE request_id = ? ORDER BY id`, requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item details: %w", err)
	}
	defer rows.Close()

	var items []model.ItemDetail
	for rows.Next() {
		var it model.ItemDetail
		var condition sql.NullString
		if err := rows.Scan(&it.ID, &it.RequestID, &it.ItemType, &it.Quantity, &condition); err != nil {
			return nil, fmt.Errorf("scanning item detail: %w", err)
		}
		it.ConditionStatus = condition.String
		items = append(items, it)
	}
	return items, rows.Err()
}
