package sqlite

import (
	"context"
	"fmt"
)

// MarkEventProcessed records the event id. It returns false when the id was
// already recorded.
func (db *DB) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO processed_events (event_id) VALUES (?) ON CONFLICT DO NOTHING`, eventID)
	if err != nil {
		return false, fmt.Errorf("sqlite: marking event %s processed: %w", eventID, err)
	}
	return affected(res)
}

func (db *DB) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists int
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = ?)`, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking event %s: %w", eventID, err)
	}
	return exists == 1, nil
}
