package usecase

import "context"

// Deduplicator tracks processed events and each link's feed cursor.
type Deduplicator struct {
	store EventStore
}

func NewDeduplicator(store EventStore) *Deduplicator {
	return &Deduplicator{store: store}
}

func (d *Deduplicator) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	return d.store.IsEventProcessed(ctx, eventID)
}

// MarkProcessed returns false when the event was already marked; callers
// treat that as a no-op.
func (d *Deduplicator) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	return d.store.MarkEventProcessed(ctx, eventID)
}

// CursorOf returns the link's cursor, or "" when the feed was never read.
func (d *Deduplicator) CursorOf(ctx context.Context, linkID int64) (string, error) {
	cursor, _, err := d.store.GetCursor(ctx, linkID)
	return cursor, err
}

func (d *Deduplicator) AdvanceCursor(ctx context.Context, linkID int64, cursor string) error {
	return d.store.UpdateCursor(ctx, linkID, cursor)
}
