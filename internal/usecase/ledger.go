package usecase

import (
	"context"
	"time"

	"github.com/naka-gawa/gitcord/internal/domain"
)

// Ledger applies score deltas.
type Ledger struct {
	store ScoreStore
	now   func() time.Time
}

func NewLedger(store ScoreStore) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Apply adds delta to the user's score unconditionally.
func (l *Ledger) Apply(ctx context.Context, chatID string, delta int) error {
	return l.store.AddScore(ctx, chatID, delta)
}

// Award credits delta once per activity id. It returns false when the
// activity was already credited, so a re-classified event cannot be
// double-counted.
func (l *Ledger) Award(ctx context.Context, activityID string, rule domain.Rule, chatID string, delta int) (bool, error) {
	entry := domain.ActivityLogEntry{
		ActivityID:   activityID,
		ActivityType: string(rule),
		ChatID:       chatID,
		Timestamp:    l.now().UTC(),
	}
	return l.store.RecordActivity(ctx, entry, delta)
}

// ActivityID keys a scoring activity by the event and the rule that scored it.
func ActivityID(eventID string, rule domain.Rule) string {
	return eventID + ":" + string(rule)
}
