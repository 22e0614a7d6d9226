package usecase

import (
	"time"

	"github.com/naka-gawa/gitcord/internal/domain"
)

// EventResult is the outcome of processing one event. Err holds a
// classification or scoring failure; publish failures are counted
// separately because delivery is best-effort.
type EventResult struct {
	EventID         string          `json:"event_id"`
	Type            string          `json:"type"`
	Intents         []domain.Intent `json:"intents,omitempty"`
	Published       int             `json:"published"`
	PublishFailures int             `json:"publish_failures,omitempty"`
	Err             error           `json:"-"`
	Error           string          `json:"error,omitempty"`
}

func (r *EventResult) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}

// RepoReport is the outcome of one repository link within a cycle. Err is
// set when the repository was aborted (fetch failure) or its cursor could
// not be stored.
type RepoReport struct {
	LinkID         int64         `json:"link_id"`
	Repository     string        `json:"repository"`
	ChannelID      string        `json:"channel_id"`
	Fetched        int           `json:"fetched"`
	Skipped        int           `json:"skipped"`
	Events         []EventResult `json:"events,omitempty"`
	CursorAdvanced bool          `json:"cursor_advanced"`
	Duration       time.Duration `json:"duration"`
	Err            error         `json:"-"`
	Error          string        `json:"error,omitempty"`
}

func (r *RepoReport) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}

// CycleReport collects what one scheduler firing did.
type CycleReport struct {
	ID          string        `json:"id"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	Repos       []RepoReport  `json:"repositories"`
	Interrupted bool          `json:"interrupted,omitempty"`
	Err         error         `json:"-"`
	Error       string        `json:"error,omitempty"`
}

// Failures returns every event that failed classification or scoring.
func (r CycleReport) Failures() []EventResult {
	var failed []EventResult
	for _, repo := range r.Repos {
		for _, ev := range repo.Events {
			if ev.Err != nil {
				failed = append(failed, ev)
			}
		}
	}
	return failed
}

// Processed counts events that went through classification.
func (r CycleReport) Processed() int {
	n := 0
	for _, repo := range r.Repos {
		n += len(repo.Events)
	}
	return n
}
