package usecase

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/naka-gawa/gitcord/internal/config"
	"github.com/naka-gawa/gitcord/internal/domain"
)

// SchedulerDeps are the collaborators of the sync loop.
type SchedulerDeps struct {
	Source     EventSource
	Publisher  Publisher
	Registry   *Registry
	Dedup      *Deduplicator
	Classifier *Classifier
	Resolver   *Resolver
	Ledger     *Ledger
}

// Scheduler polls every linked repository and turns new events into
// notifications and score updates.
type Scheduler struct {
	SchedulerDeps
	interval time.Duration
	logger   *zap.Logger

	mu   sync.Mutex
	last *CycleReport
}

// NewScheduler builds a scheduler firing at cfg's sync interval.
func NewScheduler(cfg *config.Config, deps SchedulerDeps, logger *zap.Logger) (*Scheduler, error) {
	interval, err := cfg.SyncInterval()
	if err != nil {
		return nil, err
	}
	return &Scheduler{SchedulerDeps: deps, interval: interval, logger: logger}, nil
}

// Run fires a cycle immediately and then once per interval until ctx is
// cancelled. A cycle in flight finishes its current repository first.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	for {
		if ctx.Err() != nil {
			break
		}
		s.RunCycle(ctx, time.Now())
		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
	s.logger.Info("scheduler stopped")
	return nil
}

// LastReport returns the report of the most recent cycle.
func (s *Scheduler) LastReport() (CycleReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return CycleReport{}, false
	}
	return *s.last, true
}

// RunCycle syncs every linked repository once, sequentially. Cancelling ctx
// stops the cycle between repositories; the repository being synced is
// completed on a context detached from the cancellation.
func (s *Scheduler) RunCycle(ctx context.Context, now time.Time) CycleReport {
	report := CycleReport{ID: xid.New().String(), StartedAt: now}
	start := time.Now()
	work := context.WithoutCancel(ctx)

	links, err := s.Registry.AllLinkedRepositories(ctx)
	if err != nil {
		report.Err = fmt.Errorf("failed to list linked repositories: %w", err)
		report.Error = report.Err.Error()
	}
	for _, link := range links {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}
		report.Repos = append(report.Repos, s.syncRepository(work, link))
	}
	report.Duration = time.Since(start)

	s.logReport(report)
	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()
	return report
}

func (s *Scheduler) syncRepository(ctx context.Context, link domain.RepositoryLink) (rr RepoReport) {
	rr = RepoReport{LinkID: link.ID, Repository: link.URL, ChannelID: link.ChannelID}
	start := time.Now()
	defer func() { rr.Duration = time.Since(start) }()

	cursor, err := s.Dedup.CursorOf(ctx, link.ID)
	if err != nil {
		rr.fail(fmt.Errorf("failed to read cursor: %w", err))
		return rr
	}

	events, newCursor, err := s.Source.FetchEvents(ctx, link.Owner, link.Name, cursor)
	if err != nil {
		rr.fail(fmt.Errorf("failed to fetch events: %w", err))
		return rr
	}
	rr.Fetched = len(events)
	if len(events) == 0 {
		return rr
	}

	maintainers, err := s.Registry.MaintainersOf(ctx, link.URL)
	if err != nil {
		rr.fail(fmt.Errorf("failed to load maintainers: %w", err))
		return rr
	}
	ec := EventContext{
		Maintainers: maintainers,
		Resolve: func(username string) domain.Identity {
			return s.Resolver.Resolve(ctx, username)
		},
	}

	for _, ev := range Chronological(events) {
		seen, err := s.Dedup.IsProcessed(ctx, ev.ID)
		if err != nil {
			res := EventResult{EventID: ev.ID, Type: ev.Type}
			res.fail(fmt.Errorf("failed to check processed marker: %w", err))
			rr.Events = append(rr.Events, res)
			continue
		}
		if seen {
			rr.Skipped++
			continue
		}
		rr.Events = append(rr.Events, s.processEvent(ctx, link, ev, ec))
	}

	if newCursor != "" && newCursor != cursor {
		if err := s.Dedup.AdvanceCursor(ctx, link.ID, newCursor); err != nil {
			rr.fail(fmt.Errorf("failed to advance cursor: %w", err))
		} else {
			rr.CursorAdvanced = true
		}
	}
	return rr
}

// processEvent classifies ev, applies its score deltas and publishes its
// notifications. The event is marked processed whatever the outcome so a
// bad event cannot stall the feed.
func (s *Scheduler) processEvent(ctx context.Context, link domain.RepositoryLink, ev domain.Event, ec EventContext) EventResult {
	res := EventResult{EventID: ev.ID, Type: ev.Type}

	intents, err := s.Classifier.Classify(ev, ec)
	if err != nil {
		res.fail(err)
	} else {
		res.Intents = intents
		s.applyIntents(ctx, link, ev, intents, &res)
	}

	if _, err := s.Dedup.MarkProcessed(ctx, ev.ID); err != nil {
		s.logger.Error("failed to mark event processed",
			zap.String("repo", link.URL), zap.String("event_id", ev.ID), zap.Error(err))
		if res.Err == nil {
			res.fail(fmt.Errorf("failed to mark processed: %w", err))
		}
	}
	return res
}

func (s *Scheduler) applyIntents(ctx context.Context, link domain.RepositoryLink, ev domain.Event, intents []domain.Intent, res *EventResult) {
	for _, in := range intents {
		if in.Scored() {
			credited, err := s.Ledger.Award(ctx, ActivityID(ev.ID, in.Rule), in.Rule, in.ChatID, in.Delta)
			if err != nil {
				res.fail(fmt.Errorf("failed to apply %s: %w", in.Rule, err))
				return
			}
			if !credited {
				// An earlier attempt already credited and announced this activity.
				s.logger.Debug("activity already credited",
					zap.String("event_id", ev.ID), zap.String("rule", string(in.Rule)))
				continue
			}
		}
		if err := s.Publisher.Publish(ctx, link.ChannelID, in.Text); err != nil {
			res.PublishFailures++
			s.logger.Warn("failed to publish notification",
				zap.String("channel_id", link.ChannelID), zap.String("event_id", ev.ID), zap.Error(err))
			continue
		}
		res.Published++
	}
}

func (s *Scheduler) logReport(report CycleReport) {
	if report.Err != nil {
		s.logger.Error("sync cycle failed", zap.String("cycle", report.ID), zap.Error(report.Err))
	}
	for _, rr := range report.Repos {
		if rr.Err != nil {
			s.logger.Warn("repository sync aborted",
				zap.String("cycle", report.ID), zap.String("repo", rr.Repository), zap.Error(rr.Err))
		}
		for _, ev := range rr.Events {
			if ev.Err != nil {
				s.logger.Warn("event processing failed",
					zap.String("cycle", report.ID), zap.String("repo", rr.Repository),
					zap.String("event_id", ev.EventID), zap.Error(ev.Err))
			}
		}
	}
	s.logger.Info("sync cycle completed",
		zap.String("cycle", report.ID),
		zap.Int("repositories", len(report.Repos)),
		zap.Int("processed", report.Processed()),
		zap.Int("failed", len(report.Failures())),
		zap.Bool("interrupted", report.Interrupted),
		zap.Duration("duration", report.Duration),
	)
}

// Chronological returns a newest-first feed page oldest first.
func Chronological(events []domain.Event) []domain.Event {
	ordered := slices.Clone(events)
	slices.Reverse(ordered)
	return ordered
}
