package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/naka-gawa/gitcord/internal/config"
	"github.com/naka-gawa/gitcord/internal/domain"
	"github.com/naka-gawa/gitcord/internal/store/sqlite"
)

const (
	widgetURL = "https://github.com/acme/widget"
	gadgetURL = "https://github.com/acme/gadget"
)

// mockEventSource is a mock implementation of EventSource.
type mockEventSource struct {
	mock.Mock
}

func (m *mockEventSource) FetchEvents(ctx context.Context, owner, name, cursor string) ([]domain.Event, string, error) {
	args := m.Called(ctx, owner, name, cursor)
	// The events slice is nil when the mock simulates a failure.
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]domain.Event), args.String(1), args.Error(2)
}

// mockSocialLinkSource is a mock implementation of SocialLinkSource.
type mockSocialLinkSource struct {
	mock.Mock
}

func (m *mockSocialLinkSource) FetchSocialLinks(ctx context.Context, username string) ([]domain.SocialLink, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SocialLink), args.Error(1)
}

type publishedMessage struct {
	ChannelID string
	Text      string
}

// recordingPublisher keeps every published message in order.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, channelID, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, publishedMessage{ChannelID: channelID, Text: text})
	return nil
}

func (p *recordingPublisher) texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		out = append(out, m.Text)
	}
	return out
}

// flakyEventStore fails the first failMarks MarkEventProcessed calls,
// simulating a crash between scoring an event and recording it.
type flakyEventStore struct {
	*sqlite.DB
	failMarks int
}

func (s *flakyEventStore) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	if s.failMarks > 0 {
		s.failMarks--
		return false, errors.New("disk I/O error")
	}
	return s.DB.MarkEventProcessed(ctx, eventID)
}

type testEnv struct {
	db        *sqlite.DB
	source    *mockEventSource
	socials   *mockSocialLinkSource
	publisher *recordingPublisher
	registry  *Registry
	resolver  *Resolver
	commands  *Commands
	scheduler *Scheduler
}

// newTestEnv wires the pipeline on a fresh database. pick always selects
// the first candidate so maintainer routing is deterministic.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "gitcord.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	env := &testEnv{
		db:        db,
		source:    new(mockEventSource),
		socials:   new(mockSocialLinkSource),
		publisher: &recordingPublisher{},
		registry:  NewRegistry(db),
	}
	env.resolver = NewResolver(db, env.socials, logger)
	env.commands = NewCommands(env.registry, env.resolver, db)

	cfg := config.Default()
	env.scheduler, err = NewScheduler(cfg, SchedulerDeps{
		Source:     env.source,
		Publisher:  env.publisher,
		Registry:   env.registry,
		Dedup:      NewDeduplicator(db),
		Classifier: NewClassifier(cfg.Scoring.Points, func(int) int { return 0 }),
		Resolver:   env.resolver,
		Ledger:     NewLedger(db),
	}, logger)
	require.NoError(t, err)
	return env
}

func (e *testEnv) linkUser(t *testing.T, chatID, login string) {
	t.Helper()
	ok, err := e.db.CreateUser(context.Background(), chatID, login)
	require.NoError(t, err)
	require.True(t, ok)
}

func (e *testEnv) linkRepo(t *testing.T, url, channelID string) domain.RepositoryLink {
	t.Helper()
	ctx := context.Background()
	ok, err := e.registry.LinkRepository(ctx, url, channelID)
	require.NoError(t, err)
	require.True(t, ok)
	links, err := e.registry.AllLinkedRepositories(ctx)
	require.NoError(t, err)
	for _, l := range links {
		if l.URL == url && l.ChannelID == channelID {
			return l
		}
	}
	t.Fatalf("link %s in %s not found", url, channelID)
	return domain.RepositoryLink{}
}

func (e *testEnv) addMaintainer(t *testing.T, chatID, url string) {
	t.Helper()
	ok, err := e.registry.AddMaintainer(context.Background(), chatID, url)
	require.NoError(t, err)
	require.True(t, ok)
}

func (e *testEnv) score(t *testing.T, chatID string) int {
	t.Helper()
	u, err := e.db.GetUserByChatID(context.Background(), chatID)
	require.NoError(t, err)
	return u.Score
}

func (e *testEnv) cursor(t *testing.T, linkID int64) string {
	t.Helper()
	c, _, err := e.db.GetCursor(context.Background(), linkID)
	require.NoError(t, err)
	return c
}

func prEvent(id, actor, action, url string, merged bool) domain.Event {
	return domain.Event{
		ID: id, Type: "PullRequestEvent", Kind: domain.KindPullRequest, Actor: actor,
		PullRequest: &domain.PullRequestPayload{
			Action:      action,
			PullRequest: &domain.PullRequest{HTMLURL: url, Author: actor, Merged: merged},
		},
	}
}

func issueEvent(id, actor, action, url, assignee string) domain.Event {
	return domain.Event{
		ID: id, Type: "IssuesEvent", Kind: domain.KindIssues, Actor: actor,
		Issues: &domain.IssuesPayload{Action: action, Issue: &domain.Issue{HTMLURL: url}, Assignee: assignee},
	}
}

func reviewEvent(id, reviewer, author, url, body string) domain.Event {
	return domain.Event{
		ID: id, Type: "PullRequestReviewEvent", Kind: domain.KindPullRequestReview, Actor: reviewer,
		PullRequestReview: &domain.PullRequestReviewPayload{
			Action:      "submitted",
			Review:      &domain.Review{Body: body},
			PullRequest: &domain.PullRequest{HTMLURL: url, Author: author},
		},
	}
}
