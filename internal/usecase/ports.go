// Package usecase contains the business logic of the application: the
// ingestion pipeline and the commands that maintain its links.
package usecase

import (
	"context"

	"github.com/naka-gawa/gitcord/internal/domain"
)

// EventSource fetches a repository's event feed. Events are returned
// newest first. When the host reports no change since cursor, it returns an
// empty slice and the cursor unchanged.
type EventSource interface {
	FetchEvents(ctx context.Context, owner, name, cursor string) ([]domain.Event, string, error)
}

// SocialLinkSource lists the social accounts a code-host user declares.
type SocialLinkSource interface {
	FetchSocialLinks(ctx context.Context, username string) ([]domain.SocialLink, error)
}

// Publisher delivers text to a notification channel.
type Publisher interface {
	Publish(ctx context.Context, channelID, text string) error
}

// UserStore persists linked users.
type UserStore interface {
	CreateUser(ctx context.Context, chatID, githubUsername string) (bool, error)
	GetUserByChatID(ctx context.Context, chatID string) (*domain.User, error)
	GetUserByGitHub(ctx context.Context, githubUsername string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// LinkStore persists repository links and maintainers.
type LinkStore interface {
	CreateRepositoryLink(ctx context.Context, link *domain.RepositoryLink) (bool, error)
	DeleteRepositoryLink(ctx context.Context, url, channelID string) (bool, error)
	ListRepositoryLinks(ctx context.Context) ([]domain.RepositoryLink, error)
	CreateMaintainer(ctx context.Context, chatID, url string) (bool, error)
	DeleteMaintainer(ctx context.Context, chatID, url string) (bool, error)
	ListMaintainers(ctx context.Context, url string) ([]string, error)
}

// EventStore persists processed-event markers and feed cursors.
type EventStore interface {
	MarkEventProcessed(ctx context.Context, eventID string) (bool, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	GetCursor(ctx context.Context, linkID int64) (string, bool, error)
	UpdateCursor(ctx context.Context, linkID int64, cursor string) error
}

// ScoreStore persists score changes.
type ScoreStore interface {
	AddScore(ctx context.Context, chatID string, delta int) error
	RecordActivity(ctx context.Context, entry domain.ActivityLogEntry, delta int) (bool, error)
}
