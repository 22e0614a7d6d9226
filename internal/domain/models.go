package domain

import (
	"fmt"
	"time"
)

// User links a chat-platform identity to a code-host account.
// Users are created on successful verification and never deleted.
type User struct {
	ChatID         string    `json:"chat_id"`
	GitHubUsername string    `json:"github_username"`
	Score          int       `json:"score"`
	LastSyncedAt   time.Time `json:"last_synced_at"`
}

// RepositoryLink binds a repository to a notification channel. The same
// repository may be linked to several channels, each with its own cursor.
type RepositoryLink struct {
	ID        int64  `json:"id"`
	URL       string `json:"repository_url"`
	Owner     string `json:"owner"`
	Name      string `json:"name"`
	ChannelID string `json:"channel_id"`
	// Cursor is the ETag of the last successful events fetch. Empty means
	// the feed has never been read for this link.
	Cursor string `json:"cursor,omitempty"`
}

// FullName returns "owner/name".
func (l RepositoryLink) FullName() string {
	return l.Owner + "/" + l.Name
}

// Maintainer grants a chat user maintainer routing for a repository.
type Maintainer struct {
	ChatID string `json:"chat_id"`
	URL    string `json:"repository_url"`
}

// ActivityLogEntry records that a scoring activity has been credited.
type ActivityLogEntry struct {
	ActivityID   string    `json:"activity_id"`
	ActivityType string    `json:"activity_type"`
	ChatID       string    `json:"chat_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// SocialLink is one entry of a code-host profile's declared social accounts.
type SocialLink struct {
	Provider string `json:"provider"`
	URL      string `json:"url"`
}

// Identity is the result of resolving a code-host username to a chat user.
type Identity struct {
	Login  string
	ChatID string
	Mapped bool
}

// Mention renders the identity for a channel message: a chat mention when
// the user is linked, the raw username otherwise.
func (i Identity) Mention() string {
	if !i.Mapped {
		return i.Login
	}
	return MentionOf(i.ChatID)
}

// MentionOf formats a chat user id as a mention.
func MentionOf(chatID string) string {
	return fmt.Sprintf("<@%s>", chatID)
}
