package usecase

import (
	"context"
	"errors"
	"regexp"

	"go.uber.org/zap"

	"github.com/naka-gawa/gitcord/internal/apperror"
	"github.com/naka-gawa/gitcord/internal/domain"
)

// ProfileURLPrefix is the chat-platform profile URL a code-host user must
// declare as a social account to prove ownership of a chat identity.
const ProfileURLPrefix = "https://discord.com/users/"

const maxUsernameLength = 39

// Alphanumeric segments joined by single hyphens.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9]|-[a-zA-Z0-9])*$`)

// ValidUsername reports whether s is a syntactically valid GitHub username.
func ValidUsername(s string) bool {
	return len(s) <= maxUsernameLength && usernamePattern.MatchString(s)
}

// Resolver maps between GitHub usernames and chat identities.
type Resolver struct {
	users   UserStore
	socials SocialLinkSource
	logger  *zap.Logger
}

func NewResolver(users UserStore, socials SocialLinkSource, logger *zap.Logger) *Resolver {
	return &Resolver{users: users, socials: socials, logger: logger}
}

// Resolve never fails: an unlinked username, or a store error, yields an
// unmapped identity that displays the raw username.
func (r *Resolver) Resolve(ctx context.Context, username string) domain.Identity {
	id := domain.Identity{Login: username}
	if username == "" {
		return id
	}
	u, err := r.users.GetUserByGitHub(ctx, username)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			r.logger.Warn("failed to resolve identity", zap.String("github_username", username), zap.Error(err))
		}
		return id
	}
	id.ChatID = u.ChatID
	id.Mapped = true
	return id
}

// Verify reports whether the GitHub account declares exactly
// ProfileURLPrefix+chatID among its social accounts. Invalid usernames are
// rejected without a network call; lookup failures count as unverified.
func (r *Resolver) Verify(ctx context.Context, username, chatID string) bool {
	if !ValidUsername(username) || chatID == "" {
		return false
	}
	links, err := r.socials.FetchSocialLinks(ctx, username)
	if err != nil {
		r.logger.Warn("identity verification failed", zap.String("github_username", username), zap.Error(err))
		return false
	}
	target := ProfileURLPrefix + chatID
	for _, l := range links {
		if l.URL == target {
			return true
		}
	}
	return false
}
