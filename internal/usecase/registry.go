package usecase

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/naka-gawa/gitcord/internal/apperror"
	"github.com/naka-gawa/gitcord/internal/domain"
)

var pathSegmentPattern = regexp.MustCompile(`^[\w.-]+$`)

// NormalizeRepositoryURL strips surrounding spaces and a trailing slash and
// checks the result has the form scheme://host/owner/name. It returns the
// normalized URL and its owner and name segments.
func NormalizeRepositoryURL(raw string) (normalized, owner, name string, err error) {
	normalized = strings.TrimRight(strings.TrimSpace(raw), "/")
	invalid := apperror.ValidationFailed("url", fmt.Sprintf("%q is not a repository URL of the form https://host/owner/name", raw))

	u, perr := url.Parse(normalized)
	if perr != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" ||
		u.User != nil || u.RawQuery != "" || u.Fragment != "" {
		return "", "", "", invalid
	}
	segments := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(segments) != 2 {
		return "", "", "", invalid
	}
	for _, s := range segments {
		if !pathSegmentPattern.MatchString(s) {
			return "", "", "", invalid
		}
	}
	return normalized, segments[0], segments[1], nil
}

// Registry manages repository ↔ channel links and maintainers.
type Registry struct {
	store LinkStore
}

func NewRegistry(store LinkStore) *Registry {
	return &Registry{store: store}
}

// LinkRepository returns false when the repository is already linked to the
// channel. A malformed URL is an apperror.ErrValidation.
func (r *Registry) LinkRepository(ctx context.Context, rawURL, channelID string) (bool, error) {
	normalized, owner, name, err := NormalizeRepositoryURL(rawURL)
	if err != nil {
		return false, err
	}
	link := &domain.RepositoryLink{URL: normalized, Owner: owner, Name: name, ChannelID: channelID}
	return r.store.CreateRepositoryLink(ctx, link)
}

func (r *Registry) UnlinkRepository(ctx context.Context, rawURL, channelID string) (bool, error) {
	normalized, _, _, err := NormalizeRepositoryURL(rawURL)
	if err != nil {
		return false, err
	}
	return r.store.DeleteRepositoryLink(ctx, normalized, channelID)
}

// AddMaintainer returns false for a duplicate registration.
func (r *Registry) AddMaintainer(ctx context.Context, chatID, rawURL string) (bool, error) {
	normalized, _, _, err := NormalizeRepositoryURL(rawURL)
	if err != nil {
		return false, err
	}
	return r.store.CreateMaintainer(ctx, chatID, normalized)
}

func (r *Registry) RemoveMaintainer(ctx context.Context, chatID, rawURL string) (bool, error) {
	normalized, _, _, err := NormalizeRepositoryURL(rawURL)
	if err != nil {
		return false, err
	}
	return r.store.DeleteMaintainer(ctx, chatID, normalized)
}

// MaintainersOf returns the chat ids of the repository's maintainers.
func (r *Registry) MaintainersOf(ctx context.Context, repoURL string) ([]string, error) {
	return r.store.ListMaintainers(ctx, repoURL)
}

func (r *Registry) AllLinkedRepositories(ctx context.Context) ([]domain.RepositoryLink, error) {
	return r.store.ListRepositoryLinks(ctx)
}
