// Package gateway provides the code-host and chat-platform clients,
// abstracting away the underlying REST, GraphQL and Discord APIs.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/gitcord/internal/domain"
)

// eventsPerPage is the largest page the events API serves.
const eventsPerPage = 100

// GitHubGateway fetches repository events over REST and profile social
// accounts over GraphQL.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *zap.Logger
}

// socialAccountsQuery lists the social accounts declared on a user profile.
type socialAccountsQuery struct {
	User *struct {
		SocialAccounts struct {
			Nodes []struct {
				Provider string
				URL      string
			}
		} `graphql:"socialAccounts(first: 10)"`
	} `graphql:"user(login: $login)"`
}

// NewGitHubGateway creates a gateway authenticated with token. Requests
// that hit the secondary rate limit sleep until the limit resets, capped at
// one hour per wait.
func NewGitHubGateway(token string, timeout time.Duration, logger *zap.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// FetchEvents lists the repository's public events, newest first. The cursor
// is the ETag of the previous response; when GitHub answers 304 Not Modified
// the result is empty and the cursor is returned unchanged.
func (g *GitHubGateway) FetchEvents(ctx context.Context, owner, name, cursor string) ([]domain.Event, string, error) {
	path := fmt.Sprintf("repos/%s/%s/events?per_page=%d", owner, name, eventsPerPage)
	req, err := g.restClient.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, cursor, fmt.Errorf("failed to build events request for %s/%s: %w", owner, name, err)
	}
	if cursor != "" {
		req.Header.Set("If-None-Match", cursor)
	}

	var raw []*github.Event
	resp, err := g.restClient.Do(ctx, req, &raw)
	if resp != nil && resp.StatusCode == http.StatusNotModified {
		g.logger.Debug("events not modified", zap.String("repo", owner+"/"+name))
		return nil, cursor, nil
	}
	if err != nil {
		return nil, cursor, fmt.Errorf("failed to list events for %s/%s: %w", owner, name, err)
	}

	newCursor := resp.Header.Get("ETag")
	if newCursor == "" {
		newCursor = cursor
	}
	events := make([]domain.Event, 0, len(raw))
	for _, e := range raw {
		events = append(events, g.toDomainEvent(e))
	}
	g.logger.Debug("fetched events", zap.String("repo", owner+"/"+name), zap.Int("count", len(events)))
	return events, newCursor, nil
}

// FetchSocialLinks returns the social accounts declared on the user's profile.
func (g *GitHubGateway) FetchSocialLinks(ctx context.Context, username string) ([]domain.SocialLink, error) {
	var q socialAccountsQuery
	variables := map[string]interface{}{"login": githubv4.String(username)}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for social accounts: %w", err)
	}
	if q.User == nil {
		return nil, errors.New("user not found: " + username)
	}
	links := make([]domain.SocialLink, 0, len(q.User.SocialAccounts.Nodes))
	for _, n := range q.User.SocialAccounts.Nodes {
		links = append(links, domain.SocialLink{Provider: n.Provider, URL: n.URL})
	}
	return links, nil
}

// toDomainEvent converts a feed entry. A payload that cannot be decoded is
// left nil so the classifier reports the event as malformed.
func (g *GitHubGateway) toDomainEvent(e *github.Event) domain.Event {
	ev := domain.Event{
		ID:        e.GetID(),
		Type:      e.GetType(),
		Kind:      domain.ParseEventKind(e.GetType()),
		Actor:     e.GetActor().GetLogin(),
		CreatedAt: e.GetCreatedAt().Time,
	}
	if ev.Kind == domain.KindOther || e.RawPayload == nil {
		return ev
	}

	payload, err := e.ParsePayload()
	if err != nil {
		g.logger.Warn("failed to decode event payload", zap.String("event_id", ev.ID), zap.Error(err))
		return ev
	}
	switch p := payload.(type) {
	case *github.IssuesEvent:
		ev.Issues = &domain.IssuesPayload{
			Action:   p.GetAction(),
			Assignee: p.GetAssignee().GetLogin(),
		}
		if p.Issue != nil {
			ev.Issues.Issue = &domain.Issue{HTMLURL: p.Issue.GetHTMLURL()}
		}
	case *github.PullRequestEvent:
		ev.PullRequest = &domain.PullRequestPayload{
			Action:      p.GetAction(),
			PullRequest: toDomainPullRequest(p.PullRequest),
		}
	case *github.PullRequestReviewEvent:
		ev.PullRequestReview = &domain.PullRequestReviewPayload{
			Action:      p.GetAction(),
			PullRequest: toDomainPullRequest(p.PullRequest),
		}
		if p.Review != nil {
			ev.PullRequestReview.Review = &domain.Review{Body: p.Review.GetBody()}
		}
	}
	return ev
}

func toDomainPullRequest(pr *github.PullRequest) *domain.PullRequest {
	if pr == nil {
		return nil
	}
	return &domain.PullRequest{
		HTMLURL: pr.GetHTMLURL(),
		Author:  pr.GetUser().GetLogin(),
		Merged:  pr.GetMerged(),
	}
}
