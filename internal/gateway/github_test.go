package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/naka-gawa/gitcord/internal/domain"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) *GitHubGateway {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: githubv4.NewEnterpriseClient(server.URL, server.Client()),
		logger:        zap.NewNop(),
	}
}

const eventsPage = `[
  {"id": "3", "type": "PullRequestReviewEvent", "actor": {"login": "alice"},
   "created_at": "2024-05-01T10:03:00Z",
   "payload": {"action": "submitted", "review": {"body": "LGTM"},
               "pull_request": {"html_url": "https://github.com/acme/widget/pull/2", "user": {"login": "bob"}}}},
  {"id": "2", "type": "PullRequestEvent", "actor": {"login": "bob"},
   "created_at": "2024-05-01T10:02:00Z",
   "payload": {"action": "closed", "pull_request": {"html_url": "https://github.com/acme/widget/pull/2", "merged": true, "user": {"login": "bob"}}}},
  {"id": "1", "type": "IssuesEvent", "actor": {"login": "carol"},
   "created_at": "2024-05-01T10:01:00Z",
   "payload": {"action": "assigned", "issue": {"html_url": "https://github.com/acme/widget/issues/1"}, "assignee": {"login": "dave"}}},
  {"id": "0", "type": "WatchEvent", "actor": {"login": "erin"},
   "created_at": "2024-05-01T10:00:00Z", "payload": {"action": "started"}}
]`

func TestGitHubGateway_FetchEvents(t *testing.T) {
	testCases := []struct {
		name           string
		cursor         string
		handlerFunc    func(t *testing.T) http.HandlerFunc
		expectedIDs    []string
		expectedCursor string
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "happy path - returns events and the new ETag",
			handlerFunc: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "/repos/acme/widget/events", r.URL.Path)
					assert.Equal(t, "100", r.URL.Query().Get("per_page"))
					assert.Empty(t, r.Header.Get("If-None-Match"))
					w.Header().Set("ETag", `W/"v2"`)
					w.WriteHeader(http.StatusOK)
					fmt.Fprint(w, eventsPage)
				}
			},
			expectedIDs:    []string{"3", "2", "1", "0"},
			expectedCursor: `W/"v2"`,
		},
		{
			name:   "not modified - empty result and unchanged cursor",
			cursor: `W/"v1"`,
			handlerFunc: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, `W/"v1"`, r.Header.Get("If-None-Match"))
					w.WriteHeader(http.StatusNotModified)
				}
			},
			expectedIDs:    []string{},
			expectedCursor: `W/"v1"`,
		},
		{
			name:   "error case - GitHub API returns an error",
			cursor: `W/"v1"`,
			handlerFunc: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
					fmt.Fprint(w, `{"message": "Internal Server Error"}`)
				}
			},
			expectedCursor: `W/"v1"`,
			expectError:    true,
			expectedErrMsg: "failed to list events for acme/widget",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := setupTestGateway(t, tc.handlerFunc(t))

			events, cursor, err := gateway.FetchEvents(context.Background(), "acme", "widget", tc.cursor)
			assert.Equal(t, tc.expectedCursor, cursor)
			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				return
			}
			require.NoError(t, err)
			ids := []string{}
			for _, ev := range events {
				ids = append(ids, ev.ID)
			}
			assert.Equal(t, tc.expectedIDs, ids)
		})
	}
}

func TestGitHubGateway_FetchEvents_DecodesPayloads(t *testing.T) {
	gateway := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, eventsPage)
	}))

	events, _, err := gateway.FetchEvents(context.Background(), "acme", "widget", "")
	require.NoError(t, err)
	require.Len(t, events, 4)

	review := events[0]
	assert.Equal(t, domain.KindPullRequestReview, review.Kind)
	assert.Equal(t, "alice", review.Actor)
	require.NotNil(t, review.PullRequestReview)
	assert.Equal(t, "submitted", review.PullRequestReview.Action)
	assert.Equal(t, "LGTM", review.PullRequestReview.Review.Body)
	assert.Equal(t, "bob", review.PullRequestReview.PullRequest.Author)

	merged := events[1]
	assert.Equal(t, domain.KindPullRequest, merged.Kind)
	require.NotNil(t, merged.PullRequest)
	assert.True(t, merged.PullRequest.PullRequest.Merged)
	assert.Equal(t, "https://github.com/acme/widget/pull/2", merged.PullRequest.PullRequest.HTMLURL)

	assigned := events[2]
	assert.Equal(t, domain.KindIssues, assigned.Kind)
	require.NotNil(t, assigned.Issues)
	assert.Equal(t, "assigned", assigned.Issues.Action)
	assert.Equal(t, "dave", assigned.Issues.Assignee)
	assert.Equal(t, "https://github.com/acme/widget/issues/1", assigned.Issues.Issue.HTMLURL)
	assert.Equal(t, 2024, assigned.CreatedAt.Year())

	other := events[3]
	assert.Equal(t, domain.KindOther, other.Kind)
	assert.Nil(t, other.Issues)
	assert.Nil(t, other.PullRequest)
	assert.Nil(t, other.PullRequestReview)
}

func TestGitHubGateway_FetchSocialLinks(t *testing.T) {
	testCases := []struct {
		name           string
		responseBody   string
		expectedLinks  []domain.SocialLink
		expectError    bool
		expectedErrMsg string
	}{
		{
			name:         "happy path",
			responseBody: `{"data":{"user":{"socialAccounts":{"nodes":[{"provider":"GENERIC","url":"https://discord.com/users/12345"},{"provider":"TWITTER","url":"https://twitter.com/alice"}]}}}}`,
			expectedLinks: []domain.SocialLink{
				{Provider: "GENERIC", URL: "https://discord.com/users/12345"},
				{Provider: "TWITTER", URL: "https://twitter.com/alice"},
			},
		},
		{
			name:          "no social accounts",
			responseBody:  `{"data":{"user":{"socialAccounts":{"nodes":[]}}}}`,
			expectedLinks: []domain.SocialLink{},
		},
		{
			name:           "missing user",
			responseBody:   `{"data":{"user":null}}`,
			expectError:    true,
			expectedErrMsg: "user not found",
		},
		{
			name:           "GraphQL error",
			responseBody:   `{"errors":[{"message":"Could not resolve to a User with the login of 'alice'."}]}`,
			expectError:    true,
			expectedErrMsg: "failed to execute GraphQL query",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), "socialAccounts(first: 10)")
				assert.Contains(t, string(body), `"login":"alice"`)
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, tc.responseBody)
			}
			gateway := setupTestGateway(t, http.HandlerFunc(handler))

			links, err := gateway.FetchSocialLinks(context.Background(), "alice")
			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedLinks, links)
		})
	}
}
