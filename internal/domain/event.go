package domain

import "time"

// EventKind is the closed set of feed event categories the pipeline understands.
type EventKind int

const (
	// KindOther covers every feed event type that produces no notification.
	KindOther EventKind = iota
	KindIssues
	KindPullRequest
	KindPullRequestReview
)

// ParseEventKind maps a feed type name such as "IssuesEvent" to its kind.
func ParseEventKind(typ string) EventKind {
	switch typ {
	case "IssuesEvent":
		return KindIssues
	case "PullRequestEvent":
		return KindPullRequest
	case "PullRequestReviewEvent":
		return KindPullRequestReview
	default:
		return KindOther
	}
}

func (k EventKind) String() string {
	switch k {
	case KindIssues:
		return "IssuesEvent"
	case KindPullRequest:
		return "PullRequestEvent"
	case KindPullRequestReview:
		return "PullRequestReviewEvent"
	default:
		return "Other"
	}
}

// Event is one entry of a repository event feed. Exactly one of the payload
// pointers matching Kind is set when the payload was decoded; a nil payload
// for a known kind marks a malformed event.
type Event struct {
	ID        string
	Type      string
	Kind      EventKind
	Actor     string
	CreatedAt time.Time

	Issues            *IssuesPayload
	PullRequest       *PullRequestPayload
	PullRequestReview *PullRequestReviewPayload
}

// Issue is the subset of an issue the notifications need.
type Issue struct {
	HTMLURL string
}

// PullRequest is the subset of a pull request the notifications need.
type PullRequest struct {
	HTMLURL string
	Author  string
	Merged  bool
}

// Review is a submitted pull request review.
type Review struct {
	Body string
}

type IssuesPayload struct {
	Action   string
	Issue    *Issue
	Assignee string
}

type PullRequestPayload struct {
	Action      string
	PullRequest *PullRequest
}

type PullRequestReviewPayload struct {
	Action      string
	Review      *Review
	PullRequest *PullRequest
}
