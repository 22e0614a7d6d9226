package usecase

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/naka-gawa/gitcord/internal/config"
	"github.com/naka-gawa/gitcord/internal/domain"
)

const (
	// collectiveMaintainers stands in for a mention when no maintainer can be tagged.
	collectiveMaintainers = "maintainers"

	reviewPreviewLimit = 50
	emptyReviewPreview = "No comment."
)

// ErrMalformedEvent is returned for a known event kind whose payload lacks
// the objects its rules need.
var ErrMalformedEvent = errors.New("malformed event payload")

// EventContext is what the classifier knows about the event's repository.
type EventContext struct {
	// Maintainers are the chat ids of the repository's maintainers.
	Maintainers []string
	// Resolve maps a GitHub username to a chat identity. It must not fail.
	Resolve func(username string) domain.Identity
}

// Classifier turns feed events into notification intents. It has no side
// effects of its own.
type Classifier struct {
	points config.Points
	pick   func(n int) int
}

// NewClassifier returns a classifier crediting the given points. pick
// returns a uniform index in [0, n); nil selects math/rand/v2.
func NewClassifier(points config.Points, pick func(n int) int) *Classifier {
	if pick == nil {
		pick = rand.IntN
	}
	return &Classifier{points: points, pick: pick}
}

// Classify returns the intents for ev. Event kinds and actions without a
// rule produce no intents and no error.
func (c *Classifier) Classify(ev domain.Event, ec EventContext) ([]domain.Intent, error) {
	switch ev.Kind {
	case domain.KindIssues:
		return c.classifyIssue(ev, ec)
	case domain.KindPullRequest:
		return c.classifyPullRequest(ev, ec)
	case domain.KindPullRequestReview:
		return c.classifyReview(ev, ec)
	case domain.KindOther:
		return nil, nil
	default:
		return nil, fmt.Errorf("event %s: unknown kind %d", ev.ID, ev.Kind)
	}
}

func (c *Classifier) classifyIssue(ev domain.Event, ec EventContext) ([]domain.Intent, error) {
	p := ev.Issues
	if p == nil || p.Issue == nil {
		return nil, fmt.Errorf("event %s: issue missing: %w", ev.ID, ErrMalformedEvent)
	}
	url := p.Issue.HTMLURL

	switch p.Action {
	case "assigned":
		if p.Assignee == "" {
			return nil, nil
		}
		assignee := ec.Resolve(p.Assignee)
		if !assignee.Mapped {
			return nil, nil
		}
		pts := c.points.IssueAssigned
		return []domain.Intent{{
			Rule:   domain.RuleIssueAssigned,
			Text:   fmt.Sprintf("📋 Issue %s assigned to %s (+%d points)", url, assignee.Mention(), pts),
			ChatID: assignee.ChatID,
			Delta:  pts,
		}}, nil

	case "opened":
		actor := ec.Resolve(ev.Actor)
		if !actor.Mapped {
			return nil, nil
		}
		if slices.Contains(ec.Maintainers, actor.ChatID) {
			return []domain.Intent{{
				Rule: domain.RuleIssueAvailable,
				Text: fmt.Sprintf("📢 Issue available for assignment %s by %s", url, actor.Mention()),
			}}, nil
		}
		return []domain.Intent{{
			Rule: domain.RuleIssueOpened,
			Text: fmt.Sprintf("🐛 Issue created %s by %s. %s please assign.",
				url, actor.Mention(), c.pickMaintainer(ec.Maintainers, actor.ChatID)),
		}}, nil
	}
	return nil, nil
}

func (c *Classifier) classifyPullRequest(ev domain.Event, ec EventContext) ([]domain.Intent, error) {
	p := ev.PullRequest
	if p == nil || p.PullRequest == nil {
		return nil, fmt.Errorf("event %s: pull_request missing: %w", ev.ID, ErrMalformedEvent)
	}
	pr := p.PullRequest

	actor := ec.Resolve(ev.Actor)
	if !actor.Mapped {
		return nil, nil
	}

	switch p.Action {
	case "opened":
		return []domain.Intent{{
			Rule: domain.RulePROpened,
			Text: fmt.Sprintf("🔌 PR opened %s by %s. %s please review.",
				pr.HTMLURL, actor.Mention(), c.pickMaintainer(ec.Maintainers, actor.ChatID)),
		}}, nil

	case "closed":
		if pr.Merged {
			pts := c.points.PRMerged
			return []domain.Intent{{
				Rule:   domain.RulePRMerged,
				Text:   fmt.Sprintf("💜 PR merged! %s from %s (+%d points)", pr.HTMLURL, actor.Mention(), pts),
				ChatID: actor.ChatID,
				Delta:  pts,
			}}, nil
		}
		return []domain.Intent{{
			Rule: domain.RulePRClosed,
			Text: fmt.Sprintf("❌ PR closed without merge %s from %s", pr.HTMLURL, actor.Mention()),
		}}, nil
	}
	return nil, nil
}

func (c *Classifier) classifyReview(ev domain.Event, ec EventContext) ([]domain.Intent, error) {
	p := ev.PullRequestReview
	if p == nil || p.Review == nil || p.PullRequest == nil {
		return nil, fmt.Errorf("event %s: review or pull_request missing: %w", ev.ID, ErrMalformedEvent)
	}
	if p.Action != "submitted" {
		return nil, nil
	}

	reviewer := ec.Resolve(ev.Actor)
	if !reviewer.Mapped || !slices.Contains(ec.Maintainers, reviewer.ChatID) {
		return nil, nil
	}
	author := ec.Resolve(p.PullRequest.Author)
	if !author.Mapped {
		return nil, nil
	}

	pts := c.points.PRReviewed
	return []domain.Intent{{
		Rule: domain.RulePRReviewed,
		Text: fmt.Sprintf("👀 PR reviewed %s from %s (+%d points). Review: %s",
			p.PullRequest.HTMLURL, author.Mention(), pts, ReviewPreview(p.Review.Body)),
		ChatID: author.ChatID,
		Delta:  pts,
	}}, nil
}

// pickMaintainer mentions a uniformly chosen maintainer other than exclude,
// or the collective placeholder when there is none.
func (c *Classifier) pickMaintainer(maintainers []string, exclude string) string {
	candidates := make([]string, 0, len(maintainers))
	for _, m := range maintainers {
		if m != exclude {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return collectiveMaintainers
	}
	return domain.MentionOf(candidates[c.pick(len(candidates))])
}

// ReviewPreview shortens a review body for a channel message.
func ReviewPreview(body string) string {
	if body == "" {
		return emptyReviewPreview
	}
	runes := []rune(body)
	if len(runes) > reviewPreviewLimit {
		return string(runes[:reviewPreviewLimit-3]) + "..."
	}
	return body
}
