package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/naka-gawa/gitcord/internal/apperror"
)

// Outcome classifies the result of a command for the person who issued it.
type Outcome int

const (
	OutcomeAdded Outcome = iota
	OutcomeRemoved
	OutcomeInvalidFormat
	OutcomeDuplicate
	OutcomeNotFound
	OutcomeUnverified
	OutcomeAlreadyLinked
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeRemoved:
		return "removed"
	case OutcomeInvalidFormat:
		return "invalid-format"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeUnverified:
		return "unverified"
	case OutcomeAlreadyLinked:
		return "already-linked"
	default:
		return "unknown"
	}
}

// URLOutcome is the outcome for one URL of a multi-URL command.
type URLOutcome struct {
	URL     string
	Outcome Outcome
}

// Commands is the synchronous front door used by the operator CLI.
// Validation and idempotency failures are reported as outcomes; only store
// failures are returned as errors.
type Commands struct {
	registry *Registry
	resolver *Resolver
	users    UserStore
}

func NewCommands(registry *Registry, resolver *Resolver, users UserStore) *Commands {
	return &Commands{registry: registry, resolver: resolver, users: users}
}

// LinkRepositories links every URL in raw, separated by commas or spaces,
// to channelID.
func (c *Commands) LinkRepositories(ctx context.Context, raw, channelID string) ([]URLOutcome, error) {
	fields := strings.Fields(strings.ReplaceAll(raw, ",", " "))
	outcomes := make([]URLOutcome, 0, len(fields))
	for _, u := range fields {
		ok, err := c.registry.LinkRepository(ctx, u, channelID)
		outcome, err := classify(ok, err, OutcomeAdded, OutcomeDuplicate)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, URLOutcome{URL: strings.TrimRight(u, "/"), Outcome: outcome})
	}
	return outcomes, nil
}

func (c *Commands) UnlinkRepository(ctx context.Context, url, channelID string) (Outcome, error) {
	ok, err := c.registry.UnlinkRepository(ctx, url, channelID)
	return classify(ok, err, OutcomeRemoved, OutcomeNotFound)
}

// AddMaintainer registers chatID as maintainer of url. The chat user does
// not need a linked identity yet.
func (c *Commands) AddMaintainer(ctx context.Context, chatID, url string) (Outcome, error) {
	ok, err := c.registry.AddMaintainer(ctx, chatID, url)
	return classify(ok, err, OutcomeAdded, OutcomeDuplicate)
}

func (c *Commands) RemoveMaintainer(ctx context.Context, chatID, url string) (Outcome, error) {
	ok, err := c.registry.RemoveMaintainer(ctx, chatID, url)
	return classify(ok, err, OutcomeRemoved, OutcomeNotFound)
}

// LinkIdentity verifies that the GitHub account declares the chat user's
// profile URL and records the link.
func (c *Commands) LinkIdentity(ctx context.Context, username, chatID string) (Outcome, error) {
	if !ValidUsername(username) || chatID == "" {
		return OutcomeInvalidFormat, nil
	}
	_, err := c.users.GetUserByChatID(ctx, chatID)
	switch {
	case err == nil:
		return OutcomeAlreadyLinked, nil
	case !errors.Is(err, apperror.ErrNotFound):
		return 0, err
	}

	if !c.resolver.Verify(ctx, username, chatID) {
		return OutcomeUnverified, nil
	}
	ok, err := c.users.CreateUser(ctx, chatID, username)
	return classify(ok, err, OutcomeAdded, OutcomeDuplicate)
}

func classify(ok bool, err error, success, failure Outcome) (Outcome, error) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return OutcomeInvalidFormat, nil
	case err != nil:
		return 0, err
	case ok:
		return success, nil
	default:
		return failure, nil
	}
}
