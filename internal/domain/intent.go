package domain

// Rule names the classification rule that produced an intent. Scoring rules
// double as the activity type recorded in the activity log.
type Rule string

const (
	RuleIssueAssigned  Rule = "issue_assigned"
	RuleIssueAvailable Rule = "issue_available"
	RuleIssueOpened    Rule = "issue_opened"
	RulePROpened       Rule = "pr_opened"
	RulePRMerged       Rule = "pr_merged"
	RulePRClosed       Rule = "pr_closed"
	RulePRReviewed     Rule = "pr_reviewed"
)

// Intent is a notification to publish, optionally carrying a score delta
// for ChatID.
type Intent struct {
	Rule   Rule   `json:"rule"`
	Text   string `json:"text"`
	ChatID string `json:"chat_id,omitempty"`
	Delta  int    `json:"delta,omitempty"`
}

// Scored reports whether the intent credits a user.
func (i Intent) Scored() bool {
	return i.ChatID != ""
}
