// Package domain contains the core data structures and domain logic for the application.
package domain

// Standing is a single row of the contributor leaderboard.
type Standing struct {
	ChatID         string `json:"chat_id"`
	GitHubUsername string `json:"github_username"`
	Score          int    `json:"score"`
}

// Leaderboard holds every linked contributor ordered by score, highest first,
// together with summary statistics over all scores.
type Leaderboard struct {
	Standings []Standing `json:"standings"`
	Total     int        `json:"total"`
	Mean      float64    `json:"mean"`
	Median    float64    `json:"median"`
}
