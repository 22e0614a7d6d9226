package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/gitcord/internal/domain"
)

// Leaderboard ranks every linked user by score.
func Leaderboard(ctx context.Context, users UserStore) (*domain.Leaderboard, error) {
	all, err := users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	board := &domain.Leaderboard{Standings: make([]domain.Standing, 0, len(all))}
	scores := make(stats.Float64Data, 0, len(all))
	for _, u := range all {
		board.Standings = append(board.Standings, domain.Standing{
			ChatID:         u.ChatID,
			GitHubUsername: u.GitHubUsername,
			Score:          u.Score,
		})
		scores = append(scores, float64(u.Score))
		board.Total += u.Score
	}
	sort.SliceStable(board.Standings, func(i, j int) bool {
		return board.Standings[i].Score > board.Standings[j].Score
	})
	if len(scores) == 0 {
		return board, nil
	}

	if board.Mean, err = scores.Mean(); err != nil {
		return nil, fmt.Errorf("failed to compute mean score: %w", err)
	}
	if board.Median, err = scores.Median(); err != nil {
		return nil, fmt.Errorf("failed to compute median score: %w", err)
	}
	return board, nil
}
