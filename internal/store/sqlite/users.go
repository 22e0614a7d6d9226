package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/naka-gawa/gitcord/internal/apperror"
	"github.com/naka-gawa/gitcord/internal/domain"
)

const userColumns = `chat_id, github_username, score, last_synced_at`

// CreateUser inserts a new linked user with a zero score. It returns false
// when either the chat id or the GitHub username is already taken.
func (db *DB) CreateUser(ctx context.Context, chatID, githubUsername string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (chat_id, github_username, score, last_synced_at)
		 VALUES (?, ?, 0, ?)
		 ON CONFLICT DO NOTHING`,
		chatID, githubUsername, db.now(),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: inserting user %s: %w", chatID, err)
	}
	return affected(res)
}

// GetUserByChatID returns apperror.ErrNotFound when the chat user is not linked.
func (db *DB) GetUserByChatID(ctx context.Context, chatID string) (*domain.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE chat_id = ?`, chatID)
	return scanUser(row, chatID)
}

// GetUserByGitHub looks a user up by GitHub username, ignoring case.
func (db *DB) GetUserByGitHub(ctx context.Context, githubUsername string) (*domain.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_username = ? COLLATE NOCASE`, githubUsername)
	return scanUser(row, githubUsername)
}

// ListUsers returns every linked user, highest score first.
func (db *DB) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY score DESC, github_username ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ChatID, &u.GitHubUsername, &u.Score, &u.LastSyncedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// AddScore adds delta to the user's score.
func (db *DB) AddScore(ctx context.Context, chatID string, delta int) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET score = score + ?, last_synced_at = ? WHERE chat_id = ?`,
		delta, db.now(), chatID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating score for %s: %w", chatID, err)
	}
	ok, err := affected(res)
	if err != nil {
		return fmt.Errorf("sqlite: updating score for %s: %w", chatID, err)
	}
	if !ok {
		return apperror.NotFound("user", chatID)
	}
	return nil
}

// RecordActivity logs the activity and credits delta in one transaction.
// It returns false, leaving the score untouched, when the activity id has
// already been logged.
func (db *DB) RecordActivity(ctx context.Context, entry domain.ActivityLogEntry, delta int) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning activity transaction: %w", err)
	}
	defer tx.Rollback()

	ts := entry.Timestamp
	if ts.IsZero() {
		ts = db.now()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO activity_log (id, activity_type, chat_id, timestamp)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		entry.ActivityID, entry.ActivityType, entry.ChatID, ts,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: logging activity %s: %w", entry.ActivityID, err)
	}
	inserted, err := affected(res)
	if err != nil {
		return false, fmt.Errorf("sqlite: logging activity %s: %w", entry.ActivityID, err)
	}
	if !inserted {
		return false, nil
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE users SET score = score + ?, last_synced_at = ? WHERE chat_id = ?`,
		delta, db.now(), entry.ChatID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: updating score for %s: %w", entry.ChatID, err)
	}
	if ok, err := affected(res); err != nil {
		return false, fmt.Errorf("sqlite: updating score for %s: %w", entry.ChatID, err)
	} else if !ok {
		return false, apperror.NotFound("user", entry.ChatID)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing activity %s: %w", entry.ActivityID, err)
	}
	return true, nil
}

func scanUser(row *sql.Row, key string) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ChatID, &u.GitHubUsername, &u.Score, &u.LastSyncedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", key, err)
	}
	return &u, nil
}
