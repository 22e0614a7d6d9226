package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/naka-gawa/gitcord/internal/apperror"
	"github.com/naka-gawa/gitcord/internal/domain"
)

// CreateRepositoryLink inserts the link and fills in its ID. It returns
// false when the (url, channel) pair is already linked.
func (db *DB) CreateRepositoryLink(ctx context.Context, link *domain.RepositoryLink) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO repos (repo_url, owner, name, channel_id)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		link.URL, link.Owner, link.Name, link.ChannelID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: inserting repository link %s: %w", link.URL, err)
	}
	ok, err := affected(res)
	if err != nil || !ok {
		return false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("sqlite: reading repository link id: %w", err)
	}
	link.ID = id
	return true, nil
}

// DeleteRepositoryLink removes the link for url in channelID. It returns
// false when no such link exists.
func (db *DB) DeleteRepositoryLink(ctx context.Context, url, channelID string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM repos WHERE repo_url = ? AND channel_id = ?`, url, channelID)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting repository link %s: %w", url, err)
	}
	return affected(res)
}

// ListRepositoryLinks returns every linked repository.
func (db *DB) ListRepositoryLinks(ctx context.Context) ([]domain.RepositoryLink, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, repo_url, owner, name, channel_id, last_event_etag FROM repos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing repository links: %w", err)
	}
	defer rows.Close()

	links := []domain.RepositoryLink{}
	for rows.Next() {
		var (
			l      domain.RepositoryLink
			cursor sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.URL, &l.Owner, &l.Name, &l.ChannelID, &cursor); err != nil {
			return nil, fmt.Errorf("sqlite: scanning repository link: %w", err)
		}
		l.Cursor = cursor.String
		links = append(links, l)
	}
	return links, rows.Err()
}

// GetCursor returns the stored feed cursor of a link; ok is false when the
// link has never been fetched.
func (db *DB) GetCursor(ctx context.Context, linkID int64) (cursor string, ok bool, err error) {
	var c sql.NullString
	err = db.conn.QueryRowContext(ctx,
		`SELECT last_event_etag FROM repos WHERE id = ?`, linkID).Scan(&c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, apperror.NotFound("repository link", strconv.FormatInt(linkID, 10))
		}
		return "", false, fmt.Errorf("sqlite: reading cursor of link %d: %w", linkID, err)
	}
	return c.String, c.Valid && c.String != "", nil
}

// UpdateCursor stores the feed cursor for a link. A link removed while a
// cycle was in flight yields apperror.ErrNotFound.
func (db *DB) UpdateCursor(ctx context.Context, linkID int64, cursor string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE repos SET last_event_etag = ? WHERE id = ?`, cursor, linkID)
	if err != nil {
		return fmt.Errorf("sqlite: updating cursor of link %d: %w", linkID, err)
	}
	ok, err := affected(res)
	if err != nil {
		return fmt.Errorf("sqlite: updating cursor of link %d: %w", linkID, err)
	}
	if !ok {
		return apperror.NotFound("repository link", strconv.FormatInt(linkID, 10))
	}
	return nil
}

// CreateMaintainer returns false for a duplicate (chat, url) pair.
func (db *DB) CreateMaintainer(ctx context.Context, chatID, url string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO maintainers (chat_id, repo_url) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		chatID, url)
	if err != nil {
		return false, fmt.Errorf("sqlite: inserting maintainer %s for %s: %w", chatID, url, err)
	}
	return affected(res)
}

func (db *DB) DeleteMaintainer(ctx context.Context, chatID, url string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM maintainers WHERE chat_id = ? AND repo_url = ?`, chatID, url)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting maintainer %s for %s: %w", chatID, url, err)
	}
	return affected(res)
}

// ListMaintainers returns the chat ids of the repository's maintainers.
func (db *DB) ListMaintainers(ctx context.Context, url string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT chat_id FROM maintainers WHERE repo_url = ? ORDER BY chat_id`, url)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing maintainers of %s: %w", url, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning maintainer: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
