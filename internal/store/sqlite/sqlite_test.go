package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/gitcord/internal/apperror"
	"github.com/naka-gawa/gitcord/internal/domain"
)

// setupTestDB opens a fresh file-backed database under the test's temp dir.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "gitcord.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitcord.db")
	db, err := New(path)
	require.NoError(t, err)
	ok, err := db.CreateUser(context.Background(), "111", "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	u, err := db.GetUserByChatID(context.Background(), "111")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.GitHubUsername)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	ok, err := db.CreateUser(ctx, "111", "Alice")
	require.NoError(t, err)
	assert.True(t, ok)

	// Same chat id, and same username with different case, are both rejected.
	ok, err = db.CreateUser(ctx, "111", "someone")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = db.CreateUser(ctx, "222", "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	u, err := db.GetUserByGitHub(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "111", u.ChatID)
	assert.Equal(t, 0, u.Score)
	assert.False(t, u.LastSyncedAt.IsZero())

	_, err = db.GetUserByGitHub(ctx, "nobody")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = db.GetUserByChatID(ctx, "404")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAddScore(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	_, err := db.CreateUser(ctx, "999", "bob")
	require.NoError(t, err)

	require.NoError(t, db.AddScore(ctx, "999", 10))
	require.NoError(t, db.AddScore(ctx, "999", 5))
	u, err := db.GetUserByChatID(ctx, "999")
	require.NoError(t, err)
	assert.Equal(t, 15, u.Score)

	assert.ErrorIs(t, db.AddScore(ctx, "missing", 1), apperror.ErrNotFound)
}

func TestRecordActivity(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	_, err := db.CreateUser(ctx, "999", "bob")
	require.NoError(t, err)

	entry := domain.ActivityLogEntry{ActivityID: "ev-1:pr_merged", ActivityType: "pr_merged", ChatID: "999"}
	ok, err := db.RecordActivity(ctx, entry, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.RecordActivity(ctx, entry, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	u, err := db.GetUserByChatID(ctx, "999")
	require.NoError(t, err)
	assert.Equal(t, 10, u.Score)

	// An unknown user rolls the activity back so it can be retried once linked.
	orphan := domain.ActivityLogEntry{ActivityID: "ev-2:pr_merged", ActivityType: "pr_merged", ChatID: "nobody"}
	_, err = db.RecordActivity(ctx, orphan, 10)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = db.CreateUser(ctx, "nobody", "carol")
	require.NoError(t, err)
	ok, err = db.RecordActivity(ctx, orphan, 10)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListUsers_OrderedByScore(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	for _, u := range []struct{ id, login string; score int }{
		{"1", "low", 1}, {"2", "high", 30}, {"3", "mid", 12},
	} {
		_, err := db.CreateUser(ctx, u.id, u.login)
		require.NoError(t, err)
		require.NoError(t, db.AddScore(ctx, u.id, u.score))
	}
	users, err := db.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []string{"high", "mid", "low"},
		[]string{users[0].GitHubUsername, users[1].GitHubUsername, users[2].GitHubUsername})
}

func TestRepositoryLinks(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	link := &domain.RepositoryLink{URL: "https://github.com/acme/widget", Owner: "acme", Name: "widget", ChannelID: "C1"}
	ok, err := db.CreateRepositoryLink(ctx, link)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotZero(t, link.ID)

	dup := *link
	ok, err = db.CreateRepositoryLink(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, ok)

	// The same repository in another channel is a separate link.
	other := &domain.RepositoryLink{URL: link.URL, Owner: "acme", Name: "widget", ChannelID: "C2"}
	ok, err = db.CreateRepositoryLink(ctx, other)
	require.NoError(t, err)
	assert.True(t, ok)

	links, err := db.ListRepositoryLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	ok, err = db.DeleteRepositoryLink(ctx, link.URL, "C2")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = db.DeleteRepositoryLink(ctx, link.URL, "C2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCursor(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	link := &domain.RepositoryLink{URL: "https://github.com/acme/widget", Owner: "acme", Name: "widget", ChannelID: "C1"}
	_, err := db.CreateRepositoryLink(ctx, link)
	require.NoError(t, err)

	_, ok, err := db.GetCursor(ctx, link.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.UpdateCursor(ctx, link.ID, `W/"abc"`))
	cursor, ok, err := db.GetCursor(ctx, link.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `W/"abc"`, cursor)

	links, err := db.ListRepositoryLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, `W/"abc"`, links[0].Cursor)

	_, err = db.DeleteRepositoryLink(ctx, link.URL, "C1")
	require.NoError(t, err)
	assert.ErrorIs(t, db.UpdateCursor(ctx, link.ID, "x"), apperror.ErrNotFound)
	_, _, err = db.GetCursor(ctx, link.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMaintainers(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	url := "https://github.com/acme/widget"

	for _, id := range []string{"333", "111", "222"} {
		ok, err := db.CreateMaintainer(ctx, id, url)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := db.CreateMaintainer(ctx, "111", url)
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := db.ListMaintainers(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222", "333"}, ids)

	ok, err = db.DeleteMaintainer(ctx, "222", url)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = db.DeleteMaintainer(ctx, "222", url)
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err = db.ListMaintainers(ctx, "https://github.com/acme/other")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestProcessedEvents(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	processed, err := db.IsEventProcessed(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, processed)

	ok, err := db.MarkEventProcessed(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = db.MarkEventProcessed(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, ok)

	processed, err = db.IsEventProcessed(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, processed)
}
