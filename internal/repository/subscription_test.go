package repository

import (
	"context"
	"testing"
	"time"

	"vidtube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionRepository_Toggle(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	subscribed, err := repo.Toggle(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, subscribed)

	subscribers, err := repo.ListSubscribers(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, subscribers, 1)
	assert.Equal(t, "bob", subscribers[0].Username)
	assert.Equal(t, bob.Avatar.URL, subscribers[0].Avatar.URL)

	channels, err := repo.ListChannels(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "alice", channels[0].Username)

	subscribed, err = repo.Toggle(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, subscribed)

	subscribers, err = repo.ListSubscribers(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, subscribers)
	assert.NotNil(t, subscribers)
}

func TestWatchHistoryRepository_RecordMovesToFront(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewWatchHistoryRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	a := seedVideo(t, db, bob, "A", true, time.Now())
	b := seedVideo(t, db, bob, "B", true, time.Now())
	hidden := seedVideo(t, db, bob, "Hidden", false, time.Now())

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record(ctx, alice.ID, a.ID, base))
	require.NoError(t, repo.Record(ctx, alice.ID, b.ID, base.Add(time.Minute)))
	require.NoError(t, repo.Record(ctx, alice.ID, hidden.ID, base.Add(2*time.Minute)))

	videos, err := repo.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "B", videos[0].Title)

	require.NoError(t, repo.Record(ctx, alice.ID, a.ID, base.Add(5*time.Minute)))
	videos, err = repo.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "A", videos[0].Title)
	require.NotNil(t, videos[0].Owner)
	assert.Equal(t, "bob", videos[0].Owner.Username)

	var entries int64
	require.NoError(t, db.Model(&models.WatchHistoryEntry{}).Where("user_id = ?", alice.ID).Count(&entries).Error)
	assert.EqualValues(t, 3, entries)
}
