package service

import (
	"context"
	"strings"
	"testing"

	"vidtube/internal/models"
	"vidtube/internal/repository"
	"vidtube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPlaylistFixture(t *testing.T) (*gorm.DB, *PlaylistService, *models.User, *models.User) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	svc := NewPlaylistService(repository.NewPlaylistRepository(db), repository.NewVideoRepository(db))
	return db, svc, createUser(t, db, "owner"), createUser(t, db, "other")
}

func TestPlaylistService_Create(t *testing.T) {
	_, svc, owner, _ := newPlaylistFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePlaylistInput{OwnerID: owner.ID, Name: "  "})
	assertValidationError(t, err)

	_, err = svc.Create(ctx, CreatePlaylistInput{OwnerID: owner.ID, Name: strings.Repeat("n", 121)})
	assertValidationError(t, err)

	p, err := svc.Create(ctx, CreatePlaylistInput{OwnerID: owner.ID, Name: " Favourites "})
	require.NoError(t, err)
	assert.Equal(t, "Favourites", p.Name)
	assert.Equal(t, "", p.Description)
}

func TestPlaylistService_ChangeVideo(t *testing.T) {
	db, svc, owner, other := newPlaylistFixture(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, CreatePlaylistInput{OwnerID: owner.ID, Name: "mix"})
	require.NoError(t, err)
	first := createVideo(t, db, owner, "first", true)
	second := createVideo(t, db, other, "second", true)

	add := func(videoID uint) (*models.PlaylistDetail, error) {
		return svc.ChangeVideo(ctx, ChangePlaylistVideoInput{UserID: owner.ID, PlaylistID: p.ID, VideoID: videoID, Action: "add"})
	}

	_, err = add(first.ID)
	require.NoError(t, err)
	detail, err := add(second.ID)
	require.NoError(t, err)
	require.Len(t, detail.Videos, 2)
	assert.Equal(t, first.ID, detail.Videos[0].ID, "insertion order is kept")
	require.NotNil(t, detail.Videos[1].Owner)
	assert.Equal(t, "other", detail.Videos[1].Owner.Username)

	t.Run("adding twice is rejected", func(t *testing.T) {
		_, err := add(first.ID)
		assertAppError(t, err, models.CodeValidation, "Video already exists in playlist")
	})

	t.Run("adding a missing video", func(t *testing.T) {
		_, err := add(9999)
		assertAppError(t, err, models.CodeNotFound, "")
	})

	t.Run("another user's private video", func(t *testing.T) {
		hidden := createVideo(t, db, other, "hidden", false)
		_, err := add(hidden.ID)
		assertAppError(t, err, models.CodeNotFound, "")
	})

	t.Run("removing a non-member leaves membership untouched", func(t *testing.T) {
		third := createVideo(t, db, owner, "third", true)
		detail, err := svc.ChangeVideo(ctx, ChangePlaylistVideoInput{UserID: owner.ID, PlaylistID: p.ID, VideoID: third.ID, Action: "remove"})
		require.NoError(t, err)
		assert.Len(t, detail.Videos, 2)
	})

	t.Run("remove member", func(t *testing.T) {
		detail, err := svc.ChangeVideo(ctx, ChangePlaylistVideoInput{UserID: owner.ID, PlaylistID: p.ID, VideoID: first.ID, Action: "REMOVE"})
		require.NoError(t, err)
		require.Len(t, detail.Videos, 1)
		assert.Equal(t, second.ID, detail.Videos[0].ID)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := svc.ChangeVideo(ctx, ChangePlaylistVideoInput{UserID: owner.ID, PlaylistID: p.ID, VideoID: first.ID, Action: "toggle"})
		assertValidationError(t, err)
	})

	t.Run("not the owner", func(t *testing.T) {
		_, err := svc.ChangeVideo(ctx, ChangePlaylistVideoInput{UserID: other.ID, PlaylistID: p.ID, VideoID: first.ID, Action: "add"})
		assertAppError(t, err, models.CodeForbidden, "")
	})
}

func TestPlaylistService_UpdateAndDelete(t *testing.T) {
	_, svc, owner, other := newPlaylistFixture(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, CreatePlaylistInput{OwnerID: owner.ID, Name: "mix", Description: "old"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, UpdatePlaylistInput{UserID: owner.ID, PlaylistID: p.ID})
	assertValidationError(t, err)

	blank := " "
	_, err = svc.Update(ctx, UpdatePlaylistInput{UserID: owner.ID, PlaylistID: p.ID, Name: &blank})
	assertValidationError(t, err)

	desc := "new description"
	updated, err := svc.Update(ctx, UpdatePlaylistInput{UserID: owner.ID, PlaylistID: p.ID, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "mix", updated.Name, "name is untouched when not provided")
	assert.Equal(t, "new description", updated.Description)
	assert.NotNil(t, updated.Videos)

	err = svc.Delete(ctx, other.ID, p.ID)
	assertAppError(t, err, models.CodeForbidden, "")

	require.NoError(t, svc.Delete(ctx, owner.ID, p.ID))
	err = svc.Delete(ctx, owner.ID, p.ID)
	assertAppError(t, err, models.CodeNotFound, "")

	lists, err := svc.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, lists)
}
